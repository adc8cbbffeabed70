package storage

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// ItemKey returns the object key for one image of a catalog item:
// vol{N}/item_{NNN}_{category}.jpg, or vol{N}/test_item_{n}_{category}.jpg for test runs.
func ItemKey(volume, item int, category string, test bool) string {
	if test {
		return fmt.Sprintf("vol%d/test_item_%d_%s.jpg", volume, item, category)
	}
	return fmt.Sprintf("vol%d/item_%03d_%s.jpg", volume, item, category)
}

// DetectContentType sniffs the MIME type of data from its magic bytes.
func DetectContentType(data []byte) string {
	return mimetype.Detect(data).String()
}

// ErrNotImage is returned when page data does not sniff as an image.
var ErrNotImage = errors.New("not an image")

// ImageContentType returns the sniffed MIME type of data, or ErrNotImage when
// the magic bytes are not those of an image (e.g. a truncated render).
func ImageContentType(data []byte) (string, error) {
	ct := DetectContentType(data)
	if !strings.HasPrefix(ct, "image/") {
		return ct, fmt.Errorf("%w: detected %s", ErrNotImage, ct)
	}
	return ct, nil
}

// Package pairing classifies rasterized catalog pages and groups them into items.
package pairing

import (
	"fmt"
	"os"
)

// Category labels a page of a two-page catalog spread.
type Category string

const (
	// Illustration is the oshigata page (blade rubbing with annotations).
	Illustration Category = "oshigata"
	// Description is the setsumei page (descriptive text).
	Description Category = "setsumei"
)

func (c Category) String() string { return string(c) }

// ThresholdKB is the size above which a 300 DPI page is treated as an illustration.
const ThresholdKB = 150

// ThresholdBytes is ThresholdKB expressed in bytes (1 KB = 1024 bytes).
const ThresholdBytes int64 = ThresholdKB * 1024

// Classify labels a page by its encoded size. Exactly ThresholdBytes is a description.
func Classify(size int64) Category {
	if size > ThresholdBytes {
		return Illustration
	}
	return Description
}

// ClassifyFile classifies the image at path.
func ClassifyFile(path string) (Category, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("classify %s: %w", path, err)
	}
	return Classify(info.Size()), nil
}

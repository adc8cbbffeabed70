package rasterize

import (
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// PageCount returns the number of pages in the PDF at path.
func PageCount(path string) (int, error) {
	n, err := api.PageCountFile(path)
	if err != nil {
		return 0, fmt.Errorf("pdf page count failed: %w", err)
	}
	return n, nil
}

// CheckRange verifies start..end lies inside the document.
func CheckRange(path string, start, end int) error {
	n, err := PageCount(path)
	if err != nil {
		return err
	}
	if start < 1 || end < start || end > n {
		return fmt.Errorf("page range %d-%d outside document %s (%d pages)", start, end, path, n)
	}
	return nil
}

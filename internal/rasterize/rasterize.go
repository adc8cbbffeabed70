// Package rasterize turns a page range of a source PDF into one JPEG file per page.
package rasterize

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// DefaultDPI is the resolution the page classifier threshold was calibrated against.
const DefaultDPI = 300

// Request describes one rasterization run.
type Request struct {
	Source string // PDF path
	Start  int    // first page, 1-based inclusive
	End    int    // last page, 1-based inclusive
	OutDir string
	Prefix string
	DPI    int
}

// Page is one rasterized page on local storage.
type Page struct {
	Path       string
	Index      int   // 0-based position in the listing
	PageNumber int   // 1-based page number in the source document
	Size       int64 // encoded size in bytes
}

// Rasterizer renders a page range to image files.
type Rasterizer interface {
	Name() string
	Rasterize(ctx context.Context, req Request) ([]Page, error)
}

func (r Request) withDefaults() Request {
	if r.DPI <= 0 {
		r.DPI = DefaultDPI
	}
	if r.Prefix == "" {
		r.Prefix = "page"
	}
	return r
}

func (r Request) validate() error {
	if r.Source == "" {
		return fmt.Errorf("rasterize: empty source path")
	}
	if r.Start < 1 || r.End < r.Start {
		return fmt.Errorf("rasterize: invalid page range %d-%d", r.Start, r.End)
	}
	if r.OutDir == "" {
		return fmt.Errorf("rasterize: empty output dir")
	}
	return nil
}

// prepareDir creates dir and removes JPEGs left by an earlier run so the
// listing only reflects the current range.
func prepareDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	old, err := filepath.Glob(filepath.Join(dir, "*.jpg"))
	if err != nil {
		return err
	}
	for _, p := range old {
		if err := os.Remove(p); err != nil {
			return fmt.Errorf("remove stale page %s: %w", p, err)
		}
	}
	return nil
}

// PageFileName names the JPEG for page the way pdftoppm does: the number is
// zero-padded to the digit count of the document's page total, so filename
// order matches page order.
func PageFileName(prefix string, page, pageCount int) string {
	width := len(strconv.Itoa(pageCount))
	return fmt.Sprintf("%s-%0*d.jpg", prefix, width, page)
}

// ListPages returns the JPEG files in dir sorted by filename. The page number
// of the i-th file is start+i.
func ListPages(dir string, start int) ([]Page, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(strings.ToLower(e.Name()), ".jpg") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	pages := make([]Page, 0, len(names))
	for i, name := range names {
		p := filepath.Join(dir, name)
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("stat page %s: %w", name, err)
		}
		pages = append(pages, Page{Path: p, Index: i, PageNumber: start + i, Size: info.Size()})
	}
	return pages, nil
}

// New returns the rasterizer for engine ("pdftoppm" or "fitz").
func New(engine, binary string, jpegQuality int) (Rasterizer, error) {
	switch strings.ToLower(engine) {
	case "", "pdftoppm":
		return NewPdftoppm(binary), nil
	case "fitz", "mupdf":
		return NewFitz(jpegQuality), nil
	default:
		return nil, fmt.Errorf("unsupported rasterizer %q", engine)
	}
}

package rasterize

import (
	"context"
	"fmt"
	"image/jpeg"
	"os"
	"path/filepath"

	fitz "github.com/gen2brain/go-fitz"
	"github.com/rs/zerolog/log"
)

// Fitz renders pages in-process with MuPDF via go-fitz.
type Fitz struct {
	Quality int
}

// NewFitz returns a go-fitz rasterizer encoding JPEGs at quality (default 90).
func NewFitz(quality int) *Fitz {
	if quality <= 0 || quality > 100 {
		quality = 90
	}
	return &Fitz{Quality: quality}
}

func (f *Fitz) Name() string { return "fitz" }

// Rasterize renders req.Start..req.End to <prefix>-N.jpg files, padded like pdftoppm.
func (f *Fitz) Rasterize(ctx context.Context, req Request) ([]Page, error) {
	req = req.withDefaults()
	if err := req.validate(); err != nil {
		return nil, err
	}
	if err := prepareDir(req.OutDir); err != nil {
		return nil, err
	}

	doc, err := fitz.New(req.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	if req.End > doc.NumPage() {
		return nil, fmt.Errorf("page %d out of range (document has %d pages)", req.End, doc.NumPage())
	}

	for page := req.Start; page <= req.End; page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		// go-fitz uses 0-based indexing
		img, err := doc.ImageDPI(page-1, float64(req.DPI))
		if err != nil {
			return nil, fmt.Errorf("failed to render page %d: %w", page, err)
		}

		out := filepath.Join(req.OutDir, PageFileName(req.Prefix, page, doc.NumPage()))
		fh, err := os.Create(out)
		if err != nil {
			return nil, err
		}
		err = jpeg.Encode(fh, img, &jpeg.Options{Quality: f.Quality})
		if cerr := fh.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return nil, fmt.Errorf("failed to encode page %d: %w", page, err)
		}

		b := img.Bounds()
		log.Debug().Int("page", page).Int("width", b.Dx()).Int("height", b.Dy()).Int("dpi", req.DPI).Msg("rendered page to JPEG")
	}

	return ListPages(req.OutDir, req.Start)
}

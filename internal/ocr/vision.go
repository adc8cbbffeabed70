// Package ocr extracts raw text from description page images.
package ocr

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"
	vision "google.golang.org/api/vision/v1"

	"github.com/local/juyozufu/internal/config"
)

// ErrNoText is returned when the image carries no detectable text.
var ErrNoText = errors.New("no text detected in image")

// Detector returns the full text found in an image.
type Detector interface {
	DetectText(ctx context.Context, image []byte) (string, error)
}

// Vision calls the Cloud Vision images:annotate endpoint with TEXT_DETECTION.
type Vision struct {
	svc   *vision.Service
	hints []string
}

// NewVision builds a client from cfg. An API key wins over a credentials file;
// with neither, Application Default Credentials are used.
func NewVision(ctx context.Context, cfg config.OCRConfig, opts ...option.ClientOption) (*Vision, error) {
	switch {
	case cfg.APIKey != "":
		opts = append([]option.ClientOption{option.WithAPIKey(cfg.APIKey)}, opts...)
	case cfg.CredentialsFile != "":
		opts = append([]option.ClientOption{option.WithCredentialsFile(cfg.CredentialsFile)}, opts...)
	}
	svc, err := vision.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create vision client: %w", err)
	}
	return &Vision{svc: svc, hints: cfg.LanguageHints}, nil
}

// DetectText returns the first annotation's description, which holds the full page text.
func (v *Vision) DetectText(ctx context.Context, image []byte) (string, error) {
	req := &vision.AnnotateImageRequest{
		Image:    &vision.Image{Content: base64.StdEncoding.EncodeToString(image)},
		Features: []*vision.Feature{{Type: "TEXT_DETECTION"}},
	}
	if len(v.hints) > 0 {
		req.ImageContext = &vision.ImageContext{LanguageHints: v.hints}
	}

	resp, err := v.svc.Images.Annotate(&vision.BatchAnnotateImagesRequest{
		Requests: []*vision.AnnotateImageRequest{req},
	}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("vision annotate: %w", err)
	}
	if len(resp.Responses) == 0 {
		return "", ErrNoText
	}

	r := resp.Responses[0]
	if r.Error != nil && r.Error.Message != "" {
		return "", fmt.Errorf("vision annotate: %s (code %d)", r.Error.Message, r.Error.Code)
	}
	if len(r.TextAnnotations) == 0 || r.TextAnnotations[0].Description == "" {
		return "", ErrNoText
	}

	text := r.TextAnnotations[0].Description
	log.Debug().Int("chars", len([]rune(text))).Msg("ocr text extracted")
	return text, nil
}

package rasterize

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Pdftoppm shells out to poppler's pdftoppm.
type Pdftoppm struct {
	Binary string

	// run is swapped in tests.
	run func(ctx context.Context, name string, args ...string) ([]byte, error)
}

// NewPdftoppm returns a Pdftoppm using binary (default "pdftoppm").
func NewPdftoppm(binary string) *Pdftoppm {
	if binary == "" {
		binary = "pdftoppm"
	}
	return &Pdftoppm{Binary: binary, run: runCommand}
}

func (p *Pdftoppm) Name() string { return "pdftoppm" }

// Args returns the pdftoppm argument list for req.
func (p *Pdftoppm) Args(req Request) []string {
	req = req.withDefaults()
	return []string{
		"-jpeg",
		"-r", strconv.Itoa(req.DPI),
		"-f", strconv.Itoa(req.Start),
		"-l", strconv.Itoa(req.End),
		req.Source,
		filepath.Join(req.OutDir, req.Prefix),
	}
}

// Rasterize runs pdftoppm over the range and lists the produced pages.
func (p *Pdftoppm) Rasterize(ctx context.Context, req Request) ([]Page, error) {
	req = req.withDefaults()
	if err := req.validate(); err != nil {
		return nil, err
	}
	if err := prepareDir(req.OutDir); err != nil {
		return nil, err
	}

	log.Info().Str("pdf", req.Source).Int("start", req.Start).Int("end", req.End).Int("dpi", req.DPI).Msg("extracting pages with pdftoppm")
	started := time.Now()
	out, err := p.run(ctx, p.Binary, p.Args(req)...)
	if err != nil {
		msg := strings.TrimSpace(string(out))
		if msg != "" {
			return nil, fmt.Errorf("pdftoppm failed: %w: %s", err, msg)
		}
		return nil, fmt.Errorf("pdftoppm failed: %w", err)
	}

	pages, err := ListPages(req.OutDir, req.Start)
	if err != nil {
		return nil, err
	}
	log.Info().Int("pages", len(pages)).Dur("took", time.Since(started)).Msg("pdftoppm finished")
	return pages, nil
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf
	err := cmd.Run()
	return buf.Bytes(), err
}

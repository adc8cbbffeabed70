// Package transcribe turns a stored description image into corrected Japanese
// text and an English Markdown translation.
package transcribe

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/local/juyozufu/internal/ai"
	"github.com/local/juyozufu/internal/catalog"
	"github.com/local/juyozufu/internal/config"
	"github.com/local/juyozufu/internal/metrics"
	"github.com/local/juyozufu/internal/ocr"
	"github.com/local/juyozufu/internal/report"
)

// Stage names, in execution order.
const (
	StageFetch     = "fetch"
	StageOCR       = "ocr"
	StageCorrect   = "correct"
	StageTranslate = "translate"
	StagePersist   = "persist"
)

// Repository is the catalog write used by the persist stage.
type Repository interface {
	UpdateTranslation(ctx context.Context, id int64, t catalog.Translation) error
}

// Models holds the per-stage completion parameters.
type Models struct {
	Correction  config.StageModel
	Translation config.StageModel
}

// Pipeline runs one item through fetch, ocr, correct, translate, persist.
type Pipeline struct {
	Fetcher   Fetcher
	OCR       ocr.Detector
	Completer ai.Client
	Repo      Repository
	Models    Models
	Sink      report.Sink
	Clock     func() time.Time
	TempDir   string
}

// Result is the per-item outcome handed back to the caller.
type Result struct {
	ItemID     int64
	Volume     int
	ItemNumber int
	Success    bool
	Err        error
}

// StageError records which stage aborted an item.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string { return e.Stage + ": " + e.Err.Error() }
func (e *StageError) Unwrap() error { return e.Err }

type state struct {
	item      catalog.Item
	imagePath string
	rawText   string
	corrected string
	english   string
}

type stage struct {
	name string
	run  func(context.Context, *state) error
}

func (p *Pipeline) stages() []stage {
	return []stage{
		{StageFetch, p.fetch},
		{StageOCR, p.detect},
		{StageCorrect, p.correct},
		{StageTranslate, p.translate},
		{StagePersist, p.persist},
	}
}

// Process runs every stage in order and stops at the first failure. The record
// is written only by the final stage; temporary image copies are always removed.
func (p *Pipeline) Process(ctx context.Context, item catalog.Item) Result {
	sink := report.OrDiscard(p.Sink)
	res := Result{ItemID: item.ID, Volume: item.Volume, ItemNumber: item.ItemNumber}

	st := &state{item: item}
	defer func() {
		if st.imagePath != "" {
			_ = os.Remove(st.imagePath)
		}
	}()

	for _, s := range p.stages() {
		sink.Emit(report.Event{Kind: report.StageStarted, Volume: item.Volume, Item: item.ItemNumber, ItemID: item.ID, Stage: s.name})
		if err := s.run(ctx, st); err != nil {
			res.Err = &StageError{Stage: s.name, Err: err}
			metrics.IncStageFailure(s.name)
			metrics.IncTranscription("failed")
			sink.Emit(report.Event{Kind: report.StageFailed, Volume: item.Volume, Item: item.ItemNumber, ItemID: item.ID, Stage: s.name, Err: err, Message: "stage failed"})
			return res
		}
	}

	res.Success = true
	metrics.IncTranscription("success")
	return res
}

func (p *Pipeline) fetch(ctx context.Context, st *state) error {
	data, err := p.Fetcher.Fetch(ctx, st.item.SetsumeiURL)
	if err != nil {
		return err
	}
	f, err := os.CreateTemp(p.TempDir, fmt.Sprintf("setsumei_%d_*.jpg", st.item.ID))
	if err != nil {
		return fmt.Errorf("create temp image: %w", err)
	}
	st.imagePath = f.Name()
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("write temp image: %w", err)
	}
	return f.Close()
}

func (p *Pipeline) detect(ctx context.Context, st *state) error {
	data, err := os.ReadFile(st.imagePath)
	if err != nil {
		return fmt.Errorf("read temp image: %w", err)
	}
	text, err := p.OCR.DetectText(ctx, data)
	if err != nil {
		return err
	}
	st.rawText = text
	return nil
}

func (p *Pipeline) correct(ctx context.Context, st *state) error {
	m := p.Models.Correction
	inline, err := p.imageForProvider(st)
	if err != nil {
		return err
	}
	resp, err := p.Completer.Do(ctx, ai.Request{
		Model:       m.Model,
		Prompt:      CorrectionPrompt(st.rawText),
		ImageURL:    st.item.SetsumeiURL,
		ImageMIME:   "image/jpeg",
		ImageData:   inline,
		MaxTokens:   m.MaxTokens,
		Temperature: m.Temperature,
		Title:       correctionTitle,
	})
	if err != nil {
		return err
	}
	st.corrected = resp.Text
	return nil
}

// imageForProvider loads inline bytes for providers that cannot fetch URLs.
func (p *Pipeline) imageForProvider(st *state) ([]byte, error) {
	if p.Completer == nil || p.Completer.Name() != "gemini" {
		return nil, nil
	}
	data, err := os.ReadFile(st.imagePath)
	if err != nil {
		return nil, fmt.Errorf("read temp image for inline upload: %w", err)
	}
	return data, nil
}

func (p *Pipeline) translate(ctx context.Context, st *state) error {
	m := p.Models.Translation
	resp, err := p.Completer.Do(ctx, ai.Request{
		Model:       m.Model,
		Prompt:      TranslationPrompt(st.corrected),
		MaxTokens:   m.MaxTokens,
		Temperature: m.Temperature,
		Title:       translationTitle,
	})
	if err != nil {
		return err
	}
	st.english = resp.Text
	return nil
}

func (p *Pipeline) persist(ctx context.Context, st *state) error {
	now := time.Now
	if p.Clock != nil {
		now = p.Clock
	}
	return p.Repo.UpdateTranslation(ctx, st.item.ID, catalog.Translation{
		Japanese:     st.corrected,
		English:      st.english,
		TranslatedAt: now().UTC(),
	})
}

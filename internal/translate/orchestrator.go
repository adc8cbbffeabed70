// Package translate runs the transcription pipeline over every untranslated catalog item.
package translate

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/local/juyozufu/internal/catalog"
	"github.com/local/juyozufu/internal/report"
	"github.com/local/juyozufu/internal/store"
	"github.com/local/juyozufu/internal/transcribe"
)

// DefaultDelay separates consecutive items to stay under provider rate limits.
const DefaultDelay = 2 * time.Second

// Repository supplies the work list.
type Repository interface {
	ListUntranslated(ctx context.Context) ([]catalog.Item, error)
}

// Processor transcribes one item.
type Processor interface {
	Process(ctx context.Context, item catalog.Item) transcribe.Result
}

type Orchestrator struct {
	Repo     Repository
	Pipeline Processor
	Delay    time.Duration
	Sleep    func(ctx context.Context, d time.Duration) error
	Sink     report.Sink
	Status   store.Recorder
	RunID    string
}

// Run processes items sequentially in (volume, item_number) order. Only a
// failure to load the work list is returned as an error; item failures are
// collected in the summary.
func (o *Orchestrator) Run(ctx context.Context) (report.TranslationSummary, error) {
	sink := report.OrDiscard(o.Sink)
	sleep := o.Sleep
	if sleep == nil {
		sleep = sleepContext
	}
	start := time.Now().UTC()
	status := store.Status{RunID: o.RunID, Kind: "translate", Status: store.StateQueued, Start: &start}
	o.record(ctx, status)

	items, err := o.Repo.ListUntranslated(ctx)
	if err != nil {
		status.Status, status.Message = store.StateFailed, err.Error()
		o.record(ctx, status)
		return report.TranslationSummary{}, fmt.Errorf("list untranslated items: %w", err)
	}

	summary := report.TranslationSummary{Total: len(items)}
	sink.Emit(report.Event{Kind: report.RunStarted, Count: len(items), Message: fmt.Sprintf("found %d items to translate", len(items))})

	status.Status, status.Total = store.StateProcessing, len(items)
	for i, item := range items {
		if i > 0 && o.Delay > 0 {
			if err := sleep(ctx, o.Delay); err != nil {
				end := time.Now().UTC()
				status.Status, status.Message, status.End = store.StateFailed, "interrupted: "+err.Error(), &end
				o.record(context.WithoutCancel(ctx), status)
				return summary, err
			}
		}

		res := o.Pipeline.Process(ctx, item)
		if res.Success {
			summary.Succeeded++
			sink.Emit(report.Event{Kind: report.ItemTranslated, Volume: res.Volume, Item: res.ItemNumber, ItemID: res.ItemID, Message: "translation complete"})
		} else {
			summary.Failed = append(summary.Failed, report.Failure{Volume: res.Volume, Item: res.ItemNumber, ItemID: res.ItemID, Message: errMessage(res.Err)})
			sink.Emit(report.Event{Kind: report.TranslationFailed, Volume: res.Volume, Item: res.ItemNumber, ItemID: res.ItemID, Err: res.Err, Message: "translation failed"})
		}

		status.Succeeded, status.Failed = summary.Succeeded, len(summary.Failed)
		status.Progress = store.Percent(i+1, len(items))
		o.record(ctx, status)
	}

	end := time.Now().UTC()
	status.Status, status.Progress, status.End = store.StateSuccess, 100, &end
	o.record(ctx, status)
	sink.Emit(report.Event{Kind: report.RunFinished, Count: summary.Succeeded, Message: fmt.Sprintf("%d/%d items translated", summary.Succeeded, summary.Total)})
	return summary, nil
}

func (o *Orchestrator) record(ctx context.Context, st store.Status) {
	if o.Status == nil || o.RunID == "" {
		return
	}
	if err := o.Status.Set(ctx, st); err != nil {
		log.Warn().Err(err).Str("run_id", o.RunID).Msg("failed to record run status")
	}
}

func errMessage(err error) string {
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

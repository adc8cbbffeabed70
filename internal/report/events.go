// Package report is the single emission point for run events and console summaries.
package report

import (
	"sync"

	"github.com/rs/zerolog"
)

// Kind identifies an event emitted by the extraction or translation runs.
type Kind string

const (
	VolumeStarted     Kind = "volume_started"
	PagesRasterized   Kind = "pages_rasterized"
	PairResolved      Kind = "pair_resolved"
	PairUndecidable   Kind = "pair_undecidable"
	PageDropped       Kind = "page_dropped"
	AssetUploaded     Kind = "asset_uploaded"
	ItemCreated       Kind = "item_created"
	ItemFailed        Kind = "item_failed"
	VolumeFinished    Kind = "volume_finished"
	RunStarted        Kind = "run_started"
	StageStarted      Kind = "stage_started"
	StageFailed       Kind = "stage_failed"
	ItemTranslated    Kind = "item_translated"
	TranslationFailed Kind = "translation_failed"
	RunFinished       Kind = "run_finished"
)

// Event is one structured progress record. Zero fields are omitted from logs.
type Event struct {
	Kind    Kind
	Volume  int
	Item    int
	ItemID  int64
	Pages   []int
	Stage   string
	Key     string
	Count   int
	Message string
	Err     error
}

// Sink receives events.
type Sink interface {
	Emit(Event)
}

// LogSink writes events to a zerolog logger.
type LogSink struct {
	Logger zerolog.Logger
}

func (s LogSink) Emit(ev Event) {
	var e *zerolog.Event
	switch ev.Kind {
	case PairUndecidable, PageDropped:
		e = s.Logger.Warn()
	case ItemFailed, StageFailed, TranslationFailed:
		e = s.Logger.Error().Err(ev.Err)
	case StageStarted, AssetUploaded:
		e = s.Logger.Debug()
	default:
		e = s.Logger.Info()
	}
	e = e.Str("event", string(ev.Kind))
	if ev.Volume != 0 {
		e = e.Int("volume", ev.Volume)
	}
	if ev.Item != 0 {
		e = e.Int("item", ev.Item)
	}
	if ev.ItemID != 0 {
		e = e.Int64("item_id", ev.ItemID)
	}
	if len(ev.Pages) > 0 {
		e = e.Ints("pages", ev.Pages)
	}
	if ev.Stage != "" {
		e = e.Str("stage", ev.Stage)
	}
	if ev.Key != "" {
		e = e.Str("key", ev.Key)
	}
	if ev.Count != 0 {
		e = e.Int("count", ev.Count)
	}
	msg := ev.Message
	if msg == "" {
		msg = string(ev.Kind)
	}
	e.Msg(msg)
}

// Recorder keeps events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Emit(ev Event) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

// Events returns a copy of everything recorded so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// OfKind filters recorded events.
func (r *Recorder) OfKind(k Kind) []Event {
	var out []Event
	for _, ev := range r.Events() {
		if ev.Kind == k {
			out = append(out, ev)
		}
	}
	return out
}

// Multi fans one event out to several sinks.
type Multi []Sink

func (m Multi) Emit(ev Event) {
	for _, s := range m {
		if s != nil {
			s.Emit(ev)
		}
	}
}

// Discard drops every event.
var Discard Sink = discard{}

type discard struct{}

func (discard) Emit(Event) {}

// OrDiscard returns s, or Discard when s is nil.
func OrDiscard(s Sink) Sink {
	if s == nil {
		return Discard
	}
	return s
}

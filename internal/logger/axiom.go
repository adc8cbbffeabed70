package logger

import (
	"context"
	"encoding/json"
	"time"

	"github.com/axiomhq/axiom-go/axiom"
	"github.com/axiomhq/axiom-go/axiom/ingest"
	"github.com/rs/zerolog"
)

const (
	axiomBatchSize  = 200
	axiomBufferSize = 1000
)

// axiomShipper is a zerolog.LevelWriter that queues info-and-above lines and
// ingests them in batches. A full buffer drops lines rather than blocking.
type axiomShipper struct {
	client  *axiom.Client
	dataset string
	events  chan axiom.Event
	stop    chan struct{}
	stopped chan struct{}
}

func newAxiomShipper(opts AxiomOptions, extra ...axiom.Option) (*axiomShipper, error) {
	clientOpts := []axiom.Option{axiom.SetToken(opts.Token)}
	if opts.OrgID != "" {
		clientOpts = append(clientOpts, axiom.SetOrganizationID(opts.OrgID))
	}
	c, err := axiom.NewClient(append(clientOpts, extra...)...)
	if err != nil {
		return nil, err
	}
	dataset := opts.Dataset
	if dataset == "" {
		dataset = "dev_" + serviceName
	}
	flush := opts.Flush
	if flush <= 0 {
		flush = 10 * time.Second
	}
	s := &axiomShipper{
		client:  c,
		dataset: dataset,
		events:  make(chan axiom.Event, axiomBufferSize),
		stop:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go s.run(flush)
	return s, nil
}

func (s *axiomShipper) Write(p []byte) (int, error) {
	return s.WriteLevel(zerolog.InfoLevel, p)
}

func (s *axiomShipper) WriteLevel(l zerolog.Level, p []byte) (int, error) {
	if l < zerolog.InfoLevel {
		return len(p), nil
	}
	ev := axiom.Event{}
	if err := json.Unmarshal(p, &ev); err != nil {
		ev = axiom.Event{"message": string(p), "level": l.String()}
	}
	if _, ok := ev[ingest.TimestampField]; !ok {
		ev[ingest.TimestampField] = time.Now()
	}
	select {
	case s.events <- ev:
	default:
	}
	return len(p), nil
}

func (s *axiomShipper) run(flushEvery time.Duration) {
	defer close(s.stopped)
	ticker := time.NewTicker(flushEvery)
	defer ticker.Stop()

	batch := make([]axiom.Event, 0, axiomBatchSize)
	send := func() {
		if len(batch) == 0 {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		_, _ = s.client.IngestEvents(ctx, s.dataset, batch)
		cancel()
		batch = batch[:0]
	}

	for {
		select {
		case ev := <-s.events:
			batch = append(batch, ev)
			if len(batch) >= axiomBatchSize {
				send()
			}
		case <-ticker.C:
			send()
		case <-s.stop:
			// a short CLI run usually ends before the first tick
			for {
				select {
				case ev := <-s.events:
					batch = append(batch, ev)
				default:
					send()
					return
				}
			}
		}
	}
}

// Close drains queued lines, sends the last batch and waits for it.
func (s *axiomShipper) Close() {
	close(s.stop)
	<-s.stopped
}

// Package extract turns a volume's page range into stored images and catalog rows.
package extract

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/local/juyozufu/internal/catalog"
	"github.com/local/juyozufu/internal/config"
	"github.com/local/juyozufu/internal/metrics"
	"github.com/local/juyozufu/internal/pairing"
	"github.com/local/juyozufu/internal/rasterize"
	"github.com/local/juyozufu/internal/report"
	"github.com/local/juyozufu/internal/storage"
)

// Repository creates catalog rows.
type Repository interface {
	Insert(ctx context.Context, n catalog.NewItem) (catalog.Item, error)
}

// Options narrow or redirect one volume run.
type Options struct {
	Start int // overrides the volume's first content page when > 0
	End   int // overrides the volume's last content page when > 0
	Test  bool
	Pairs []pairing.ManualPair // bypass classification when set
}

type Orchestrator struct {
	Rasterizer rasterize.Rasterizer
	Store      storage.AssetStore
	Repo       Repository
	Sink       report.Sink
	WorkDir    string
	DPI        int
	// CheckRange validates the page range against the source before rasterizing.
	CheckRange func(path string, start, end int) error
}

// Run processes one volume. Rasterization and pairing errors are returned;
// per-item upload or insert failures are recorded in the summary and skipped.
func (o *Orchestrator) Run(ctx context.Context, vol config.Volume, opts Options) (report.VolumeSummary, error) {
	summary := report.VolumeSummary{Volume: vol.Number}
	tally := &tallySink{next: report.OrDiscard(o.Sink)}

	start, end := vol.ContentStart, vol.ContentEnd
	if opts.Start > 0 {
		start = opts.Start
	}
	if opts.End > 0 {
		end = opts.End
	}
	tally.Emit(report.Event{Kind: report.VolumeStarted, Volume: vol.Number, Pages: []int{start, end}, Message: fmt.Sprintf("processing volume %d", vol.Number)})

	if o.CheckRange != nil {
		if err := o.CheckRange(vol.Filename, start, end); err != nil {
			return summary, fmt.Errorf("volume %d: %w", vol.Number, err)
		}
	}

	pages, err := o.Rasterizer.Rasterize(ctx, rasterize.Request{
		Source: vol.Filename,
		Start:  start,
		End:    end,
		OutDir: o.volumeDir(vol.Number, opts.Test),
		Prefix: "page",
		DPI:    o.DPI,
	})
	if err != nil {
		return summary, fmt.Errorf("volume %d: %w", vol.Number, err)
	}
	summary.Pages = len(pages)
	metrics.AddPagesRasterized(strconv.Itoa(vol.Number), len(pages))
	tally.Emit(report.Event{Kind: report.PagesRasterized, Volume: vol.Number, Count: len(pages), Message: fmt.Sprintf("extracted %d pages", len(pages))})

	var items []pairing.Item
	if len(opts.Pairs) > 0 {
		if items, err = pairing.FromPairs(pages, opts.Pairs); err != nil {
			return summary, fmt.Errorf("volume %d: %w", vol.Number, err)
		}
	} else {
		items = pairing.Resolve(vol.Number, pages, tally)
	}
	summary.Undecidable, summary.Dropped = tally.undecidable, tally.dropped

	for _, it := range items {
		// Numbers advance only on success so stored rows stay dense.
		number := summary.Created + 1
		if _, err := o.createItem(ctx, tally, vol.Number, number, it, opts.Test); err != nil {
			metrics.IncItem("failed")
			summary.Failed = append(summary.Failed, report.Failure{Volume: vol.Number, Item: number, Message: err.Error()})
			tally.Emit(report.Event{Kind: report.ItemFailed, Volume: vol.Number, Item: number, Err: err, Message: "item skipped"})
			continue
		}
		metrics.IncItem("success")
		summary.Created++
	}

	tally.Emit(report.Event{Kind: report.VolumeFinished, Volume: vol.Number, Count: summary.Created, Message: fmt.Sprintf("volume %d complete: %d items processed", vol.Number, summary.Created)})
	return summary, nil
}

func (o *Orchestrator) volumeDir(volume int, test bool) string {
	name := fmt.Sprintf("vol%d", volume)
	if test {
		name += "_test"
	}
	return filepath.Join(o.WorkDir, name)
}

// createItem uploads the illustration then the description and inserts the row.
func (o *Orchestrator) createItem(ctx context.Context, sink report.Sink, volume, number int, it pairing.Item, test bool) (catalog.Item, error) {
	urls := make(map[pairing.Category]string, 2)
	for _, cat := range []pairing.Category{pairing.Illustration, pairing.Description} {
		page := it.Page(cat)
		data, err := os.ReadFile(page.Path)
		if err != nil {
			return catalog.Item{}, fmt.Errorf("read page %d: %w", page.PageNumber, err)
		}
		contentType, err := storage.ImageContentType(data)
		if err != nil {
			return catalog.Item{}, fmt.Errorf("page %d: %w", page.PageNumber, err)
		}
		key := storage.ItemKey(volume, number, cat.String(), test)
		if err := o.Store.Upload(ctx, key, data, contentType); err != nil {
			return catalog.Item{}, fmt.Errorf("upload %s: %w", key, err)
		}
		urls[cat] = o.Store.PublicURL(key)
		sink.Emit(report.Event{Kind: report.AssetUploaded, Volume: volume, Item: number, Key: key, Pages: []int{page.PageNumber}})
	}

	row, err := o.Repo.Insert(ctx, catalog.NewItem{
		Volume:          volume,
		ItemNumber:      number,
		OshigataURL:     urls[pairing.Illustration],
		SetsumeiURL:     urls[pairing.Description],
		PDFPageOshigata: it.Illustration.PageNumber,
		PDFPageSetsumei: it.Description.PageNumber,
	})
	if err != nil {
		return catalog.Item{}, err
	}
	sink.Emit(report.Event{Kind: report.ItemCreated, Volume: volume, Item: number, ItemID: row.ID,
		Pages: []int{it.Illustration.PageNumber, it.Description.PageNumber}, Message: fmt.Sprintf("vol%d item%d created", volume, number)})
	return row, nil
}

// tallySink counts pairing outcomes while forwarding every event.
type tallySink struct {
	next        report.Sink
	undecidable int
	dropped     int
}

func (t *tallySink) Emit(ev report.Event) {
	switch ev.Kind {
	case report.PairResolved:
		metrics.IncPair("resolved")
	case report.PairUndecidable:
		t.undecidable++
		metrics.IncPair("undecidable")
	case report.PageDropped:
		t.dropped++
		metrics.IncPair("dropped")
	}
	t.next.Emit(ev)
}

package pairing

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/local/juyozufu/internal/rasterize"
	"github.com/local/juyozufu/internal/report"
)

// Item is one resolved catalog entry: an illustration page and its description page.
type Item struct {
	Number       int // 1-based, dense over resolved pairs
	Illustration rasterize.Page
	Description  rasterize.Page
}

// Page returns the page occupying slot c.
func (it Item) Page(c Category) rasterize.Page {
	if c == Illustration {
		return it.Illustration
	}
	return it.Description
}

// Resolve walks pages two at a time in document order. Pairs whose pages share a
// category are skipped and reported; a trailing unpaired page is dropped.
func Resolve(volume int, pages []rasterize.Page, sink report.Sink) []Item {
	sink = report.OrDiscard(sink)
	var items []Item
	next := 1

	for i := 0; i+1 < len(pages); i += 2 {
		a, b := pages[i], pages[i+1]
		ca, cb := Classify(a.Size), Classify(b.Size)

		var it Item
		switch {
		case ca == Illustration && cb == Description:
			it = Item{Illustration: a, Description: b}
		case ca == Description && cb == Illustration:
			it = Item{Illustration: b, Description: a}
		default:
			sink.Emit(report.Event{
				Kind:    report.PairUndecidable,
				Volume:  volume,
				Pages:   []int{a.PageNumber, b.PageNumber},
				Message: fmt.Sprintf("could not determine page types (both %s), skipping", ca),
			})
			continue
		}

		it.Number = next
		next++
		sink.Emit(report.Event{
			Kind:    report.PairResolved,
			Volume:  volume,
			Item:    it.Number,
			Pages:   []int{it.Illustration.PageNumber, it.Description.PageNumber},
			Message: fmt.Sprintf("%s -> %s, %s -> %s", pageLabel(a), ca, pageLabel(b), cb),
		})
		items = append(items, it)
	}

	if len(pages)%2 == 1 {
		last := pages[len(pages)-1]
		sink.Emit(report.Event{Kind: report.PageDropped, Volume: volume, Pages: []int{last.PageNumber}, Message: "unpaired trailing page dropped"})
	}
	return items
}

func pageLabel(p rasterize.Page) string {
	return fmt.Sprintf("page %d (%dKB)", p.PageNumber, p.Size/1024)
}

// ManualPair fixes the source page numbers of one item without classifying.
type ManualPair struct {
	Illustration int
	Description  int
}

// ParseManualPair parses "illustration:description", e.g. "5:6".
func ParseManualPair(s string) (ManualPair, error) {
	left, right, ok := strings.Cut(s, ":")
	if !ok {
		return ManualPair{}, fmt.Errorf("manual pair %q: want oshigata:setsumei page numbers", s)
	}
	il, err := strconv.Atoi(strings.TrimSpace(left))
	if err != nil {
		return ManualPair{}, fmt.Errorf("manual pair %q: %w", s, err)
	}
	de, err := strconv.Atoi(strings.TrimSpace(right))
	if err != nil {
		return ManualPair{}, fmt.Errorf("manual pair %q: %w", s, err)
	}
	if il == de || il < 1 || de < 1 {
		return ManualPair{}, fmt.Errorf("manual pair %q: pages must be distinct and positive", s)
	}
	return ManualPair{Illustration: il, Description: de}, nil
}

// FromPairs builds items from manual pairs, numbered in the order given.
func FromPairs(pages []rasterize.Page, pairs []ManualPair) ([]Item, error) {
	byNumber := make(map[int]rasterize.Page, len(pages))
	for _, p := range pages {
		byNumber[p.PageNumber] = p
	}
	items := make([]Item, 0, len(pairs))
	for i, mp := range pairs {
		il, ok := byNumber[mp.Illustration]
		if !ok {
			return nil, fmt.Errorf("manual pair %d: page %d was not rasterized", i+1, mp.Illustration)
		}
		de, ok := byNumber[mp.Description]
		if !ok {
			return nil, fmt.Errorf("manual pair %d: page %d was not rasterized", i+1, mp.Description)
		}
		items = append(items, Item{Number: i + 1, Illustration: il, Description: de})
	}
	return items, nil
}

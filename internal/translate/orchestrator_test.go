package translate

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/local/juyozufu/internal/ai"
	"github.com/local/juyozufu/internal/catalog"
	"github.com/local/juyozufu/internal/config"
	"github.com/local/juyozufu/internal/ocr"
	"github.com/local/juyozufu/internal/report"
	"github.com/local/juyozufu/internal/store"
	"github.com/local/juyozufu/internal/transcribe"
)

type fakeFetcher struct{}

func (fakeFetcher) Fetch(_ context.Context, url string) ([]byte, error) { return []byte(url), nil }

// urlOCR fails for one image URL and succeeds for the rest.
type urlOCR struct{ blank string }

func (o urlOCR) DetectText(_ context.Context, image []byte) (string, error) {
	if string(image) == o.blank {
		return "", ocr.ErrNoText
	}
	return "raw " + string(image), nil
}

type echoCompleter struct{}

func (echoCompleter) Name() string { return "echo" }
func (echoCompleter) Do(_ context.Context, req ai.Request) (ai.Response, error) {
	return ai.Response{Text: "out:" + req.Model}, nil
}

type recordingStatus struct {
	states  []store.Status
	ctxErrs []error
}

func (r *recordingStatus) Set(ctx context.Context, st store.Status) error {
	r.states = append(r.states, st)
	r.ctxErrs = append(r.ctxErrs, ctx.Err())
	return nil
}

func openRepo(t *testing.T) *catalog.Repository {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, catalog.Migrate(context.Background(), db, catalog.DriverSQLite))
	return catalog.NewRepository(db)
}

func seed(t *testing.T, repo *catalog.Repository, volume, number int) catalog.Item {
	t.Helper()
	it, err := repo.Insert(context.Background(), catalog.NewItem{
		Volume: volume, ItemNumber: number,
		OshigataURL:     "https://cdn.example/o.jpg",
		SetsumeiURL:     "https://cdn.example/" + string(rune('a'+volume)) + string(rune('0'+number)) + ".jpg",
		PDFPageOshigata: 5, PDFPageSetsumei: 6,
	})
	require.NoError(t, err)
	return it
}

func TestRun_OneOCRFailureOutOfThree(t *testing.T) {
	ctx := context.Background()
	repo := openRepo(t)
	first := seed(t, repo, 1, 1)
	broken := seed(t, repo, 1, 2)
	third := seed(t, repo, 2, 1)

	pipeline := &transcribe.Pipeline{
		Fetcher:   fakeFetcher{},
		OCR:       urlOCR{blank: broken.SetsumeiURL},
		Completer: echoCompleter{},
		Repo:      repo,
		Models: transcribe.Models{
			Correction:  config.StageModel{Model: "vision"},
			Translation: config.StageModel{Model: "text"},
		},
		TempDir: t.TempDir(),
	}

	var sleeps []time.Duration
	status := &recordingStatus{}
	rec := &report.Recorder{}
	o := &Orchestrator{
		Repo:     repo,
		Pipeline: pipeline,
		Delay:    DefaultDelay,
		Sleep: func(_ context.Context, d time.Duration) error {
			sleeps = append(sleeps, d)
			return nil
		},
		Sink:   rec,
		Status: status,
		RunID:  "run-1",
	}

	summary, err := o.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 2, summary.Succeeded)
	require.Len(t, summary.Failed, 1)
	assert.Equal(t, 1, summary.Failed[0].Volume)
	assert.Equal(t, 2, summary.Failed[0].Item)
	assert.Contains(t, summary.Failed[0].Message, "no text detected")

	// delay between items only
	assert.Equal(t, []time.Duration{DefaultDelay, DefaultDelay}, sleeps)

	for _, id := range []int64{first.ID, third.ID} {
		got, err := repo.Get(ctx, id)
		require.NoError(t, err)
		assert.True(t, got.TranslatedAt.Valid)
		assert.Equal(t, "out:text", got.SetsumeiEnglish.String)
		assert.Equal(t, "out:vision", got.SetsumeiJapanese.String)
	}
	untouched, err := repo.Get(ctx, broken.ID)
	require.NoError(t, err)
	assert.False(t, untouched.Translated())
	assert.False(t, untouched.SetsumeiJapanese.Valid)

	assert.Len(t, rec.OfKind(report.ItemTranslated), 2)
	assert.Len(t, rec.OfKind(report.TranslationFailed), 1)

	require.NotEmpty(t, status.states)
	last := status.states[len(status.states)-1]
	assert.Equal(t, store.StateSuccess, last.Status)
	assert.Equal(t, 2, last.Succeeded)
	assert.Equal(t, 1, last.Failed)
	assert.NotNil(t, last.End)

	// a second run finds only the failed item
	pending, err := repo.ListUntranslated(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, broken.ID, pending[0].ID)
}

type failingRepo struct{}

func (failingRepo) ListUntranslated(context.Context) ([]catalog.Item, error) {
	return nil, errors.New("connection refused")
}

func TestRun_WorkListFailureIsFatal(t *testing.T) {
	status := &recordingStatus{}
	o := &Orchestrator{Repo: failingRepo{}, Status: status, RunID: "run-2"}
	_, err := o.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
	assert.Equal(t, store.StateFailed, status.states[len(status.states)-1].Status)
}

func TestRun_NoItems(t *testing.T) {
	o := &Orchestrator{Repo: openRepo(t), Sleep: func(context.Context, time.Duration) error {
		t.Fatal("no delay expected")
		return nil
	}, Delay: DefaultDelay}
	summary, err := o.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, summary.Total)
}

func TestRun_CancelledDuringDelay(t *testing.T) {
	repo := openRepo(t)
	seed(t, repo, 1, 1)
	seed(t, repo, 1, 2)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	status := &recordingStatus{}
	o := &Orchestrator{
		Repo: repo,
		Pipeline: processorFunc(func(_ context.Context, it catalog.Item) transcribe.Result {
			cancel()
			return transcribe.Result{ItemID: it.ID, Success: true}
		}),
		Delay:  time.Hour,
		Status: status,
		RunID:  "run-cancel",
	}
	summary, err := o.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, summary.Succeeded)

	require.NotEmpty(t, status.states)
	last := status.states[len(status.states)-1]
	assert.Equal(t, store.StateFailed, last.Status)
	assert.Contains(t, last.Message, "context canceled")
	assert.Equal(t, 1, last.Succeeded)
	require.NotNil(t, last.End)
	assert.NoError(t, status.ctxErrs[len(status.ctxErrs)-1])
}

type processorFunc func(context.Context, catalog.Item) transcribe.Result

func (f processorFunc) Process(ctx context.Context, it catalog.Item) transcribe.Result { return f(ctx, it) }

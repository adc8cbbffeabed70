package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "juyozufu"

var (
	pagesRasterized = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pages_rasterized_total",
			Help:      "Total pages rasterized by volume",
		},
		[]string{"volume"},
	)

	pairs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pairs_total",
			Help:      "Page pairing decisions by result (resolved, undecidable, dropped)",
		},
		[]string{"result"},
	)

	itemsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "items_created_total",
			Help:      "Catalog items by result (success, failed)",
		},
		[]string{"result"},
	)

	transcriptions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transcriptions_total",
			Help:      "Transcription pipeline outcomes by result (success, failed)",
		},
		[]string{"result"},
	)

	providerReqs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_requests_total",
			Help:      "Total provider requests by provider, model and result",
		},
		[]string{"provider", "model", "result"},
	)

	providerLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "provider_request_duration_seconds",
			Help:      "Duration of provider requests by provider and model",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80, 160},
		},
		[]string{"provider", "model"},
	)

	stageFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stage_failures_total",
			Help:      "Transcription stage failures by stage",
		},
		[]string{"stage"},
	)
)

var once sync.Once

// Init registers collectors. Safe to call more than once.
func Init() {
	once.Do(func() {
		prometheus.MustRegister(pagesRasterized, pairs, itemsCreated, transcriptions, providerReqs, providerLatency, stageFailures)
	})
}

// Handler returns the http.Handler for /metrics
func Handler() http.Handler { return promhttp.Handler() }

func AddPagesRasterized(volume string, n int) { pagesRasterized.WithLabelValues(volume).Add(float64(n)) }
func IncPair(result string)                   { pairs.WithLabelValues(result).Inc() }
func IncItem(result string)                   { itemsCreated.WithLabelValues(result).Inc() }
func IncTranscription(result string)          { transcriptions.WithLabelValues(result).Inc() }
func IncStageFailure(stage string)            { stageFailures.WithLabelValues(stage).Inc() }

func ObserveProvider(provider, model, result string, dur time.Duration) {
	providerReqs.WithLabelValues(provider, model, result).Inc()
	providerLatency.WithLabelValues(provider, model).Observe(dur.Seconds())
}

// Result maps an error to the success/failed label pair used by the counters.
func Result(err error) string {
	if err != nil {
		return "failed"
	}
	return "success"
}

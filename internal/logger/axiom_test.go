package logger

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/axiomhq/axiom-go/axiom"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAxiomShipper_WriteLevelFiltersDebug(t *testing.T) {
	s := &axiomShipper{events: make(chan axiom.Event, 4)}

	_, _ = s.WriteLevel(zerolog.DebugLevel, []byte(`{"level":"debug","message":"noise"}`))
	assert.Len(t, s.events, 0)

	n, err := s.WriteLevel(zerolog.InfoLevel, []byte(`{"level":"info","message":"volume started"}`))
	require.NoError(t, err)
	assert.Equal(t, 43, n)
	_, _ = s.Write([]byte("not json"))
	require.Len(t, s.events, 2)

	ev := <-s.events
	assert.Equal(t, "volume started", ev["message"])
	assert.Contains(t, ev, "_time")
	ev = <-s.events
	assert.Equal(t, "not json", ev["message"])
}

func TestAxiomShipper_FlushesOnClose(t *testing.T) {
	var mu sync.Mutex
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.URL.Path)
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ingested":1,"failed":0,"failures":[],"processedBytes":10,"blocksCreated":0,"walLength":1}`))
	}))
	defer srv.Close()

	s, err := newAxiomShipper(AxiomOptions{Token: "xaat-test-token", Dataset: "juyozufu-test"},
		axiom.SetURL(srv.URL), axiom.SetClient(srv.Client()))
	require.NoError(t, err)

	_, _ = s.WriteLevel(zerolog.InfoLevel, []byte(`{"level":"info","message":"volume started"}`))
	s.Close()

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, paths)
	assert.True(t, strings.Contains(paths[0], "juyozufu-test"), paths[0])
}

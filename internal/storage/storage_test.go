package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/local/juyozufu/internal/config"
)

var jpegHeader = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}

func TestItemKey(t *testing.T) {
	assert.Equal(t, "vol1/item_001_oshigata.jpg", ItemKey(1, 1, "oshigata", false))
	assert.Equal(t, "vol12/item_123_setsumei.jpg", ItemKey(12, 123, "setsumei", false))
	assert.Equal(t, "vol2/item_1000_setsumei.jpg", ItemKey(2, 1000, "setsumei", false))
	assert.Equal(t, "vol1/test_item_2_oshigata.jpg", ItemKey(1, 2, "oshigata", true))
}

func TestDetectContentType(t *testing.T) {
	assert.Equal(t, "image/jpeg", DetectContentType(jpegHeader))
}

func TestImageContentType(t *testing.T) {
	ct, err := ImageContentType(jpegHeader)
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", ct)

	_, err = ImageContentType(make([]byte, 64))
	assert.ErrorIs(t, err, ErrNotImage)

	_, err = ImageContentType([]byte("%PDF-1.7\n"))
	assert.ErrorIs(t, err, ErrNotImage)
}

type putRecord struct {
	path        string
	contentType string
	body        []byte
}

func fakeS3(t *testing.T) (*httptest.Server, *[]putRecord) {
	t.Helper()
	var mu sync.Mutex
	var puts []putRecord
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		puts = append(puts, putRecord{path: r.URL.Path, contentType: r.Header.Get("Content-Type"), body: body})
		mu.Unlock()
		w.Header().Set("ETag", `"abc"`)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)
	return srv, &puts
}

func TestS3Store_UploadAndPublicURL(t *testing.T) {
	srv, puts := fakeS3(t)

	store, err := NewS3Store(context.Background(), config.StorageConfig{
		Bucket:          "nihonto-images",
		Endpoint:        srv.URL,
		Region:          "us-east-1",
		AccessKeyID:     "ref",
		SecretAccessKey: "secret",
		PublicBaseURL:   "https://ref.supabase.co/storage/v1/object/public/nihonto-images/",
		UsePathStyle:    true,
	})
	require.NoError(t, err)

	key := ItemKey(1, 7, "setsumei", false)
	require.NoError(t, store.Upload(context.Background(), key, jpegHeader, ""))
	require.NoError(t, store.Upload(context.Background(), key, jpegHeader, "image/jpeg"))

	require.Len(t, *puts, 2)
	assert.Equal(t, "/nihonto-images/vol1/item_007_setsumei.jpg", (*puts)[0].path)
	assert.Equal(t, "image/jpeg", (*puts)[0].contentType)
	assert.Equal(t, jpegHeader, (*puts)[1].body)

	assert.Equal(t, "https://ref.supabase.co/storage/v1/object/public/nihonto-images/vol1/item_007_setsumei.jpg", store.PublicURL(key))
}

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_DerivesSupabaseDefaults(t *testing.T) {
	t.Setenv("SUPABASE_URL", "https://abcd1234.supabase.co/")
	t.Setenv("SUPABASE_SERVICE_ROLE_KEY", "service-key")
	t.Setenv("SUPABASE_DB_PASSWORD", "pw")

	cfg := FromEnv()

	assert.Equal(t, "https://abcd1234.supabase.co", cfg.Supabase.URL)
	assert.Equal(t, "abcd1234", cfg.Supabase.ProjectRef())
	assert.Equal(t, "https://abcd1234.supabase.co/storage/v1/s3", cfg.Storage.Endpoint)
	assert.Equal(t, "https://abcd1234.supabase.co/storage/v1/object/public/nihonto-images", cfg.Storage.PublicBaseURL)
	assert.Equal(t, "abcd1234", cfg.Storage.AccessKeyID)
	assert.Equal(t, "postgres.abcd1234", cfg.Database.User)
	assert.Equal(t, 6543, cfg.Database.Port)
	assert.Equal(t, 2*time.Second, cfg.Pipeline.ItemDelay)
	assert.Equal(t, 300, cfg.Rasterizer.DPI)
	assert.Equal(t, 4000, cfg.Completion.Correction.MaxTokens)
	assert.InDelta(t, 0.1, cfg.Completion.Correction.Temperature, 1e-9)
	assert.Equal(t, 8000, cfg.Completion.Translation.MaxTokens)
	assert.InDelta(t, 0.3, cfg.Completion.Translation.Temperature, 1e-9)
}

func TestValidate_ReportsEveryMissingValue(t *testing.T) {
	cfg := Config{}
	cfg.Database.Driver = "postgres"

	err := cfg.Validate(NeedSupabaseURL, NeedServiceKey, NeedDatabase, NeedCompletionKey)

	var missing *MissingError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, []string{"SUPABASE_URL", "SUPABASE_SERVICE_ROLE_KEY", "SUPABASE_DB_PASSWORD", "OPENROUTER_API_KEY"}, missing.Vars)
}

func TestValidate_NamesSelectedProviderKey(t *testing.T) {
	cfg := Config{}
	cfg.Completion.Provider = "anthropic"

	err := cfg.Validate(NeedCompletionKey)

	var missing *MissingError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, []string{"ANTHROPIC_API_KEY"}, missing.Vars)
}

func TestValidate_SQLiteNeedsNoPassword(t *testing.T) {
	cfg := Config{}
	cfg.Database.Driver = "sqlite3"
	assert.NoError(t, cfg.Validate(NeedDatabase))
}

func TestLoadManifest(t *testing.T) {
	t.Run("missing file falls back to defaults", func(t *testing.T) {
		m, err := LoadManifest(filepath.Join(t.TempDir(), "nope.yaml"))
		require.NoError(t, err)
		assert.Equal(t, DefaultVolumes, m.Volumes)
	})

	t.Run("parses volumes", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "volumes.yaml")
		body := "volumes:\n  - number: 3\n    filename: data/3.pdf\n    content_start: 7\n    content_end: 90\n"
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

		m, err := LoadManifest(path)
		require.NoError(t, err)
		v, ok := m.Find(3)
		require.True(t, ok)
		assert.Equal(t, Volume{Number: 3, Filename: "data/3.pdf", ContentStart: 7, ContentEnd: 90}, v)
	})

	t.Run("rejects inverted range", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "volumes.yaml")
		body := "volumes:\n  - number: 1\n    filename: a.pdf\n    content_start: 9\n    content_end: 4\n"
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

		_, err := LoadManifest(path)
		assert.Error(t, err)
	})
}

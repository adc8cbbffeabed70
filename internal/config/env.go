package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// LoggingConfig holds logging-related configuration.
type LoggingConfig struct {
	Level      string
	Pretty     bool
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// AxiomConfig holds Axiom logging configuration.
type AxiomConfig struct {
	Send          bool
	APIKey        string
	OrgID         string
	Dataset       string
	FlushInterval time.Duration
}

// SupabaseConfig identifies the hosted project that backs storage and the catalog.
type SupabaseConfig struct {
	URL            string
	ServiceRoleKey string
}

// ProjectRef returns the project reference parsed from https://<ref>.supabase.co.
func (s SupabaseConfig) ProjectRef() string {
	host := strings.TrimPrefix(strings.TrimPrefix(s.URL, "https://"), "http://")
	host = strings.TrimSuffix(host, "/")
	if i := strings.Index(host, "."); i > 0 {
		return host[:i]
	}
	return ""
}

// StorageConfig defines the S3-compatible bucket holding catalog images.
type StorageConfig struct {
	Bucket          string
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
	PublicBaseURL   string
	UsePathStyle    bool
}

// DatabaseConfig defines the catalog database connection.
type DatabaseConfig struct {
	Driver   string // "postgres"|"sqlite3"
	URL      string
	Host     string
	Port     int
	Name     string
	User     string
	Password string
	SSLMode  string
}

// RasterizerConfig selects and tunes the page rasterizer.
type RasterizerConfig struct {
	Engine      string // "pdftoppm"|"fitz"
	Binary      string
	DPI         int
	JPEGQuality int
	WorkDir     string
	Manifest    string
}

// OCRConfig holds Cloud Vision settings.
type OCRConfig struct {
	APIKey          string
	CredentialsFile string
	LanguageHints   []string
}

// StageModel describes the model call for one pipeline stage.
type StageModel struct {
	Model       string
	MaxTokens   int
	Temperature float64
}

// CompletionConfig defines the completion provider and per-stage parameters.
type CompletionConfig struct {
	Provider      string // "openrouter"|"anthropic"|"gemini"
	OpenRouterKey string
	OpenRouterURL string
	AnthropicKey  string
	GeminiKey     string
	Referer       string
	Timeout       time.Duration
	Correction    StageModel
	Translation   StageModel
}

// APIKey returns the credential of the selected provider.
func (c CompletionConfig) APIKey() string {
	switch c.Provider {
	case "anthropic":
		return c.AnthropicKey
	case "gemini":
		return c.GeminiKey
	default:
		return c.OpenRouterKey
	}
}

// KeyEnv names the environment variable holding the selected provider's key.
func (c CompletionConfig) KeyEnv() string {
	switch c.Provider {
	case "anthropic":
		return "ANTHROPIC_API_KEY"
	case "gemini":
		return "GEMINI_API_KEY"
	default:
		return "OPENROUTER_API_KEY"
	}
}

// PipelineConfig controls the translation run.
type PipelineConfig struct {
	ItemDelay    time.Duration
	FetchTimeout time.Duration
	TempDir      string
}

// StatusConfig defines the optional Redis run-status store.
type StatusConfig struct {
	RedisURL string
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Addr string
}

// Config is the top-level configuration.
type Config struct {
	Logging    LoggingConfig
	Axiom      AxiomConfig
	Supabase   SupabaseConfig
	Storage    StorageConfig
	Database   DatabaseConfig
	Rasterizer RasterizerConfig
	OCR        OCRConfig
	Completion CompletionConfig
	Pipeline   PipelineConfig
	Status     StatusConfig
	Metrics    MetricsConfig
}

// FromEnv loads configuration from environment with sensible defaults.
func FromEnv() Config {
	cfg := Config{}

	// Logging defaults
	cfg.Logging = LoggingConfig{
		Level:      getEnv("LOG_LEVEL", "info"),
		Pretty:     parseBool(getEnv("LOG_PRETTY", devDefaultPretty())),
		File:       getEnv("LOG_FILE", "logs/juyozufu.log"),
		MaxSizeMB:  parseInt(getEnv("LOG_MAX_SIZE_MB", "100"), 100),
		MaxBackups: parseInt(getEnv("LOG_MAX_BACKUPS", "10"), 10),
		MaxAgeDays: parseInt(getEnv("LOG_MAX_AGE_DAYS", "30"), 30),
		Compress:   parseBool(getEnv("LOG_COMPRESS", "true")),
	}

	// Axiom defaults
	baseDataset := getEnv("AXIOM_DATASET", "dev")
	cfg.Axiom = AxiomConfig{
		Send:          parseBool(getEnv("SEND_LOGS_TO_AXIOM", "0")),
		APIKey:        getEnv("AXIOM_API_KEY", ""),
		OrgID:         getEnv("AXIOM_ORG_ID", ""),
		Dataset:       baseDataset + "_juyozufu",
		FlushInterval: parseDuration(getEnv("AXIOM_FLUSH_INTERVAL", "10s"), 10*time.Second),
	}

	cfg.Supabase = SupabaseConfig{
		URL:            strings.TrimSuffix(getEnv("SUPABASE_URL", ""), "/"),
		ServiceRoleKey: getEnv("SUPABASE_SERVICE_ROLE_KEY", ""),
	}

	// Storage defaults derive from the Supabase project unless overridden.
	cfg.Storage = StorageConfig{
		Bucket:          getEnv("STORAGE_BUCKET", "nihonto-images"),
		Endpoint:        getEnv("STORAGE_S3_ENDPOINT", ""),
		Region:          getEnv("STORAGE_REGION", "us-east-1"),
		AccessKeyID:     getEnv("STORAGE_ACCESS_KEY_ID", cfg.Supabase.ProjectRef()),
		SecretAccessKey: getEnv("STORAGE_SECRET_ACCESS_KEY", cfg.Supabase.ServiceRoleKey),
		SessionToken:    getEnv("STORAGE_SESSION_TOKEN", cfg.Supabase.ServiceRoleKey),
		PublicBaseURL:   getEnv("STORAGE_PUBLIC_BASE_URL", ""),
		UsePathStyle:    parseBool(getEnv("STORAGE_PATH_STYLE", "true")),
	}
	if cfg.Storage.Endpoint == "" && cfg.Supabase.URL != "" {
		cfg.Storage.Endpoint = cfg.Supabase.URL + "/storage/v1/s3"
	}
	if cfg.Storage.PublicBaseURL == "" && cfg.Supabase.URL != "" {
		cfg.Storage.PublicBaseURL = cfg.Supabase.URL + "/storage/v1/object/public/" + cfg.Storage.Bucket
	}

	// Database defaults target the Supabase connection pooler.
	cfg.Database = DatabaseConfig{
		Driver:   getEnv("DB_DRIVER", "postgres"),
		URL:      getEnv("DATABASE_URL", ""),
		Host:     getEnv("DB_HOST", "aws-0-us-east-1.pooler.supabase.com"),
		Port:     parseInt(getEnv("DB_PORT", "6543"), 6543),
		Name:     getEnv("DB_NAME", "postgres"),
		User:     getEnv("DB_USER", ""),
		Password: getEnv("SUPABASE_DB_PASSWORD", ""),
		SSLMode:  getEnv("DB_SSLMODE", "require"),
	}
	if cfg.Database.User == "" && cfg.Supabase.ProjectRef() != "" {
		cfg.Database.User = "postgres." + cfg.Supabase.ProjectRef()
	}

	cfg.Rasterizer = RasterizerConfig{
		Engine:      getEnv("RASTERIZER", "pdftoppm"),
		Binary:      getEnv("PDFTOPPM_BIN", "pdftoppm"),
		DPI:         parseInt(getEnv("RASTER_DPI", "300"), 300),
		JPEGQuality: parseInt(getEnv("RASTER_JPEG_QUALITY", "90"), 90),
		WorkDir:     getEnv("EXTRACT_DIR", "extracted"),
		Manifest:    getEnv("VOLUMES_FILE", "volumes.yaml"),
	}

	cfg.OCR = OCRConfig{
		APIKey:          getEnv("GOOGLE_VISION_API_KEY", ""),
		CredentialsFile: getEnv("GOOGLE_APPLICATION_CREDENTIALS", ""),
		LanguageHints:   parseList(getEnv("OCR_LANGUAGE_HINTS", "ja")),
	}

	cfg.Completion = CompletionConfig{
		Provider:      strings.ToLower(getEnv("COMPLETION_PROVIDER", "openrouter")),
		OpenRouterKey: getEnv("OPENROUTER_API_KEY", ""),
		OpenRouterURL: getEnv("OPENROUTER_URL", "https://openrouter.ai/api/v1/chat/completions"),
		AnthropicKey:  getEnv("ANTHROPIC_API_KEY", ""),
		GeminiKey:     getEnv("GEMINI_API_KEY", ""),
		Referer:       getEnv("OPENROUTER_REFERER", "https://github.com/0raclide/oshi3-nihonto"),
		Timeout:       parseDuration(getEnv("COMPLETION_TIMEOUT", "180s"), 180*time.Second),
		Correction: StageModel{
			Model:       getEnv("VISION_MODEL", "anthropic/claude-3.5-sonnet"),
			MaxTokens:   parseInt(getEnv("CORRECTION_MAX_TOKENS", "4000"), 4000),
			Temperature: parseFloat(getEnv("CORRECTION_TEMPERATURE", "0.1"), 0.1),
		},
		Translation: StageModel{
			Model:       getEnv("TEXT_MODEL", "anthropic/claude-3.5-sonnet"),
			MaxTokens:   parseInt(getEnv("TRANSLATION_MAX_TOKENS", "8000"), 8000),
			Temperature: parseFloat(getEnv("TRANSLATION_TEMPERATURE", "0.3"), 0.3),
		},
	}

	cfg.Pipeline = PipelineConfig{
		ItemDelay:    parseDuration(getEnv("ITEM_DELAY", "2s"), 2*time.Second),
		FetchTimeout: parseDuration(getEnv("FETCH_TIMEOUT", "60s"), 60*time.Second),
		TempDir:      getEnv("PIPELINE_TMP_DIR", os.TempDir()),
	}

	cfg.Status = StatusConfig{RedisURL: getEnv("REDIS_URL", "")}
	cfg.Metrics = MetricsConfig{Addr: getEnv("METRICS_ADDR", "")}

	return cfg
}

// Requirement names a configuration value a command cannot start without.
type Requirement struct {
	Env     string
	Present func(Config) bool
}

var (
	NeedSupabaseURL = Requirement{Env: "SUPABASE_URL", Present: func(c Config) bool { return c.Supabase.URL != "" }}
	NeedServiceKey  = Requirement{Env: "SUPABASE_SERVICE_ROLE_KEY", Present: func(c Config) bool { return c.Supabase.ServiceRoleKey != "" }}
	NeedDatabase    = Requirement{Env: "SUPABASE_DB_PASSWORD", Present: func(c Config) bool {
		return c.Database.URL != "" || c.Database.Driver == "sqlite3" || c.Database.Password != ""
	}}
	NeedCompletionKey = Requirement{Env: "OPENROUTER_API_KEY", Present: func(c Config) bool { return c.Completion.APIKey() != "" }}
)

// MissingError lists required settings that were absent at startup.
type MissingError struct {
	Vars []string
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("missing environment variables: %s (check your .env file)", strings.Join(e.Vars, ", "))
}

// Validate returns a *MissingError naming every unmet requirement.
func (c Config) Validate(reqs ...Requirement) error {
	var missing []string
	for _, r := range reqs {
		if r.Present(c) {
			continue
		}
		name := r.Env
		if r.Env == NeedCompletionKey.Env {
			name = c.Completion.KeyEnv()
		}
		missing = append(missing, name)
	}
	if len(missing) > 0 {
		return &MissingError{Vars: missing}
	}
	return nil
}

// Helpers
func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

func parseFloat(s string, def float64) float64 {
	if s == "" {
		return def
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return def
}

func parseBool(s string) bool {
	v := strings.ToLower(strings.TrimSpace(s))
	return v == "1" || v == "true" || v == "yes" || v == "on"
}

func parseDuration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	return def
}

func parseList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func devDefaultPretty() string {
	env := strings.ToLower(os.Getenv("ENVIRONMENT"))
	if env == "dev" || env == "development" || env == "local" {
		return "true"
	}
	return "false"
}

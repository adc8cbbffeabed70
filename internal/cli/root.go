// Package cli wires configuration and components into the juyozufu commands.
package cli

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/local/juyozufu/internal/catalog"
	"github.com/local/juyozufu/internal/config"
	"github.com/local/juyozufu/internal/logger"
	"github.com/local/juyozufu/internal/metrics"
	"github.com/local/juyozufu/internal/store"
)

// app carries state shared by every subcommand for one invocation.
type app struct {
	cfg        config.Config
	out        io.Writer
	metricsSrv *http.Server
}

func NewRootCmd() *cobra.Command {
	a := &app{}
	var metricsAddr string

	cmd := &cobra.Command{
		Use:   "juyozufu",
		Short: "Juyo Token catalog extraction and translation pipeline",
		Long: `juyozufu splits scanned Juyo Zufu volumes into oshigata and setsumei images,
stores them with one catalog row per sword, and later transcribes each setsumei
through OCR, correction and translation into English Markdown.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()

			a.cfg = config.FromEnv()
			if metricsAddr != "" {
				a.cfg.Metrics.Addr = metricsAddr
			}
			a.out = cmd.OutOrStdout()

			if err := logger.Init(logger.Options{
				Level:   a.cfg.Logging.Level,
				Pretty:  a.cfg.Logging.Pretty,
				Console: cmd.ErrOrStderr(),
				File: logger.FileOptions{
					Path:       a.cfg.Logging.File,
					MaxSizeMB:  a.cfg.Logging.MaxSizeMB,
					MaxBackups: a.cfg.Logging.MaxBackups,
					MaxAgeDays: a.cfg.Logging.MaxAgeDays,
					Compress:   a.cfg.Logging.Compress,
				},
				Axiom: a.axiomOptions(),
			}); err != nil {
				return err
			}
			a.startMetrics()
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus /metrics on this address while the command runs")

	cmd.AddCommand(newExtractCmd(a))
	cmd.AddCommand(newTranslateCmd(a))
	cmd.AddCommand(newShowCmd(a))
	cmd.AddCommand(newMigrateCmd(a))
	cmd.AddCommand(newStatusCmd(a))
	cmd.AddCommand(newCheckCmd(a))

	cobra.OnFinalize(a.close)
	return cmd
}

func (a *app) startMetrics() {
	metrics.Init()
	if a.cfg.Metrics.Addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	a.metricsSrv = &http.Server{Addr: a.cfg.Metrics.Addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		log.Info().Str("addr", a.cfg.Metrics.Addr).Msg("metrics listening")
		if err := a.metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("metrics server error")
		}
	}()
}

func (a *app) close() {
	if a.metricsSrv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = a.metricsSrv.Shutdown(ctx)
		cancel()
		a.metricsSrv = nil
	}
	logger.Close()
}

// axiomOptions returns forwarding options, empty unless SEND_LOGS_TO_AXIOM is on.
func (a *app) axiomOptions() logger.AxiomOptions {
	if !a.cfg.Axiom.Send {
		return logger.AxiomOptions{}
	}
	return logger.AxiomOptions{
		Token:   a.cfg.Axiom.APIKey,
		OrgID:   a.cfg.Axiom.OrgID,
		Dataset: a.cfg.Axiom.Dataset,
		Flush:   a.cfg.Axiom.FlushInterval,
	}
}

// openCatalog connects to the configured database.
func (a *app) openCatalog(ctx context.Context) (*sql.DB, *catalog.Repository, error) {
	db, err := catalog.Open(ctx, a.cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	return db, catalog.NewRepository(db), nil
}

// openStatus returns the Redis run-status store, or nil when none is configured
// or reachable. Status tracking never blocks a run.
func (a *app) openStatus() *store.RunStatus {
	if a.cfg.Status.RedisURL == "" {
		return nil
	}
	rs, err := store.NewRunStatus(a.cfg.Status.RedisURL)
	if err != nil {
		log.Warn().Err(err).Msg("run status disabled")
		return nil
	}
	return rs
}

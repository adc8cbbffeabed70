package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/local/juyozufu/internal/catalog"
	"github.com/local/juyozufu/internal/config"
	"github.com/local/juyozufu/internal/statuscheck"
	"github.com/local/juyozufu/internal/storage"
	"github.com/local/juyozufu/internal/store"
)

const openRouterKeyURL = "https://openrouter.ai/api/v1/auth/key"

func newCheckCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Check the database, storage, rasterizer and completion provider",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			checks := []statuscheck.Check{{Name: "database", Run: a.checkDatabase}}
			if a.cfg.Storage.Endpoint != "" {
				checks = append(checks, statuscheck.Check{Name: "storage", Run: a.checkStorage})
			}
			if a.cfg.Rasterizer.Engine == "" || a.cfg.Rasterizer.Engine == "pdftoppm" {
				checks = append(checks, statuscheck.Check{Name: "rasterizer", Run: statuscheck.Binary(a.cfg.Rasterizer.Binary)})
			}
			checks = append(checks, completionCheck(a.cfg.Completion))
			if a.cfg.Status.RedisURL != "" {
				checks = append(checks, statuscheck.Check{Name: "redis", Optional: true, Run: a.checkRedis})
			}

			statuses := statuscheck.New(10*time.Second, checks...).Summary(ctx)
			printChecks(a.out, statuses)
			if !statuscheck.Healthy(statuses) {
				return errors.New("one or more required dependencies are unavailable")
			}
			return nil
		},
	}
}

func (a *app) checkDatabase(ctx context.Context) (string, error) {
	db, err := catalog.Open(ctx, a.cfg.Database)
	if err != nil {
		return "", err
	}
	defer db.Close()
	var n int
	err = db.QueryRowContext(ctx, "SELECT COUNT(*) FROM nihonto_items").Scan(&n)
	switch {
	case catalog.IsMissingTable(err):
		return "Connected (schema missing, run migrate)", nil
	case err != nil:
		return "", fmt.Errorf("count items: %w", err)
	}
	return fmt.Sprintf("Connected (%d items)", n), nil
}

func (a *app) checkStorage(ctx context.Context) (string, error) {
	s, err := storage.NewS3Store(ctx, a.cfg.Storage)
	if err != nil {
		return "", err
	}
	if err := s.Ping(ctx); err != nil {
		return "", err
	}
	return "Bucket " + a.cfg.Storage.Bucket + " reachable", nil
}

func (a *app) checkRedis(ctx context.Context) (string, error) {
	rs, err := store.NewRunStatus(a.cfg.Status.RedisURL)
	if err != nil {
		return "", err
	}
	_ = rs.Close()
	return "Connected", nil
}

func completionCheck(c config.CompletionConfig) statuscheck.Check {
	name := "completion (" + providerName(c.Provider) + ")"
	if c.APIKey() == "" {
		return statuscheck.Check{Name: name, Run: func(context.Context) (string, error) {
			return "", fmt.Errorf("%s not set", c.KeyEnv())
		}}
	}
	client := &http.Client{Timeout: 10 * time.Second}
	switch c.Provider {
	case "anthropic":
		return statuscheck.Check{Name: name, Run: statuscheck.HTTPGet(client, "https://api.anthropic.com/v1/models",
			map[string]string{"x-api-key": c.AnthropicKey, "anthropic-version": "2023-06-01"})}
	case "gemini":
		return statuscheck.Check{Name: name, Run: statuscheck.HTTPGet(client,
			"https://generativelanguage.googleapis.com/v1beta/models?key="+c.GeminiKey, nil)}
	default:
		return statuscheck.Check{Name: name, Run: statuscheck.HTTPGet(client, openRouterKeyURL,
			map[string]string{"Authorization": "Bearer " + c.OpenRouterKey})}
	}
}

func providerName(p string) string {
	if p == "" {
		return "openrouter"
	}
	return p
}

func printChecks(w io.Writer, statuses []statuscheck.Status) {
	for _, s := range statuses {
		mark := "ok  "
		switch {
		case !s.OK && s.Optional:
			mark = "warn"
		case !s.OK:
			mark = "FAIL"
		}
		fmt.Fprintf(w, "[%s] %-24s %s\n", mark, s.Name, s.Message)
	}
}

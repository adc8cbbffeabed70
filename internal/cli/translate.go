package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/local/juyozufu/internal/ai"
	"github.com/local/juyozufu/internal/config"
	"github.com/local/juyozufu/internal/logger"
	"github.com/local/juyozufu/internal/ocr"
	"github.com/local/juyozufu/internal/report"
	"github.com/local/juyozufu/internal/store"
	"github.com/local/juyozufu/internal/transcribe"
	"github.com/local/juyozufu/internal/translate"
)

func newTranslateCmd(a *app) *cobra.Command {
	var delayFlag time.Duration
	cmd := &cobra.Command{
		Use:   "translate",
		Short: "OCR, correct and translate every untranslated catalog item",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.cfg.Validate(config.NeedSupabaseURL, config.NeedServiceKey, config.NeedDatabase, config.NeedCompletionKey); err != nil {
				return err
			}
			delay := a.cfg.Pipeline.ItemDelay
			if cmd.Flags().Changed("delay") {
				delay = delayFlag
			}

			ctx := cmd.Context()
			detector, err := ocr.NewVision(ctx, a.cfg.OCR)
			if err != nil {
				return err
			}
			completer, err := ai.New(a.cfg.Completion)
			if err != nil {
				return err
			}
			db, repo, err := a.openCatalog(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			sink := report.LogSink{Logger: logger.Component("translate")}
			orch := &translate.Orchestrator{
				Repo: repo,
				Pipeline: &transcribe.Pipeline{
					Fetcher:   transcribe.NewHTTPFetcher(a.cfg.Pipeline.FetchTimeout),
					OCR:       detector,
					Completer: completer,
					Repo:      repo,
					Models: transcribe.Models{
						Correction:  a.cfg.Completion.Correction,
						Translation: a.cfg.Completion.Translation,
					},
					Sink:    sink,
					TempDir: a.cfg.Pipeline.TempDir,
				},
				Delay: delay,
				Sink:  sink,
				RunID: store.NewRunID(),
			}
			if rs := a.openStatus(); rs != nil {
				defer rs.Close()
				orch.Status = rs
			}

			report.Banner(a.out, "OSHI3 NIHONTO TRANSLATION PIPELINE")
			summary, err := orch.Run(ctx)
			if err != nil {
				return err
			}
			if summary.Total == 0 {
				_, _ = a.out.Write([]byte("No items to translate. All done!\n"))
				return nil
			}
			report.PrintTranslationSummary(a.out, summary)
			return nil
		},
	}
	cmd.Flags().DurationVar(&delayFlag, "delay", translate.DefaultDelay, "pause between items, e.g. 2s")
	return cmd
}

package cli

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/local/juyozufu/internal/config"
	"github.com/local/juyozufu/internal/extract"
	"github.com/local/juyozufu/internal/logger"
	"github.com/local/juyozufu/internal/pairing"
	"github.com/local/juyozufu/internal/rasterize"
	"github.com/local/juyozufu/internal/report"
	"github.com/local/juyozufu/internal/storage"
	"github.com/local/juyozufu/internal/store"
)

func newExtractCmd(a *app) *cobra.Command {
	var (
		volume   int
		start    int
		end      int
		test     bool
		pairArgs []string
	)
	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Rasterize volumes, pair pages, upload images and create catalog rows",
		Example: `  juyozufu extract
  juyozufu extract --volume 1 --start 5 --end 10 --test
  juyozufu extract --volume 1 --start 5 --end 8 --pair 5:6 --pair 8:7 --test`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.cfg.Validate(config.NeedSupabaseURL, config.NeedServiceKey, config.NeedDatabase); err != nil {
				return err
			}
			pairs := make([]pairing.ManualPair, 0, len(pairArgs))
			for _, s := range pairArgs {
				mp, err := pairing.ParseManualPair(s)
				if err != nil {
					return err
				}
				pairs = append(pairs, mp)
			}
			if len(pairs) > 0 && volume == 0 {
				return fmt.Errorf("--pair requires --volume")
			}

			manifest, err := config.LoadManifest(a.cfg.Rasterizer.Manifest)
			if err != nil {
				return err
			}
			volumes := manifest.Volumes
			if volume != 0 {
				v, ok := manifest.Find(volume)
				if !ok {
					return fmt.Errorf("volume %d is not in the manifest", volume)
				}
				volumes = []config.Volume{v}
			}

			ctx := cmd.Context()
			rz, err := rasterize.New(a.cfg.Rasterizer.Engine, a.cfg.Rasterizer.Binary, a.cfg.Rasterizer.JPEGQuality)
			if err != nil {
				return err
			}
			assets, err := storage.NewS3Store(ctx, a.cfg.Storage)
			if err != nil {
				return err
			}
			db, repo, err := a.openCatalog(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			orch := &extract.Orchestrator{
				Rasterizer: rz,
				Store:      assets,
				Repo:       repo,
				Sink:       report.LogSink{Logger: logger.Component("extract")},
				WorkDir:    a.cfg.Rasterizer.WorkDir,
				DPI:        a.cfg.Rasterizer.DPI,
				CheckRange: rasterize.CheckRange,
			}
			opts := extract.Options{Start: start, End: end, Test: test, Pairs: pairs}

			status := a.openStatus()
			if status != nil {
				defer status.Close()
			}
			runID := store.NewRunID()
			started := time.Now().UTC()
			st := store.Status{RunID: runID, Kind: "extract", Status: store.StateProcessing, Total: len(volumes), Start: &started}
			setStatus := func() {
				if status == nil {
					return
				}
				if err := status.Set(ctx, st); err != nil {
					log.Warn().Err(err).Msg("failed to record run status")
				}
			}
			setStatus()

			title := "OSHI3 NIHONTO EXTRACTION"
			if test {
				title += " (TEST)"
			}
			report.Banner(a.out, title)
			for i, v := range volumes {
				report.Banner(a.out, fmt.Sprintf("Processing Volume %d", v.Number))
				summary, err := orch.Run(ctx, v, opts)
				if err != nil {
					st.Status, st.Message = store.StateFailed, err.Error()
					setStatus()
					return err
				}
				report.PrintVolumeSummary(a.out, summary)
				st.Succeeded += summary.Created
				st.Failed += len(summary.Failed)
				st.Progress = store.Percent(i+1, len(volumes))
				setStatus()
			}
			finished := time.Now().UTC()
			st.Status, st.End = store.StateSuccess, &finished
			setStatus()
			report.Banner(a.out, "ALL VOLUMES PROCESSED")
			return nil
		},
	}
	cmd.Flags().IntVar(&volume, "volume", 0, "process only this volume number")
	cmd.Flags().IntVar(&start, "start", 0, "first page to process (defaults to the volume's content start)")
	cmd.Flags().IntVar(&end, "end", 0, "last page to process (defaults to the volume's content end)")
	cmd.Flags().BoolVar(&test, "test", false, "write to the test work dir and test_item storage keys")
	cmd.Flags().StringArrayVar(&pairArgs, "pair", nil, "manual oshigata:setsumei page pair, repeatable; skips classification")
	return cmd
}

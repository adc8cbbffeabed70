package cli

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/local/juyozufu/internal/store"
)

func newStatusCmd(a *app) *cobra.Command {
	var runID string
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the last recorded extract or translate run",
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.Status.RedisURL == "" {
				return errors.New("REDIS_URL is not set; run status is not recorded")
			}
			rs, err := store.NewRunStatus(a.cfg.Status.RedisURL)
			if err != nil {
				return err
			}
			defer rs.Close()

			var (
				st    store.Status
				found bool
			)
			if runID != "" {
				st, found, err = rs.Get(cmd.Context(), runID)
			} else {
				st, found, err = rs.Latest(cmd.Context())
			}
			if err != nil {
				return err
			}
			if !found {
				fmt.Fprintln(a.out, "no runs recorded")
				return nil
			}
			printStatus(a.out, st)
			return nil
		},
	}
	cmd.Flags().StringVar(&runID, "run", "", "run id (defaults to the latest run)")
	return cmd
}

func printStatus(w io.Writer, st store.Status) {
	fmt.Fprintf(w, "Run:       %s\n", st.RunID)
	fmt.Fprintf(w, "Kind:      %s\n", st.Kind)
	fmt.Fprintf(w, "Status:    %s (%d%%)\n", st.Status, st.Progress)
	fmt.Fprintf(w, "Succeeded: %d\n", st.Succeeded)
	fmt.Fprintf(w, "Failed:    %d\n", st.Failed)
	fmt.Fprintf(w, "Total:     %d\n", st.Total)
	if st.Start != nil {
		fmt.Fprintf(w, "Started:   %s\n", st.Start.Format(time.RFC3339))
	}
	if st.End != nil {
		fmt.Fprintf(w, "Finished:  %s\n", st.End.Format(time.RFC3339))
	}
	if st.Message != "" {
		fmt.Fprintf(w, "Message:   %s\n", st.Message)
	}
}

package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/local/juyozufu/internal/catalog"
	"github.com/local/juyozufu/internal/config"
	"github.com/local/juyozufu/internal/report"
)

func newShowCmd(a *app) *cobra.Command {
	var untranslated bool
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print translated items, or list the ones still pending",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.cfg.Validate(config.NeedDatabase); err != nil {
				return err
			}
			ctx := cmd.Context()
			db, repo, err := a.openCatalog(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			if untranslated {
				items, err := repo.ListUntranslated(ctx)
				if err != nil {
					return err
				}
				printPending(a.out, items)
				return nil
			}
			items, err := repo.ListAll(ctx)
			if err != nil {
				return err
			}
			printTranslations(a.out, items)
			return nil
		},
	}
	cmd.Flags().BoolVar(&untranslated, "untranslated", false, "list items without an English translation")
	return cmd
}

func printTranslations(w io.Writer, items []catalog.Item) {
	shown := 0
	for _, it := range items {
		if !it.Translated() {
			continue
		}
		shown++
		report.Banner(w, fmt.Sprintf("Volume %d - Item %d", it.Volume, it.ItemNumber))
		fmt.Fprintf(w, "Oshigata: %s (page %d)\n", it.OshigataURL, it.PDFPageOshigata)
		fmt.Fprintf(w, "Setsumei: %s (page %d)\n", it.SetsumeiURL, it.PDFPageSetsumei)
		if it.TranslatedAt.Valid {
			fmt.Fprintf(w, "Translated: %s\n", it.TranslatedAt.Time.Format("2006-01-02 15:04"))
		}
		fmt.Fprintln(w)
		fmt.Fprintln(w, strings.TrimSpace(it.SetsumeiEnglish.String))
	}
	fmt.Fprintf(w, "\n%d of %d items translated\n", shown, len(items))
}

func printPending(w io.Writer, items []catalog.Item) {
	for _, it := range items {
		fmt.Fprintf(w, "Vol%d Item %d (id %d): %s\n", it.Volume, it.ItemNumber, it.ID, it.SetsumeiURL)
	}
	fmt.Fprintf(w, "%d items pending translation\n", len(items))
}

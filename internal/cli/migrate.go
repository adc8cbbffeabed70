package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/local/juyozufu/internal/catalog"
	"github.com/local/juyozufu/internal/config"
)

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the nihonto_items table and indexes",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.cfg.Validate(config.NeedDatabase); err != nil {
				return err
			}
			ctx := cmd.Context()
			db, _, err := a.openCatalog(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			driver := a.cfg.Database.Driver
			if driver == "" {
				driver = catalog.DriverPostgres
			}
			if err := catalog.Migrate(ctx, db, driver); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "nihonto_items schema is up to date")
			return nil
		},
	}
}

package commands

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// IndexesCmd builds the app, which ensures every collection's indexes, and
// reports what it touched. serve and worker do the same on startup.
func IndexesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "indexes",
		Short: "Create the Mongo indexes the ledger relies on",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApp(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close(cmd.Context())

			if len(app.Indexers) == 0 {
				app.Logger.Info("store backend has no indexes to create")
				return nil
			}
			app.Logger.Info("indexes ensured", zap.Strings("collections", indexNames(app.Indexers)))
			return nil
		},
	}
}

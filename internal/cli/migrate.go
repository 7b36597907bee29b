package cli

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/quickcourt/quickcourt-api/internal/database"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := bootstrap()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			ctx := cmd.Context()
			db, err := database.Open(ctx, cfg.DSN(), cfg.Pool)
			if err != nil {
				return err
			}
			defer db.Close()

			applied, err := database.Migrate(ctx, db)
			if err != nil {
				return err
			}
			log.Info("migrations applied", zap.Strings("files", applied), zap.Int("count", len(applied)))
			return nil
		},
	}
}

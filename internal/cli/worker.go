package cli

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/quickcourt/quickcourt-api/internal/notify"
)

func newWorkerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Consume booking events and write user notifications",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := bootstrap()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			if !cfg.Rabbit.Enabled {
				log.Warn("RABBITMQ_ENABLED is false; the API is not publishing events")
			}
			notifier := notify.NewFileNotifier(cfg.NotifyLogDir, log.Named("notifier"))
			consumer := notify.NewConsumer(cfg.Rabbit.URL, notifier, log.Named("consumer"))
			log.Info("worker started", zap.Strings("queues", notify.Queues), zap.String("log_dir", cfg.NotifyLogDir))
			return consumer.Run(cmd.Context())
		},
	}
}

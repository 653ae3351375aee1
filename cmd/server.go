package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"smpctl/cache"
	"smpctl/core/audio"
	"smpctl/db"
	"smpctl/logger"
	"smpctl/server"
	"smpctl/storage"
)

var serverAddr string

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the remote control server",
	Long: `Serves the engine over HTTP and websocket. With SMP_RECORD_DIR set and
MinIO enabled, finished recordings in that directory are archived.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("addr") {
			cfg.ServerAddr = serverAddr
		}
		if !cfg.AuthEnabled() {
			logger.Warn("SMP_ADMIN_PASSWORD_HASH is empty, the API is open to anyone who can reach it",
				logger.String("addr", cfg.ServerAddr))
		}

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		s, err := openEngine(ctx, "server")
		if err != nil {
			return err
		}
		defer s.Close()

		deps := server.Deps{
			Client:  s.client,
			Config:  cfg,
			Journal: s.journal,
			Probes:  audio.DefaultRegistry(),
			Session: s.id,
		}
		if s.redis {
			deps.Drivers = cache.NewDriverCache(db.RedisClient, cfg.DriverCacheTTL)
		}

		h := server.NewAPIHandler(deps)
		defer h.Close()

		if cfg.RecordDir != "" {
			startArchiver(ctx, s.id)
		}

		return server.Start(ctx, cfg.ServerAddr, server.NewRouter(h))
	},
}

func startArchiver(ctx context.Context, session string) {
	if !cfg.MinioEnabled {
		logger.Warn("SMP_RECORD_DIR is set but MinIO is disabled, recordings stay local",
			logger.String("dir", cfg.RecordDir))
		return
	}
	if err := storage.InitMinio(cfg); err != nil {
		logger.Error("recording archiver disabled", logger.ErrorField(err))
		return
	}

	archiver := &storage.Archiver{
		Dir:      cfg.RecordDir,
		Settle:   cfg.RecordSettle,
		Session:  session,
		Uploader: storage.Recordings(),
	}
	go func() {
		if err := archiver.Run(ctx); err != nil {
			logger.Error("recording archiver stopped", logger.ErrorField(err))
		}
	}()
}

func init() {
	rootCmd.AddCommand(serverCmd)
	serverCmd.Flags().StringVar(&serverAddr, "addr", "", "listen address (overrides SMP_SERVER_ADDR)")
}

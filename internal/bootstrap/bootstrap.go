// Package bootstrap provides dependency initialization for the bot.
package bootstrap

import (
	"fmt"
	"log/slog"

	"github.com/redahead/soundhound/internal/config"
	"github.com/redahead/soundhound/internal/dispatch"
	"github.com/redahead/soundhound/internal/media"
	"github.com/redahead/soundhound/internal/session"
	"github.com/redahead/soundhound/internal/storage"
	"github.com/redahead/soundhound/internal/telegram"
)

// Dependencies holds all initialized dependencies for the bot.
type Dependencies struct {
	Store      *session.RedisStore
	Client     *telegram.Client
	Dispatcher *dispatch.Dispatcher
}

// NewDependencies creates and initializes all dependencies for the application.
func NewDependencies(cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	// Initialize the session store
	store, err := session.NewRedisStore(cfg.RedisURL, cfg.LockTTL, logger)
	if err != nil {
		return nil, fmt.Errorf("create session store: %w", err)
	}

	// Initialize the Telegram client
	client, err := telegram.NewClient(cfg.BotToken, logger,
		telegram.WithDownloadLimit(cfg.DownloadLimit),
		telegram.WithUploadLimit(cfg.UploadLimit),
	)
	if err != nil {
		return nil, fmt.Errorf("create telegram client: %w", err)
	}

	// Initialize the media pipeline and verify the binaries exist
	runner := media.NewRunner(cfg.FFmpegPath, cfg.FFprobePath, logger,
		media.WithTimeout(cfg.FFmpegTimeout),
	)
	if err := runner.CheckBinaries(); err != nil {
		return nil, err
	}
	pipeline := media.NewPipeline(runner, logger)

	opts := []dispatch.Option{
		dispatch.WithKeepAction(cfg.KeepActionAfterResult),
		dispatch.WithArtworkLimit(cfg.ArtworkLimit),
	}

	if cfg.ArchiveEnabled() {
		archive, err := initArchive(cfg, logger)
		if err != nil {
			return nil, err
		}
		opts = append(opts, dispatch.WithArchiver(archive))
	}

	dispatcher := dispatch.NewDispatcher(store, store, client, pipeline, logger, opts...)

	return &Dependencies{
		Store:      store,
		Client:     client,
		Dispatcher: dispatcher,
	}, nil
}

// initArchive creates the archive backend based on configuration.
func initArchive(cfg *config.Config, logger *slog.Logger) (storage.Archive, error) {
	if cfg.S3Enabled() {
		s3Cfg := storage.S3Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
		}
		s3Archive, err := storage.NewS3Archive(s3Cfg)
		if err != nil {
			return nil, fmt.Errorf("create S3 archive: %w", err)
		}
		logger.Info("S3 archive configured",
			slog.String("bucket", cfg.S3Bucket),
			slog.String("region", cfg.S3Region),
		)
		return s3Archive, nil
	}

	localArchive, err := storage.NewLocalArchive(cfg.ArchiveDir)
	if err != nil {
		return nil, fmt.Errorf("create local archive: %w", err)
	}
	logger.Info("local archive configured",
		slog.String("dir", localArchive.Dir()),
	)
	return localArchive, nil
}

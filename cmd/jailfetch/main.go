package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/webosbrew/jailfetch/internal/config"
	"github.com/webosbrew/jailfetch/internal/download"
	"github.com/webosbrew/jailfetch/internal/jailer"
	"github.com/webosbrew/jailfetch/internal/logctx"
	"github.com/webosbrew/jailfetch/internal/notifier"
	"github.com/webosbrew/jailfetch/internal/osinfo"
	"github.com/webosbrew/jailfetch/internal/storage"
	"github.com/webosbrew/jailfetch/internal/storage/sqlite"
	"github.com/webosbrew/jailfetch/internal/transport"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("config error", "err", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	slog.Info("jailfetch starting...", "log_level", cfg.LogLevel)

	ok, err := run(logctx.WithLogger(ctx, logger), cfg)
	if err != nil {
		slog.Error("fatal error", "err", err)
		os.Exit(1)
	}

	if !ok {
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) (bool, error) {
	logger := logctx.LoggerFromContext(ctx)

	// =========================================================================
	// Start Fetch History
	var history storage.FetchWriteRepository

	if cfg.HistoryDBPath != "" {
		database, err := sqlite.InitDB(cfg.HistoryDBPath)
		if err != nil {
			return false, fmt.Errorf("failed to open history database: %w", err)
		}
		defer database.Close()

		history = sqlite.NewFetchRepository(database)
	}

	// =========================================================================
	// Start Notification
	notif := setupNotifier(ctx, cfg)

	// =========================================================================
	// Start Download Driver
	driver := download.New(transport.NewDialer(nil))

	fixer := jailer.NewFixer(jailer.Config{
		OSInfoPath:     cfg.OSInfoPath,
		HomeDir:        cfg.HomeDir,
		URLTemplate:    cfg.URLTemplate,
		ConfTargetPath: cfg.ConfTargetPath,
		SigTargetPath:  cfg.SigTargetPath,
		SkipIfPresent:  cfg.SkipIfPresent,
	}, osinfo.StringField, driver, notif, history)

	logger.Info("applying webOS jailer fix",
		"os_info", cfg.OSInfoPath,
		"home_dir", cfg.HomeDir,
		"conf_target", cfg.ConfTargetPath,
		"sig_target", cfg.SigTargetPath,
	)

	return fixer.ApplyFix(ctx), nil
}

// setupNotifier wires a webhook when configured, otherwise an in-process
// queue drained to the log, the closest stand-in for the on-screen display.
func setupNotifier(ctx context.Context, cfg *config.Config) notifier.Notifier {
	logger := logctx.LoggerFromContext(ctx)

	if cfg.WebhookURL != "" {
		return &notifier.Webhook{URL: cfg.WebhookURL}
	}

	queue := notifier.NewQueue(cfg.NotifyQueueSize)

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case msg := <-queue.Messages():
				logger.Info("notification", "text", msg.Text, "category", msg.Category, "duration", msg.Duration)
			}
		}
	}()

	return queue
}

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/seedscout/outreach/internal/config"
	"github.com/seedscout/outreach/internal/database"
	"github.com/seedscout/outreach/internal/logging"
	"github.com/seedscout/outreach/internal/mailbox"
	"github.com/seedscout/outreach/internal/monitor"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFormat)
	logger.Info("starting reply monitor")

	// Connect to database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := db.Migrate(ctx); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	dialer := mailbox.NewDialer(mailbox.Config{
		Server:      cfg.IMAPServer,
		Email:       cfg.MailUsername,
		Password:    cfg.MailPassword,
		DialTimeout: cfg.IMAPDialTimeout,
	}, logger)

	m := monitor.New(db, func() (monitor.Mailbox, error) { return dialer.Dial() }, cfg.PollInterval, logger)

	logger.Info("reply monitor is running, press Ctrl+C to stop")
	m.Run(ctx)

	logger.Info("reply monitor stopped")
}

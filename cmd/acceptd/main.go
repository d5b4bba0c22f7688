package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/seedscout/outreach/internal/config"
	"github.com/seedscout/outreach/internal/database"
	"github.com/seedscout/outreach/internal/logging"
	"github.com/seedscout/outreach/internal/mailer"
	"github.com/seedscout/outreach/internal/outreach"
	"github.com/seedscout/outreach/internal/server"
	"github.com/seedscout/outreach/internal/token"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFormat)
	logger.Info("starting acceptance server")

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

	signer := token.NewSigner([]byte(cfg.AcceptSecret), cfg.AcceptTokenTTL, nil)

	// The acceptance flow needs no investor directory; only the send path
	// resolves names
	svc := outreach.NewService(outreach.Deps{
		Store:         db,
		Sender:        mailer.New(cfg, logger),
		Tokens:        signer,
		AcceptBaseURL: cfg.AcceptBaseURL,
		FromAddress:   cfg.MailFromAddress,
		Logger:        logger,
	})

	srv := server.New(cfg.AcceptListen, signer, svc, logger)
	if err := srv.ListenAndServe(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("acceptance server failed", "error", err)
		os.Exit(1)
	}

	logger.Info("acceptance server stopped")
}

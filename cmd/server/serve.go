package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/Carlos1dev017/Chatbot-Superpowers-Data-e-Hora/assets"
	"github.com/Carlos1dev017/Chatbot-Superpowers-Data-e-Hora/internal/server"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, logger, true)
	if err != nil {
		return err
	}
	defer a.close(context.Background())

	srv := server.New(cfg.Addr(), a.agent, logger,
		server.WithHistory(a.history),
		server.WithPreferences(a.preferences),
		server.WithStatic(assets.Dir),
	)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

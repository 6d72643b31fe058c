package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"stayhub/internal/data/repository"
	"stayhub/internal/gateway"
	"stayhub/internal/notification"
	"stayhub/internal/wire"
	"stayhub/pkg/database"
	"stayhub/pkg/obs"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	dispatchBuffer  = 256
	shutdownTimeout = 15 * time.Second
)

func serveCmd() *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), migrate)
		},
	}

	cmd.Flags().BoolVar(&migrate, "migrate", false, "apply pending migrations before serving")

	return cmd
}

func runServe(parent context.Context, migrate bool) error {
	config, logger, err := bootstrap("api")
	if err != nil {
		return err
	}
	defer logger.Sync()

	if config.JWT.Secret == "" {
		return errors.New("JWT_SECRET must be set")
	}

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("Starting application",
		zap.String("app", config.App.Name),
		zap.String("port", config.App.Port),
		zap.Bool("debug", config.App.Debug),
	)

	shutdownTracer, err := obs.InitTracer(ctx, config.Tracing, logger)
	if err != nil {
		return fmt.Errorf("init tracer: %w", err)
	}

	db, err := database.InitDB(config.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	logger.Info("Database connected successfully")

	if migrate {
		if err := database.Migrate(ctx, db, logger); err != nil {
			return err
		}
	}

	if config.Gateway.SecretKey == "" {
		logger.Warn("CHAPA_SECRET_KEY is empty, payment initiation will be rejected by the gateway")
	}

	publisher, err := newPublisher(config.Rabbit.URL, config.Rabbit.Exchange, logger)
	if err != nil {
		return err
	}
	dispatcher := notification.NewDispatcher(publisher, dispatchBuffer, logger)

	repos := repository.NewRepository(db, logger)
	gw := gateway.NewChapa(config.Gateway, logger)

	app := wire.Wiring(repos, gw, dispatcher, config, logger)

	server := &http.Server{
		Addr:              ":" + config.App.Port,
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", zap.String("port", config.App.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-errCh:
		if err != nil {
			logger.Error("Server error", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown failed", zap.Error(err))
	}
	if err := dispatcher.Close(shutdownCtx); err != nil {
		logger.Error("Notification dispatcher close failed", zap.Error(err))
	}
	if err := shutdownTracer(shutdownCtx); err != nil {
		logger.Error("Tracer shutdown failed", zap.Error(err))
	}

	logger.Info("Server stopped")
	return nil
}

// newPublisher connects to the broker, or logs events when no broker is configured.
func newPublisher(url, exchange string, logger *zap.Logger) (notification.Publisher, error) {
	if url == "" {
		logger.Warn("RABBIT_URL is empty, notifications will only be logged")
		return notification.NewLogPublisher(logger), nil
	}

	publisher, err := notification.NewAMQPPublisher(url, exchange)
	if err != nil {
		return nil, fmt.Errorf("connect broker: %w", err)
	}
	return publisher, nil
}

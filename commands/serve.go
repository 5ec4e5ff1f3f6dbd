package commands

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lockbox/config"
	"lockbox/handlers"
	"lockbox/routes"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func ServeCmd() *cobra.Command {
	var withWorker bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the booking HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(withWorker)
		},
	}
	cmd.Flags().BoolVar(&withWorker, "with-worker", false, "also run the lifecycle sweep worker in this process")
	return cmd
}

func serve(withWorker bool) error {
	cfg := config.AppConfig
	secret, err := jwtSecret(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := buildApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close(context.Background())
	logger := app.Logger

	app.Health.Start(ctx, 30*time.Second)
	if app.Relay != nil {
		go func() {
			if err := app.Relay.Run(ctx); err != nil {
				logger.Error("chat relay stopped", zap.Error(err))
			}
		}()
	}
	if withWorker {
		w, err := newWorker(app)
		if err != nil {
			return err
		}
		if err := w.Start(); err != nil {
			return err
		}
		defer w.Shutdown()
	}

	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	bundle := handlers.NewHandlerBundle(app.Bookings, app.Notifications, app.Registry, app.Health, secret)
	routes.RegisterRoutes(router, bundle, routes.Options{
		Origins:           cfg.Origins(),
		MaxRequestsPerMin: cfg.MaxRequestsPerMin,
		RequestLogging:    true,
	})

	port := cfg.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	errCh := make(chan error, 1)
	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	logger.Sugar().Info("serve: server is shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Sugar().Info("serve: server stopped gracefully")
	return nil
}

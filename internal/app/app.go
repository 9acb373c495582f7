package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"stockservice/internal/config"
)

// Application holds all the components and manages the application lifecycle
type Application struct {
	ctx       context.Context
	cancel    context.CancelFunc
	container *Container
	factory   *ServiceFactory
}

// NewApplication creates and fully initializes a new Application instance
func NewApplication(ctx context.Context) (*Application, error) {
	appCtx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)

	app := &Application{
		ctx:    appCtx,
		cancel: cancel,
	}

	// Initialize container (expensive singletons)
	container, err := NewContainer(app.ctx)
	if err != nil {
		cancel()
		return nil, err
	}
	app.container = container
	app.factory = NewServiceFactory(container)

	app.container.Logger().Info("Application initialized successfully")
	return app, nil
}

// Run serves HTTP and, with the Kafka backend, consumes settlement requests
// until the context is cancelled or a component fails.
func (app *Application) Run() error {
	logger := app.container.Logger()
	cfg := app.container.Config()

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           NewRouter(app.factory),
		ReadHeaderTimeout: config.ReadHeaderTimeout,
		WriteTimeout:      config.WriteTimeout,
	}

	errCh := make(chan error, 2)
	go func() {
		logger.Info("🌐 HTTP server listening", zap.String("addr", cfg.HTTPAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	if consumer := app.factory.CreateConsumerService(); consumer != nil {
		go func() {
			if err := consumer.Start(app.ctx); err != nil {
				errCh <- fmt.Errorf("kafka consumer: %w", err)
			}
		}()
	}

	var runErr error
	select {
	case <-app.ctx.Done():
		logger.Info("Shutdown signal received")
	case runErr = <-errCh:
		logger.Error("❌ Component failed", zap.Error(runErr))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		runErr = errors.Join(runErr, fmt.Errorf("http shutdown: %w", err))
	}
	return runErr
}

// Shutdown gracefully shuts down all application components
func (app *Application) Shutdown() {
	if app.container != nil {
		app.container.Logger().Info("Starting application shutdown...")
	}

	if app.cancel != nil {
		app.cancel()
	}

	if app.container != nil {
		ctx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
		defer cancel()
		app.container.Shutdown(ctx)
	}
}

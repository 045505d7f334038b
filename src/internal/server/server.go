package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mentoring-svc/src/internal/config"
	"mentoring-svc/src/internal/dependency"
	"mentoring-svc/src/internal/middleware"
	"mentoring-svc/src/internal/telemetry"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

var log = logrus.WithField("component", "server")

const shutdownTimeout = 15 * time.Second

type Server struct {
	cfg *config.Configuration
}

func New(cfg *config.Configuration) *Server {
	return &Server{cfg: cfg}
}

// Start serves until SIGINT or SIGTERM, then drains in-flight requests and closes the stores.
func (s *Server) Start() error {
	cfg := s.cfg
	shutdownTracing := telemetry.Setup(cfg)

	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	router := gin.New()
	if err := router.SetTrustedProxies(cfg.Server.TrustedProxies); err != nil {
		return err
	}
	router.Use(gin.Recovery(), middleware.RequestLogger())

	deps, err := dependency.NewDependencyManager(router, cfg)
	if err != nil {
		return err
	}
	SetupRoutes(deps)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      otelhttp.NewHandler(router, cfg.App.Name),
		ReadTimeout:  seconds(cfg.Server.ReadTimeout),
		WriteTimeout: seconds(cfg.Server.WriteTimeout),
		IdleTimeout:  seconds(cfg.Server.IdleTimeout),
	}

	serverErr := make(chan error, 1)
	go func() {
		log.WithField("port", cfg.Server.Port).Info("Server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	select {
	case err := <-serverErr:
		deps.Close(context.Background())
		_ = shutdownTracing(context.Background())
		return err
	case sig := <-stop:
		log.WithField("signal", sig.String()).Info("Shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		log.WithError(err).Error("Graceful shutdown failed")
	}
	deps.Close(ctx)
	if err := shutdownTracing(ctx); err != nil {
		log.WithError(err).Warn("Failed to flush traces")
	}

	log.Info("Server stopped")
	return nil
}

func seconds(n int) time.Duration {
	if n <= 0 {
		return 0
	}
	return time.Duration(n) * time.Second
}

package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joshu-sajeev/upiqr/internal/card"
	"github.com/joshu-sajeev/upiqr/internal/config"
	"github.com/joshu-sajeev/upiqr/internal/logging"
	"github.com/joshu-sajeev/upiqr/internal/payment"
	"github.com/joshu-sajeev/upiqr/internal/qr"
	"github.com/joshu-sajeev/upiqr/internal/server"
	"github.com/sirupsen/logrus"
)

func main() {
	ctx := context.Background()
	cfg, err := config.LoadConfigFromEnv(ctx)
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFormat)
	gin.SetMode(cfg.GinMode)

	settings, err := payment.SettingsFromConfig(cfg)
	if err != nil {
		logger.WithError(err).Fatal("invalid render settings")
	}

	renderPool := qr.NewPool(cfg.RenderWorkers, qr.NewEncoder(), logger)
	renderPool.Start()

	service := payment.NewPaymentService(settings, renderPool, card.NewPNGExporter(), logger)
	handler := payment.NewPaymentHandler(service)

	router := server.NewRouter(logger, cfg.RequestTimeout, handler)
	srv := server.New(cfg.HTTPAddr, router, cfg.RequestTimeout, logger)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	logger.WithFields(logrus.Fields{
		"addr":    cfg.HTTPAddr,
		"policy":  cfg.Policy,
		"workers": cfg.RenderWorkers,
	}).Info("UPI QR service ready. Press Ctrl+C to stop.")

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case <-stop:
	case err := <-errCh:
		if err != nil {
			logger.WithError(err).Error("http server failed")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Warn("http server did not shut down cleanly")
	}

	renderPool.Stop()
	logger.Info("Shutdown complete.")
}

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joshu-sajeev/upiqr/internal/card"
	"github.com/joshu-sajeev/upiqr/internal/cli"
	"github.com/joshu-sajeev/upiqr/internal/config"
	"github.com/joshu-sajeev/upiqr/internal/logging"
	"github.com/joshu-sajeev/upiqr/internal/payment"
	"github.com/joshu-sajeev/upiqr/internal/qr"
	"github.com/sirupsen/logrus"
)

func main() {
	batchPath := flag.String("batch", "", "YAML file with a payments list to render")
	outDir := flag.String("out", ".", "directory the card PNGs are written to")
	interactive := flag.Bool("interactive", false, "prompt for the payment fields (default when -batch is empty)")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfigFromEnv(ctx)
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)

	settings, err := payment.SettingsFromConfig(cfg)
	if err != nil {
		logger.WithError(err).Fatal("invalid render settings")
	}

	renderPool := qr.NewPool(cfg.RenderWorkers, qr.NewEncoder(), logger)
	renderPool.Start()
	defer renderPool.Stop()

	service := payment.NewPaymentService(settings, renderPool, card.NewPNGExporter(), logger)

	if *batchPath != "" && !*interactive {
		code := runBatch(ctx, service, *batchPath, *outDir, cfg.RenderWorkers, logger)
		renderPool.Stop()
		os.Exit(code)
	}

	it := &cli.Interactive{
		Prompter: cli.NewSurveyPrompter(os.Stdout),
		Service:  service,
		OutDir:   *outDir,
		Log:      logger,
	}
	if err := it.Run(ctx); err != nil && !errors.Is(err, cli.ErrAborted) {
		logger.WithError(err).Error("interactive session failed")
		os.Exit(1)
	}
}

func runBatch(ctx context.Context, service cli.Service, path, outDir string, limit int, logger *logrus.Logger) int {
	f, err := os.Open(path)
	if err != nil {
		logger.WithError(err).Error("open batch file")
		return 1
	}
	defer f.Close()

	entries, err := cli.LoadBatch(f)
	if err != nil {
		logger.WithError(err).Error("load batch file")
		return 1
	}

	b := &cli.Batch{Service: service, OutDir: outDir, Limit: limit, Log: logger}
	results, err := b.Run(ctx, entries)
	if err != nil {
		logger.WithError(err).Error("batch interrupted")
		return 1
	}

	failed := 0
	for _, res := range results {
		if res.Err != nil {
			failed++
			fmt.Printf("#%d %s: skipped: %v\n", res.Index+1, res.Fields.PayeeID, res.Err)
			continue
		}
		fmt.Printf("#%d %s: %s\n", res.Index+1, res.Fields.PayeeID, res.File)
	}
	fmt.Printf("%d written, %d skipped\n", len(results)-failed, failed)

	if failed > 0 {
		return 2
	}
	return 0
}

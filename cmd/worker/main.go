/**
 * FlashRead Worker - Main Entry Point
 *
 * Polls a relational job store for text-extraction and OCR jobs, downloads
 * the referenced PDF from object storage, and runs it through the direct
 * extractor or the adaptive OCR router depending on job type.
 */

package main

import (
	"context"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/adverant/flashread-worker/internal/config"
	"github.com/adverant/flashread-worker/internal/logging"
	"github.com/adverant/flashread-worker/internal/ocr"
	"github.com/adverant/flashread-worker/internal/runner"
	"github.com/adverant/flashread-worker/internal/store"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env not found, using system environment variables")
	}

	logger := logging.NewLogger("worker")

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger.Info("FlashRead worker starting",
		"worker_id", cfg.WorkerID,
		"pipeline_version", cfg.PipelineVersion,
		"concurrency", cfg.WorkerConcurrency,
		"poll_interval_seconds", cfg.PollIntervalSeconds,
	)

	gateway, err := store.NewGateway(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to job store: %v", err)
	}
	defer gateway.Close()
	logger.Info("connected to job store")

	objects := store.NewObjectStoreClient(cfg.ObjectStoreEndpoint, cfg.ObjectStoreAccountID, cfg.ObjectStoreAccessKey, cfg.ObjectStoreSecretKey)

	primary := ocr.NewPrimaryEngine(cfg.PaddleOCRURL)
	fallback := ocr.NewFallbackEngine(cfg.OCRLanguage)

	w := runner.New(cfg, gateway, objects, primary, fallback, logger)

	logger.Info("worker ready, polling for jobs",
		"instance_id", w.InstanceID(),
		"bucket", cfg.ObjectStoreBucket,
		"dpi_initial", cfg.OCRDPIInitial,
		"dpi_rerun", cfg.OCRDPIRerun,
	)

	if err := w.Run(context.Background()); err != nil {
		logger.Error("worker exited with error", "error", err)
		_ = logger.Sync()
		os.Exit(1)
	}

	_ = logger.Sync()
}

/**
 * Configuration for the FlashRead worker
 *
 * Loads configuration from environment variables matching .env
 */

package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds worker configuration.
type Config struct {
	// Relational store
	DatabaseURL string

	// Object store
	ObjectStoreEndpoint  string
	ObjectStoreAccountID string
	ObjectStoreAccessKey string
	ObjectStoreSecretKey string
	ObjectStoreBucket    string

	// Worker identity and loop behaviour
	WorkerID            string
	PollIntervalSeconds int
	WorkerConcurrency   int
	MaxAttempts         int

	// Pipeline / OCR
	PipelineVersion    string
	OCRDPIInitial      int
	OCRDPIRerun        int
	OCRMinConfidence   float64
	OCRMinCharsPerPage int
	OCRLanguage        string
	PaddleOCRURL       string
	TesseractPath      string
}

// LoadConfig loads configuration from environment variables. A missing
// required variable is converted from a panic (getEnvOrThrow) into a regular
// error here, so the only configuration-error exit path is the one at the
// call site in cmd/worker/main.go (fatal at startup, process exits 1).
func LoadConfig() (cfg *Config, err error) {
	defer func() {
		if r := recover(); r != nil {
			cfg = nil
			err = fmt.Errorf("%v", r)
		}
	}()

	cfg = &Config{
		DatabaseURL:          getEnvOrThrow("DATABASE_URL"),
		ObjectStoreEndpoint:  getEnvOrThrow("OBJECT_STORE_ENDPOINT"),
		ObjectStoreAccountID: getEnvOrThrow("OBJECT_STORE_ACCOUNT_ID"),
		ObjectStoreAccessKey: getEnvOrThrow("OBJECT_STORE_ACCESS_KEY"),
		ObjectStoreSecretKey: getEnvOrThrow("OBJECT_STORE_SECRET_KEY"),
		ObjectStoreBucket:    getEnvOrDefault("OBJECT_STORE_BUCKET", "flashread-documents"),

		WorkerID:            getEnvOrDefault("WORKER_ID", "worker-1"),
		PollIntervalSeconds: getEnvAsIntOrDefault("POLL_INTERVAL_SECONDS", 5),
		WorkerConcurrency:   getEnvAsIntOrDefault("WORKER_CONCURRENCY", 1),
		MaxAttempts:         getEnvAsIntOrDefault("MAX_ATTEMPTS", 3),

		PipelineVersion:    getEnvOrDefault("PIPELINE_VERSION", "1.0.0"),
		OCRDPIInitial:      getEnvAsIntOrDefault("OCR_DPI_INITIAL", 200),
		OCRDPIRerun:        getEnvAsIntOrDefault("OCR_DPI_RERUN", 300),
		OCRMinConfidence:   getEnvAsFloatOrDefault("OCR_MIN_CONFIDENCE", 0.6),
		OCRMinCharsPerPage: getEnvAsIntOrDefault("OCR_MIN_CHARS_PER_PAGE", 50),
		OCRLanguage:        getEnvOrDefault("OCR_LANGUAGE", "eng"),
		PaddleOCRURL:       getEnvOrDefault("PADDLE_OCR_URL", "http://localhost:8868/ocr"),
		TesseractPath:      getEnvOrDefault("TESSERACT_PATH", "/usr/bin/tesseract"),
	}

	if verr := cfg.Validate(); verr != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", verr)
	}

	return cfg, nil
}

// Validate checks that configuration values fall within accepted bounds.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.WorkerConcurrency < 1 || c.WorkerConcurrency > 32 {
		return fmt.Errorf("WORKER_CONCURRENCY must be between 1 and 32, got %d", c.WorkerConcurrency)
	}

	if c.OCRDPIInitial < 72 || c.OCRDPIInitial > 1200 {
		return fmt.Errorf("OCR_DPI_INITIAL must be between 72 and 1200, got %d", c.OCRDPIInitial)
	}

	if c.OCRDPIRerun < 72 || c.OCRDPIRerun > 1200 {
		return fmt.Errorf("OCR_DPI_RERUN must be between 72 and 1200, got %d", c.OCRDPIRerun)
	}

	if c.OCRMinConfidence < 0 || c.OCRMinConfidence > 1 {
		return fmt.Errorf("OCR_MIN_CONFIDENCE must be between 0 and 1, got %f", c.OCRMinConfidence)
	}

	if c.MaxAttempts < 1 || c.MaxAttempts > 20 {
		return fmt.Errorf("MAX_ATTEMPTS must be between 1 and 20, got %d", c.MaxAttempts)
	}

	if c.PollIntervalSeconds < 1 {
		return fmt.Errorf("POLL_INTERVAL_SECONDS must be at least 1, got %d", c.PollIntervalSeconds)
	}

	return nil
}

// getEnvOrDefault gets environment variable or returns default
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvOrThrow gets environment variable or panics
func getEnvOrThrow(key string) string {
	value := os.Getenv(key)
	if value == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return value
}

// getEnvAsIntOrDefault gets environment variable as int or returns default
func getEnvAsIntOrDefault(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

// getEnvAsFloatOrDefault gets environment variable as float64 or returns default
func getEnvAsFloatOrDefault(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

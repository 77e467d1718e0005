/**
 * Job Runner: the worker's main loop. Claims one job at a
 * time, downloads its document, dispatches to the extraction or OCR
 * handler, and completes or fails the job — never letting a processing
 * error escape to the outer loop.
 */

package runner

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/adverant/flashread-worker/internal/config"
	xerrors "github.com/adverant/flashread-worker/internal/errors"
	"github.com/adverant/flashread-worker/internal/extract"
	"github.com/adverant/flashread-worker/internal/logging"
	"github.com/adverant/flashread-worker/internal/model"
	"github.com/adverant/flashread-worker/internal/ocr"
	"github.com/adverant/flashread-worker/internal/quality"
	"github.com/adverant/flashread-worker/internal/router"
	"github.com/adverant/flashread-worker/internal/store"
)

// Runner drives the claim/download/dispatch/complete-or-fail loop.
type Runner struct {
	cfg        *config.Config
	instanceID string
	gateway    *store.Gateway
	objects    *store.ObjectStoreClient
	primary    ocr.Engine
	fallback   ocr.Engine
	log        *logging.Logger
	sem        *semaphore.Weighted
}

// New constructs a Runner. primary and fallback are the two OCR engines
// the Router escalates through; they are constructed once and reused for
// the worker's lifetime. When WorkerConcurrency > 1, the same two engines
// are called from several in-flight jobs at once.
//
// instanceID disambiguates locked_by across multiple replicas that share
// the same configured WORKER_ID: it's cfg.WorkerID plus a short random
// suffix, so two horizontally-scaled processes never look like the same
// claimant in the jobs table.
func New(cfg *config.Config, gateway *store.Gateway, objects *store.ObjectStoreClient, primary, fallback ocr.Engine, log *logging.Logger) *Runner {
	return &Runner{
		cfg:        cfg,
		instanceID: fmt.Sprintf("%s-%s", cfg.WorkerID, uuid.New().String()[:8]),
		gateway:    gateway,
		objects:    objects,
		primary:    primary,
		fallback:   fallback,
		log:        log,
		sem:        semaphore.NewWeighted(int64(cfg.WorkerConcurrency)),
	}
}

// InstanceID returns this runner's claim identity (cfg.WorkerID plus a
// per-process random suffix), the value recorded in jobs.locked_by.
func (r *Runner) InstanceID() string {
	return r.instanceID
}

// Run polls for jobs until ctx is cancelled or an OS interrupt/TERM signal
// arrives, then waits for any in-flight job to finish before returning.
// In-flight OCR is always run to completion — there is no mid-job
// cancellation primitive.
func (r *Runner) Run(ctx context.Context) error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(sigChan)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobCount := 0

	for {
		select {
		case sig := <-sigChan:
			r.log.Info("received shutdown signal, draining in-flight jobs", "signal", sig.String())
			cancel()
			if err := r.sem.Acquire(context.Background(), int64(r.cfg.WorkerConcurrency)); err != nil {
				r.log.Warn("failed to drain in-flight jobs cleanly", "error", err)
			}
			r.log.Info("worker stopped", "jobs_processed", jobCount)
			return nil
		case <-ctx.Done():
			r.log.Info("context cancelled, draining in-flight jobs")
			if err := r.sem.Acquire(context.Background(), int64(r.cfg.WorkerConcurrency)); err != nil {
				r.log.Warn("failed to drain in-flight jobs cleanly", "error", err)
			}
			r.log.Info("worker stopped", "jobs_processed", jobCount)
			return nil
		default:
		}

		if err := r.sem.Acquire(runCtx, 1); err != nil {
			continue
		}

		job, err := r.gateway.Claim(runCtx, r.instanceID)
		if err != nil {
			r.log.Error("claim failed", "error", err)
			r.sem.Release(1)
			time.Sleep(time.Duration(r.cfg.PollIntervalSeconds) * time.Second)
			continue
		}

		if job == nil {
			r.sem.Release(1)
			select {
			case <-runCtx.Done():
				continue
			case <-time.After(time.Duration(r.cfg.PollIntervalSeconds) * time.Second):
				continue
			}
		}

		if job.MaxAttempts < 1 {
			job.MaxAttempts = r.cfg.MaxAttempts
		}

		jobCount++
		r.log.Info("processing job", "job_id", job.ID, "document_id", job.DocumentID, "type", job.Type, "count", jobCount)

		go func(job *model.Job) {
			defer r.sem.Release(1)
			r.processJob(context.Background(), job)
		}(job)
	}
}

// processJob downloads the document and dispatches to the appropriate
// handler. Every error — download, extraction, OCR — is converted to a
// Fail call; nothing escapes to the caller. A panic anywhere in the chain
// (a bad PDF tripping up go-fitz, a nil-pointer bug in an engine) is
// recovered here rather than taking down the whole process, mirroring the
// blanket per-job exception guard the worker's dispatch loop relies on.
func (r *Runner) processJob(ctx context.Context, job *model.Job) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("job panicked", "job_id", job.ID, "panic", rec)
			r.fail(ctx, job, xerrors.NewInvalidInputError(job.ID, fmt.Errorf("panic: %v", rec)))
		}
	}()

	doc, err := r.gateway.ReadDocument(ctx, job.DocumentID)
	if err != nil {
		r.fail(ctx, job, xerrors.NewTransientStoreError(job.ID, fmt.Errorf("failed to read document: %w", err)))
		return
	}

	pdfBytes, err := r.objects.GetObject(ctx, r.cfg.ObjectStoreBucket, doc.StorageKey)
	if err != nil {
		r.fail(ctx, job, xerrors.NewTransientStoreError(job.ID, fmt.Errorf("failed to download PDF: %w", err)))
		return
	}

	var procErr error
	switch job.Type {
	case model.JobExtraction:
		procErr = r.handleExtraction(ctx, job, pdfBytes)
	case model.JobOCR:
		procErr = r.handleOCR(ctx, job, pdfBytes)
	default:
		procErr = fmt.Errorf("unknown job type: %s", job.Type)
	}

	if procErr != nil {
		r.fail(ctx, job, xerrors.NewInvalidInputError(job.ID, procErr))
	}
}

// handleExtraction runs the Direct Extractor and decides whether the
// document is ready or needs OCR.
func (r *Runner) handleExtraction(ctx context.Context, job *model.Job, pdfBytes []byte) error {
	result, err := extract.Extract(pdfBytes, r.cfg.PipelineVersion)
	if err != nil {
		return fmt.Errorf("extraction failed: %w", err)
	}

	r.log.Info("extraction complete", "job_id", job.ID, "char_count", result.Metrics.CharCount, "pages", result.Metrics.TotalPages, "runtime_ms", result.Metrics.RuntimeMs)

	finalStatus := model.DocReady
	if quality.DocumentSufficient(result.DocText, result.Metrics.TotalPages) {
		r.log.Info("extraction sufficient, document ready", "job_id", job.ID)
	} else {
		finalStatus = model.DocPendingOCR
		r.log.Info("extraction insufficient, needs OCR", "job_id", job.ID)
		result.Warnings = append(result.Warnings, fmt.Sprintf(
			"Insufficient text extracted (%d chars). Document likely scanned or image-based. Needs OCR processing.",
			result.Metrics.CharCount,
		))
	}

	return r.gateway.Complete(ctx, job, result, finalStatus)
}

// handleOCR runs the adaptive OCR Router and decides whether the document
// is ready or the OCR pass failed outright.
func (r *Runner) handleOCR(ctx context.Context, job *model.Job, pdfBytes []byte) error {
	language := r.cfg.OCRLanguage
	if job.Options != nil && job.Options.Language != "" {
		language = job.Options.Language
	}

	result, err := router.Process(ctx, pdfBytes, r.primary, r.fallback, router.Options{
		DPIInitial:      r.cfg.OCRDPIInitial,
		DPIRerun:        r.cfg.OCRDPIRerun,
		MinConfidence:   r.cfg.OCRMinConfidence,
		MinCharsPerPage: r.cfg.OCRMinCharsPerPage,
		PipelineVersion: r.cfg.PipelineVersion,
		Language:        language,
	})
	if err != nil {
		return fmt.Errorf("OCR pipeline failed: %w", err)
	}

	r.log.Info("OCR complete", "job_id", job.ID, "char_count", result.Metrics.CharCount, "method", result.Metrics.Method, "runtime_ms", result.Metrics.RuntimeMs)
	if len(result.Metrics.BadPages) > 0 {
		r.log.Warn("pages needed reprocessing", "job_id", job.ID, "count", len(result.Metrics.BadPages))
	}
	if len(result.Metrics.FallbackPages) > 0 {
		r.log.Warn("pages used fallback engine", "job_id", job.ID, "count", len(result.Metrics.FallbackPages))
	}

	finalStatus := model.DocReady
	if quality.DocumentSufficient(result.DocText, result.Metrics.TotalPages) {
		r.log.Info("OCR sufficient, document ready", "job_id", job.ID)
	} else {
		finalStatus = model.DocOCRFailed
		r.log.Warn("OCR insufficient, marking failed", "job_id", job.ID)
		result.Warnings = append(result.Warnings, fmt.Sprintf(
			"OCR produced insufficient text (%d chars). Document may be damaged, very low quality, or in an unsupported format.",
			result.Metrics.CharCount,
		))
	}

	return r.gateway.Complete(ctx, job, result, finalStatus)
}

func (r *Runner) fail(ctx context.Context, job *model.Job, cause error) {
	r.log.Error("job failed", "job_id", job.ID, "error", cause)
	if err := r.gateway.Fail(ctx, job, cause); err != nil {
		r.log.Error("failed to record job failure", "job_id", job.ID, "error", err)
	}
}

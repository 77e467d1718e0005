/**
 * Store Gateway: the relational-store side of the claim protocol.
 * The claim transition is guarded by a conditional UPDATE on
 * status='pending', so two workers racing the same row never both win.
 * Complete and Fail update the job by id alone.
 */

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	xerrors "github.com/adverant/flashread-worker/internal/errors"
	"github.com/adverant/flashread-worker/internal/model"
	"github.com/adverant/flashread-worker/internal/quality"
)

// Gateway wraps the jobs/documents relational store.
type Gateway struct {
	db *sql.DB
}

// NewGateway opens a connection pool against databaseURL and verifies
// connectivity before returning.
func NewGateway(databaseURL string) (*Gateway, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("database URL is required")
	}

	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(2 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Gateway{db: db}, nil
}

// Close releases the underlying connection pool.
func (g *Gateway) Close() error {
	return g.db.Close()
}

// Claim selects the oldest pending job (priority DESC, created_at ASC),
// attempts the atomic compare-and-set to processing, and — on success —
// marks the owning document processing. Returns (nil, nil) when there is
// no job to claim or another worker won the race.
func (g *Gateway) Claim(ctx context.Context, workerID string) (*model.Job, error) {
	var candidateID string
	err := g.db.QueryRowContext(ctx, `
		SELECT id FROM jobs
		WHERE status = 'pending'
		ORDER BY priority DESC, created_at ASC
		LIMIT 1
	`).Scan(&candidateID)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select candidate job: %w", err)
	}

	now := time.Now()
	res, err := g.db.ExecContext(ctx, `
		UPDATE jobs
		SET status = 'processing', locked_at = $1, locked_by = $2,
		    started_at = $1, updated_at = $1
		WHERE id = $3 AND status = 'pending'
	`, now, workerID, candidateID)
	if err != nil {
		return nil, fmt.Errorf("failed to claim job %s: %w", candidateID, err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to confirm claim of job %s: %w", candidateID, err)
	}
	if rows == 0 {
		// Another worker won the race.
		return nil, nil
	}

	job, err := g.readJob(ctx, candidateID)
	if err != nil {
		return nil, err
	}

	// Marking the document processing is intentionally non-atomic with the
	// claim above: a crash here leaves the document in its prior status
	// with a claimed job, which the next completion reconciles.
	if _, err := g.db.ExecContext(ctx, `
		UPDATE documents SET status = 'processing', updated_at = $1 WHERE id = $2
	`, now, job.DocumentID); err != nil {
		return nil, fmt.Errorf("failed to mark document %s processing: %w", job.DocumentID, err)
	}

	return job, nil
}

// ReadDocument fetches a document's storage key and current OCR versions.
func (g *Gateway) ReadDocument(ctx context.Context, documentID string) (*model.Document, error) {
	var (
		doc           model.Document
		ocrVersionsJS []byte
	)
	doc.ID = documentID

	err := g.db.QueryRowContext(ctx, `
		SELECT storage_key, ocr_versions FROM documents WHERE id = $1
	`, documentID).Scan(&doc.StorageKey, &ocrVersionsJS)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("document not found: %s", documentID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read document %s: %w", documentID, err)
	}

	doc.OCRVersions = map[string]model.Result{}
	if len(ocrVersionsJS) > 0 {
		if err := json.Unmarshal(ocrVersionsJS, &doc.OCRVersions); err != nil {
			return nil, fmt.Errorf("failed to unmarshal ocr_versions for document %s: %w", documentID, err)
		}
	}

	return &doc, nil
}

// Complete atomically marks a job completed with its result, then folds
// the result into the owning document's ocr_versions map under a freshly
// generated version key and updates the document's terminal status and
// page count.
func (g *Gateway) Complete(ctx context.Context, job *model.Job, result *model.Result, finalStatus model.DocumentStatus) error {
	now := time.Now()
	resultJSON, err := json.Marshal(sanitizeResultForJSON(result))
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	if _, err := g.db.ExecContext(ctx, `
		UPDATE jobs
		SET status = 'completed', completed_at = $1, updated_at = $1,
		    result = $2, locked_at = NULL, locked_by = NULL
		WHERE id = $3
	`, now, resultJSON, job.ID); err != nil {
		return fmt.Errorf("failed to complete job %s: %w", job.ID, err)
	}

	doc, err := g.ReadDocument(ctx, job.DocumentID)
	if err != nil {
		return err
	}

	versionKey := quality.GenerateVersionKey(result.Engine, result.EngineVersion, result.PipelineVersion, now)
	doc.OCRVersions[versionKey] = *result

	versionsJSON, err := json.Marshal(doc.OCRVersions)
	if err != nil {
		return fmt.Errorf("failed to marshal ocr_versions: %w", err)
	}

	if _, err := g.db.ExecContext(ctx, `
		UPDATE documents
		SET status = $1, ocr_versions = $2, page_count = $3, updated_at = $4
		WHERE id = $5
	`, string(finalStatus), versionsJSON, result.Metrics.TotalPages, now, job.DocumentID); err != nil {
		return fmt.Errorf("failed to update document %s after completion: %w", job.DocumentID, err)
	}

	return nil
}

// Fail increments the job's attempt counter. If the new count reaches
// max_attempts the job and document are marked permanently failed;
// otherwise the job is requeued to pending with the lock cleared. cause is
// normally a *errors.ProcessingError carrying one of the five-level
// taxonomy codes, so jobs.last_error/documents.error_message persist the
// code alongside the message rather than a bare string.
func (g *Gateway) Fail(ctx context.Context, job *model.Job, cause error) error {
	now := time.Now()
	msg := cause.Error()
	newAttempts := job.Attempts + 1

	if newAttempts >= job.MaxAttempts {
		permanent := xerrors.NewPermanentFailureError(job.ID, newAttempts, cause)

		if _, err := g.db.ExecContext(ctx, `
			UPDATE jobs
			SET status = 'failed', attempts = $1, last_error = $2,
			    locked_at = NULL, locked_by = NULL, updated_at = $3
			WHERE id = $4
		`, newAttempts, permanent.Error(), now, job.ID); err != nil {
			return fmt.Errorf("failed to mark job %s permanently failed: %w", job.ID, err)
		}

		if _, err := g.db.ExecContext(ctx, `
			UPDATE documents SET status = 'error', error_message = $1, updated_at = $2 WHERE id = $3
		`, permanent.Error(), now, job.DocumentID); err != nil {
			return fmt.Errorf("failed to mark document %s errored: %w", job.DocumentID, err)
		}

		return nil
	}

	if _, err := g.db.ExecContext(ctx, `
		UPDATE jobs
		SET status = 'pending', attempts = $1, last_error = $2,
		    locked_at = NULL, locked_by = NULL, updated_at = $3
		WHERE id = $4
	`, newAttempts, msg, now, job.ID); err != nil {
		return fmt.Errorf("failed to requeue job %s: %w", job.ID, err)
	}

	return nil
}

func (g *Gateway) readJob(ctx context.Context, jobID string) (*model.Job, error) {
	var (
		job          model.Job
		jobType      string
		status       string
		optionsJSON  []byte
		lockedBy     sql.NullString
		lockedAt     sql.NullTime
		startedAt    sql.NullTime
		completedAt  sql.NullTime
	)

	err := g.db.QueryRowContext(ctx, `
		SELECT id, document_id, type, status, priority, attempts, max_attempts,
		       locked_by, locked_at, options, created_at, updated_at, started_at, completed_at
		FROM jobs WHERE id = $1
	`, jobID).Scan(
		&job.ID, &job.DocumentID, &jobType, &status, &job.Priority, &job.Attempts, &job.MaxAttempts,
		&lockedBy, &lockedAt, &optionsJSON, &job.CreatedAt, &job.UpdatedAt, &startedAt, &completedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to read job %s: %w", jobID, err)
	}

	job.Type = model.JobType(jobType)
	job.Status = model.JobStatus(status)
	if lockedBy.Valid {
		job.LockedBy = &lockedBy.String
	}
	if lockedAt.Valid {
		job.LockedAt = &lockedAt.Time
	}
	if startedAt.Valid {
		job.StartedAt = &startedAt.Time
	}
	if completedAt.Valid {
		job.CompletedAt = &completedAt.Time
	}

	if len(optionsJSON) > 0 {
		var opts model.Options
		if err := json.Unmarshal(optionsJSON, &opts); err == nil {
			job.Options = &opts
		}
	}

	return &job, nil
}

// sanitizeResultForJSON strips NUL bytes, which Postgres's JSONB column
// rejects and which OCR text occasionally contains when recognition goes
// wrong on damaged scans. Other control characters are left as they are.
func sanitizeResultForJSON(result *model.Result) *model.Result {
	sanitized := *result
	sanitized.DocText = sanitizeJSONText(result.DocText)
	sanitized.Pages = make([]model.Page, len(result.Pages))
	for i, p := range result.Pages {
		sp := p
		sp.Text = sanitizeJSONText(p.Text)
		sp.RawText = sanitizeJSONText(p.RawText)
		sp.Blocks = make([]model.Block, len(p.Blocks))
		for j, b := range p.Blocks {
			sb := b
			sb.Text = sanitizeJSONText(b.Text)
			sp.Blocks[j] = sb
		}
		sanitized.Pages[i] = sp
	}
	return &sanitized
}

func sanitizeJSONText(s string) string {
	if !strings.ContainsRune(s, 0) {
		return s
	}
	return strings.Map(func(r rune) rune {
		if r == 0 {
			return -1
		}
		return r
	}, s)
}

/**
 * Domain model for the FlashRead document-processing worker.
 *
 * Mirrors the persisted layout under documents.ocr_versions[<version_key>]
 * and the jobs/documents tables consumed through the Store Gateway.
 */

package model

import "time"

// BlockType is the closed set of semantic roles a Block may be assigned.
type BlockType string

const (
	BlockTitle         BlockType = "title"
	BlockSectionHeader BlockType = "section_header"
	BlockHeader        BlockType = "header"
	BlockParagraph     BlockType = "paragraph"
	BlockEquation      BlockType = "equation"
	BlockTable         BlockType = "table"
	BlockFigure        BlockType = "figure"
	BlockCaption       BlockType = "caption"
	BlockList          BlockType = "list"
	BlockCode          BlockType = "code"
	BlockCitation      BlockType = "citation"
	BlockFootnote      BlockType = "footnote"
	BlockPageNumber    BlockType = "page_number"
	BlockOther         BlockType = "other"
	BlockUnknown       BlockType = "unknown"
)

// coreContent is the set of block types that form reading-order doc_text.
var coreContent = map[BlockType]bool{
	BlockTitle:         true,
	BlockSectionHeader: true,
	BlockParagraph:     true,
	BlockList:          true,
}

// IsCoreContent reports whether a block type participates in the reading-order text.
func IsCoreContent(t BlockType) bool {
	return coreContent[t]
}

// BBox is an axis-aligned bounding box in pixel units of the rendered page: [x, y, w, h].
type BBox struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Block is a contiguous text region with an optional position and confidence.
type Block struct {
	Type       BlockType `json:"type"`
	Text       string    `json:"text"`
	Confidence *float64  `json:"confidence,omitempty"`
	BBox       *BBox     `json:"bbox,omitempty"`
}

// Page is a single 1-indexed page of a Result.
type Page struct {
	Page       int      `json:"page"`
	Blocks     []Block  `json:"blocks"`
	Text       string   `json:"text"`
	RawText    string   `json:"raw_text"`
	Confidence *float64 `json:"confidence,omitempty"`
}

// Metrics summarises a Result's extraction/OCR run.
type Metrics struct {
	TotalPages    int      `json:"total_pages"`
	Method        string   `json:"method"` // "direct" | "paddle" | "tesseract" | "hybrid"
	CharCount     int      `json:"char_count"`
	AvgConf       *float64 `json:"avg_conf,omitempty"`
	RuntimeMs     int64    `json:"runtime_ms"`
	DPIInitial    *int     `json:"dpi_initial,omitempty"`
	DPIRerun      *int     `json:"dpi_rerun,omitempty"`
	BadPages      []int    `json:"bad_pages,omitempty"`
	FallbackPages []int    `json:"fallback_pages,omitempty"`
}

// Result is an immutable, versioned extraction/OCR output.
type Result struct {
	CreatedAt       time.Time `json:"created_at"`
	Engine          string    `json:"engine"`
	EngineVersion   string    `json:"engine_version"`
	PipelineVersion string    `json:"pipeline_version"`
	Pages           []Page    `json:"pages"`
	DocText         string    `json:"doc_text"`
	Metrics         Metrics   `json:"metrics"`
	Warnings        []string  `json:"warnings"`
}

// JobType distinguishes the two handlers the Job Runner dispatches on.
type JobType string

const (
	JobExtraction JobType = "extraction"
	JobOCR        JobType = "ocr"
)

// JobStatus is a job's lifecycle state.
type JobStatus string

const (
	JobPending    JobStatus = "pending"
	JobProcessing JobStatus = "processing"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
)

// Options is the request-time configuration carried by a job. It's kept
// distinct from Result rather than folded into one overloaded blob.
type Options struct {
	Language string `json:"language,omitempty"`
}

// Job references a Document and is owned exclusively by one worker between
// claim and completion/failure.
type Job struct {
	ID          string
	DocumentID  string
	Type        JobType
	Status      JobStatus
	Priority    int
	Attempts    int
	MaxAttempts int
	LockedBy    *string
	LockedAt    *time.Time
	Options     *Options
	Result      *Result
	LastError   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	StartedAt   *time.Time
	CompletedAt *time.Time
}

// DocumentStatus is one of the terminal statuses set by the worker, plus the
// transient "processing" status set by the claim protocol.
type DocumentStatus string

const (
	DocProcessing DocumentStatus = "processing"
	DocReady      DocumentStatus = "ready"
	DocPendingOCR DocumentStatus = "pending_ocr"
	DocOCRFailed  DocumentStatus = "ocr_failed"
	DocError      DocumentStatus = "error"
)

// Document is identified by an opaque ID and mutated only by the Store Gateway.
type Document struct {
	ID           string
	StorageKey   string
	Status       DocumentStatus
	OCRVersions  map[string]Result
	PageCount    int
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

package model

import (
	"time"

	"github.com/google/uuid"
)

type DocumentID string

// NewDocumentID generates a new unique DocumentID
func NewDocumentID() DocumentID {
	return DocumentID(uuid.New().String())
}

// OriginKind distinguishes how a document's content is fetched
type OriginKind string

const (
	OriginFile OriginKind = "file"
	OriginURL  OriginKind = "url"
)

// IngestStatus is the processing state of a submitted document.
// Transitions are owned by the memory engine; callers only observe.
type IngestStatus string

const (
	StatusPending IngestStatus = "pending"
	StatusReady   IngestStatus = "ready"
	StatusFailed  IngestStatus = "failed"
)

// Document represents a content source submitted for ingestion
type Document struct {
	ID          DocumentID
	Kind        OriginKind
	Origin      string // file path or URL
	Name        string // display name, defaults to the origin
	Status      IngestStatus
	SubmittedAt time.Time
	UpdatedAt   time.Time
}

package projection

import (
	"context"
	"fmt"
	"log/slog"

	v1 "github.com/stratahq/strata/internal/api/v1"
	"github.com/stratahq/strata/internal/core/storage"
	"github.com/stratahq/strata/internal/core/stream"
)

// Outcome reports what a writer operation did to the read model.
type Outcome int

const (
	OutcomeCreated Outcome = iota
	OutcomeAlreadyExists
	OutcomeUpdated
	OutcomeMissing
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCreated:
		return "created"
	case OutcomeAlreadyExists:
		return "already_exists"
	case OutcomeUpdated:
		return "updated"
	case OutcomeMissing:
		return "missing"
	default:
		return "unknown"
	}
}

// Mutator applies an event's domain changes to a document.
// Returning an error aborts the operation before anything is written.
type Mutator func(doc *storage.Document) error

// Writer folds events into read-model documents.
//
// Both operations are idempotent under redelivery: creating an existing document
// and updating a missing one succeed without writing. Writer does not buffer or
// reorder; events for one entity must be applied in stream order by the caller.
type Writer struct {
	store storage.DocumentStore
}

// NewWriter creates a Writer backed by store.
func NewWriter(store storage.DocumentStore) *Writer {
	if store == nil {
		panic("projection: document store must not be nil")
	}
	return &Writer{store: store}
}

// CreateIfAbsent materializes the entity named by header unless it already exists.
// Losing an insert race to another writer reports OutcomeAlreadyExists, not an error.
func (w *Writer) CreateIfAbsent(ctx context.Context, header v1.EnvelopeHeader, mutate Mutator) (Outcome, error) {
	if err := checkIdentity(header); err != nil {
		return 0, err
	}

	doc := &storage.Document{
		Kind:           stream.NormalizeKind(header.EntityKind),
		ID:             header.EntityID,
		ScopeID:        header.ScopeID,
		CreatedAt:      header.Timestamp.UTC(),
		LastModifiedAt: header.Timestamp.UTC(),
		Version:        header.Version,
		Data:           make(map[string]interface{}),
	}

	if mutate != nil {
		if err := mutate(doc); err != nil {
			return 0, fmt.Errorf("create %s/%s: mutate: %w", doc.Kind, doc.ID, err)
		}
	}

	outcome, err := w.store.InsertIfAbsent(ctx, doc)
	if err != nil {
		return 0, fmt.Errorf("create %s/%s: %w", doc.Kind, doc.ID, err)
	}

	if outcome == storage.AlreadyExists {
		slog.Debug("[Projection] Document already exists, skipping create",
			"kind", doc.Kind,
			"id", doc.ID,
			"version", header.Version,
		)
		return OutcomeAlreadyExists, nil
	}
	return OutcomeCreated, nil
}

// UpdateIfPresent applies mutate to the stored entity named by header.
// A missing entity is a no-op. Neither LastModifiedAt nor Version moves backwards.
func (w *Writer) UpdateIfPresent(ctx context.Context, header v1.EnvelopeHeader, mutate Mutator) (Outcome, error) {
	if err := checkIdentity(header); err != nil {
		return 0, err
	}

	kind := stream.NormalizeKind(header.EntityKind)

	doc, err := w.store.FindByID(ctx, kind, header.EntityID)
	if err != nil {
		return 0, fmt.Errorf("update %s/%s: find: %w", kind, header.EntityID, err)
	}
	if doc == nil {
		slog.Debug("[Projection] Document not found, skipping update",
			"kind", kind,
			"id", header.EntityID,
			"version", header.Version,
		)
		return OutcomeMissing, nil
	}

	ts := header.Timestamp.UTC()
	if ts.After(doc.LastModifiedAt) {
		doc.LastModifiedAt = ts
	}
	if header.Version > doc.Version {
		doc.Version = header.Version
	}
	if doc.Data == nil {
		doc.Data = make(map[string]interface{})
	}

	if mutate != nil {
		if err := mutate(doc); err != nil {
			return 0, fmt.Errorf("update %s/%s: mutate: %w", kind, header.EntityID, err)
		}
	}

	if err := w.store.Replace(ctx, doc); err != nil {
		return 0, fmt.Errorf("update %s/%s: %w", kind, header.EntityID, err)
	}
	return OutcomeUpdated, nil
}

func checkIdentity(header v1.EnvelopeHeader) error {
	if header.EntityKind == "" {
		return fmt.Errorf("%w: entity kind is required", storage.ErrInvalidArgument)
	}
	if header.EntityID == "" {
		return fmt.Errorf("%w: entity id is required", storage.ErrInvalidArgument)
	}
	return nil
}

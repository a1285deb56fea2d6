package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/stratahq/strata/internal/core/storage"
)

// DocumentAdapter implements storage.DocumentStore for PostgreSQL.
type DocumentAdapter struct {
	db          *sql.DB
	stmtInsert  *sql.Stmt
	stmtFind    *sql.Stmt
	stmtReplace *sql.Stmt
}

// NewDocumentAdapter creates a document adapter sharing the given connection.
// The documents table must exist; statements are prepared up front.
func NewDocumentAdapter(db *sql.DB) (*DocumentAdapter, error) {
	if err := validateTable(db, "documents"); err != nil {
		return nil, fmt.Errorf("schema validation failed - did you run migrations?: %w", err)
	}

	stmtInsert, err := db.Prepare(queryInsertDocument)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare insertDocument statement: %w", err)
	}

	stmtFind, err := db.Prepare(queryFindDocument)
	if err != nil {
		stmtInsert.Close()
		return nil, fmt.Errorf("failed to prepare findDocument statement: %w", err)
	}

	stmtReplace, err := db.Prepare(queryReplaceDocument)
	if err != nil {
		stmtInsert.Close()
		stmtFind.Close()
		return nil, fmt.Errorf("failed to prepare replaceDocument statement: %w", err)
	}

	slog.Info("[Postgres] Document adapter initialized with prepared statements")

	return &DocumentAdapter{
		db:          db,
		stmtInsert:  stmtInsert,
		stmtFind:    stmtFind,
		stmtReplace: stmtReplace,
	}, nil
}

// FindByID loads one document. Returns (nil, nil) when it does not exist.
func (a *DocumentAdapter) FindByID(ctx context.Context, kind, id string) (*storage.Document, error) {
	doc, err := scanDocumentRow(a.stmtFind.QueryRowContext(ctx, kind, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find document %s/%s: %w", kind, id, err)
	}
	return doc, nil
}

// InsertIfAbsent inserts doc unless a document with the same (kind, id) exists.
// A conflicting row is reported as storage.AlreadyExists.
func (a *DocumentAdapter) InsertIfAbsent(ctx context.Context, doc *storage.Document) (storage.InsertOutcome, error) {
	dataJSON, err := marshalDocumentData(doc)
	if err != nil {
		return storage.Inserted, err
	}

	var insertedID string
	err = a.stmtInsert.QueryRowContext(ctx,
		doc.Kind,
		doc.ID,
		doc.ScopeID,
		doc.CreatedAt,
		doc.LastModifiedAt,
		doc.Version,
		doc.Deleted,
		dataJSON,
	).Scan(&insertedID)

	if errors.Is(err, sql.ErrNoRows) {
		// ON CONFLICT DO NOTHING - document already exists
		return storage.AlreadyExists, nil
	}
	if err != nil {
		return storage.Inserted, fmt.Errorf("failed to insert document %s/%s: %w", doc.Kind, doc.ID, err)
	}

	slog.Debug("[Postgres] Inserted document",
		"kind", doc.Kind,
		"id", doc.ID,
		"version", doc.Version)
	return storage.Inserted, nil
}

// Replace overwrites the mutable columns of an existing document.
func (a *DocumentAdapter) Replace(ctx context.Context, doc *storage.Document) error {
	dataJSON, err := marshalDocumentData(doc)
	if err != nil {
		return err
	}

	result, err := a.stmtReplace.ExecContext(ctx,
		doc.Kind,
		doc.ID,
		doc.ScopeID,
		doc.LastModifiedAt,
		doc.Version,
		doc.Deleted,
		dataJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to replace document %s/%s: %w", doc.Kind, doc.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check replace of %s/%s: %w", doc.Kind, doc.ID, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("replace %s/%s: document not found", doc.Kind, doc.ID)
	}
	return nil
}

// Close closes the prepared statements. The shared *sql.DB is owned by the caller.
func (a *DocumentAdapter) Close() error {
	var firstErr error

	if err := a.stmtInsert.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("failed to close insertDocument statement: %w", err)
	}
	if err := a.stmtFind.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("failed to close findDocument statement: %w", err)
	}
	if err := a.stmtReplace.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("failed to close replaceDocument statement: %w", err)
	}

	return firstErr
}

package postgres

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/stratahq/strata/internal/core/storage"
)

// marshalDocumentData marshals a document's Data map to JSON.
// A nil map is stored as an empty object so the NOT NULL column is always valid JSON.
func marshalDocumentData(doc *storage.Document) ([]byte, error) {
	if doc.Data == nil {
		return []byte("{}"), nil
	}
	data, err := json.Marshal(doc.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal data: %w", err)
	}
	return data, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

// scanDocumentRow scans a database row into a Document.
// Compatible with both sql.Row (single) and sql.Rows (multiple).
func scanDocumentRow(row scanner) (*storage.Document, error) {
	var doc storage.Document
	var dataJSON []byte

	err := row.Scan(
		&doc.Kind,
		&doc.ID,
		&doc.ScopeID,
		&doc.CreatedAt,
		&doc.LastModifiedAt,
		&doc.Version,
		&doc.Deleted,
		&dataJSON,
	)
	if err != nil {
		return nil, err
	}

	if len(dataJSON) > 0 {
		if err := json.Unmarshal(dataJSON, &doc.Data); err != nil {
			return nil, fmt.Errorf("failed to unmarshal data: %w", err)
		}
	}

	return &doc, nil
}

// truncateToDay truncates a timestamp to 00:00:00 UTC of its day.
func truncateToDay(t time.Time) time.Time {
	year, month, day := t.UTC().Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

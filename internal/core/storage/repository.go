package storage

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ErrInvalidArgument is returned when an identifier required by an operation is empty.
var ErrInvalidArgument = errors.New("invalid argument")

// InsertOutcome reports what InsertIfAbsent did.
type InsertOutcome int

const (
	// Inserted means the document did not exist and was written.
	Inserted InsertOutcome = iota
	// AlreadyExists means a document with the same (kind, id) was already stored; nothing was written.
	AlreadyExists
)

func (o InsertOutcome) String() string {
	switch o {
	case Inserted:
		return "inserted"
	case AlreadyExists:
		return "already_exists"
	default:
		return "unknown"
	}
}

// Document is a read-model entity materialized from one event stream.
type Document struct {
	Kind           string
	ID             string
	ScopeID        string
	CreatedAt      time.Time
	LastModifiedAt time.Time
	Version        int64
	Deleted        bool
	Data           map[string]interface{}
}

// Clone returns a copy whose Data map can be mutated without touching the original.
// Nested values are shared.
func (d *Document) Clone() *Document {
	c := *d
	if d.Data != nil {
		c.Data = make(map[string]interface{}, len(d.Data))
		for k, v := range d.Data {
			c.Data[k] = v
		}
	}
	return &c
}

// DocumentStore persists read-model documents.
type DocumentStore interface {
	// FindByID returns the document, or (nil, nil) when none exists.
	FindByID(ctx context.Context, kind, id string) (*Document, error)

	// InsertIfAbsent writes doc only if no document with the same (kind, id) exists.
	// A lost race is reported as AlreadyExists, never as an error.
	InsertIfAbsent(ctx context.Context, doc *Document) (InsertOutcome, error)

	// Replace overwrites the stored document with the same (kind, id).
	Replace(ctx context.Context, doc *Document) error
}

// StoredUsage is the persisted usage for one metering key on one day.
type StoredUsage struct {
	Date   time.Time
	Weight decimal.Decimal
	Count  int64
}

// UsageStore persists per-day usage counters.
type UsageStore interface {
	// AddUsage adds weight and count to the record for (key, day), creating it if needed.
	AddUsage(ctx context.Context, day time.Time, key string, weight decimal.Decimal, count int64) error

	// QueryUsage returns the stored records for key with from <= day <= to.
	// Days without data are omitted and no ordering is guaranteed.
	QueryUsage(ctx context.Context, key string, from, to time.Time) ([]StoredUsage, error)
}

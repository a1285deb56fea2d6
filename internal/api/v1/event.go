package v1

import (
	"fmt"
	"time"
)

// EnvelopeHeader is the delivery metadata that accompanies every domain event.
// It is produced by the upstream event source and never mutated downstream.
type EnvelopeHeader struct {
	// EntityKind names the aggregate type the event belongs to (e.g. "app", "schema", "content").
	EntityKind string `json:"entity_kind"`

	// EntityID identifies the aggregate instance. Events for one EntityID arrive in order.
	EntityID string `json:"entity_id"`

	// ScopeID is the owning scope (the app an entity lives in). Optional.
	ScopeID string `json:"scope_id,omitempty"`

	// Timestamp is when the event was committed to its stream.
	Timestamp time.Time `json:"timestamp"`

	// Version is the ordinal of the event inside its stream.
	Version int64 `json:"version"`
}

// Validate checks the header carries the fields every projection needs.
func (h EnvelopeHeader) Validate() error {
	if h.EntityKind == "" {
		return fmt.Errorf("entity_kind is required")
	}
	if h.EntityID == "" {
		return fmt.Errorf("entity_id is required")
	}
	if h.Timestamp.IsZero() {
		return fmt.Errorf("timestamp is required")
	}
	if h.Version < 0 {
		return fmt.Errorf("version must be >= 0")
	}
	return nil
}

// Event is one delivered domain event.
// It separates the "Envelope" (delivery metadata) from the "Letter" (Data).
type Event struct {
	// ID is the unique identifier of the delivery. Assigned on receipt when the client omits it.
	ID string `json:"id"`

	// Type is the domain event name (e.g. "app.created", "app.master_language_set").
	// It selects the projection rule that folds the event.
	Type string `json:"type"`

	Header EnvelopeHeader `json:"header"`

	// Data is the domain-specific payload.
	Data map[string]interface{} `json:"data"`
}

// Validate ensures the event has all required attributes.
func (e *Event) Validate() error {
	if e.Type == "" {
		return fmt.Errorf("type is required")
	}
	if err := e.Header.Validate(); err != nil {
		return fmt.Errorf("header: %w", err)
	}
	return nil
}

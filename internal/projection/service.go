package projection

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	v1 "github.com/stratahq/strata/internal/api/v1"
	"github.com/stratahq/strata/internal/core/storage"
	"github.com/stratahq/strata/internal/core/stream"
	"github.com/stratahq/strata/internal/metrics"
)

// ErrUnknownEventType marks events whose type has no projection rule.
var ErrUnknownEventType = errors.New("unknown event type")

// Result describes one applied event.
type Result struct {
	EventID string  `json:"event_id"`
	Stream  string  `json:"stream"`
	Kind    string  `json:"kind"`
	ID      string  `json:"id"`
	Outcome Outcome `json:"-"`
	Status  string  `json:"outcome"`
}

// Service applies delivered events to the read model through the loaded rules.
type Service struct {
	writer   *Writer
	rules    *RuleSet
	resolver *stream.Resolver
	newID    func() string
}

// NewService creates the event applier.
func NewService(writer *Writer, rules *RuleSet, resolver *stream.Resolver) *Service {
	if writer == nil {
		panic("projection: writer must not be nil")
	}
	if rules == nil {
		panic("projection: rules must not be nil")
	}
	if resolver == nil {
		panic("projection: resolver must not be nil")
	}
	return &Service{
		writer:   writer,
		rules:    rules,
		resolver: resolver,
		newID:    func() string { return uuid.NewString() },
	}
}

// Apply folds one event into the read model.
//
// The rule for the event type decides the writer operation; the header's entity
// kind must match the rule's kind. Redelivered events are absorbed by the writer's
// idempotency and reported through the outcome.
func (s *Service) Apply(ctx context.Context, evt *v1.Event) (*Result, error) {
	if evt.ID == "" {
		evt.ID = s.newID()
	}
	if err := evt.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrInvalidArgument, err)
	}

	rule, ok := s.rules.Get(evt.Type)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEventType, evt.Type)
	}

	kind := stream.NormalizeKind(evt.Header.EntityKind)
	if kind != stream.NormalizeKind(rule.Kind) {
		return nil, fmt.Errorf("%w: event %s targets kind %q, rule expects %q",
			storage.ErrInvalidArgument, evt.Type, evt.Header.EntityKind, rule.Kind)
	}

	address, err := s.resolver.Resolve(evt.Header.EntityKind, evt.Header.EntityID)
	if err != nil {
		return nil, err
	}

	var outcome Outcome
	switch rule.Action {
	case ActionCreate:
		outcome, err = s.writer.CreateIfAbsent(ctx, evt.Header, rule.Mutator(evt.Data))
	default:
		outcome, err = s.writer.UpdateIfPresent(ctx, evt.Header, rule.Mutator(evt.Data))
	}
	if err != nil {
		return nil, fmt.Errorf("apply %s to %s: %w", evt.Type, address, err)
	}

	metrics.ProjectionsApplied.WithLabelValues(kind, outcome.String()).Inc()

	slog.Info("[Projection] Applied event",
		"event_id", evt.ID,
		"event_type", evt.Type,
		"stream", address,
		"version", evt.Header.Version,
		"outcome", outcome.String(),
	)

	return &Result{
		EventID: evt.ID,
		Stream:  address,
		Kind:    kind,
		ID:      evt.Header.EntityID,
		Outcome: outcome,
		Status:  outcome.String(),
	}, nil
}

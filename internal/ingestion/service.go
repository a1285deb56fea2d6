package ingestion

import (
	"context"

	"github.com/gin-gonic/gin"
	v1 "github.com/stratahq/strata/internal/api/v1"
	"github.com/stratahq/strata/internal/projection"
)

// EventApplier folds one delivered event into the read model.
type EventApplier interface {
	Apply(ctx context.Context, evt *v1.Event) (*projection.Result, error)
}

// UsageTracker accepts one usage increment without blocking on I/O.
type UsageTracker interface {
	Track(key string, weight float64, count int64) error
}

// Service is the write side of the HTTP surface: event delivery and usage tracking.
type Service struct {
	applier          EventApplier
	tracker          UsageTracker
	maxBodySizeBytes int
}

// NewService creates the ingestion service. tracker may be nil when usage
// metering is disabled; the usage route is then not registered.
func NewService(applier EventApplier, tracker UsageTracker, maxBodySizeMB int) *Service {
	if applier == nil {
		panic("ingestion: applier must not be nil")
	}
	if maxBodySizeMB <= 0 {
		maxBodySizeMB = 1 // default to 1MB
	}
	return &Service{
		applier:          applier,
		tracker:          tracker,
		maxBodySizeBytes: maxBodySizeMB * 1024 * 1024,
	}
}

// RegisterRoutes registers the ingestion service routes.
func (s *Service) RegisterRoutes(r gin.IRouter) {
	r.POST("/v1/events", s.IngestHandler)
	if s.tracker != nil {
		r.POST("/v1/usage/:key", s.TrackHandler)
	}
}

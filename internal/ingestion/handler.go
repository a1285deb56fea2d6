package ingestion

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stratahq/strata/internal/aggregation"
	v1 "github.com/stratahq/strata/internal/api/v1"
	httperr "github.com/stratahq/strata/internal/core/errors"
	"github.com/stratahq/strata/internal/core/storage"
	"github.com/stratahq/strata/internal/projection"
)

const (
	msgReadBodyFailed = "Failed to read request body"
	msgInvalidJSON    = "Invalid JSON body"
	msgApplyFailed    = "Failed to apply event"
	msgTrackFailed    = "Failed to track usage"
	msgUnknownEvent   = "No projection rule for event type"
	msgUnavailable    = "Usage metering is shutting down"
)

// ingestionError carries the structured HTTP error shape from a helper back to the orchestrator.
// Helpers return this instead of writing to gin.Context directly, keeping them decoupled from HTTP.
type ingestionError struct {
	statusCode int
	errorType  string
	message    string
	details    interface{}
}

func (e *ingestionError) Error() string {
	return e.message
}

// trackRequest is the body of POST /v1/usage/:key.
type trackRequest struct {
	Weight *float64 `json:"weight" binding:"required"`
	Count  int64    `json:"count"`
}

// IngestHandler handles POST /v1/events: one event is applied to the read model.
func (s *Service) IngestHandler(c *gin.Context) {
	var evt v1.Event
	payloadSize, perr := s.bindBody(c, &evt)
	if perr != nil {
		writeError(c, perr)
		return
	}

	slog.Debug("[Ingestion] Received event",
		"event_id", evt.ID,
		"event_type", evt.Type,
		"entity_kind", evt.Header.EntityKind,
		"entity_id", evt.Header.EntityID,
		"payload_size", payloadSize,
	)

	res, err := s.applier.Apply(c.Request.Context(), &evt)
	if err != nil {
		writeError(c, classify(err, msgApplyFailed, "event_type", evt.Type))
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"status":   "accepted",
		"event_id": res.EventID,
		"stream":   res.Stream,
		"outcome":  res.Status,
	})
}

// TrackHandler handles POST /v1/usage/:key: one usage increment is buffered.
func (s *Service) TrackHandler(c *gin.Context) {
	key := c.Param("key")

	var req trackRequest
	if _, perr := s.bindBody(c, &req); perr != nil {
		writeError(c, perr)
		return
	}

	if err := s.tracker.Track(key, *req.Weight, req.Count); err != nil {
		writeError(c, classify(err, msgTrackFailed, "key", key))
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
}

// bindBody reads the size-limited request body and binds it as JSON into dst.
// Returns the raw payload size (used for structured logging upstream).
func (s *Service) bindBody(c *gin.Context, dst interface{}) (int, *ingestionError) {
	maxBytes := int64(s.maxBodySizeBytes)
	limitedBody := io.LimitReader(c.Request.Body, maxBytes+1) // +1 to detect oversized requests

	bodyBytes, err := io.ReadAll(limitedBody)
	if err != nil {
		slog.Error("[Ingestion] Failed to read request body", "error", err)
		return 0, &ingestionError{
			statusCode: http.StatusInternalServerError,
			errorType:  httperr.HttpInternalError,
			message:    msgReadBodyFailed,
		}
	}

	if int64(len(bodyBytes)) > maxBytes {
		slog.Warn("[Ingestion] Request body exceeds maximum size", "size", len(bodyBytes), "max", maxBytes)
		return len(bodyBytes), &ingestionError{
			statusCode: http.StatusRequestEntityTooLarge,
			errorType:  httperr.HttpInvalidJsonError,
			message:    "Request body exceeds maximum allowed size",
			details: map[string]interface{}{
				"max_size_mb": maxBytes / (1024 * 1024),
			},
		}
	}

	c.Request.Body = io.NopCloser(bytes.NewReader(bodyBytes))

	if err := c.ShouldBindJSON(dst); err != nil {
		slog.Warn("[Ingestion] Invalid JSON body received", "error", err, "payload_size", len(bodyBytes))
		return len(bodyBytes), &ingestionError{
			statusCode: http.StatusBadRequest,
			errorType:  httperr.HttpInvalidJsonError,
			message:    msgInvalidJSON,
			details:    err.Error(),
		}
	}

	return len(bodyBytes), nil
}

// classify maps a domain error onto its HTTP shape.
func classify(err error, fallback string, attrs ...interface{}) *ingestionError {
	switch {
	case errors.Is(err, storage.ErrInvalidArgument):
		slog.Warn("[Ingestion] Rejected request", append(attrs, "error", err)...)
		return &ingestionError{
			statusCode: http.StatusBadRequest,
			errorType:  httperr.HttpInvalidArgumentError,
			message:    err.Error(),
		}
	case errors.Is(err, projection.ErrUnknownEventType):
		slog.Warn("[Ingestion] Unknown event type", append(attrs, "error", err)...)
		return &ingestionError{
			statusCode: http.StatusUnprocessableEntity,
			errorType:  httperr.HttpUnknownEventError,
			message:    msgUnknownEvent,
			details:    err.Error(),
		}
	case errors.Is(err, aggregation.ErrDisposed):
		return &ingestionError{
			statusCode: http.StatusServiceUnavailable,
			errorType:  httperr.HttpUnavailableError,
			message:    msgUnavailable,
		}
	default:
		slog.Error("[Ingestion] Request failed", append(attrs, "error", err)...)
		return &ingestionError{
			statusCode: http.StatusInternalServerError,
			errorType:  httperr.HttpInternalError,
			message:    fallback,
		}
	}
}

// writeError serializes an ingestionError as the JSON HTTP response.
func writeError(c *gin.Context, err *ingestionError) {
	c.JSON(err.statusCode, httperr.ErrorResponse{
		ErrorType: err.errorType,
		Message:   err.message,
		Details:   err.details,
	})
}

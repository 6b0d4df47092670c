package ingestion

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"net/http"

	v1 "github.com/aevon-lab/rule-engine/internal/api/v1"
	"github.com/aevon-lab/rule-engine/internal/auth"
	httperr "github.com/aevon-lab/rule-engine/internal/core/errors"
	"github.com/aevon-lab/rule-engine/internal/engine"
	"github.com/gin-gonic/gin"
)

const (
	msgReadBodyFailed   = "Failed to read request body"
	msgInvalidJSON      = "Invalid JSON body"
	msgDeliveryFailed   = "Alerts fired but could not be delivered"
	msgProcessingFailed = "Failed to process envelope"
)

// ingestionError carries the structured HTTP error shape from a helper back to the handler.
type ingestionError struct {
	statusCode int
	errorType  string
	message    string
	details    interface{}
}

func (e *ingestionError) Error() string {
	return e.message
}

// IngestResponse is the 202 body: the alerts this envelope fired, possibly none.
type IngestResponse struct {
	Status string     `json:"status"`
	Alerts []v1.Alert `json:"alerts"`
}

// IngestHandler handles POST /v1/envelopes.
func (s *Service) IngestHandler(c *gin.Context) {
	env, payloadSize, ierr := s.parseEnvelope(c)
	if ierr != nil {
		writeError(c, ierr)
		return
	}

	slog.Debug("[Ingestion] Received envelope",
		"device_id", env.DeviceID,
		"correlation_id", env.CorrelationID,
		"subject", auth.Subject(c),
		"payload_size", payloadSize)

	alerts, err := s.proc.OnEnvelope(c.Request.Context(), env)
	if err != nil {
		writeError(c, classify(env, alerts, err))
		return
	}

	if alerts == nil {
		alerts = []v1.Alert{}
	}
	c.JSON(http.StatusAccepted, IngestResponse{Status: "accepted", Alerts: alerts})
}

// parseEnvelope reads the size-limited body and binds it into an Envelope.
func (s *Service) parseEnvelope(c *gin.Context) (v1.Envelope, int, *ingestionError) {
	maxBytes := int64(s.maxBodySizeBytes)
	limitedBody := io.LimitReader(c.Request.Body, maxBytes+1) // +1 to detect oversized requests

	bodyBytes, err := io.ReadAll(limitedBody)
	if err != nil {
		slog.Error("[Ingestion] Failed to read request body", "error", err)
		return v1.Envelope{}, 0, &ingestionError{
			statusCode: http.StatusInternalServerError,
			errorType:  httperr.HttpInternalError,
			message:    msgReadBodyFailed,
		}
	}

	if int64(len(bodyBytes)) > maxBytes {
		slog.Warn("[Ingestion] Request body exceeds maximum size", "size", len(bodyBytes), "max", maxBytes)
		return v1.Envelope{}, len(bodyBytes), &ingestionError{
			statusCode: http.StatusRequestEntityTooLarge,
			errorType:  httperr.HttpPayloadTooLargeError,
			message:    "Request body exceeds maximum allowed size",
			details: map[string]interface{}{
				"max_size_mb": maxBytes / (1024 * 1024),
			},
		}
	}

	c.Request.Body = io.NopCloser(bytes.NewReader(bodyBytes))

	var env v1.Envelope
	if err := c.ShouldBindJSON(&env); err != nil {
		slog.Warn("[Ingestion] Invalid JSON body received", "error", err, "payload_size", len(bodyBytes))
		return v1.Envelope{}, len(bodyBytes), &ingestionError{
			statusCode: http.StatusBadRequest,
			errorType:  httperr.HttpInvalidJsonError,
			message:    msgInvalidJSON,
			details:    map[string]interface{}{"reason": err.Error()},
		}
	}

	if env.IngestedAt.IsZero() {
		env.IngestedAt = s.now()
	}
	return env, len(bodyBytes), nil
}

// classify maps an engine error onto the HTTP error shape.
func classify(env v1.Envelope, alerts []v1.Alert, err error) *ingestionError {
	switch {
	case errors.Is(err, engine.ErrInvalidEnvelope):
		slog.Warn("[Ingestion] Envelope validation failed", "device_id", env.DeviceID, "error", err)
		return &ingestionError{
			statusCode: http.StatusBadRequest,
			errorType:  httperr.HttpInvalidEnvelopeError,
			message:    err.Error(),
		}
	case errors.Is(err, engine.ErrDelivery):
		return &ingestionError{
			statusCode: http.StatusBadGateway,
			errorType:  httperr.HttpDeliveryFailedError,
			message:    msgDeliveryFailed,
			details:    map[string]interface{}{"alerts": alerts},
		}
	default:
		slog.Error("[Ingestion] Failed to process envelope", "device_id", env.DeviceID, "error", err)
		return &ingestionError{
			statusCode: http.StatusInternalServerError,
			errorType:  httperr.HttpInternalError,
			message:    msgProcessingFailed,
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

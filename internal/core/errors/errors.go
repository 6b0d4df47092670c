package errors

const (
	HttpInternalError           = "internal_error"
	HttpInvalidJsonError        = "invalid_json"
	HttpInvalidEnvelopeError    = "invalid_envelope"
	HttpDeliveryFailedError     = "alert_delivery_failed"
	HttpNotFoundError           = "not_found"
	HttpInvalidQueryError       = "invalid_query"
	HttpUnauthorizedError       = "unauthorized"
	HttpPayloadTooLargeError    = "payload_too_large"
	HttpServiceUnavailableError = "service_unavailable"
)

// ErrorResponse is the error body returned by every HTTP handler.
type ErrorResponse struct {
	ErrorType string      `json:"error_type"`
	Message   string      `json:"message"`
	Details   interface{} `json:"details,omitempty"`
}

// Package errors renders API error responses and maps domain errors to
// HTTP status codes.
package errors

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/BusselW/DDH3/internal/middleware"
	"github.com/BusselW/DDH3/internal/models"
)

// Error code constants for standardized error responses
const (
	ErrNotFound           = "NOT_FOUND"
	ErrBadRequest         = "BAD_REQUEST"
	ErrInternalServer     = "INTERNAL_SERVER_ERROR"
	ErrValidation         = "VALIDATION_ERROR"
	ErrConflict           = "CONFLICT"
	ErrBackendUnavailable = "BACKEND_UNAVAILABLE"
	ErrTimeout            = "TIMEOUT"
)

// ErrorResponse is the top-level error response structure.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains the error information.
type ErrorDetail struct {
	Code      string                 `json:"code"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
}

// respond logs at warn for client errors and at error otherwise, then
// writes the JSON body and aborts the chain.
func respond(c *gin.Context, status int, code, message string, details map[string]interface{}, err error) {
	log := middleware.GetLogger(c)
	requestID := middleware.GetRequestID(c)

	if log != nil {
		fields := map[string]interface{}{
			"code":       code,
			"message":    message,
			"request_id": requestID,
			"path":       c.Request.URL.Path,
			"method":     c.Request.Method,
		}
		if details != nil {
			fields["details"] = details
		}
		if status >= http.StatusInternalServerError {
			log.Error("Request failed", err, fields)
		} else {
			if err != nil {
				fields["error"] = err.Error()
			}
			log.Warn("Request rejected", fields)
		}
	}

	c.AbortWithStatusJSON(status, ErrorResponse{
		Error: ErrorDetail{
			Code:      code,
			Message:   message,
			Details:   details,
			RequestID: requestID,
		},
	})
}

// NotFound returns a 404 Not Found error response.
func NotFound(c *gin.Context, message string) {
	respond(c, http.StatusNotFound, ErrNotFound, message, nil, nil)
}

// BadRequest returns a 400 Bad Request error response with optional details.
func BadRequest(c *gin.Context, message string, details map[string]interface{}) {
	respond(c, http.StatusBadRequest, ErrBadRequest, message, details, nil)
}

// Conflict returns a 409 Conflict error response.
func Conflict(c *gin.Context, message string) {
	respond(c, http.StatusConflict, ErrConflict, message, nil, nil)
}

// InternalServerError returns a 500 response. err is logged but never
// exposed to the client.
func InternalServerError(c *gin.Context, message string, err error) {
	respond(c, http.StatusInternalServerError, ErrInternalServer, message, nil, err)
}

// ValidationError returns a 400 response with one message per failing field.
func ValidationError(c *gin.Context, validationErrors validator.ValidationErrors) {
	details := make(map[string]interface{}, len(validationErrors))
	for _, fe := range validationErrors {
		details[fe.Field()] = formatValidationError(fe)
	}
	respond(c, http.StatusBadRequest, ErrValidation, "Validation failed for one or more fields", details, nil)
}

// BindError renders a failed ShouldBind* call: field errors per field,
// anything else (malformed JSON, wrong types) as a plain bad request.
func BindError(c *gin.Context, err error, message string) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		ValidationError(c, verrs)
		return
	}
	BadRequest(c, message, map[string]interface{}{"reason": err.Error()})
}

// FromError maps a domain error to its HTTP response:
// not found 404, validation and invalid argument 400, conflict 409,
// waiter timeout 504, backend transport 502, anything else 500.
// message is used for the 5xx responses, whose cause stays in the log.
func FromError(c *gin.Context, err error, message string) {
	var verrs validator.ValidationErrors
	var transportErr *models.TransportError

	switch {
	case errors.As(err, &verrs):
		ValidationError(c, verrs)
	case errors.Is(err, models.ErrNotFound):
		respond(c, http.StatusNotFound, ErrNotFound, err.Error(), nil, err)
	case errors.Is(err, models.ErrValidation), errors.Is(err, models.ErrInvalidArgument):
		respond(c, http.StatusBadRequest, ErrValidation, err.Error(), nil, err)
	case errors.Is(err, models.ErrConflict):
		respond(c, http.StatusConflict, ErrConflict, err.Error(), nil, err)
	case errors.Is(err, models.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		respond(c, http.StatusGatewayTimeout, ErrTimeout, message, nil, err)
	case errors.As(err, &transportErr):
		var details map[string]interface{}
		if transportErr.StatusCode != 0 {
			details = map[string]interface{}{"backend_status": transportErr.StatusCode}
		}
		respond(c, http.StatusBadGateway, ErrBackendUnavailable, message, details, err)
	case errors.Is(err, models.ErrTransport):
		respond(c, http.StatusBadGateway, ErrBackendUnavailable, message, nil, err)
	default:
		InternalServerError(c, message, err)
	}
}

// formatValidationError converts a validator.FieldError to a human-readable message.
func formatValidationError(err validator.FieldError) string {
	switch err.Tag() {
	case "required", "required_without":
		return "This field is required"
	case "email":
		return "Must be a valid email address"
	case "min":
		return "Value is too short or small (minimum: " + err.Param() + ")"
	case "max":
		return "Value is too long or large (maximum: " + err.Param() + ")"
	case "gt":
		return "Must be greater than " + err.Param()
	case "oneof":
		return "Must be one of: " + err.Param()
	case "url":
		return "Must be a valid URL"
	default:
		return "Validation failed for tag: " + err.Tag()
	}
}

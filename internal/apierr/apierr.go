// Package apierr classifies the error kinds named in the system's error
// handling design into a structured error with an HTTP status, following
// the teacher's internal/errors package.
package apierr

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ferrite-media/ferrite/internal/logger"
)

// Kind names one of the error classes handled uniformly across the server.
type Kind string

const (
	KindInputInvalid    Kind = "INPUT_INVALID"
	KindNotFound        Kind = "NOT_FOUND"
	KindUnauthorized    Kind = "UNAUTHORIZED"
	KindForbidden       Kind = "FORBIDDEN"
	KindCapacity        Kind = "CAPACITY_EXCEEDED"
	KindTransient       Kind = "TRANSIENT_EXTERNAL_FAILURE"
	KindFatalEncoder    Kind = "FATAL_ENCODER_FAILURE"
	KindIntegrity       Kind = "INTEGRITY_FAILURE"
	KindProcessLoss     Kind = "CHILD_PROCESS_LOSS"
	KindInternal        Kind = "INTERNAL_ERROR"
)

var statusByKind = map[Kind]int{
	KindInputInvalid: http.StatusBadRequest,
	KindNotFound:     http.StatusNotFound,
	KindUnauthorized: http.StatusUnauthorized,
	KindForbidden:    http.StatusForbidden,
	KindCapacity:     http.StatusServiceUnavailable,
	KindTransient:    http.StatusInternalServerError,
	KindFatalEncoder: http.StatusInternalServerError,
	KindIntegrity:    http.StatusInternalServerError,
	KindProcessLoss:  http.StatusInternalServerError,
	KindInternal:     http.StatusInternalServerError,
}

// Error is a structured error carrying an HTTP status and optional context,
// mirroring the teacher's ViewraError.
type Error struct {
	Kind       Kind
	Message    string
	Context    map[string]interface{}
	Cause      error
	HTTPStatus int
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func newErr(kind Kind, message string, cause error, ctx map[string]interface{}) *Error {
	return &Error{
		Kind:       kind,
		Message:    message,
		Cause:      cause,
		Context:    ctx,
		HTTPStatus: statusByKind[kind],
	}
}

func InputInvalid(message string, field string) *Error {
	return newErr(KindInputInvalid, message, nil, map[string]interface{}{"field": field})
}

func NotFound(resource, id string) *Error {
	return newErr(KindNotFound, resource+" not found", nil, map[string]interface{}{"resource": resource, "id": id})
}

func CapacityExceeded(message string) *Error {
	return newErr(KindCapacity, message, nil, nil)
}

func Transient(message string, cause error) *Error {
	return newErr(KindTransient, message, cause, nil)
}

func FatalEncoder(message string) *Error {
	return newErr(KindFatalEncoder, message, nil, nil)
}

func Integrity(message string, cause error) *Error {
	return newErr(KindIntegrity, message, cause, nil)
}

func ProcessLoss(message string) *Error {
	return newErr(KindProcessLoss, message, nil, nil)
}

func Internal(message string, cause error) *Error {
	return newErr(KindInternal, message, cause, nil)
}

// WriteGin logs the error and sends it as a standardized JSON response;
// every kind, transient failures included, is written to the client.
func (e *Error) WriteGin(c *gin.Context) {
	status := e.HTTPStatus
	if status == 0 {
		status = http.StatusInternalServerError
	}

	logger.Error("api error",
		[]logger.Field{
			logger.String("kind", string(e.Kind)),
			logger.Int("status", status),
			logger.String("path", c.Request.URL.Path),
			logger.String("method", c.Request.Method),
			logger.Err("cause", e.Cause),
		})

	resp := gin.H{"error": e.Message, "kind": e.Kind}
	if len(e.Context) > 0 {
		resp["details"] = e.Context
	}
	c.JSON(status, resp)
}

// Write is a convenience for handlers building an *Error inline.
func Write(c *gin.Context, kind Kind, message string, cause error) {
	newErr(kind, message, cause, nil).WriteGin(c)
}

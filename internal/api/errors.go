package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/MJE43/bjsim/internal/games"
	"github.com/MJE43/bjsim/internal/round"
	"github.com/MJE43/bjsim/internal/scripting"
	"github.com/MJE43/bjsim/internal/sim"
	"github.com/MJE43/bjsim/internal/store"
	"github.com/MJE43/bjsim/internal/strategy"
)

// ErrorBuilder helps construct structured errors with context
type ErrorBuilder struct {
	errType   string
	message   string
	context   map[string]any
	requestID string
}

// NewError creates a new error builder
func NewError(errType, message string) *ErrorBuilder {
	return &ErrorBuilder{
		errType: errType,
		message: message,
		context: make(map[string]any),
	}
}

// WithContext adds context information to the error
func (eb *ErrorBuilder) WithContext(key string, value any) *ErrorBuilder {
	eb.context[key] = value
	return eb
}

// WithRequestID adds request ID to the error
func (eb *ErrorBuilder) WithRequestID(requestID string) *ErrorBuilder {
	eb.requestID = requestID
	return eb
}

// WithCause records the underlying error message
func (eb *ErrorBuilder) WithCause(err error) *ErrorBuilder {
	if err != nil {
		eb.context["cause"] = err.Error()
	}
	return eb
}

// Build creates the final EngineError
func (eb *ErrorBuilder) Build() EngineError {
	ctx := eb.context
	if len(ctx) == 0 {
		ctx = nil
	}
	return EngineError{
		Type:      eb.errType,
		Message:   eb.message,
		Context:   ctx,
		RequestID: eb.requestID,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// classify maps domain errors onto an HTTP status and error type.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, strategy.ErrUnknownStrategy):
		return http.StatusBadRequest, ErrTypeStrategyNotFound
	case errors.Is(err, scripting.ErrScript):
		return http.StatusBadRequest, ErrTypeScript
	case errors.Is(err, sim.ErrInvalidRequest),
		errors.Is(err, round.ErrInvalidConfig),
		errors.Is(err, games.ErrInvalidShoe),
		errors.Is(err, games.ErrInvalidCard):
		return http.StatusBadRequest, ErrTypeValidation
	case errors.Is(err, store.ErrRunNotFound):
		return http.StatusNotFound, ErrTypeNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusRequestTimeout, ErrTypeTimeout
	default:
		return http.StatusInternalServerError, ErrTypeInternal
	}
}

// ErrorHandler provides centralized error handling with logging
type ErrorHandler struct {
	logger *log.Logger
}

// NewErrorHandler creates a new error handler
func NewErrorHandler(logger *log.Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// HandleError classifies err and writes the matching response.
func (eh *ErrorHandler) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	var engineErr EngineError
	status := http.StatusInternalServerError
	if errors.As(err, &engineErr) {
		status = statusFor(engineErr.Type)
	} else {
		var errType string
		status, errType = classify(err)
		engineErr = NewError(errType, err.Error()).
			WithRequestID(middleware.GetReqID(r.Context())).
			WithContext("path", r.URL.Path).
			WithContext("method", r.Method).
			Build()
	}

	eh.logError(r, engineErr, status)
	eh.writeErrorResponse(w, status, engineErr)
}

// HandleValidationError handles validation-specific errors
func (eh *ErrorHandler) HandleValidationError(w http.ResponseWriter, r *http.Request, field, message string) {
	engineErr := NewError(ErrTypeValidation, fmt.Sprintf("Validation failed: %s", message)).
		WithRequestID(middleware.GetReqID(r.Context())).
		WithContext("field", field).
		WithContext("path", r.URL.Path).
		Build()

	eh.logError(r, engineErr, http.StatusBadRequest)
	eh.writeErrorResponse(w, http.StatusBadRequest, engineErr)
}

// HandleUnavailable reports a disabled dependency such as the database.
func (eh *ErrorHandler) HandleUnavailable(w http.ResponseWriter, r *http.Request, what string) {
	engineErr := NewError(ErrTypeServiceUnavailable, what+" is not configured").
		WithRequestID(middleware.GetReqID(r.Context())).
		WithContext("path", r.URL.Path).
		Build()

	eh.logError(r, engineErr, http.StatusServiceUnavailable)
	eh.writeErrorResponse(w, http.StatusServiceUnavailable, engineErr)
}

func statusFor(errType string) int {
	switch errType {
	case ErrTypeValidation, ErrTypeInvalidJSON, ErrTypeStrategyNotFound, ErrTypeScript:
		return http.StatusBadRequest
	case ErrTypeNotFound:
		return http.StatusNotFound
	case ErrTypeTimeout:
		return http.StatusRequestTimeout
	case ErrTypeServiceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// logError logs the error with appropriate level and context
func (eh *ErrorHandler) logError(r *http.Request, engineErr EngineError, status int) {
	category := GetErrorCategory(engineErr.Type)

	logLevel := "ERROR"
	if status < 500 {
		logLevel = "WARN"
	}

	fields := make(map[string]any, len(engineErr.Context))
	for key, value := range engineErr.Context {
		// Never log raw seeds
		if key == "server_seed" || key == "seeds" {
			continue
		}
		fields[key] = value
	}

	eh.logger.Printf(
		"error_occurred level=%s type=%s category=%s status=%d request_id=%s method=%s path=%s message=%q context=%+v",
		logLevel, engineErr.Type, category, status, engineErr.RequestID, r.Method, r.URL.Path, engineErr.Message, fields,
	)
}

// writeErrorResponse writes the error response as JSON
func (eh *ErrorHandler) writeErrorResponse(w http.ResponseWriter, status int, engineErr EngineError) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Engine-Version", EngineVersion)
	w.Header().Set("X-Error-Type", engineErr.Type)
	w.Header().Set("X-Error-Category", string(GetErrorCategory(engineErr.Type)))
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(engineErr); err != nil {
		eh.logger.Printf("error_encode_failed request_id=%s err=%v", engineErr.RequestID, err)
	}
}

// RecoveryHandler provides panic recovery with structured error logging
func (eh *ErrorHandler) RecoveryHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rvr := recover(); rvr != nil {
				if rvr == http.ErrAbortHandler {
					panic(rvr)
				}
				requestID := middleware.GetReqID(r.Context())
				eh.logger.Printf(
					"panic_recovered request_id=%s path=%s method=%s panic=%v",
					requestID, r.URL.Path, r.Method, rvr,
				)

				engineErr := NewError(ErrTypeInternal, "Internal server error").
					WithRequestID(requestID).
					WithContext("panic", fmt.Sprintf("%v", rvr)).
					WithContext("path", r.URL.Path).
					Build()
				eh.writeErrorResponse(w, http.StatusInternalServerError, engineErr)
			}
		}()

		next.ServeHTTP(w, r)
	})
}

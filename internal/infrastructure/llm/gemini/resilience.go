package gemini

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/wendkuni/burkina-culture-assistant/internal/core/domain"
	"github.com/wendkuni/burkina-culture-assistant/internal/infrastructure/resilience"
)

// StatusError is a non-2xx reply from the Gemini API.
type StatusError struct {
	Operation string
	Code      int
	Body      string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("gemini %s: %d %s", e.Operation, e.Code, http.StatusText(e.Code))
	}
	return fmt.Sprintf("gemini %s: %d %s: %s", e.Operation, e.Code, http.StatusText(e.Code), e.Body)
}

// classifyGeminiError feeds the executor's breaker. The tier runs a
// single-attempt policy, so Retryable only takes effect under a retrying
// executor; RecordFailure decides what counts against the breaker.
func classifyGeminiError(err error) resilience.ErrorClassification {
	var statusErr *StatusError
	var netErr net.Error
	switch {
	case err == nil:
		return resilience.ErrorClassification{}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		// An expired tier deadline says nothing about the backend's health.
		return resilience.ErrorClassification{}
	case resilience.IsCircuitOpen(err):
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	case errors.As(err, &statusErr):
		return classifyStatus(statusErr.Code)
	case errors.As(err, &netErr):
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	default:
		return resilience.ErrorClassification{RecordFailure: true}
	}
}

// classifyStatus separates quota pressure and server trouble from caller
// mistakes. A rejected key or a blocked prompt would fail the same way again
// and must not trip the breaker.
func classifyStatus(code int) resilience.ErrorClassification {
	switch code {
	case http.StatusRequestTimeout,
		http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	default:
		return resilience.ErrorClassification{}
	}
}

// wrapTemporaryIfNeeded marks transient backend failures as ErrTemporary so
// callers can tell an outage from a caller mistake.
func wrapTemporaryIfNeeded(operation string, err error) error {
	if err == nil || domain.IsKind(err, domain.ErrTemporary) {
		return err
	}
	if class := classifyGeminiError(err); class.Retryable || resilience.IsCircuitOpen(err) {
		return domain.WrapError(domain.ErrTemporary, operation, err)
	}
	return err
}

package huggingface

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/wendkuni/burkina-culture-assistant/internal/core/domain"
	"github.com/wendkuni/burkina-culture-assistant/internal/infrastructure/resilience"
)

// apiError is a non-2xx reply from the inference API. message carries the
// error field of the JSON body when the reply had one.
type apiError struct {
	operation string
	code      int
	message   string
}

func (e *apiError) Error() string {
	if e.message == "" {
		return fmt.Sprintf("huggingface %s: %d %s", e.operation, e.code, http.StatusText(e.code))
	}
	return fmt.Sprintf("huggingface %s: %d %s: %s", e.operation, e.code, http.StatusText(e.code), e.message)
}

// transient reports whether the reply signals infrastructure state rather
// than a caller mistake. 503 doubles as the model-loading reply of the
// serverless API and clears on its own once the model is warm.
func (e *apiError) transient() bool {
	switch e.code {
	case http.StatusRequestTimeout,
		http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

// classifyHFError feeds the executor's breaker. Bad tokens and malformed
// requests must not count against it; a loading or overloaded model does.
func classifyHFError(err error) resilience.ErrorClassification {
	var status *apiError
	var netErr net.Error
	switch {
	case err == nil:
		return resilience.ErrorClassification{}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return resilience.ErrorClassification{}
	case resilience.IsCircuitOpen(err):
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	case errors.As(err, &status):
		if status.transient() {
			return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
		}
		return resilience.ErrorClassification{}
	case errors.As(err, &netErr):
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	default:
		return resilience.ErrorClassification{RecordFailure: true}
	}
}

// wrapTemporaryIfNeeded marks transient backend failures as ErrTemporary so
// callers can tell a loading model from a rejected request.
func wrapTemporaryIfNeeded(operation string, err error) error {
	if err == nil || domain.IsKind(err, domain.ErrTemporary) {
		return err
	}
	if class := classifyHFError(err); class.Retryable || resilience.IsCircuitOpen(err) {
		return domain.WrapError(domain.ErrTemporary, operation, err)
	}
	return err
}

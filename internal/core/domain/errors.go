package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidRequest       = errors.New("invalid request")
	ErrRetrievalUnavailable = errors.New("retrieval unavailable")
	ErrGenerationBackend    = errors.New("generation backend failure")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrTemporary            = errors.New("temporary failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}

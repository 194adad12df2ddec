package service

import (
	"context"
	"errors"
	"fmt"
)

// CeremonyKind classifies a platform authenticator failure.
type CeremonyKind int

const (
	// CeremonyOther is any failure that is neither a cancellation nor missing support.
	CeremonyOther CeremonyKind = iota
	// CeremonyCancelled means the user dismissed the prompt or the platform refused it.
	CeremonyCancelled
	// CeremonyUnsupported means no usable authenticator exists.
	CeremonyUnsupported
)

func (k CeremonyKind) String() string {
	switch k {
	case CeremonyCancelled:
		return "cancelled"
	case CeremonyUnsupported:
		return "unsupported"
	default:
		return "other"
	}
}

var (
	// ErrCeremonyNotAllowed is reported by authenticators when the user cancels or the request is not allowed.
	ErrCeremonyNotAllowed = errors.New("NotAllowedError: the operation either timed out or was not allowed")

	// ErrCeremonyNotSupported is reported when the platform offers no authenticator for the request.
	ErrCeremonyNotSupported = errors.New("NotSupportedError: no authenticator supports the requested operation")

	// ErrCeremonyInvalidState is reported when the authenticator already holds one of the excluded credentials.
	ErrCeremonyInvalidState = errors.New("credential already registered")
)

// CeremonyError is the classified failure of a platform ceremony.
type CeremonyError struct {
	Kind CeremonyKind
	Op   string
	Err  error
}

func (e *CeremonyError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("webauthn %s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("webauthn %s: %v", e.Op, e.Err)
}

func (e *CeremonyError) Unwrap() error {
	return e.Err
}

// ClassifyCeremonyError wraps err with its ceremony kind. Context cancellation counts as a cancelled ceremony.
func ClassifyCeremonyError(op string, err error) *CeremonyError {
	var already *CeremonyError
	if errors.As(err, &already) {
		return already
	}

	kind := CeremonyOther
	switch {
	case errors.Is(err, ErrCeremonyNotAllowed),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		kind = CeremonyCancelled
	case errors.Is(err, ErrCeremonyNotSupported):
		kind = CeremonyUnsupported
	}
	return &CeremonyError{Kind: kind, Op: op, Err: err}
}

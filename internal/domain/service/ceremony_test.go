package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyCeremonyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want CeremonyKind
	}{
		{"not allowed", fmt.Errorf("prompt dismissed: %w", ErrCeremonyNotAllowed), CeremonyCancelled},
		{"context cancelled", context.Canceled, CeremonyCancelled},
		{"timed out", fmt.Errorf("touch: %w", context.DeadlineExceeded), CeremonyCancelled},
		{"not supported", ErrCeremonyNotSupported, CeremonyUnsupported},
		{"already registered", ErrCeremonyInvalidState, CeremonyOther},
		{"other", errors.New("attestation format unknown"), CeremonyOther},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyCeremonyError("create", tt.err)
			assert.Equal(t, tt.want, got.Kind)
			assert.ErrorIs(t, got, tt.err)
		})
	}
}

func TestClassifyCeremonyError_KeepsExistingClassification(t *testing.T) {
	first := &CeremonyError{Kind: CeremonyUnsupported, Op: "get"}
	assert.Same(t, first, ClassifyCeremonyError("create", fmt.Errorf("wrapped: %w", first)))
	assert.Equal(t, "webauthn get: unsupported", first.Error())
}

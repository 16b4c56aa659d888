package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindsMatchWithErrorsIs(t *testing.T) {
	cases := []struct {
		err  error
		kind error
		msg  string
	}{
		{Unauthorized(), ErrUnauthorized, "Unauthorized"},
		{Validation("Missing name"), ErrValidation, "Missing name"},
		{NotFound(), ErrNotFound, "Not found"},
		{InvalidOperation("A folder doesn't have content"), ErrInvalidOperation, "A folder doesn't have content"},
		{RateLimited(), ErrRateLimited, "Too many requests"},
	}
	for _, tc := range cases {
		assert.ErrorIs(t, tc.err, tc.kind)
		assert.Equal(t, tc.msg, Message(tc.err))
	}
}

func TestInfrastructureKeepsCauseButHidesIt(t *testing.T) {
	cause := errors.New("connection refused")
	err := fmt.Errorf("insert file: %w", Infrastructure("save metadata", cause))

	require.ErrorIs(t, err, ErrInfrastructure)
	require.ErrorIs(t, err, cause)
	assert.Equal(t, "Internal error", Message(err))
	assert.Contains(t, err.Error(), "connection refused")
}

func TestMessageForForeignError(t *testing.T) {
	assert.Equal(t, "Internal error", Message(errors.New("boom")))
}

package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWrapAndIsCode(t *testing.T) {
	cause := errors.New("boom")
	err := Wrap(CodePrediction, "classifier failed", cause)

	require.EqualError(t, err, "classifier failed: boom")
	require.True(t, IsCode(err, CodePrediction))
	require.False(t, IsCode(err, CodeInvalidInput))
	require.ErrorIs(t, err, cause)

	wrapped := fmt.Errorf("outer: %w", err)
	require.True(t, IsCode(wrapped, CodePrediction))
}

func TestWrapWithoutCause(t *testing.T) {
	err := Wrap(CodeInvalidInput, "question too long", nil)
	require.EqualError(t, err, "question too long")
	require.Nil(t, errors.Unwrap(err))
}

package harness_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/dbpulse/dbpulse/pkg/harness"
	"github.com/stretchr/testify/require"
)

func TestErrorKindStatusMapping(t *testing.T) {
	require.Equal(t, harness.StatusInvalid, harness.ErrorValidation.Status())
	require.Equal(t, harness.StatusConnectionError, harness.ErrorConnection.Status())
	require.Equal(t, harness.StatusFailed, harness.ErrorDatabase.Status())
	require.Equal(t, harness.StatusFailed, harness.ErrorProcessing.Status())
}

func TestWorkerErrorFormatting(t *testing.T) {
	bare := harness.NewWorkerError(harness.ErrorValidation, "request id must not be empty", nil)
	require.Equal(t, "request id must not be empty", bare.Error())

	upstream := errors.New("connection refused")
	wrapped := harness.NewWorkerError(harness.ErrorConnection, "failed to acquire resource handle", upstream)
	require.Equal(t, "failed to acquire resource handle. Caused by: connection refused", wrapped.Error())
	require.Equal(t, upstream, errors.Unwrap(wrapped))
}

func TestWorkerErrorDefaultsMessageToKind(t *testing.T) {
	err := harness.NewWorkerError(harness.ErrorDatabase, "", nil)
	require.Equal(t, "database error", err.Error())
}

func TestWorkerErrorSurvivesWrapping(t *testing.T) {
	inner := harness.NewWorkerError(harness.ErrorConnection, "pool exhausted", nil)
	outer := fmt.Errorf("processing request %q: %w", "req-42", inner)

	var workerErr *harness.WorkerError
	require.True(t, errors.As(outer, &workerErr))
	require.Equal(t, harness.ErrorConnection, workerErr.Kind)
}

package errors

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassifyAuthFailures(t *testing.T) {
	for _, msg := range []string{
		"401 Unauthorized",
		"invalid api key provided",
		"HTTP 403: forbidden",
	} {
		err := Classify(fmt.Errorf("%s", msg))
		require.True(t, IsAuth(err), "message %q", msg)
		require.False(t, IsTransient(err), "message %q", msg)
	}
}

func TestClassifyTransientFailures(t *testing.T) {
	for _, msg := range []string{
		"429 rate limit exceeded",
		"HTTP 503: service unavailable",
		"connection refused",
		"context deadline exceeded",
		"upstream internal server error",
	} {
		err := Classify(fmt.Errorf("%s", msg))
		require.True(t, IsTransient(err), "message %q", msg)
		require.False(t, IsAuth(err), "message %q", msg)
	}
}

func TestClassifyNetError(t *testing.T) {
	var netErr error = &net.OpError{Op: "dial", Err: errors.New("refused")}
	require.True(t, IsTransient(Classify(netErr)))
}

func TestBlankCompletionIsTransient(t *testing.T) {
	err := fmt.Errorf("generate: %w", ErrBlankCompletion)
	require.True(t, IsTransient(err))
}

func TestClassifyLeavesUnknownErrors(t *testing.T) {
	orig := errors.New("model produced malformed output")
	err := Classify(orig)
	require.Equal(t, orig, err)
	require.False(t, IsTransient(err))
	require.False(t, IsAuth(err))
}

func TestSummaryTruncates(t *testing.T) {
	long := strings.Repeat("x", 2000)
	require.Len(t, Summary(errors.New(long)), 500)
	require.Equal(t, "", Summary(nil))
}

package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_NamedDoesNotPanic(t *testing.T) {
	l := NewLogger("test")
	require.NotNil(t, l)

	named := l.Named("child")
	require.NotNil(t, named)

	assert.NotPanics(t, func() {
		named.Debugw("debug", "k", "v")
		named.Infow("info", "k", "v")
		named.Warnw("warn", "k", "v")
		named.Errorw("error", "k", "v")
	})
}

func TestNewTestLogger_WritesThroughTB(t *testing.T) {
	l := NewTestLogger(t)
	require.NotNil(t, l)
	assert.NotPanics(t, func() {
		l.Infow("hello from test logger", "n", 1)
	})
}

func TestGlobal_DefaultsToNonNil(t *testing.T) {
	assert.NotNil(t, Global())
}

func TestReplaceGlobal_RoundTrips(t *testing.T) {
	orig := Global()
	defer ReplaceGlobal(orig)

	replacement := NewTestLogger(t)
	ReplaceGlobal(replacement)
	assert.Equal(t, replacement, Global())
}

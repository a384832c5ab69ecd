package logging

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	log, err := New("debug", "console")
	require.NoError(t, err)
	require.True(t, log.Core().Enabled(zapcore.DebugLevel))

	log, err = New("warn", "json")
	require.NoError(t, err)
	require.False(t, log.Core().Enabled(zapcore.InfoLevel))
	require.True(t, log.Core().Enabled(zapcore.ErrorLevel))
}

func TestNew_Rejects(t *testing.T) {
	_, err := New("chatty", "json")
	require.Error(t, err)
	_, err = New("info", "yaml")
	require.Error(t, err)
}

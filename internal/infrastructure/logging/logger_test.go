package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/GriffinCanCode/playground/internal/shared/types"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"default", DefaultConfig(), false},
		{"development", DevelopmentConfig(), false},
		{"no outputs", Config{Level: "warn"}, false},
		{"bad level", Config{Level: "loud"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, logger.Logger)
		})
	}
}

func TestParseLevel(t *testing.T) {
	level, err := parseLevel("debug")
	require.NoError(t, err)
	assert.Equal(t, zapcore.DebugLevel, level)

	level, err = parseLevel("nope")
	assert.Error(t, err)
	assert.Equal(t, zapcore.InfoLevel, level)
}

func TestMirror(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	mirror := NewMirror(zap.New(core), "sess_1")

	mirror.Append(types.LogEntry{Kind: types.KindWarning, Text: "careful", Sequence: 7})
	mirror.Reset(nil)
	mirror.SetVisible(false)

	entries := logs.All()
	require.Len(t, entries, 3)

	fields := entries[0].ContextMap()
	assert.Equal(t, "sess_1", fields["session_id"])
	assert.Equal(t, "warning", fields["kind"])
	assert.Equal(t, uint64(7), fields["seq"])
	assert.Equal(t, "careful", fields["text"])
	assert.Equal(t, "Snippet output cleared", entries[1].Message)
}

package logging

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"DEBUG", slog.LevelDebug},
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"WARN", slog.LevelWarn},
		{"WARNING", slog.LevelWarn},
		{"ERROR", slog.LevelError},
		{" error ", slog.LevelError},
		{"bogus", slog.LevelInfo},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseLevel(tt.in), "parseLevel(%q)", tt.in)
	}
}

func TestConfigureInstallsDefault(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	logger := Configure(Config{Level: "DEBUG", Structured: true, StructuredFormat: "json"})
	assert.NotNil(t, logger)
	assert.Same(t, logger, slog.Default())
	assert.True(t, logger.Enabled(t.Context(), slog.LevelDebug))
}

func TestConfigureTextFallback(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	logger := Configure(Config{Level: "WARN", ExtraFields: map[string]string{"svc": "relay"}, IncludePID: true})
	assert.NotNil(t, logger)
	assert.False(t, logger.Enabled(t.Context(), slog.LevelInfo))
	assert.True(t, logger.Enabled(t.Context(), slog.LevelWarn))
}

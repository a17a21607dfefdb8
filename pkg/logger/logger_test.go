package logger

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"imgbundle/pkg/config"
)

func TestNewWithMode(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.LoggingConfig
		mode    Mode
		wantErr bool
	}{
		{"console info", &config.LoggingConfig{Level: "info"}, ModeConsole, false},
		{"console json", &config.LoggingConfig{Level: "debug", Format: "json"}, ModeConsole, false},
		{"quiet console", &config.LoggingConfig{Level: "debug", Quiet: true}, ModeConsole, false},
		{"file only without file", &config.LoggingConfig{Level: "info"}, ModeFileOnly, false},
		{"invalid level", &config.LoggingConfig{Level: "invalid"}, ModeConsole, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := NewWithMode(tt.cfg, tt.mode)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, l)
		})
	}
}

func TestFileOnlyModeWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "imgbundle.log")

	l, err := NewWithMode(&config.LoggingConfig{Level: "info", File: path}, ModeFileOnly)
	require.NoError(t, err)

	l.WithField("page", "https://example.com").Info("scan started")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "scan started")
	assert.Contains(t, string(data), `"page":"https://example.com"`)
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected zerolog.Level
		wantErr  bool
	}{
		{"debug", zerolog.DebugLevel, false},
		{"DEBUG", zerolog.DebugLevel, false},
		{"info", zerolog.InfoLevel, false},
		{"warn", zerolog.WarnLevel, false},
		{"warning", zerolog.WarnLevel, false},
		{"error", zerolog.ErrorLevel, false},
		{"disabled", zerolog.Disabled, false},
		{"invalid", zerolog.InfoLevel, true},
		{"", zerolog.InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			level, err := parseLogLevel(tt.level)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.expected, level)
		})
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l, err := NewWithWriter(&buf, "warn")
	require.NoError(t, err)

	l.Info("hidden")
	l.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestMinLevelWriter(t *testing.T) {
	var buf bytes.Buffer
	w := minLevelWriter{w: &buf, min: zerolog.ErrorLevel}

	n, err := w.WriteLevel(zerolog.InfoLevel, []byte("info\n"))
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Empty(t, buf.String())

	_, err = w.WriteLevel(zerolog.ErrorLevel, []byte("error\n"))
	require.NoError(t, err)
	assert.Equal(t, "error\n", buf.String())
}

func TestWithFields(t *testing.T) {
	var buf bytes.Buffer
	l, err := NewWithWriter(&buf, "debug")
	require.NoError(t, err)

	l.WithField("job_id", "abc").
		WithFields(map[string]interface{}{
			"count":   3,
			"ok":      true,
			"elapsed": 2 * time.Second,
		}).
		Info("archive built")

	out := buf.String()
	assert.Contains(t, out, "archive built")
	assert.Contains(t, out, `"job_id":"abc"`)
	assert.Contains(t, out, `"count":3`)
	assert.Contains(t, out, `"ok":true`)
}

func TestWithFieldsDoesNotLeakToParent(t *testing.T) {
	var buf bytes.Buffer
	parent, err := NewWithWriter(&buf, "debug")
	require.NoError(t, err)

	_ = parent.WithField("child", "yes")
	parent.Info("parent only")

	assert.NotContains(t, buf.String(), "child")
}

func TestWithError(t *testing.T) {
	var buf bytes.Buffer
	l, err := NewWithWriter(&buf, "debug")
	require.NoError(t, err)

	assert.Same(t, l, l.WithError(nil))

	l.WithError(errors.New("disk full")).Error("save failed")
	assert.Contains(t, buf.String(), "disk full")
	assert.Contains(t, buf.String(), "save failed")
}

func TestHelpers(t *testing.T) {
	tl := NewTestLogger()

	LogRequest(tl, "GET", "https://example.com/a.png", 503, time.Millisecond)
	LogArchiveItem(tl, "job", "https://example.com/b.png", "", errors.New("404"))
	LogArchiveItem(tl, "job", "https://example.com/c.png", "0001.png", nil)
	LogScanSummary(tl, "https://example.com", 4, 1, time.Second)

	warns := tl.GetMessagesByLevel("WARN")
	require.Len(t, warns, 2)
	assert.Equal(t, 503, warns[0].Fields["status_code"])
	assert.EqualError(t, warns[1].Error, "404")

	assert.True(t, tl.HasMessage("Archive item added"))
	assert.True(t, tl.HasMessage("Scan completed"))
}

func TestTestLoggerSharesSink(t *testing.T) {
	tl := NewTestLogger()
	child := tl.WithField("component", "archive")
	child.Info("from child")

	msgs := tl.GetMessages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "archive", msgs[0].Fields["component"])

	tl.Clear()
	assert.Empty(t, tl.GetMessages())
}

func TestNopLogger(t *testing.T) {
	l := NewNopLogger()
	assert.NotPanics(t, func() {
		l.WithField("a", 1).WithError(errors.New("x")).Info("nothing")
		l.GetZerolog().Info().Msg("nothing")
	})
}

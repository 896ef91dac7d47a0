package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsoleHandlerIndentsByDepth(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, Options{NoColor: true})

	log.Info("starting service", "service", "web", slog.Int(DepthKey, 0))
	log.Info("starting service", "service", "db", slog.Int(DepthKey, 2))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)

	assert.Equal(t, "INFO  starting service service=web", lines[0])
	assert.Equal(t, "INFO      starting service service=db", lines[1])
	assert.NotContains(t, buf.String(), "depth=")
}

func TestConsoleHandlerColors(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, Options{})

	log.Error("request failed")

	assert.Contains(t, buf.String(), "\033[31mERROR\033[0m")

	buf.Reset()
	log = New(&buf, Options{NoColor: true})
	log.Error("request failed")
	assert.NotContains(t, buf.String(), "\033[")
	assert.Contains(t, buf.String(), "ERROR  request failed")
}

func TestConsoleHandlerQuotesValues(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, Options{NoColor: true})

	log.Info("service status", "status", "start pending")

	assert.Contains(t, buf.String(), `status="start pending"`)
}

func TestConsoleHandlerWithAttrs(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, Options{NoColor: true}).With("backend", "svdir")

	log.Info("stopping service", "service", "web")

	assert.Equal(t, "INFO  stopping service backend=svdir service=web\n", buf.String())
}

func TestFileSink(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scc.log")

	var buf bytes.Buffer
	log := New(&buf, Options{NoColor: true, FilePath: path})

	log.Info("starting service", "service", "web")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "msg=\"starting service\"")
	assert.Contains(t, string(data), "service=web")
	assert.Contains(t, buf.String(), "starting service")
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, Options{NoColor: true, Level: slog.LevelWarn})

	log.Debug("noise")
	log.Info("also noise")
	log.Warn("kept")

	assert.NotContains(t, buf.String(), "noise")
	assert.Contains(t, buf.String(), "WARN  kept")
}

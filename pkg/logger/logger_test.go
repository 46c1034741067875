package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() {
		SetLevel(DEBUG)
		InitConsoleLogger()
	})

	SetLevel(WARN)
	Info("hidden %d", 1)
	Warn("shown %d", 2)

	out := buf.String()
	assert.NotContains(t, out, "hidden 1")
	assert.Contains(t, out, "shown 2")
	assert.Contains(t, out, "module=logger_test")
}

func TestInfoWithContext(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(InitConsoleLogger)

	InfoWithContext(map[string]interface{}{"cinema": "odeon"}, "scraped %d films", 3)

	out := buf.String()
	assert.Contains(t, out, "scraped 3 films")
	assert.Contains(t, out, "cinema=odeon")
}

func TestInitFileLogger(t *testing.T) {
	dir := t.TempDir()
	SetOutput(&bytes.Buffer{})
	t.Cleanup(InitConsoleLogger)

	require.NoError(t, InitFileLogger(dir))
	Error("written to file")
	require.NoError(t, Close())

	files, err := filepath.Glob(filepath.Join(dir, "cartelera_*.log"))
	require.NoError(t, err)
	require.Len(t, files, 1)

	data, err := os.ReadFile(files[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), "written to file")
}

package logging

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatter(t *testing.T) {
	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)
	logger.SetFormatter(&Formatter{SystemName: "test"})

	logger.WithFields(logrus.Fields{
		"component": "channel",
		"attempt":   2,
	}).WithError(errors.New("boom")).Warn("reconnect scheduled")

	line := buf.String()
	assert.Contains(t, line, "source=test")
	assert.Contains(t, line, "level=WARNING")
	assert.Contains(t, line, `msg="reconnect scheduled"`)
	assert.Contains(t, line, " attempt=2 component=channel error=boom")
	assert.Regexp(t, `event=[0-9a-f-]{36}`, line)
	assert.Equal(t, byte('\n'), line[len(line)-1])
}

func TestNew(t *testing.T) {
	t.Run("rejects unknown level", func(t *testing.T) {
		_, err := New(Options{Level: "loud"})
		require.Error(t, err)
	})

	t.Run("writes to file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "logs", "app.log")
		logger, err := New(Options{File: path, Level: "debug"})
		require.NoError(t, err)
		assert.Equal(t, logrus.DebugLevel, logger.GetLevel())
		logger.Info("hello")
		assert.FileExists(t, path)
	})
}

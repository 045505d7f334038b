package logger

import (
	"os"
	"path/filepath"
	"testing"

	"mentoring-svc/src/internal/config"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_LevelAndFile(t *testing.T) {
	t.Cleanup(func() {
		logrus.SetOutput(os.Stderr)
		logrus.SetLevel(logrus.InfoLevel)
		logrus.SetFormatter(&logrus.TextFormatter{})
	})

	path := filepath.Join(t.TempDir(), "logs", "svc.log")
	cfg := &config.Configuration{Logs: config.LogsSettings{Level: "debug", Path: path, EnableJSONOutput: true}}

	Init(cfg)
	logrus.WithField("k", "v").Info("hello")

	assert.Equal(t, logrus.DebugLevel, logrus.GetLevel())
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)
	assert.Contains(t, string(data), `"k":"v"`)
}

func TestInit_BadLevelFallsBackToInfo(t *testing.T) {
	t.Cleanup(func() { logrus.SetLevel(logrus.InfoLevel) })

	Init(&config.Configuration{Logs: config.LogsSettings{Level: "loud"}})

	assert.Equal(t, logrus.InfoLevel, logrus.GetLevel())
}

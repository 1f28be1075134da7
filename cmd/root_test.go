package cmd

import (
	"testing"

	"agencyops/config"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupLogging(t *testing.T) {
	original := log.GetLevel()
	originalFormatter := log.StandardLogger().Formatter
	t.Cleanup(func() {
		log.SetLevel(original)
		log.SetFormatter(originalFormatter)
	})

	cfg := config.NewTestConfig()
	cfg.LogLevel = "warn"
	cfg.LogFormat = "json"
	require.NoError(t, setupLogging(cfg))
	assert.Equal(t, log.WarnLevel, log.GetLevel())
	assert.IsType(t, &log.JSONFormatter{}, log.StandardLogger().Formatter)

	cfg.LogLevel = "loud"
	assert.Error(t, setupLogging(cfg))
}

func TestCommandTree(t *testing.T) {
	paths := [][]string{
		{"serve"},
		{"migrate", "up"},
		{"migrate", "down"},
		{"migrate", "status"},
		{"reconcile"},
		{"payroll", "generate"},
		{"fee", "quote"},
	}
	for _, path := range paths {
		cmd, rest, err := rootCmd.Find(path)
		require.NoError(t, err, path)
		assert.Empty(t, rest, path)
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}
}

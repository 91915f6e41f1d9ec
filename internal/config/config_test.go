package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestInitDefaults(t *testing.T) {
	require.NoError(t, Init(t.TempDir(), zap.NewNop(), nil))

	assert.Equal(t, "5070", Conf.Server.Port)
	assert.Equal(t, "5432", Conf.Database.Port)

	assert.Equal(t, 5*time.Second, Conf.Monitor.SampleInterval())
	assert.True(t, Conf.Monitor.EnableC)
	assert.True(t, Conf.Monitor.EnableCpp)

	assert.Equal(t, 30, Conf.Detector.ConnectAttempts)
	assert.Equal(t, 2, Conf.Detector.SettleSeconds)

	assert.InDelta(t, 0.7, Conf.Gate.AnxietyThreshold, 1e-9)
	assert.Equal(t, 300*time.Second, Conf.Gate.Cooldown())
	assert.True(t, Conf.Gate.ShowNotifications)
	assert.False(t, Conf.Gate.PlaySounds)
}

func TestInitReadsConfigFile(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "config"), 0o755))

	yaml := `
server:
  port: "6001"
monitor:
  sample_interval_seconds: 10
  enable_cpp: false
gate:
  anxiety_threshold: 0.85
  relaxation_messages:
    - "Breathe."
`
	require.NoError(t, os.WriteFile(filepath.Join(root, "config", "config.yaml"), []byte(yaml), 0o644))
	require.NoError(t, Init(root, zap.NewNop(), nil))

	assert.Equal(t, "6001", Conf.Server.Port)
	assert.Equal(t, 10*time.Second, Conf.Monitor.SampleInterval())
	assert.False(t, Conf.Monitor.EnableCpp)
	assert.InDelta(t, 0.85, Conf.Gate.AnxietyThreshold, 1e-9)
	assert.Equal(t, []string{"Breathe."}, Conf.Gate.RelaxationMessages)

	// Untouched keys keep their defaults.
	assert.Equal(t, "5432", Conf.Database.Port)
}

func TestInitEnvOverride(t *testing.T) {
	t.Setenv("CODECALM_SERVER_PORT", "7777")
	require.NoError(t, Init(t.TempDir(), zap.NewNop(), nil))
	assert.Equal(t, "7777", Conf.Server.Port)
}

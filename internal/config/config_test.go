package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "dev", cfg.AppEnv)
	require.Equal(t, 8080, cfg.Port)
	require.Equal(t, 30*time.Second, cfg.ClosingThreshold)
	require.Equal(t, 120*time.Second, cfg.FinalQuestionWindow)
	require.Equal(t, 5*time.Second, cfg.DebounceWindow)
	require.Equal(t, 40, cfg.HistoryCap)
	require.Equal(t, 350, cfg.ResponseCharCap)
	require.True(t, cfg.IsDev())
	require.False(t, cfg.IsProd())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "prod")
	t.Setenv("CLOSING_THRESHOLD", "45s")
	t.Setenv("HISTORY_CAP", "20")
	t.Setenv("KAFKA_BROKERS", "b1:9092,b2:9092")
	cfg, err := Load()
	require.NoError(t, err)
	require.True(t, cfg.IsProd())
	require.Equal(t, 45*time.Second, cfg.ClosingThreshold)
	require.Equal(t, 20, cfg.HistoryCap)
	require.Equal(t, []string{"b1:9092", "b2:9092"}, cfg.KafkaBrokers)
}

func TestGetLLMBackoffConfig_TestEnvShortens(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	cfg, err := Load()
	require.NoError(t, err)
	maxElapsed, initial, maxInterval, mult := cfg.GetLLMBackoffConfig()
	require.Equal(t, 2*time.Second, maxElapsed)
	require.Equal(t, 50*time.Millisecond, initial)
	require.Equal(t, 500*time.Millisecond, maxInterval)
	require.Equal(t, 2.0, mult)
}

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvParsers(t *testing.T) {
	t.Setenv("HOSPITALOPS_TEST_INT", "42")
	t.Setenv("HOSPITALOPS_TEST_FLOAT", "0.25")
	t.Setenv("HOSPITALOPS_TEST_BOOL", "true")
	t.Setenv("HOSPITALOPS_TEST_DUR", "5s")

	n, err := envInt("HOSPITALOPS_TEST_INT", 0)
	require.NoError(t, err)
	assert.Equal(t, 42, n)

	f, err := envFloat("HOSPITALOPS_TEST_FLOAT", 0)
	require.NoError(t, err)
	assert.InDelta(t, 0.25, f, 1e-9)

	b, err := envBool("HOSPITALOPS_TEST_BOOL", false)
	require.NoError(t, err)
	assert.True(t, b)

	d, err := envDuration("HOSPITALOPS_TEST_DUR", 0)
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, d)

	n, err = envInt("HOSPITALOPS_TEST_UNSET", 99)
	require.NoError(t, err)
	assert.Equal(t, 99, n)
}

func TestEnvParserErrors(t *testing.T) {
	t.Setenv("BAD_INT", "abc")
	t.Setenv("BAD_FLOAT", "fast")
	t.Setenv("BAD_BOOL", "maybe")
	t.Setenv("BAD_DUR", "five-seconds")

	_, err := envInt("BAD_INT", 0)
	assert.EqualError(t, err, `BAD_INT="abc" is not a valid integer`)
	_, err = envFloat("BAD_FLOAT", 0)
	assert.EqualError(t, err, `BAD_FLOAT="fast" is not a valid number`)
	_, err = envBool("BAD_BOOL", false)
	assert.EqualError(t, err, `BAD_BOOL="maybe" is not a valid boolean`)
	_, err = envDuration("BAD_DUR", 0)
	assert.EqualError(t, err, `BAD_DUR="five-seconds" is not a valid duration`)
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 800*time.Millisecond, cfg.SimulatedLatency)
	assert.Equal(t, 30*time.Second, cfg.ModelTimeout)
	assert.False(t, cfg.ParallelToolCalls)
	assert.True(t, cfg.RateLimitEnabled)
	assert.NotEmpty(t, cfg.AuditDSN)
}

func TestLoadReportsEveryBadVariable(t *testing.T) {
	t.Setenv("HOSPITALOPS_PORT", "abc")
	t.Setenv("HOSPITALOPS_SIMULATED_LATENCY", "slow")
	t.Setenv("HOSPITALOPS_PARALLEL_TOOL_CALLS", "sometimes")

	_, err := Load()
	require.Error(t, err)
	for _, want := range []string{`HOSPITALOPS_PORT="abc"`, "HOSPITALOPS_SIMULATED_LATENCY", "HOSPITALOPS_PARALLEL_TOOL_CALLS"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestLoadModelKeyPrecedence(t *testing.T) {
	t.Setenv("HOSPITALOPS_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "gm-key")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "gm-key", cfg.ModelAPIKey)

	t.Setenv("HOSPITALOPS_API_KEY", "primary")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, "primary", cfg.ModelAPIKey)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{"port out of range", map[string]string{"HOSPITALOPS_PORT": "70000"}, "HOSPITALOPS_PORT"},
		{"negative latency", map[string]string{"HOSPITALOPS_SIMULATED_LATENCY": "-1s"}, "must not be negative"},
		{"zero model timeout", map[string]string{"HOSPITALOPS_MODEL_TIMEOUT": "0s"}, "HOSPITALOPS_MODEL_TIMEOUT"},
		{"unknown log level", map[string]string{"HOSPITALOPS_LOG_LEVEL": "verbose"}, `"verbose"`},
		{"zero burst", map[string]string{"HOSPITALOPS_RATE_LIMIT_BURST": "0"}, "HOSPITALOPS_RATE_LIMIT_BURST"},
		{"zero burst with limiter off", map[string]string{
			"HOSPITALOPS_RATE_LIMIT_BURST":   "0",
			"HOSPITALOPS_RATE_LIMIT_ENABLED": "false",
		}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "antfarm.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	require.NoError(t, err)

	require.Equal(t, ":8420", cfg.Server.Listen)
	require.Equal(t, DriverMemory, cfg.Store.Driver)
	require.Equal(t, 4, cfg.Engine.Workers)
	require.Equal(t, 200, cfg.Engine.QueueCapacity)
	require.Equal(t, 30, cfg.Engine.SummaryWindow)
	require.Equal(t, 250*time.Millisecond, cfg.Engine.RetryBaseDelay)
	require.Equal(t, 2*time.Second, cfg.Engine.RetryMaxDelay)
	require.Empty(t, cfg.Models)
}

func TestLoadFullFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
server:
  listen: ":9000"
store:
  driver: sqlite
  path: /tmp/ants.db
engine:
  workers: 8
  queue_capacity: 50
  summary_window: 10
  retry_base_delay: 100ms
  retry_max_delay: 1s
models:
  - id: openai-gpt-4o-mini
    provider: openai
    model_name: gpt-4o-mini
    api_key: sk-test
    temperature: 0.7
    max_tokens: 512
  - id: ollama
    provider: ollama
    model_name: llama3
    base_url: http://localhost:11434
prices:
  openai-gpt-4o-mini:
    input_per_million: 0.15
    output_per_million: 0.6
`))
	require.NoError(t, err)

	require.Equal(t, ":9000", cfg.Server.Listen)
	require.Equal(t, DriverSQLite, cfg.Store.Driver)
	require.Equal(t, "/tmp/ants.db", cfg.Store.Path)
	require.Equal(t, 8, cfg.Engine.Workers)
	require.Equal(t, 100*time.Millisecond, cfg.Engine.RetryBaseDelay)

	require.Len(t, cfg.Models, 2)
	require.Equal(t, "openai", cfg.Models[0].Provider)
	require.Equal(t, "gpt-4o-mini", cfg.Models[0].ModelName)
	require.Equal(t, 512, cfg.Models[0].MaxTokens)
	require.Equal(t, "http://localhost:11434", cfg.Models[1].BaseURL)

	require.InDelta(t, 0.15, cfg.Prices["openai-gpt-4o-mini"].InputPerMillion, 1e-9)
	require.InDelta(t, 0.6, cfg.Prices["openai-gpt-4o-mini"].OutputPerMillion, 1e-9)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("ANTFARM_ENGINE_WORKERS", "9")
	t.Setenv("ANTFARM_SERVER_LISTEN", ":7777")

	cfg, err := Load(writeConfig(t, ""))
	require.NoError(t, err)
	require.Equal(t, 9, cfg.Engine.Workers)
	require.Equal(t, ":7777", cfg.Server.Listen)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, 4, cfg.Engine.Workers)
}

func TestLoadValidation(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{"unknown driver", "store:\n  driver: postgres\n"},
		{"sqlite without path", "store:\n  driver: sqlite\n  path: \"\"\n"},
		{"zero workers", "engine:\n  workers: 0\n"},
		{"model without name", "models:\n  - id: m1\n    provider: openai\n"},
		{"unknown provider", "models:\n  - id: m1\n    provider: bedrock\n    model_name: x\n"},
		{"duplicate model id", "models:\n  - id: m1\n    provider: openai\n    model_name: a\n  - id: m1\n    provider: openai\n    model_name: b\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.yaml))
			require.Error(t, err)
		})
	}
}

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "mock")
	t.Setenv("STORAGE_BACKEND", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "mock", cfg.LLM.Provider)
	assert.Equal(t, "local", cfg.Storage.Backend)
	assert.Equal(t, "temp_uploads", cfg.Storage.UploadDir)
	assert.Equal(t, "modified_docs", cfg.Storage.ModifiedDir)
	assert.Equal(t, "en-US", cfg.Grammar.Language)
	assert.Equal(t, int64(20<<20), cfg.Server.MaxUploadSize)
	assert.Equal(t, time.Duration(0), cfg.Retention.MaxAge)
}

func TestLoadConfig_GeminiRequiresKey(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "gemini")
	t.Setenv("GEMINI_API_KEY", "")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GEMINI_API_KEY")
}

func TestLoadConfig_OverridesFromEnv(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "OpenAI")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("LLM_TIMEOUT", "15s")
	t.Setenv("LLM_TEMPERATURE", "0.7")
	t.Setenv("FILE_RETENTION", "48h")
	t.Setenv("MAX_UPLOAD_MB", "5")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, 15*time.Second, cfg.LLM.Timeout)
	assert.InDelta(t, 0.7, cfg.LLM.Temperature, 1e-9)
	assert.Equal(t, 48*time.Hour, cfg.Retention.MaxAge)
	assert.Equal(t, int64(5<<20), cfg.Server.MaxUploadSize)
}

func TestValidateConfig(t *testing.T) {
	base := func() *Config {
		return &Config{
			Server:  ServerConfig{MaxUploadSize: 1 << 20},
			LLM:     LLMConfig{Provider: "mock"},
			Storage: StorageConfig{Backend: "local"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "unknown provider", mutate: func(c *Config) { c.LLM.Provider = "llama" }, wantErr: "LLM_PROVIDER"},
		{name: "s3 without bucket", mutate: func(c *Config) { c.Storage.Backend = "s3" }, wantErr: "S3_BUCKET"},
		{name: "unknown storage", mutate: func(c *Config) { c.Storage.Backend = "ftp" }, wantErr: "STORAGE_BACKEND"},
		{name: "partial influx", mutate: func(c *Config) { c.InfluxDB.URL = "http://influx:8086" }, wantErr: "INFLUXDB2_TOKEN"},
		{name: "sendgrid without sender", mutate: func(c *Config) { c.Email.APIKey = "SG.x" }, wantErr: "SENDGRID_FROM_EMAIL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := ValidateConfig(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

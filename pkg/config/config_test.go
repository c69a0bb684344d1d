package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_RegistryConfig(t *testing.T) {
	t.Setenv("REGISTRY_SERVICE_KEY", "secret-key")
	t.Setenv("REGISTRY_FORMAT", "JSON")
	t.Setenv("REGISTRY_TIMEOUT", "3s")
	t.Setenv("REGISTRY_HOSPITAL_LIST_URL", "http://registry.test/list")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "secret-key", cfg.Registry.ServiceKey)
	assert.Equal(t, RegistryFormatJSON, cfg.Registry.Format)
	assert.Equal(t, 3*time.Second, cfg.Registry.Timeout)
	assert.Equal(t, "http://registry.test/list", cfg.Registry.HospitalListURL)
	assert.True(t, cfg.Registry.HasServiceKey())
	assert.NoError(t, cfg.Validate())
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("REGISTRY_SERVICE_KEY", "")
	t.Setenv("ALLOWED_ORIGINS", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, RegistryFormatXML, cfg.Registry.Format)
	assert.Equal(t, 100, cfg.Registry.NumOfRows)
	assert.Equal(t, 0, cfg.Aggregator.MaxConcurrency)
	assert.False(t, cfg.Redis.Enabled)
	assert.False(t, cfg.Registry.HasServiceKey())
}

func TestLoad_AllowedOriginsList(t *testing.T) {
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example,,")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "missing key", mutate: func(c *Config) { c.Registry.ServiceKey = " " }, wantErr: "REGISTRY_SERVICE_KEY"},
		{name: "bad format", mutate: func(c *Config) { c.Registry.Format = "csv" }, wantErr: "REGISTRY_FORMAT"},
		{name: "bad rows", mutate: func(c *Config) { c.Registry.NumOfRows = 0 }, wantErr: "NUM_OF_ROWS"},
		{name: "rows above registry cap", mutate: func(c *Config) { c.Registry.NumOfRows = MaxRegistryRows + 1 }, wantErr: "between 1 and 100"},
		{name: "negative concurrency", mutate: func(c *Config) { c.Aggregator.MaxConcurrency = -1 }, wantErr: "MAX_CONCURRENCY"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Registry: RegistryConfig{ServiceKey: "k", Format: RegistryFormatXML, NumOfRows: 100}}
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

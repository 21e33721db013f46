package config

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, "stdio", cfg.MCP.Transport)
	assert.Equal(t, StoreMemory, cfg.Store.Driver)
	assert.Equal(t, 5*time.Millisecond, cfg.Debounce)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.Store.Redis.Enabled)
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "pipebuilder.yaml")
	require.NoError(t, os.WriteFile(file, []byte(strings.Join([]string{
		"definitions_dir: ./definitions",
		"http:",
		"  port: 9000",
		"store:",
		"  driver: redis",
		"  redis:",
		"    addr: redis:6379",
		"    ttl: 1h",
	}, "\n")), 0o644))

	t.Setenv("PIPEBUILDER_HTTP_PORT", "9100")
	t.Setenv("PIPEBUILDER_LOG_LEVEL", "debug")

	cfg, err := Load(viper.New(), file)
	require.NoError(t, err)

	assert.Equal(t, "./definitions", cfg.DefinitionsDir)
	assert.Equal(t, 9100, cfg.HTTP.Port, "environment wins over the file")
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, StoreRedis, cfg.Store.Driver)
	assert.True(t, cfg.Store.Redis.Enabled)
	assert.Equal(t, "redis:6379", cfg.Store.Redis.Addr)
	assert.Equal(t, time.Hour, cfg.Store.Redis.TTL)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(viper.New(), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(v *viper.Viper)
		wantErr string
	}{
		{
			name:    "unknown driver",
			mutate:  func(v *viper.Viper) { v.Set("store.driver", "postgres") },
			wantErr: "Driver",
		},
		{
			name:    "bad transport",
			mutate:  func(v *viper.Viper) { v.Set("mcp.transport", "ws") },
			wantErr: "Transport",
		},
		{
			name:    "port out of range",
			mutate:  func(v *viper.Viper) { v.Set("http.port", 70000) },
			wantErr: "Port",
		},
		{
			name: "backend without token",
			mutate: func(v *viper.Viper) {
				v.Set("backend.base_url", "https://api.example.com")
			},
			wantErr: "AccessToken",
		},
		{
			name: "short key",
			mutate: func(v *viper.Viper) {
				v.Set("security.encryption_key", base64.StdEncoding.EncodeToString([]byte("short")))
			},
			wantErr: ErrInvalidKey.Error(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			SetDefaults(v)
			tt.mutate(v)

			_, err := Load(v, "")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSecurityConfig_Keys(t *testing.T) {
	active := make([]byte, 32)
	old := make([]byte, 32)
	old[0] = 1

	s := SecurityConfig{
		EncryptionKey: base64.StdEncoding.EncodeToString(active),
		FallbackKeys:  []string{base64.StdEncoding.EncodeToString(old)},
	}
	gotActive, gotFallback, err := s.Keys()
	require.NoError(t, err)
	assert.Equal(t, active, gotActive)
	require.Len(t, gotFallback, 1)
	assert.Equal(t, old, gotFallback[0])

	none, _, err := SecurityConfig{}.Keys()
	require.NoError(t, err)
	assert.Nil(t, none)
}

package configs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() AppConfig {
	return AppConfig{
		Environment:      "production",
		Port:             3001,
		AllowedOrigins:   []string{"https://chess.example"},
		ChatHistoryLimit: 100,
		MaxMessageBytes:  2000,
		ResetPolicy:      ResetPolicyAny,
		EventRate:        10,
		EventBurst:       20,
		ConnectRate:      0.5,
		ConnectBurst:     10,
	}
}

func TestValidConfig(t *testing.T) {
	cfg := validConfig()
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, ":3001", cfg.Addr())
	assert.False(t, cfg.IsDevelopment())
}

func TestValidate_CollectsAllProblems(t *testing.T) {
	cfg := validConfig()
	cfg.Port = 80
	cfg.ChatHistoryLimit = 0
	cfg.ResetPolicy = "owner"
	cfg.AllowedOrigins = nil

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "port number 80")
	assert.Contains(t, err.Error(), "chat_history_limit")
	assert.Contains(t, err.Error(), "reset_policy")
	assert.Contains(t, err.Error(), "allowed_origins")
}

func TestValidate_DevelopmentAllowsNoOrigins(t *testing.T) {
	cfg := validConfig()
	cfg.Environment = "development"
	cfg.AllowedOrigins = nil
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromFile_Defaults(t *testing.T) {
	cfg, err := LoadFromFile("")
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 3001, cfg.Port)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.AllowedOrigins)
	assert.Equal(t, 100, cfg.ChatHistoryLimit)
	assert.Equal(t, ResetPolicyAny, cfg.ResetPolicy)
}

func TestLoadFromFile_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "4100")
	t.Setenv("ALLOWED_ORIGINS", " https://a.example , ,https://b.example")
	t.Setenv("RESET_POLICY", "Players")
	t.Setenv("CHAT_HISTORY_LIMIT", "5")

	cfg, err := LoadFromFile("")
	require.NoError(t, err)

	assert.Equal(t, 4100, cfg.Port)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, ResetPolicyPlayers, cfg.ResetPolicy)
	assert.Equal(t, 5, cfg.ChatHistoryLimit)
}

func TestLoadFromFile_YAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chessrooms.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
environment: production
port: 4200
allowed_origins:
  - https://chess.example
chat_history_limit: 50
`), 0o600))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, 4200, cfg.Port)
	assert.Equal(t, []string{"https://chess.example"}, cfg.AllowedOrigins)
	assert.Equal(t, 50, cfg.ChatHistoryLimit)
}

func TestLoadFromFile_MissingFile(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading config file")
}

func TestLoadFromViper_InvalidPort(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("port", 99999)

	_, err := LoadFromViper(v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "port number 99999")
}

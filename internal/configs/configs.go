/*
Package configs loads and validates the application's configuration settings.

Values come from built-in defaults, an optional YAML file named by CONFIG_FILE, and
environment variables, in increasing order of precedence. Keys are flat, so the
environment variable for a key is simply its upper-case name (chat_history_limit ->
CHAT_HISTORY_LIMIT).
*/
package configs

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Reset policies accepted by RESET_POLICY.
const (
	// ResetPolicyAny lets any participant of a room, spectators included, reset the game.
	ResetPolicyAny = "any"

	// ResetPolicyPlayers restricts resets to the seated players.
	ResetPolicyPlayers = "players"
)

// AppConfig contains all configuration parameters required for the application to run.
type AppConfig struct {
	// General Server Settings
	Environment string
	Port        int

	// Security Settings
	AllowedOrigins []string

	// Room Settings
	ChatHistoryLimit int
	MaxMessageBytes  int
	ResetPolicy      string

	// Rate Limits, in events per second and bucket size
	EventRate    float64
	EventBurst   int
	ConnectRate  float64
	ConnectBurst int
}

// IsDevelopment reports whether the server runs in the development environment.
func (c *AppConfig) IsDevelopment() bool {
	return c.Environment == "development"
}

// Addr returns the listen address for the HTTP server.
func (c *AppConfig) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate checks every setting and reports all violations at once.
func (c *AppConfig) Validate() error {
	var problems []string

	if c.Environment == "" {
		problems = append(problems, "environment must not be empty")
	}
	if c.Port < 1024 || c.Port > 65535 {
		problems = append(problems, fmt.Sprintf("port number %d is outside the recommended range (1024-65535) to avoid privileged ports", c.Port))
	}
	if c.ChatHistoryLimit < 1 {
		problems = append(problems, fmt.Sprintf("chat_history_limit must be >= 1, got %d", c.ChatHistoryLimit))
	}
	if c.MaxMessageBytes < 1 {
		problems = append(problems, fmt.Sprintf("max_message_bytes must be >= 1, got %d", c.MaxMessageBytes))
	}
	if c.ResetPolicy != ResetPolicyAny && c.ResetPolicy != ResetPolicyPlayers {
		problems = append(problems, fmt.Sprintf("reset_policy must be one of [%s, %s], got %q", ResetPolicyAny, ResetPolicyPlayers, c.ResetPolicy))
	}
	if c.EventRate <= 0 || c.EventBurst < 1 {
		problems = append(problems, "event_rate must be > 0 and event_burst >= 1")
	}
	if c.ConnectRate <= 0 || c.ConnectBurst < 1 {
		problems = append(problems, "connect_rate must be > 0 and connect_burst >= 1")
	}
	if !c.IsDevelopment() && len(c.AllowedOrigins) == 0 {
		problems = append(problems, fmt.Sprintf("allowed_origins is required in %s environment", c.Environment))
	}

	if len(problems) > 0 {
		return errors.New("configuration validation failed: " + strings.Join(problems, "; "))
	}
	return nil
}

// LoadConfig reads the configuration from defaults, the file named by CONFIG_FILE
// (if set) and the environment, then validates it.
func LoadConfig() (*AppConfig, error) {
	return LoadFromFile(os.Getenv("CONFIG_FILE"))
}

// LoadFromFile is LoadConfig with an explicit file path; an empty path skips the file.
func LoadFromFile(path string) (*AppConfig, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	return LoadFromViper(v)
}

// LoadFromViper builds an AppConfig from an already-configured Viper instance.
func LoadFromViper(v *viper.Viper) (*AppConfig, error) {
	cfg := &AppConfig{
		Environment:      strings.TrimSpace(v.GetString("environment")),
		Port:             v.GetInt("port"),
		AllowedOrigins:   splitOrigins(v.Get("allowed_origins")),
		ChatHistoryLimit: v.GetInt("chat_history_limit"),
		MaxMessageBytes:  v.GetInt("max_message_bytes"),
		ResetPolicy:      strings.ToLower(strings.TrimSpace(v.GetString("reset_policy"))),
		EventRate:        v.GetFloat64("event_rate"),
		EventBurst:       v.GetInt("event_burst"),
		ConnectRate:      v.GetFloat64("connect_rate"),
		ConnectBurst:     v.GetInt("connect_burst"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")
	v.SetDefault("port", 3001)
	v.SetDefault("allowed_origins", "http://localhost:3000")

	v.SetDefault("chat_history_limit", 100)
	v.SetDefault("max_message_bytes", 2000)
	v.SetDefault("reset_policy", ResetPolicyAny)

	v.SetDefault("event_rate", 10.0)
	v.SetDefault("event_burst", 20)
	v.SetDefault("connect_rate", 0.5)
	v.SetDefault("connect_burst", 10)
}

// splitOrigins accepts either a comma-separated string (environment) or a list (YAML).
func splitOrigins(raw any) []string {
	var parts []string

	switch val := raw.(type) {
	case string:
		parts = strings.Split(val, ",")
	case []string:
		parts = val
	case []any:
		for _, item := range val {
			parts = append(parts, fmt.Sprint(item))
		}
	}

	origins := []string{}
	for _, origin := range parts {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}

package core

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML configs can use values like "30s".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// Config holds the configuration for the agent.
type Config struct {
	APIKey        string   `yaml:"api_key"`         // Required: API key for authentication
	BaseURL       string   `yaml:"base_url"`        // Base URL for the API (defaults to OpenRouter)
	Model         string   `yaml:"model"`           // Model to use (defaults to claude-sonnet)
	SystemPrompt  string   `yaml:"system_prompt"`   // Optional system prompt override
	HTTPTimeout   Duration `yaml:"http_timeout"`    // HTTP client timeout
	MaxToolRounds int      `yaml:"max_tool_rounds"` // Tool-resolution rounds allowed per user turn
	DatabasePath  string   `yaml:"database"`        // SQLite database path
	GeocodingURL  string   `yaml:"geocoding_url"`   // Geocoding provider base URL
	WeatherURL    string   `yaml:"weather_url"`     // Weather provider base URL
}

// Validate checks the configuration and sets defaults.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		c.APIKey = os.Getenv("OPENROUTER_API_KEY")
	}
	if c.APIKey == "" {
		return ErrMissingAPIKey
	}
	if c.BaseURL == "" {
		c.BaseURL = "https://openrouter.ai/api/v1"
	}
	if c.Model == "" {
		c.Model = "anthropic/claude-3.5-sonnet"
	}
	if c.HTTPTimeout == 0 {
		c.HTTPTimeout = Duration(30 * time.Second)
	}
	if c.MaxToolRounds == 0 {
		c.MaxToolRounds = 8
	}
	if c.DatabasePath == "" {
		c.DatabasePath = "weather.db"
	}
	if c.GeocodingURL == "" {
		c.GeocodingURL = "https://geocoding-api.open-meteo.com"
	}
	if c.WeatherURL == "" {
		c.WeatherURL = "https://api.open-meteo.com"
	}
	return nil
}

// LoadConfig reads a YAML config file and applies defaults.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// instructionRoles maps backend identifiers to the role used to frame the
// leading instruction message. Anthropic-family models reject a bare system
// role in this position, so the instruction is framed as a user turn there.
var instructionRoles = map[string]string{
	"anthropic": RoleUser,
	"claude":    RoleUser,
	"openai":    RoleSystem,
	"gpt":       RoleSystem,
}

// InstructionRoleFor resolves the framing role for the given model
// identifier. Unknown backends default to a system message.
func InstructionRoleFor(model string) string {
	id := strings.ToLower(model)
	for key, role := range instructionRoles {
		if strings.Contains(id, key) {
			return role
		}
	}
	return RoleSystem
}

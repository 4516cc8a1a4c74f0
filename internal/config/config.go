// Package config loads assistant configuration from config files and
// environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// Config holds all assistant configuration.
type Config struct {
	// User identity
	UserID   string
	UserName string

	// Memory service
	Mem0APIKey  string
	Mem0BaseURL string

	// Language model selection
	LLMProvider     string
	GeminiAPIKey    string
	OpenAIAPIKey    string
	AnthropicAPIKey string
	ModelID         string
	VoiceID         string

	// Optional MCP tool server: a URL for SSE transport, or a command
	// line to spawn a stdio server. At most one should be set.
	MCPServerURL     string
	MCPServerCommand string

	// Outbound HTTP timeout for context and memory lookups
	HTTPTimeout time.Duration

	NoiseCancellation bool
}

// LoadConfig loads configuration from .env, config files and
// environment variables.
func LoadConfig() (*Config, error) {
	// Secrets commonly live in a local .env during development.
	if err := godotenv.Load(); err == nil {
		log.Debug().Msg("Loaded environment from .env file")
	}

	v := viper.New()

	setDefaults(v)

	// Configure environment variables - do this BEFORE reading config
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set up explicit mappings between struct fields and environment variables
	envMappings := map[string]string{
		"UserID":            "USER_ID",
		"UserName":          "USER_NAME",
		"Mem0APIKey":        "MEM0_API_KEY",
		"Mem0BaseURL":       "MEM0_BASE_URL",
		"LLMProvider":       "LLM_PROVIDER",
		"GeminiAPIKey":      "GEMINI_API_KEY",
		"OpenAIAPIKey":      "OPENAI_API_KEY",
		"AnthropicAPIKey":   "ANTHROPIC_API_KEY",
		"ModelID":           "MODEL_ID",
		"VoiceID":           "VOICE_ID",
		"MCPServerURL":      "MCP_SERVER_URL",
		"MCPServerCommand":  "MCP_SERVER_COMMAND",
		"HTTPTimeout":       "HTTP_TIMEOUT",
		"NoiseCancellation": "NOISE_CANCELLATION",
	}

	for configKey, envVar := range envMappings {
		if err := v.BindEnv(configKey, envVar); err != nil {
			log.Warn().Err(err).Msgf("Failed to bind environment variable %s for %s", envVar, configKey)
		}
	}

	v.SetConfigName("jarvis_config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("$HOME/.jarvis")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		log.Debug().Msg("Config file not found, using environment variables and defaults")
	} else {
		log.Info().Msgf("Using config file: %s", v.ConfigFileUsed())
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	log.Debug().Msgf("Config loaded: UserID=%s, LLMProvider=%s, ModelID=%s",
		config.UserID, config.LLMProvider, config.ModelID)

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("UserID", "default_user")
	v.SetDefault("LLMProvider", "gemini")
	v.SetDefault("ModelID", "gemini-2.0-flash")
	v.SetDefault("VoiceID", "Charon")
	v.SetDefault("HTTPTimeout", 30*time.Second)
	v.SetDefault("NoiseCancellation", true)
}

// validateConfig validates the required configuration fields
func validateConfig(config *Config) error {
	var missingVars []string

	if config.Mem0APIKey == "" {
		missingVars = append(missingVars, "MEM0_API_KEY")
	}

	switch config.LLMProvider {
	case "gemini":
		if config.GeminiAPIKey == "" {
			missingVars = append(missingVars, "GEMINI_API_KEY")
		}
	case "openai":
		if config.OpenAIAPIKey == "" {
			missingVars = append(missingVars, "OPENAI_API_KEY")
		}
	case "anthropic":
		if config.AnthropicAPIKey == "" {
			missingVars = append(missingVars, "ANTHROPIC_API_KEY")
		}
	default:
		return fmt.Errorf("unknown LLM provider %q (supported: gemini, openai, anthropic)", config.LLMProvider)
	}

	if config.UserName == "" {
		config.UserName = config.UserID
	}

	if len(missingVars) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missingVars, ", "))
	}

	return nil
}

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr string
	}{
		{
			name: "valid gemini config",
			config: Config{
				Mem0APIKey:   "m0-key",
				LLMProvider:  "gemini",
				GeminiAPIKey: "g-key",
				UserID:       "Gaurav_22",
			},
		},
		{
			name: "missing mem0 key",
			config: Config{
				LLMProvider:  "gemini",
				GeminiAPIKey: "g-key",
			},
			wantErr: "MEM0_API_KEY",
		},
		{
			name: "missing selected provider key only",
			config: Config{
				Mem0APIKey:   "m0-key",
				LLMProvider:  "anthropic",
				GeminiAPIKey: "g-key",
			},
			wantErr: "ANTHROPIC_API_KEY",
		},
		{
			name: "unknown provider",
			config: Config{
				Mem0APIKey:  "m0-key",
				LLMProvider: "llama",
			},
			wantErr: "unknown LLM provider",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateConfig(&tt.config)
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestValidateConfig_UserNameDefaultsToUserID(t *testing.T) {
	config := Config{
		Mem0APIKey:   "m0-key",
		LLMProvider:  "gemini",
		GeminiAPIKey: "g-key",
		UserID:       "Gaurav_22",
	}

	require.NoError(t, validateConfig(&config))
	assert.Equal(t, "Gaurav_22", config.UserName)
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("MEM0_API_KEY", "m0-key")
	t.Setenv("GEMINI_API_KEY", "g-key")

	config, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "gemini", config.LLMProvider)
	assert.Equal(t, "gemini-2.0-flash", config.ModelID)
	assert.Equal(t, "Charon", config.VoiceID)
	assert.Equal(t, 30*time.Second, config.HTTPTimeout)
	assert.True(t, config.NoiseCancellation)
}

package llm

import (
	"context"
	"testing"
	"time"

	"github.com/ppiankov/finsent/internal/model"
)

func TestNewProvider(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		config   Config
		wantName string
		wantNil  bool
		wantErr  bool
	}{
		{"disabled", Config{}, "", true, false},
		{"openai", Config{Provider: "openai", APIKey: "k"}, "openai", false, false},
		{"claude alias", Config{Provider: "Claude", APIKey: "k"}, "anthropic", false, false},
		{"ollama", Config{Provider: "ollama", Model: "mistral"}, "ollama", false, false},
		{"gemini without key", Config{Provider: "gemini"}, "", true, true},
		{"openai without key", Config{Provider: "openai"}, "", true, true},
		{"anthropic without key", Config{Provider: "anthropic"}, "", true, true},
		{"unknown", Config{Provider: "bard"}, "", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewProvider(ctx, tt.config)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantNil {
				if p != nil {
					t.Errorf("expected nil provider, got %T", p)
				}
				return
			}
			if p.Name() != tt.wantName {
				t.Errorf("Name() = %q, want %q", p.Name(), tt.wantName)
			}
		})
	}
}

func TestConfigFromModel(t *testing.T) {
	c := ConfigFromModel(model.LLMConfig{
		Provider:    "ollama",
		Model:       "mistral",
		BaseURL:     "http://ollama:11434",
		Timeout:     90 * time.Second,
		MaxTokens:   500,
		Temperature: 0.2,
	})
	if c.Provider != "ollama" || c.Model != "mistral" || c.Timeout != 90*time.Second || c.MaxTokens != 500 || c.Temperature != 0.2 {
		t.Errorf("ConfigFromModel = %+v", c)
	}
}

func TestConfigResolve(t *testing.T) {
	c := DefaultConfig()
	req := c.resolve(GenerateRequest{Prompt: "x"}, "default-model")
	if req.Model != "default-model" || req.MaxTokens != 1000 || req.Temperature != 0.1 {
		t.Errorf("resolve = %+v", req)
	}

	req = Config{Model: "cfg"}.resolve(GenerateRequest{Model: "explicit", MaxTokens: 5}, "d")
	if req.Model != "explicit" || req.MaxTokens != 5 {
		t.Errorf("explicit fields overridden: %+v", req)
	}
}

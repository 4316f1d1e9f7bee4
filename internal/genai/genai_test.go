package genai

import "testing"

func TestNewClientRequiresAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	if _, err := NewClient(); err == nil {
		t.Error("expected error when no API key is configured")
	}
}

func TestNewClientDefaults(t *testing.T) {
	c, err := NewClient(WithAPIKey("test-key"))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if c.maxTokens != DefaultMaxTokens {
		t.Errorf("maxTokens = %d, want %d", c.maxTokens, DefaultMaxTokens)
	}
	if c.temperature != DefaultTemperature {
		t.Errorf("temperature = %v, want %v", c.temperature, DefaultTemperature)
	}
	if c.model == "" {
		t.Error("model not defaulted")
	}
}

func TestNewClientOptions(t *testing.T) {
	c, err := NewClient(
		WithAPIKey("test-key"),
		WithModel("gpt-4o"),
		WithMaxTokens(512),
		WithTemperature(0.7),
	)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if c.model != "gpt-4o" || c.maxTokens != 512 || c.temperature != 0.7 {
		t.Errorf("options not applied: model=%q maxTokens=%d temperature=%v", c.model, c.maxTokens, c.temperature)
	}
}

package gateway

import "net/http"

// Config holds the settings for the chat-completions gateway.
type Config struct {
	// URL is the chat-completions endpoint.
	URL string
	// APIKey is sent as a bearer token.
	APIKey string
	// Model is the multimodal model name passed through to the gateway.
	Model string
	// Temperature is kept low so the JSON shape stays stable.
	Temperature float64
	// HTTPClient defaults to a client with no timeout; callers bound each
	// call with their context.
	HTTPClient *http.Client
}

// DefaultConfig returns the production endpoint and model. APIKey is empty.
func DefaultConfig() Config {
	return Config{
		URL:         "https://ai.gateway.lovable.dev/v1/chat/completions",
		Model:       "google/gemini-2.5-flash",
		Temperature: 0.3,
	}
}

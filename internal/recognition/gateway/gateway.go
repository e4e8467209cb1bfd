// Package gateway implements recognition.Recognizer against an
// OpenAI-compatible chat-completions endpoint.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/sakif/nutri-track/internal/apperror"
	"github.com/sakif/nutri-track/internal/recognition"
)

// maxResponseBody bounds how much of a success response is read.
const maxResponseBody = 1 << 20

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

// chatMessage content is a string for the system turn and a list of parts
// for the user turn.
type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Client is a recognition.Recognizer backed by the gateway.
type Client struct {
	cfg    Config
	client *http.Client
	logger *slog.Logger
}

var _ recognition.Recognizer = (*Client)(nil)

// New validates cfg and returns a Client.
func New(cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.URL == "" {
		return nil, errors.New("gateway: URL is required")
	}
	if cfg.APIKey == "" {
		return nil, errors.New("gateway: API key is required")
	}
	if cfg.Model == "" {
		return nil, errors.New("gateway: model is required")
	}

	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	return &Client{cfg: cfg, client: hc, logger: logger}, nil
}

// Analyze sends one image to the gateway and parses the answer. req.Image
// is forwarded as given; FoodService validates it first.
func (c *Client) Analyze(ctx context.Context, req recognition.Request) (*recognition.Estimate, error) {
	start := time.Now()

	payload, err := json.Marshal(c.buildRequest(req.Image))
	if err != nil {
		return nil, fmt.Errorf("encoding gateway request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating gateway request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: calling gateway: %w", apperror.ErrUpstream, err)
	}
	defer resp.Body.Close()

	if err := c.checkStatus(resp); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("%w: reading gateway response: %w", apperror.ErrUpstream, err)
	}

	var chat chatResponse
	if err := json.Unmarshal(body, &chat); err != nil {
		return nil, apperror.MalformedResponse(fmt.Sprintf("decoding gateway response: %v", err))
	}
	if len(chat.Choices) == 0 || chat.Choices[0].Message.Content == "" {
		return nil, apperror.MalformedResponse("gateway response has no content")
	}

	content := chat.Choices[0].Message.Content
	c.logger.Debug("gateway answered", slog.String("content", content))

	est, err := recognition.ParseEstimate(content)
	if err != nil {
		c.logger.Warn("unparseable recognition answer",
			slog.String("content", content),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	c.logger.Info("food recognised",
		slog.String("name", est.Name),
		slog.Float64("calories", est.Calories),
		slog.String("confidence", string(est.Confidence)),
		slog.Duration("duration", time.Since(start)),
	)
	return est, nil
}

func (c *Client) buildRequest(image string) chatRequest {
	return chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: recognition.SystemPrompt},
			{Role: "user", Content: []contentPart{
				{Type: "text", Text: recognition.UserPrompt},
				{Type: "image_url", ImageURL: &imageURL{URL: image}},
			}},
		},
		Temperature: c.cfg.Temperature,
	}
}

// checkStatus maps a non-2xx response to its typed failure.
func (c *Client) checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	switch resp.StatusCode {
	case http.StatusTooManyRequests:
		return apperror.RateLimited("Rate limit exceeded. Please try again later.")
	case http.StatusPaymentRequired:
		return apperror.QuotaExceeded("Payment required. Please add credits to your workspace.")
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	statusErr := recognition.NewStatusError(resp.StatusCode, body)
	c.logger.Error("gateway error",
		slog.Int("status", statusErr.Status),
		slog.String("body", statusErr.Body),
	)
	return statusErr
}

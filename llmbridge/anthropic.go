package llmbridge

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// anthropicClient talks to the Anthropic Messages API. System content is
// hoisted out of the message array into the top-level system field, and
// structured content travels as typed blocks.
type anthropicClient struct {
	cfg    ProviderConfig
	client *http.Client
}

func newAnthropicClient(cfg ProviderConfig) (*anthropicClient, error) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = anthropicEndpoint
	}
	return &anthropicClient{cfg: cfg, client: &http.Client{}}, nil
}

func (c *anthropicClient) Provider() string { return c.cfg.Provider }
func (c *anthropicClient) Model() string    { return c.cfg.Model }

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	System      string             `json:"system,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
	Temperature float64            `json:"temperature"`
	Stream      bool               `json:"stream"`
}

type anthropicMessage struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"` // string or []anthropicContentBlock
}

type anthropicContentBlock struct {
	Type   string                `json:"type"` // "text" or "image"
	Text   string                `json:"text,omitempty"`
	Source *anthropicImageSource `json:"source,omitempty"`
}

type anthropicImageSource struct {
	Type      string `json:"type"` // "base64"
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

type anthropicStreamEvent struct {
	Type  string `json:"type"`
	Delta *struct {
		Type string `json:"type"`
		Text string `json:"text,omitempty"`
	} `json:"delta,omitempty"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// buildAnthropicRequest hoists system-role content into the request's system
// field; it never appears inside the message array.
func (c *anthropicClient) buildAnthropicRequest(messages []ChatMessage) anthropicRequest {
	var system string
	converted := make([]anthropicMessage, 0, len(messages))

	for _, msg := range messages {
		if msg.Role == RoleSystem {
			system = msg.Text()
			continue
		}
		if len(msg.Parts) == 0 {
			converted = append(converted, anthropicMessage{Role: string(msg.Role), Content: msg.Content})
			continue
		}
		blocks := make([]anthropicContentBlock, 0, len(msg.Parts))
		for _, part := range msg.Parts {
			switch part.Kind {
			case PartText:
				blocks = append(blocks, anthropicContentBlock{Type: "text", Text: part.Text})
			case PartImage:
				if part.Image == nil {
					continue
				}
				blocks = append(blocks, anthropicContentBlock{
					Type: "image",
					Source: &anthropicImageSource{
						Type:      "base64",
						MediaType: part.Image.MediaType,
						Data:      part.Image.Base64,
					},
				})
			}
		}
		converted = append(converted, anthropicMessage{Role: string(msg.Role), Content: blocks})
	}

	return anthropicRequest{
		Model:       c.cfg.Model,
		MaxTokens:   c.cfg.MaxTokens,
		System:      system,
		Messages:    converted,
		Temperature: c.cfg.Temperature,
		Stream:      true,
	}
}

func (c *anthropicClient) Chat(ctx context.Context, messages []ChatMessage, cb StreamCallbacks, cancel *CancelSignal) (string, error) {
	body, err := json.Marshal(c.buildAnthropicRequest(messages))
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint+"/messages", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.cfg.APIKey)
	req.Header.Set("anthropic-version", "2023-06-01")
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", &TransportError{Provider: c.cfg.Provider, Message: "request failed", Cause: err}
	}
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return "", statusError(c.cfg.Provider, resp.StatusCode, respBody)
	}

	return consumeStream(&anthropicFragments{
		provider: c.cfg.Provider,
		body:     resp.Body,
		reader:   bufio.NewReader(resp.Body),
	}, cb, cancel)
}

// anthropicFragments unwraps the Messages API SSE framing one event at a
// time. Non-text events yield an empty fragment so the loop still polls
// cancellation per chunk.
type anthropicFragments struct {
	provider string
	body     io.ReadCloser
	reader   *bufio.Reader
}

func (f *anthropicFragments) Next() (string, error) {
	line, err := f.reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", &TransportError{Provider: f.provider, Message: "error reading stream", Cause: err}
	}

	// The final line may arrive without its trailing newline; it still
	// counts as an event.
	line = strings.TrimSpace(line)
	if line == "" && err == io.EOF {
		return "", io.EOF
	}
	if !strings.HasPrefix(line, "data: ") {
		return "", nil
	}

	var event anthropicStreamEvent
	if json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &event) != nil {
		return "", nil
	}

	switch event.Type {
	case "content_block_delta":
		if event.Delta != nil && event.Delta.Type == "text_delta" {
			return event.Delta.Text, nil
		}
	case "message_stop":
		return "", io.EOF
	case "error":
		if event.Error != nil {
			return "", &TransportError{Provider: f.provider, Message: event.Error.Message}
		}
	}
	return "", nil
}

func (f *anthropicFragments) Close() error { return f.body.Close() }

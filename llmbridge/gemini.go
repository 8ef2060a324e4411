package llmbridge

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// geminiClient talks to the Gemini generateContent API in SSE mode. System
// content is hoisted into systemInstruction; assistant turns use the "model"
// role; images travel as inlineData parts.
type geminiClient struct {
	cfg    ProviderConfig
	client *http.Client
}

func newGeminiClient(cfg ProviderConfig) (*geminiClient, error) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = geminiEndpoint
	}
	return &geminiClient{cfg: cfg, client: &http.Client{}}, nil
}

func (c *geminiClient) Provider() string { return c.cfg.Provider }
func (c *geminiClient) Model() string    { return c.cfg.Model }

type geminiRequest struct {
	SystemInstruction *geminiContent  `json:"systemInstruction,omitempty"`
	Contents          []geminiContent `json:"contents"`
	GenerationConfig  geminiGenConfig `json:"generationConfig"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"` // "user" or "model"
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inlineData,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type geminiGenConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

type geminiStreamChunk struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func geminiRole(role Role) string {
	if role == RoleAssistant {
		return "model"
	}
	return "user"
}

func (c *geminiClient) buildGeminiRequest(messages []ChatMessage) geminiRequest {
	req := geminiRequest{
		GenerationConfig: geminiGenConfig{
			Temperature:     c.cfg.Temperature,
			MaxOutputTokens: c.cfg.MaxTokens,
		},
	}

	for _, msg := range messages {
		if msg.Role == RoleSystem {
			req.SystemInstruction = &geminiContent{
				Parts: []geminiPart{{Text: msg.Text()}},
			}
			continue
		}

		content := geminiContent{Role: geminiRole(msg.Role)}
		if len(msg.Parts) == 0 {
			content.Parts = []geminiPart{{Text: msg.Content}}
		} else {
			for _, part := range msg.Parts {
				switch part.Kind {
				case PartText:
					content.Parts = append(content.Parts, geminiPart{Text: part.Text})
				case PartImage:
					if part.Image == nil {
						continue
					}
					content.Parts = append(content.Parts, geminiPart{
						InlineData: &geminiInlineData{
							MimeType: part.Image.MediaType,
							Data:     part.Image.Base64,
						},
					})
				}
			}
		}
		req.Contents = append(req.Contents, content)
	}

	return req
}

func (c *geminiClient) Chat(ctx context.Context, messages []ChatMessage, cb StreamCallbacks, cancel *CancelSignal) (string, error) {
	body, err := json.Marshal(c.buildGeminiRequest(messages))
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:streamGenerateContent?alt=sse&key=%s",
		c.cfg.Endpoint, c.cfg.Model, url.QueryEscape(c.cfg.APIKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
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

	return consumeStream(&geminiFragments{
		provider: c.cfg.Provider,
		body:     resp.Body,
		reader:   bufio.NewReader(resp.Body),
	}, cb, cancel)
}

type geminiFragments struct {
	provider string
	body     io.ReadCloser
	reader   *bufio.Reader
}

func (f *geminiFragments) Next() (string, error) {
	line, err := f.reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", &TransportError{Provider: f.provider, Message: "error reading stream", Cause: err}
	}

	// The final line may arrive without its trailing newline; it still
	// counts as a chunk.
	line = strings.TrimSpace(line)
	if line == "" && err == io.EOF {
		return "", io.EOF
	}
	if !strings.HasPrefix(line, "data: ") {
		return "", nil
	}

	var chunk geminiStreamChunk
	if json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &chunk) != nil {
		return "", nil
	}
	if chunk.Error != nil {
		return "", &TransportError{Provider: f.provider, Message: chunk.Error.Message}
	}
	if len(chunk.Candidates) == 0 {
		return "", nil
	}

	var sb strings.Builder
	for _, part := range chunk.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	return sb.String(), nil
}

func (f *geminiFragments) Close() error { return f.body.Close() }

package llmbridge

import (
	"context"
	"io"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// openAIClient owns an openai-go SDK handle. It also backs every
// OpenAI-compatible provider (DeepSeek) through an endpoint override; the
// provider id on the config keeps them apart.
type openAIClient struct {
	cfg    ProviderConfig
	client *openai.Client
}

func newOpenAIClient(cfg ProviderConfig) (*openAIClient, error) {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithBaseURL(cfg.Endpoint))
	}
	return &openAIClient{cfg: cfg, client: openai.NewClient(opts...)}, nil
}

func (c *openAIClient) Provider() string { return c.cfg.Provider }
func (c *openAIClient) Model() string    { return c.cfg.Model }

// messagesToOpenAI converts the history into chat completion params. System
// content stays inline as a system-role message; this API models it that way.
func messagesToOpenAI(messages []ChatMessage) []openai.ChatCompletionMessageParamUnion {
	result := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case RoleSystem:
			result = append(result, openai.SystemMessage(msg.Text()))
		case RoleAssistant:
			am := openai.ChatCompletionAssistantMessageParam{
				Role: openai.F(openai.ChatCompletionAssistantMessageParamRoleAssistant),
			}
			am.Content.Value = append(am.Content.Value, openai.TextPart(msg.Text()))
			result = append(result, am)
		case RoleUser:
			if len(msg.Parts) == 0 {
				result = append(result, openai.UserMessageParts(openai.TextPart(msg.Content)))
				continue
			}
			parts := make([]openai.ChatCompletionContentPartUnionParam, 0, len(msg.Parts))
			for _, part := range msg.Parts {
				switch part.Kind {
				case PartText:
					parts = append(parts, openai.ChatCompletionContentPartTextParam{
						Text: openai.String(part.Text),
						Type: openai.F(openai.ChatCompletionContentPartTextTypeText),
					})
				case PartImage:
					if part.Image == nil {
						continue
					}
					parts = append(parts, openai.ChatCompletionContentPartImageParam{
						ImageURL: openai.F(openai.ChatCompletionContentPartImageImageURLParam{
							URL: openai.String(part.Image.URL),
						}),
						Type: openai.F(openai.ChatCompletionContentPartImageTypeImageURL),
					})
				}
			}
			result = append(result, openai.UserMessageParts(parts...))
		}
	}
	return result
}

func (c *openAIClient) Chat(ctx context.Context, messages []ChatMessage, cb StreamCallbacks, cancel *CancelSignal) (string, error) {
	params := openai.ChatCompletionNewParams{
		Messages:    openai.F(messagesToOpenAI(messages)),
		Model:       openai.F(c.cfg.Model),
		Temperature: openai.Float(c.cfg.Temperature),
	}
	if c.cfg.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(c.cfg.MaxTokens))
	}

	strm := c.client.Chat.Completions.NewStreaming(ctx, params)
	if err := strm.Err(); err != nil {
		strm.Close()
		return "", &TransportError{Provider: c.cfg.Provider, Message: "stream open failed", Cause: err}
	}

	return consumeStream(&funcFragments{
		next: func() (string, error) {
			if !strm.Next() {
				if err := strm.Err(); err != nil {
					return "", &TransportError{Provider: c.cfg.Provider, Message: "stream failed", Cause: err}
				}
				return "", io.EOF
			}
			chunk := strm.Current()
			if len(chunk.Choices) == 0 {
				return "", nil
			}
			return chunk.Choices[0].Delta.Content, nil
		},
		close: strm.Close,
	}, cb, cancel)
}

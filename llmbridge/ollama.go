package llmbridge

import (
	"context"
	"io"
	"strings"

	"github.com/teilomillet/gollm"
)

// ollamaClient drives a local Ollama daemon through gollm. Ollama needs no
// credential; the registry skips key resolution for it entirely. gollm has
// no message-array API, so the history is flattened into a single prompt
// with the system content hoisted into gollm's system prompt option.
type ollamaClient struct {
	cfg ProviderConfig
	llm gollm.LLM
}

func newOllamaClient(cfg ProviderConfig) (*ollamaClient, error) {
	opts := []gollm.ConfigOption{
		gollm.SetProvider("ollama"),
		gollm.SetModel(cfg.Model),
		gollm.SetMaxTokens(cfg.MaxTokens),
		gollm.SetTemperature(cfg.Temperature),
		gollm.SetMaxRetries(0),
		gollm.SetLogLevel(gollm.LogLevelWarn),
	}
	if cfg.Endpoint != "" {
		opts = append(opts, gollm.SetOllamaEndpoint(cfg.Endpoint))
	}

	llm, err := gollm.NewLLM(opts...)
	if err != nil {
		return nil, err
	}
	return &ollamaClient{cfg: cfg, llm: llm}, nil
}

func (c *ollamaClient) Provider() string { return c.cfg.Provider }
func (c *ollamaClient) Model() string    { return c.cfg.Model }

// flattenHistory renders the non-system turns as a single prompt body and
// returns the hoisted system text separately.
func flattenHistory(messages []ChatMessage) (system string, prompt string) {
	var turns []string
	for _, msg := range messages {
		text := msg.Text()
		switch msg.Role {
		case RoleSystem:
			system = text
		case RoleAssistant:
			if text != "" {
				turns = append(turns, "[Assistant]: "+text)
			}
		default:
			turns = append(turns, text)
		}
	}
	return system, strings.Join(turns, "\n")
}

func (c *ollamaClient) buildPrompt(messages []ChatMessage) *gollm.Prompt {
	system, text := flattenHistory(messages)
	if text == "" {
		text = "Hello"
	}

	var opts []gollm.PromptOption
	if system != "" {
		opts = append(opts, gollm.WithSystemPrompt(system, gollm.CacheTypeEphemeral))
	}
	return gollm.NewPrompt(text, opts...)
}

func (c *ollamaClient) Chat(ctx context.Context, messages []ChatMessage, cb StreamCallbacks, cancel *CancelSignal) (string, error) {
	prompt := c.buildPrompt(messages)

	if !c.llm.SupportsStreaming() {
		// Single-shot fallback: the whole response is one chunk, so the
		// cancellation poll happens once, after generation returns.
		done := false
		return consumeStream(&funcFragments{
			next: func() (string, error) {
				if done {
					return "", io.EOF
				}
				done = true
				text, err := c.llm.Generate(ctx, prompt)
				if err != nil {
					return "", &TransportError{Provider: c.cfg.Provider, Message: "generate failed", Cause: err}
				}
				return text, nil
			},
		}, cb, cancel)
	}

	stream, err := c.llm.Stream(ctx, prompt)
	if err != nil {
		return "", &TransportError{Provider: c.cfg.Provider, Message: "stream open failed", Cause: err}
	}

	return consumeStream(&funcFragments{
		next: func() (string, error) {
			token, err := stream.Next(ctx)
			if err == io.EOF {
				return "", io.EOF
			}
			if err != nil {
				return "", &TransportError{Provider: c.cfg.Provider, Message: "stream failed", Cause: err}
			}
			if token == nil {
				return "", nil
			}
			return token.Text, nil
		},
		close: stream.Close,
	}, cb, cancel)
}

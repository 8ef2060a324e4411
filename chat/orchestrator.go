package chat

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/emarek/chatcore/llmbridge"
)

// defaultSummary is used when the summary call fails or returns nothing.
const defaultSummary = "New Chat"

// ClientSource yields chat clients. *llmbridge.Registry satisfies it.
type ClientSource interface {
	CreateClient(providerID, modelID string) (llmbridge.Client, error)
}

// Orchestrator runs a full exchange: prompt injection, diagnostic filtering,
// the streamed model call, and a best-effort summary afterwards.
type Orchestrator struct {
	clients      ClientSource
	prompts      PromptSource
	log          zerolog.Logger
	summaryRetry llmbridge.RetryPolicy
}

// OrchestratorOption configures an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithOrchestratorLogger sets the diagnostic sink.
func WithOrchestratorLogger(log zerolog.Logger) OrchestratorOption {
	return func(o *Orchestrator) {
		o.log = log
	}
}

// WithSummaryRetry overrides the retry policy for the summary call.
func WithSummaryRetry(policy llmbridge.RetryPolicy) OrchestratorOption {
	return func(o *Orchestrator) {
		o.summaryRetry = policy
	}
}

// NewOrchestrator wires an orchestrator to its client and prompt sources.
func NewOrchestrator(clients ClientSource, prompts PromptSource, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		clients:      clients,
		prompts:      prompts,
		log:          zerolog.Nop(),
		summaryRetry: llmbridge.DefaultRetryPolicy(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// ExchangeRequest is one user turn plus the context it runs in.
type ExchangeRequest struct {
	Provider string
	Model    string

	// Messages is the conversation so far, oldest first, ending with the
	// turn to answer.
	Messages []llmbridge.ChatMessage

	// SystemOverride replaces the PromptSource prompt when non-empty;
	// Additional is appended to whichever prompt is in effect.
	SystemOverride string
	Additional     string

	Callbacks llmbridge.StreamCallbacks
	Cancel    *llmbridge.CancelSignal
}

// Exchange is the outcome of one Send.
type Exchange struct {
	// ID identifies the exchange in logs.
	ID string

	// Reply is the assistant text accumulated from the stream. On a
	// cancelled exchange it holds whatever arrived before the cancel.
	Reply string

	// Summary is a short model-generated title, or defaultSummary when the
	// summary call failed or the exchange was cancelled.
	Summary string

	Cancelled bool
}

// Send runs one exchange. Tokens stream through req.Callbacks as they
// arrive. The summary call is best effort: its failure never fails the
// exchange, and it is skipped entirely when the exchange was cancelled.
func (o *Orchestrator) Send(ctx context.Context, req ExchangeRequest) (Exchange, error) {
	ex := Exchange{ID: uuid.NewString(), Summary: defaultSummary}
	log := o.log.With().Str("exchange", ex.ID).
		Str("provider", req.Provider).Str("model", req.Model).Logger()

	client, err := o.clients.CreateClient(req.Provider, req.Model)
	if err != nil {
		log.Error().Err(err).Msg("client unavailable")
		return ex, err
	}

	messages := llmbridge.FilterDiagnostic(req.Messages)
	messages = EnsureSystemPrompt(messages, o.systemPrompt(req))

	reply, err := client.Chat(ctx, messages, req.Callbacks, req.Cancel)
	ex.Reply = reply
	if err != nil {
		log.Error().Err(err).Msg("exchange failed")
		return ex, err
	}

	if req.Cancel.Cancelled() {
		ex.Cancelled = true
		log.Debug().Msg("exchange cancelled; skipping summary")
		return ex, nil
	}

	ex.Summary = o.summarize(ctx, log, client, reply)
	return ex, nil
}

func (o *Orchestrator) systemPrompt(req ExchangeRequest) string {
	prompt := req.SystemOverride
	if prompt == "" && o.prompts != nil {
		prompt = o.prompts.BasePrompt()
	}
	if req.Additional != "" {
		if prompt == "" {
			return req.Additional
		}
		prompt += "\n\n" + req.Additional
	}
	return prompt
}

// EnsureSystemPrompt guarantees the conversation opens with the given system
// prompt. An existing leading system message wins; the prompt is never
// duplicated. An empty prompt leaves the messages unchanged.
func EnsureSystemPrompt(messages []llmbridge.ChatMessage, prompt string) []llmbridge.ChatMessage {
	if prompt == "" {
		return messages
	}
	for _, m := range messages {
		if m.Role == llmbridge.RoleSystem {
			return messages
		}
	}
	out := make([]llmbridge.ChatMessage, 0, len(messages)+1)
	out = append(out, llmbridge.SystemMessage(prompt))
	out = append(out, messages...)
	return out
}

// summarize asks the same client for a short title. Only the final reply
// text is sent, never the full history. Errors are swallowed after the
// retry budget is spent.
func (o *Orchestrator) summarize(ctx context.Context, log zerolog.Logger, client llmbridge.Client, reply string) string {
	followup := []llmbridge.ChatMessage{
		llmbridge.UserMessage(summaryPrompt + "\n\n" + reply),
	}

	title, err := llmbridge.Retry(ctx, o.summaryRetry, func(ctx context.Context) (string, error) {
		return client.Chat(ctx, followup, llmbridge.StreamCallbacks{}, nil)
	})
	if err != nil {
		log.Warn().Err(err).Msg("summary call failed")
		return defaultSummary
	}

	title = strings.TrimSpace(strings.Trim(strings.TrimSpace(title), `"`))
	if title == "" {
		return defaultSummary
	}
	return title
}

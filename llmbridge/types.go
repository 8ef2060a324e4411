package llmbridge

import (
	"context"
	"strings"
	"sync/atomic"
)

// Role identifies who produced a message in a conversation.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Known provider identifiers.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderGemini    = "gemini"
	ProviderDeepSeek  = "deepseek"
	ProviderOllama    = "ollama"
)

// PartKind is the discriminator tag for ContentPart.
type PartKind string

const (
	PartText  PartKind = "text"
	PartImage PartKind = "image"
)

// ImageData holds image content either as a URL reference (which may be a
// data URL) or as a raw base64 payload with its media type.
type ImageData struct {
	URL       string `json:"url,omitempty"`
	Base64    string `json:"base64,omitempty"`
	MediaType string `json:"media_type,omitempty"`
}

// ContentPart is a tagged union representing one part of a structured message.
type ContentPart struct {
	Kind  PartKind   `json:"kind"`
	Text  string     `json:"text,omitempty"`
	Image *ImageData `json:"image,omitempty"`
}

// TextPart creates a text ContentPart.
func TextPart(text string) ContentPart {
	return ContentPart{Kind: PartText, Text: text}
}

// ChatMessage is one turn of a conversation. Content carries plain text;
// when Parts is non-empty it is the message body instead and Content is
// ignored. Ordering of messages is significant and preserved throughout.
type ChatMessage struct {
	Role    Role          `json:"role"`
	Content string        `json:"content,omitempty"`
	Parts   []ContentPart `json:"parts,omitempty"`
	Name    string        `json:"name,omitempty"`
	Kind    string        `json:"kind,omitempty"` // "image" marks a pre-formatted image turn
}

// Text returns the textual content of the message: Content when the message
// is plain, otherwise the concatenation of its text parts.
func (m ChatMessage) Text() string {
	if len(m.Parts) == 0 {
		return m.Content
	}
	var sb strings.Builder
	for _, part := range m.Parts {
		if part.Kind == PartText {
			sb.WriteString(part.Text)
		}
	}
	return sb.String()
}

// SystemMessage creates a system ChatMessage.
func SystemMessage(text string) ChatMessage {
	return ChatMessage{Role: RoleSystem, Content: text}
}

// UserMessage creates a user ChatMessage.
func UserMessage(text string) ChatMessage {
	return ChatMessage{Role: RoleUser, Content: text}
}

// AssistantMessage creates an assistant ChatMessage.
func AssistantMessage(text string) ChatMessage {
	return ChatMessage{Role: RoleAssistant, Content: text}
}

// ProviderConfig is everything a backend client needs at construction time.
// It is built once per client and never mutated afterwards; changing any
// field requires discarding the client and building a new one.
type ProviderConfig struct {
	Provider    string
	APIKey      string
	Model       string
	Endpoint    string // override; empty means the provider default
	Temperature float64
	MaxTokens   int
}

// StreamCallbacks receive incremental output from a streaming exchange.
// OnToken fires zero or more times in backend-emission order; OnComplete
// fires at most once, strictly after the last OnToken, and never when the
// stream was cut short by cancellation. Either callback may be nil.
type StreamCallbacks struct {
	OnToken    func(fragment string)
	OnComplete func(fullText string)
}

func (cb StreamCallbacks) token(fragment string) {
	if cb.OnToken != nil {
		cb.OnToken(fragment)
	}
}

func (cb StreamCallbacks) complete(fullText string) {
	if cb.OnComplete != nil {
		cb.OnComplete(fullText)
	}
}

// CancelSignal is a one-shot flag scoped to a single in-flight stream.
// A fresh signal is created per Chat call so that two exchanges sharing a
// cached client cannot cancel each other. Cancel is idempotent and safe to
// call from any goroutine; the flag is observed after every incoming chunk,
// never preemptively mid-chunk. A nil *CancelSignal never cancels.
type CancelSignal struct {
	fired atomic.Bool
}

// NewCancelSignal creates an un-fired signal.
func NewCancelSignal() *CancelSignal {
	return &CancelSignal{}
}

// Cancel requests client-side abandonment of the stream.
func (s *CancelSignal) Cancel() {
	if s != nil {
		s.fired.Store(true)
	}
}

// Cancelled reports whether cancellation has been requested.
func (s *CancelSignal) Cancelled() bool {
	return s != nil && s.fired.Load()
}

// Client is the streaming chat contract every backend adapter implements.
// Chat submits a message history, delivers tokens through cb, and returns
// the full accumulated text. A cancelled stream returns the partial text
// with a nil error and no OnComplete. Everything else about the backends
// (request shape, chunk format, transport) is hidden behind this interface.
type Client interface {
	Chat(ctx context.Context, messages []ChatMessage, cb StreamCallbacks, cancel *CancelSignal) (string, error)
	Provider() string
	Model() string
}

package llmbridge

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

func anthropicSSE(w http.ResponseWriter, events ...string) {
	w.Header().Set("Content-Type", "text/event-stream")
	flusher := w.(http.Flusher)
	for _, event := range events {
		fmt.Fprintf(w, "data: %s\n\n", event)
		flusher.Flush()
	}
}

func textDelta(text string) string {
	return fmt.Sprintf(`{"type":"content_block_delta","delta":{"type":"text_delta","text":%q}}`, text)
}

func newTestAnthropicClient(t *testing.T, handler http.HandlerFunc) (*anthropicClient, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client, err := newAnthropicClient(ProviderConfig{
		Provider:    ProviderAnthropic,
		APIKey:      "sk-test",
		Model:       "claude-sonnet-4-5",
		Endpoint:    server.URL,
		Temperature: 0.7,
		MaxTokens:   4096,
	})
	if err != nil {
		t.Fatalf("newAnthropicClient: %v", err)
	}
	return client, server
}

func TestAnthropicStreamsTokensInOrder(t *testing.T) {
	client, _ := newTestAnthropicClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-api-key") != "sk-test" {
			t.Errorf("missing api key header")
		}
		if r.Header.Get("anthropic-version") == "" {
			t.Errorf("missing anthropic-version header")
		}
		anthropicSSE(w,
			`{"type":"message_start"}`,
			textDelta("Hello"),
			textDelta(", "),
			textDelta("world"),
			`{"type":"message_stop"}`,
		)
	})

	var tokens []string
	var completed string
	text, err := client.Chat(context.Background(),
		[]ChatMessage{UserMessage("hi")},
		StreamCallbacks{
			OnToken:    func(fragment string) { tokens = append(tokens, fragment) },
			OnComplete: func(full string) { completed = full },
		}, nil)

	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if text != "Hello, world" {
		t.Errorf("text = %q", text)
	}
	if len(tokens) != 3 || tokens[0] != "Hello" {
		t.Errorf("tokens = %v", tokens)
	}
	if completed != "Hello, world" {
		t.Errorf("OnComplete got %q", completed)
	}
}

func TestAnthropicHoistsSystemMessage(t *testing.T) {
	var got anthropicRequest
	client, _ := newTestAnthropicClient(t, func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		anthropicSSE(w, textDelta("ok"), `{"type":"message_stop"}`)
	})

	_, err := client.Chat(context.Background(), []ChatMessage{
		SystemMessage("You are terse."),
		UserMessage("hi"),
		AssistantMessage("hello"),
		UserMessage("more"),
	}, StreamCallbacks{}, nil)
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}

	if got.System != "You are terse." {
		t.Errorf("system field = %q", got.System)
	}
	if len(got.Messages) != 3 {
		t.Fatalf("messages = %d, want 3 (system hoisted out)", len(got.Messages))
	}
	for _, msg := range got.Messages {
		if msg.Role == "system" {
			t.Error("system role leaked into the message array")
		}
	}
}

func TestAnthropicSendsImageBlocks(t *testing.T) {
	var raw map[string]any
	client, _ := newTestAnthropicClient(t, func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			t.Errorf("decode request: %v", err)
		}
		anthropicSSE(w, textDelta("a cat"), `{"type":"message_stop"}`)
	})

	msg := ChatMessage{
		Role:  RoleUser,
		Parts: FormatImage(ProviderAnthropic, "data:image/png;base64,AAAA"),
		Kind:  "image",
	}
	if _, err := client.Chat(context.Background(), []ChatMessage{msg}, StreamCallbacks{}, nil); err != nil {
		t.Fatalf("Chat: %v", err)
	}

	messages := raw["messages"].([]any)
	blocks := messages[0].(map[string]any)["content"].([]any)
	if len(blocks) != 2 {
		t.Fatalf("blocks = %d, want image + text", len(blocks))
	}
	img := blocks[0].(map[string]any)
	if img["type"] != "image" {
		t.Errorf("first block type = %v", img["type"])
	}
	source := img["source"].(map[string]any)
	if source["media_type"] != "image/png" || source["data"] != "AAAA" {
		t.Errorf("source = %v", source)
	}
	if blocks[1].(map[string]any)["type"] != "text" {
		t.Errorf("second block should be text, got %v", blocks[1])
	}
}

func TestAnthropicCancelMidStream(t *testing.T) {
	client, _ := newTestAnthropicClient(t, func(w http.ResponseWriter, r *http.Request) {
		anthropicSSE(w,
			textDelta("first"),
			textDelta("second"),
			textDelta("third"),
			`{"type":"message_stop"}`,
		)
	})

	cancel := NewCancelSignal()
	var completed bool
	text, err := client.Chat(context.Background(),
		[]ChatMessage{UserMessage("hi")},
		StreamCallbacks{
			OnToken:    func(string) { cancel.Cancel() },
			OnComplete: func(string) { completed = true },
		}, cancel)

	if err != nil {
		t.Fatalf("cancelled stream must not error: %v", err)
	}
	if text != "first" {
		t.Errorf("partial text = %q, want %q", text, "first")
	}
	if completed {
		t.Error("OnComplete must not fire after cancellation")
	}
}

func TestAnthropicConcurrentExchangesCancelIndependently(t *testing.T) {
	client, _ := newTestAnthropicClient(t, func(w http.ResponseWriter, r *http.Request) {
		anthropicSSE(w,
			textDelta("b1"),
			textDelta("b2"),
			textDelta("b3"),
			`{"type":"message_stop"}`,
		)
	})

	var wg sync.WaitGroup
	wg.Add(2)

	// Exchange A abandons its stream after the first token.
	cancelA := NewCancelSignal()
	var textA string
	var completedA bool
	go func() {
		defer wg.Done()
		text, err := client.Chat(context.Background(),
			[]ChatMessage{UserMessage("a")},
			StreamCallbacks{
				OnToken:    func(string) { cancelA.Cancel() },
				OnComplete: func(string) { completedA = true },
			}, cancelA)
		if err != nil {
			t.Errorf("exchange A: %v", err)
		}
		textA = text
	}()

	// Exchange B shares the client but carries its own signal.
	var textB string
	var completedB string
	go func() {
		defer wg.Done()
		text, err := client.Chat(context.Background(),
			[]ChatMessage{UserMessage("b")},
			StreamCallbacks{
				OnComplete: func(full string) { completedB = full },
			}, NewCancelSignal())
		if err != nil {
			t.Errorf("exchange B: %v", err)
		}
		textB = text
	}()

	wg.Wait()

	if textA != "b1" || completedA {
		t.Errorf("exchange A: text = %q, completed = %v", textA, completedA)
	}
	if textB != "b1b2b3" {
		t.Errorf("exchange B: text = %q, cancellation leaked across exchanges", textB)
	}
	if completedB != "b1b2b3" {
		t.Errorf("exchange B: OnComplete got %q", completedB)
	}
}

func TestAnthropicReadsFinalLineWithoutNewline(t *testing.T) {
	client, _ := newTestAnthropicClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprintf(w, "data: %s\n\n", textDelta("begin"))
		// Connection closes right after a data line with no trailing newline.
		fmt.Fprintf(w, "data: %s", textDelta(" end"))
	})

	var completed string
	text, err := client.Chat(context.Background(),
		[]ChatMessage{UserMessage("hi")},
		StreamCallbacks{OnComplete: func(full string) { completed = full }},
		nil)

	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if text != "begin end" {
		t.Errorf("text = %q, final unterminated line was dropped", text)
	}
	if completed != "begin end" {
		t.Errorf("OnComplete got %q", completed)
	}
}

func TestAnthropicNon200BecomesTransportError(t *testing.T) {
	client, _ := newTestAnthropicClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"overloaded"}}`, http.StatusServiceUnavailable)
	})

	_, err := client.Chat(context.Background(), []ChatMessage{UserMessage("hi")}, StreamCallbacks{}, nil)
	te, ok := err.(*TransportError)
	if !ok {
		t.Fatalf("err = %T (%v)", err, err)
	}
	if te.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d", te.StatusCode)
	}
	if !IsRetryable(err) {
		t.Error("503 should classify as retryable")
	}
}

package chat

// PromptSource supplies the base system prompt for new exchanges.
type PromptSource interface {
	BasePrompt() string
}

// StaticPrompts is a PromptSource with a fixed prompt string.
type StaticPrompts struct {
	Prompt string
}

func (s StaticPrompts) BasePrompt() string {
	return s.Prompt
}

// summaryPrompt asks the model for a short conversation title. It is sent as
// a follow-up user turn after the exchange completes.
const summaryPrompt = "Summarize this conversation in at most five words. " +
	"Reply with the title only, no quotes and no punctuation at the end."

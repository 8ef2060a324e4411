package llmbridge

// ModelInfo describes one known model: the provider that serves it, the
// endpoint to reach it at, and its capability flags. The registry uses it to
// resolve aliases and route client construction; SupportsVision is advisory
// metadata for callers choosing a model for image content.
type ModelInfo struct {
	ID             string   `json:"id"`
	Provider       string   `json:"provider"`
	DisplayName    string   `json:"display_name"`
	Endpoint       string   `json:"endpoint,omitempty"`
	ContextWindow  int      `json:"context_window"`
	SupportsVision bool     `json:"supports_vision"`
	Aliases        []string `json:"aliases,omitempty"`
}

// ModelCatalog resolves model metadata. The core does not own this data;
// embedding applications may supply their own implementation.
type ModelCatalog interface {
	Lookup(modelID string) *ModelInfo
}

// Provider default endpoints. A ModelInfo or ProviderConfig endpoint
// override takes precedence.
const (
	anthropicEndpoint = "https://api.anthropic.com/v1"
	geminiEndpoint    = "https://generativelanguage.googleapis.com/v1beta"
	deepseekEndpoint  = "https://api.deepseek.com/v1"
	ollamaEndpoint    = "http://localhost:11434"
)

var builtinModels = []ModelInfo{
	// Anthropic
	{
		ID: "claude-opus-4-6", Provider: ProviderAnthropic, DisplayName: "Claude Opus 4.6",
		ContextWindow: 200000, SupportsVision: true,
		Aliases: []string{"opus", "claude-opus"},
	},
	{
		ID: "claude-sonnet-4-5", Provider: ProviderAnthropic, DisplayName: "Claude Sonnet 4.5",
		ContextWindow: 200000, SupportsVision: true,
		Aliases: []string{"sonnet", "claude-sonnet"},
	},

	// OpenAI
	{
		ID: "gpt-5.2", Provider: ProviderOpenAI, DisplayName: "GPT-5.2",
		ContextWindow: 1047576, SupportsVision: true,
		Aliases: []string{"gpt5"},
	},
	{
		ID: "gpt-5.2-mini", Provider: ProviderOpenAI, DisplayName: "GPT-5.2 Mini",
		ContextWindow: 1047576, SupportsVision: true,
		Aliases: []string{"gpt5-mini"},
	},

	// Gemini
	{
		ID: "gemini-3-pro-preview", Provider: ProviderGemini, DisplayName: "Gemini 3 Pro (Preview)",
		Endpoint: geminiEndpoint, ContextWindow: 1048576, SupportsVision: true,
		Aliases: []string{"gemini-pro"},
	},
	{
		ID: "gemini-3-flash-preview", Provider: ProviderGemini, DisplayName: "Gemini 3 Flash (Preview)",
		Endpoint: geminiEndpoint, ContextWindow: 1048576, SupportsVision: true,
		Aliases: []string{"gemini-flash"},
	},

	// DeepSeek (text only)
	{
		ID: "deepseek-chat", Provider: ProviderDeepSeek, DisplayName: "DeepSeek Chat",
		Endpoint: deepseekEndpoint, ContextWindow: 65536,
	},
	{
		ID: "deepseek-reasoner", Provider: ProviderDeepSeek, DisplayName: "DeepSeek Reasoner",
		Endpoint: deepseekEndpoint, ContextWindow: 65536,
	},

	// Ollama (local, text only)
	{
		ID: "llama3.3", Provider: ProviderOllama, DisplayName: "Llama 3.3",
		Endpoint: ollamaEndpoint, ContextWindow: 131072,
	},
	{
		ID: "qwen2.5-coder", Provider: ProviderOllama, DisplayName: "Qwen 2.5 Coder",
		Endpoint: ollamaEndpoint, ContextWindow: 131072,
	},
}

// BuiltinCatalog is the in-memory catalog of models this module knows about.
type BuiltinCatalog struct {
	models []ModelInfo
}

// NewBuiltinCatalog returns a catalog seeded with the built-in model list.
func NewBuiltinCatalog() *BuiltinCatalog {
	models := make([]ModelInfo, len(builtinModels))
	copy(models, builtinModels)
	return &BuiltinCatalog{models: models}
}

// Lookup returns the entry for a model id or one of its aliases, or nil when
// the model is unknown.
func (c *BuiltinCatalog) Lookup(modelID string) *ModelInfo {
	for i := range c.models {
		if c.models[i].ID == modelID {
			return &c.models[i]
		}
		for _, alias := range c.models[i].Aliases {
			if alias == modelID {
				return &c.models[i]
			}
		}
	}
	return nil
}

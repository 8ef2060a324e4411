package llmbridge

// DeepSeek serves an OpenAI-compatible chat completions API, so its adapter
// is the OpenAI client pointed at the DeepSeek endpoint. It has no vision
// support; FormatImage degrades image content to a placeholder for it.
func newDeepSeekClient(cfg ProviderConfig) (*openAIClient, error) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = deepseekEndpoint
	}
	return newOpenAIClient(cfg)
}

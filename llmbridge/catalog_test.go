package llmbridge

import "testing"

func TestBuiltinCatalogLookup(t *testing.T) {
	catalog := NewBuiltinCatalog()

	info := catalog.Lookup("deepseek-chat")
	if info == nil {
		t.Fatal("deepseek-chat should be known")
	}
	if info.Provider != ProviderDeepSeek {
		t.Errorf("provider = %q", info.Provider)
	}
	if info.SupportsVision {
		t.Error("deepseek-chat must not advertise vision")
	}

	if catalog.Lookup("no-such-model") != nil {
		t.Error("unknown model must resolve to nil")
	}
}

func TestBuiltinCatalogResolvesAliases(t *testing.T) {
	catalog := NewBuiltinCatalog()

	info := catalog.Lookup("sonnet")
	if info == nil {
		t.Fatal("alias lookup failed")
	}
	if info.ID != "claude-sonnet-4-5" {
		t.Errorf("alias resolved to %q", info.ID)
	}
}

func TestRequiresCredential(t *testing.T) {
	if RequiresCredential(ProviderOllama) {
		t.Error("ollama must not require a credential")
	}
	for _, provider := range []string{ProviderAnthropic, ProviderOpenAI, ProviderGemini, ProviderDeepSeek, "X"} {
		if !RequiresCredential(provider) {
			t.Errorf("%s should require a credential", provider)
		}
	}
}

package llmbridge

import (
	"os"
	"strings"

	// Load .env into the environment before credentials are read.
	_ "github.com/joho/godotenv/autoload"
)

// CredentialProvider resolves API keys. The second return is false when no
// key is available; the core treats that as a recoverable, user-facing
// condition rather than a fatal error. Secret storage is the embedding
// application's concern.
type CredentialProvider interface {
	APIKey(providerID string) (string, bool)
}

// providersWithoutCredential lists backends that authenticate some other way
// (or not at all); credential resolution is skipped for them entirely.
var providersWithoutCredential = map[string]bool{
	ProviderOllama: true,
}

// RequiresCredential reports whether a provider needs an API key before a
// client can be constructed.
func RequiresCredential(providerID string) bool {
	return !providersWithoutCredential[providerID]
}

// EnvCredentials resolves keys from <PROVIDER>_API_KEY environment variables
// (ANTHROPIC_API_KEY, OPENAI_API_KEY, ...), honoring a .env file when one
// exists.
type EnvCredentials struct{}

func (EnvCredentials) APIKey(providerID string) (string, bool) {
	key := os.Getenv(strings.ToUpper(providerID) + "_API_KEY")
	return key, key != ""
}

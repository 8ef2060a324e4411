package llmbridge

import (
	"errors"
	"strings"

	"github.com/alphadose/haxmap"
	"github.com/rs/zerolog"
)

const (
	defaultTemperature = 0.7
	defaultMaxTokens   = 4096
)

// Registry caches one live client per (provider, model) pair. It owns the
// instances it hands out: callers hold only transient references for the
// duration of an exchange. Construction binds the registry to a credential
// provider and a model catalog explicitly; there is no package-level state.
type Registry struct {
	creds   CredentialProvider
	catalog ModelCatalog
	clients *haxmap.Map[string, Client]
	log     zerolog.Logger
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithLogger sets the diagnostic sink. The default discards everything.
func WithLogger(log zerolog.Logger) RegistryOption {
	return func(r *Registry) {
		r.log = log
	}
}

// NewRegistry creates an empty registry bound to the given credential
// provider and model catalog.
func NewRegistry(creds CredentialProvider, catalog ModelCatalog, opts ...RegistryOption) *Registry {
	r := &Registry{
		creds:   creds,
		catalog: catalog,
		clients: haxmap.New[string, Client](),
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func cacheKey(providerID, modelID string) string {
	return providerID + "/" + modelID
}

// CreateClient returns the cached client for (provider, model), constructing
// one on first use. Credential resolution happens before any construction:
// a provider that requires a key and has none yields a MissingCredentialError
// and the cache stays empty for that key. Concurrent first use of the same
// key may construct twice; the insert is a compare-and-swap, so every caller
// still observes the same single instance.
func (r *Registry) CreateClient(providerID, modelID string) (Client, error) {
	key := cacheKey(providerID, modelID)
	if client, ok := r.clients.Get(key); ok {
		return client, nil
	}

	cfg := ProviderConfig{
		Provider:    providerID,
		Model:       modelID,
		Temperature: defaultTemperature,
		MaxTokens:   defaultMaxTokens,
	}

	if RequiresCredential(providerID) {
		apiKey, ok := r.creds.APIKey(providerID)
		if !ok || apiKey == "" {
			return nil, &MissingCredentialError{Provider: providerID}
		}
		cfg.APIKey = apiKey
	}

	if info := r.catalog.Lookup(modelID); info != nil {
		cfg.Model = info.ID // resolve aliases to the canonical id
		cfg.Endpoint = info.Endpoint
	}

	client, err := newClient(cfg)
	if err != nil {
		var unsupported *UnsupportedProviderError
		if errors.As(err, &unsupported) {
			return nil, err
		}
		return nil, &ClientInitError{Provider: providerID, Cause: err}
	}

	actual, loaded := r.clients.GetOrSet(key, client)
	if loaded {
		r.log.Debug().Str("provider", providerID).Str("model", modelID).
			Msg("lost construction race; using cached client")
	}
	return actual, nil
}

// newClient dispatches construction on the provider id. Adapters are reached
// only through the Client interface from here on.
func newClient(cfg ProviderConfig) (Client, error) {
	switch cfg.Provider {
	case ProviderAnthropic:
		return newAnthropicClient(cfg)
	case ProviderOpenAI:
		return newOpenAIClient(cfg)
	case ProviderGemini:
		return newGeminiClient(cfg)
	case ProviderDeepSeek:
		return newDeepSeekClient(cfg)
	case ProviderOllama:
		return newOllamaClient(cfg)
	default:
		return nil, &UnsupportedProviderError{Provider: cfg.Provider}
	}
}

// GetInstance is a pure cache lookup; it never constructs.
func (r *Registry) GetInstance(providerID, modelID string) (Client, bool) {
	return r.clients.Get(cacheKey(providerID, modelID))
}

// Invalidate evicts every cached client for a provider, typically after its
// credentials change. Streams already holding an evicted instance are
// unaffected; the next CreateClient builds a fresh client with the new
// credential.
func (r *Registry) Invalidate(providerID string) {
	prefix := providerID + "/"
	var evict []string
	r.clients.ForEach(func(key string, _ Client) bool {
		if strings.HasPrefix(key, prefix) {
			evict = append(evict, key)
		}
		return true
	})
	for _, key := range evict {
		r.clients.Del(key)
	}
	if len(evict) > 0 {
		r.log.Debug().Str("provider", providerID).Int("evicted", len(evict)).
			Msg("invalidated cached clients")
	}
}

// Reset evicts everything. Intended for teardown.
func (r *Registry) Reset() {
	var evict []string
	r.clients.ForEach(func(key string, _ Client) bool {
		evict = append(evict, key)
		return true
	})
	for _, key := range evict {
		r.clients.Del(key)
	}
}

// Package llmbridge provides a provider-agnostic streaming chat layer.
//
// A Registry hands out cached Client instances keyed by (provider, model).
// Each client adapts one backend behind the same Chat call: tokens arrive
// through StreamCallbacks as they are produced, the full reply is returned
// when the stream ends, and an in-flight exchange can be abandoned between
// chunks with a CancelSignal.
//
// Message preparation (diagnostic filtering, per-provider image encoding)
// lives here too, so callers hold plain ChatMessage values and never touch
// backend wire formats.
package llmbridge

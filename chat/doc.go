// Package chat coordinates complete exchanges on top of llmbridge: it
// injects the system prompt, filters diagnostic turns, streams the reply,
// and asks the model for a short conversation title when the exchange
// finishes uncancelled.
package chat

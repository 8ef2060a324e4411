package llmbridge

import (
	"fmt"
	"strings"
)

// DiagnosticPrefix marks synthetic bookkeeping entries in a conversation.
// Messages carrying it are internal state, not real turns, and must never
// reach a backend.
const DiagnosticPrefix = "[diagnostic]"

// FilterDiagnostic removes every message whose text content, or any of its
// text parts, begins with DiagnosticPrefix. All other messages pass through
// unchanged and in their original order; non-text parts are never inspected.
func FilterDiagnostic(messages []ChatMessage) []ChatMessage {
	out := make([]ChatMessage, 0, len(messages))
	for _, msg := range messages {
		if isDiagnostic(msg) {
			continue
		}
		out = append(out, msg)
	}
	return out
}

func isDiagnostic(msg ChatMessage) bool {
	if strings.HasPrefix(msg.Content, DiagnosticPrefix) {
		return true
	}
	for _, part := range msg.Parts {
		if part.Kind == PartText && strings.HasPrefix(part.Text, DiagnosticPrefix) {
			return true
		}
	}
	return false
}

// FormatImage translates an embedded base64 data URL into the structured
// content parts the given backend expects. Backends without vision support
// receive a plain-text placeholder instead of an error; images are dropped
// rather than re-encoded for them.
func FormatImage(providerID, dataURL string) []ContentPart {
	switch providerID {
	case ProviderAnthropic:
		return []ContentPart{
			{Kind: PartImage, Image: &ImageData{
				Base64:    base64Payload(dataURL),
				MediaType: detectMediaType(dataURL),
			}},
			TextPart("The user attached the image above."),
		}
	case ProviderOpenAI:
		// OpenAI accepts the data URL directly inside an image_url part.
		return []ContentPart{
			{Kind: PartImage, Image: &ImageData{URL: dataURL}},
		}
	case ProviderGemini:
		return []ContentPart{
			TextPart("The user attached this image:"),
			{Kind: PartImage, Image: &ImageData{
				Base64:    base64Payload(dataURL),
				MediaType: detectMediaType(dataURL),
			}},
		}
	default:
		return []ContentPart{
			TextPart(fmt.Sprintf("[Image attached - %s does not support image input]", providerID)),
		}
	}
}

// detectMediaType inspects the data URL prefix: image/png when present,
// image/jpeg otherwise.
func detectMediaType(dataURL string) string {
	prefix := dataURL
	if idx := strings.Index(dataURL, ","); idx >= 0 {
		prefix = dataURL[:idx]
	}
	if strings.Contains(prefix, "image/png") {
		return "image/png"
	}
	return "image/jpeg"
}

// base64Payload strips the data URL header, returning the raw base64 body.
func base64Payload(dataURL string) string {
	if idx := strings.Index(dataURL, ","); idx >= 0 {
		return dataURL[idx+1:]
	}
	return dataURL
}

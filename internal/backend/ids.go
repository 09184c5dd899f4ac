// ABOUTME: Conversation identifier namespacing helpers
// ABOUTME: Display and load use the prefixed id, upload/send/delete use the bare id

package backend

import "strings"

// ConversationPrefix namespaces conversation ids in the backend's sort key.
const ConversationPrefix = "CONV#"

// StripPrefix returns id without the conversation namespace prefix.
func StripPrefix(id string) string {
	return strings.TrimPrefix(id, ConversationPrefix)
}

// WithPrefix returns id with the conversation namespace prefix, adding it only
// when missing.
func WithPrefix(id string) string {
	if strings.HasPrefix(id, ConversationPrefix) {
		return id
	}
	return ConversationPrefix + id
}

// ShortID returns the first eight characters of the bare id, used for
// default conversation titles.
func ShortID(id string) string {
	bare := StripPrefix(id)
	if len(bare) > 8 {
		return bare[:8]
	}
	return bare
}

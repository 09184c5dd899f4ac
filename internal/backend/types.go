// ABOUTME: Wire types for the chat backend REST surface
// ABOUTME: Mirrors the JSON the backend stores and returns for conversations and messages

package backend

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// SenderBot is the senderType the backend stores for assistant messages.
const SenderBot = "bot"

// MessageTypeFile marks a stored message that references an uploaded file.
const MessageTypeFile = "file"

// ConversationSummary is one entry of GET /get_user_conversations.
type ConversationSummary struct {
	SK    string `json:"SK"`
	Title string `json:"title,omitempty"`
}

// MessageRecord is one stored message of GET /get_conversation.
type MessageRecord struct {
	MessageID  string       `json:"messageId,omitempty"`
	SenderType string       `json:"senderType"`
	Content    string       `json:"content,omitempty"`
	Timestamp  EpochSeconds `json:"timestamp"`
	Type       string       `json:"type,omitempty"`
	FileKey    string       `json:"fileKey,omitempty"`
}

// conversationResponse is the body of GET /get_conversation.
type conversationResponse struct {
	Messages []MessageRecord `json:"messages"`
}

// createResponse is the body of POST /create_conversation.
type createResponse struct {
	ConvID string `json:"conv_id"`
}

// uploadResponse is the body of POST /upload. Only file_key is read.
type uploadResponse struct {
	FileKey string `json:"file_key"`
}

// errorResponse covers the error bodies the backend produces.
type errorResponse struct {
	Detail  string `json:"detail"`
	Message string `json:"message"`
}

// EpochSeconds decodes a Unix timestamp in seconds given either as a JSON
// number or a numeric string. Valid is false when the field was absent or null.
type EpochSeconds struct {
	Time  time.Time
	Valid bool
}

// UnmarshalJSON implements json.Unmarshaler.
func (e *EpochSeconds) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		*e = EpochSeconds{}
		return nil
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("invalid epoch timestamp %q", s)
	}

	sec, frac := math.Modf(f)
	*e = EpochSeconds{
		Time:  time.Unix(int64(sec), int64(frac*float64(time.Second))),
		Valid: true,
	}
	return nil
}

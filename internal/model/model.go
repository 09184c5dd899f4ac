// ABOUTME: Local display model for conversations, messages and attachments
// ABOUTME: Defines the types shared by the registry, sync engine and submission pipeline

package model

import (
	"io"
	"time"
)

// Role identifies who authored a message
type Role string

// Role constants
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Conversation is an entry in the local conversation registry.
// ID is the backend-assigned identifier including its namespace prefix.
type Conversation struct {
	ID     string
	Title  string
	Active bool
}

// Message is an immutable entry of a conversation's displayed history.
// The whole list is replaced on every reconciliation.
type Message struct {
	ID          string
	Role        Role
	Content     string
	Timestamp   time.Time
	Attachments []Attachment
}

// Attachment is a file reference embedded in a stored message.
type Attachment struct {
	ID   string
	Name string
	Key  string // backend storage key
}

// FileHandle is an opaque reference to raw file data chosen by the user.
type FileHandle interface {
	Open() (io.ReadCloser, error)
}

// PendingAttachment is a locally picked file that has not been confirmed
// persisted by the backend yet.
type PendingAttachment struct {
	ID       string
	Name     string
	Size     int64
	MimeType string
	Handle   FileHandle
}

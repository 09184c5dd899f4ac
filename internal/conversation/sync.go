// ABOUTME: SyncEngine maps the backend's stored conversations into the local display model
// ABOUTME: Treats "not found" as an empty history and synthesizes display-only message ids

package conversation

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/2389/coven-chat/internal/backend"
	"github.com/2389/coven-chat/internal/model"
)

// filePrefix is how the backend labels the content of a file message.
const filePrefix = "File: "

// Fetcher defines what the engine needs from the backend
type Fetcher interface {
	ListConversations(ctx context.Context, email string) ([]backend.ConversationSummary, error)
	GetConversation(ctx context.Context, email, conversationID string) ([]backend.MessageRecord, error)
}

// SyncEngine fetches conversation lists and message histories.
type SyncEngine struct {
	fetcher Fetcher
	logger  *slog.Logger
	now     func() time.Time
}

// NewSyncEngine creates a SyncEngine. Pass nil logger for default.
func NewSyncEngine(fetcher Fetcher, logger *slog.Logger) *SyncEngine {
	if logger == nil {
		logger = slog.Default()
	}
	return &SyncEngine{
		fetcher: fetcher,
		logger:  logger.With("component", "sync"),
		now:     time.Now,
	}
}

// DefaultTitle is the label used when the backend stores no title.
func DefaultTitle(conversationID string) string {
	return "Conversation " + backend.ShortID(conversationID)
}

// LoadConversationList returns the user's conversations, all inactive.
// A user with no conversations (including a 404) gets an empty list.
func (e *SyncEngine) LoadConversationList(ctx context.Context, email string) ([]model.Conversation, error) {
	summaries, err := e.fetcher.ListConversations(ctx, email)
	if err != nil {
		if backend.IsNotFound(err) {
			e.logger.Debug("no conversations stored", "email", email)
			return []model.Conversation{}, nil
		}
		return nil, fmt.Errorf("loading conversation list: %w", err)
	}

	convs := make([]model.Conversation, 0, len(summaries))
	for _, s := range summaries {
		if s.SK == "" {
			e.logger.Warn("skipping conversation without id")
			continue
		}
		title := strings.TrimSpace(s.Title)
		if title == "" {
			title = DefaultTitle(s.SK)
		}
		convs = append(convs, model.Conversation{
			ID:    s.SK,
			Title: title,
		})
	}
	return convs, nil
}

// LoadConversation returns the messages of a conversation in backend order.
// A conversation the backend does not know yet has an empty history.
func (e *SyncEngine) LoadConversation(ctx context.Context, email, conversationID string) ([]model.Message, error) {
	records, err := e.fetcher.GetConversation(ctx, email, conversationID)
	if err != nil {
		if backend.IsNotFound(err) {
			e.logger.Debug("conversation not found, empty history", "conversation_id", conversationID)
			return []model.Message{}, nil
		}
		return nil, fmt.Errorf("loading conversation %s: %w", conversationID, err)
	}

	messages := make([]model.Message, 0, len(records))
	ids := make(map[string]bool, len(records))
	for _, r := range records {
		messages = append(messages, e.toMessage(r, ids))
	}
	return messages, nil
}

// toMessage converts one stored record. ids collects the ids used in this load
// so synthesized ones never collide.
func (e *SyncEngine) toMessage(r backend.MessageRecord, ids map[string]bool) model.Message {
	ts := e.now()
	if r.Timestamp.Valid {
		ts = r.Timestamp.Time
	}

	role := model.RoleUser
	if r.SenderType == backend.SenderBot {
		role = model.RoleAssistant
	}

	id := r.MessageID
	if id == "" {
		id = syntheticID(ts, ids)
	}
	ids[id] = true

	msg := model.Message{
		ID:        id,
		Role:      role,
		Content:   r.Content,
		Timestamp: ts,
	}

	if r.Type == backend.MessageTypeFile {
		msg.Attachments = []model.Attachment{{
			ID:   id,
			Name: fileName(r),
			Key:  r.FileKey,
		}}
	}
	return msg
}

// syntheticID builds a render key for a message stored without an id. It is
// unique within one load and differs between loads.
func syntheticID(ts time.Time, used map[string]bool) string {
	for {
		id := fmt.Sprintf("local-%d-%s", ts.UnixMilli(), uuid.New().String()[:8])
		if !used[id] {
			return id
		}
	}
}

func fileName(r backend.MessageRecord) string {
	if name, ok := strings.CutPrefix(r.Content, filePrefix); ok && name != "" {
		return name
	}
	if r.Content != "" {
		return r.Content
	}
	if r.FileKey != "" {
		return path.Base(r.FileKey)
	}
	return "attachment"
}

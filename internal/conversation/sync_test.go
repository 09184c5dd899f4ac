// ABOUTME: Tests for SyncEngine list and history mapping
// ABOUTME: Covers title fallback, role/timestamp/id mapping, file messages and not-found handling

package conversation

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/coven-chat/internal/backend"
	"github.com/2389/coven-chat/internal/model"
)

// mockFetcher implements Fetcher for testing
type mockFetcher struct {
	summaries []backend.ConversationSummary
	records   []backend.MessageRecord
	err       error
	lastEmail string
	lastID    string
}

func (m *mockFetcher) ListConversations(ctx context.Context, email string) ([]backend.ConversationSummary, error) {
	m.lastEmail = email
	return m.summaries, m.err
}

func (m *mockFetcher) GetConversation(ctx context.Context, email, conversationID string) ([]backend.MessageRecord, error) {
	m.lastEmail = email
	m.lastID = conversationID
	return m.records, m.err
}

func epoch(sec int64) backend.EpochSeconds {
	return backend.EpochSeconds{Time: time.Unix(sec, 0), Valid: true}
}

func TestSyncEngine_LoadConversationList(t *testing.T) {
	f := &mockFetcher{summaries: []backend.ConversationSummary{
		{SK: "CONV#11111111-2222", Title: "Trip planning"},
		{SK: "CONV#abcdef012345"},
		{SK: ""},
		{SK: "CONV#x", Title: "   "},
	}}
	e := NewSyncEngine(f, nil)

	convs, err := e.LoadConversationList(context.Background(), "u@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u@example.com", f.lastEmail)
	assert.Equal(t, []model.Conversation{
		{ID: "CONV#11111111-2222", Title: "Trip planning"},
		{ID: "CONV#abcdef012345", Title: "Conversation abcdef01"},
		{ID: "CONV#x", Title: "Conversation x"},
	}, convs)
}

func TestSyncEngine_LoadConversationList_Empty(t *testing.T) {
	e := NewSyncEngine(&mockFetcher{}, nil)
	convs, err := e.LoadConversationList(context.Background(), "u@example.com")
	require.NoError(t, err)
	assert.NotNil(t, convs)
	assert.Empty(t, convs)
}

func TestSyncEngine_LoadConversationList_NotFound(t *testing.T) {
	f := &mockFetcher{err: &backend.Error{Op: "get_user_conversations", Kind: backend.KindHTTP, Status: http.StatusNotFound}}
	e := NewSyncEngine(f, nil)

	convs, err := e.LoadConversationList(context.Background(), "u@example.com")
	require.NoError(t, err)
	assert.Empty(t, convs)
}

func TestSyncEngine_LoadConversationList_Failure(t *testing.T) {
	f := &mockFetcher{err: &backend.Error{Op: "get_user_conversations", Kind: backend.KindHTTP, Status: http.StatusInternalServerError}}
	e := NewSyncEngine(f, nil)

	_, err := e.LoadConversationList(context.Background(), "u@example.com")
	require.Error(t, err)
	assert.Equal(t, backend.KindHTTP, backend.KindOf(err))
}

func TestSyncEngine_LoadConversation(t *testing.T) {
	f := &mockFetcher{records: []backend.MessageRecord{
		{MessageID: "MSG#1", SenderType: "user", Content: "hi", Timestamp: epoch(100), Type: "text"},
		{MessageID: "MSG#2", SenderType: "bot", Content: "hello!", Timestamp: epoch(101)},
		{MessageID: "MSG#3", SenderType: "user", Content: "File: report.pdf", Timestamp: epoch(102), Type: "file", FileKey: "u@example.com/CONV#c/report.pdf"},
	}}
	e := NewSyncEngine(f, nil)

	msgs, err := e.LoadConversation(context.Background(), "u@example.com", "CONV#c")
	require.NoError(t, err)
	assert.Equal(t, "CONV#c", f.lastID)
	require.Len(t, msgs, 3)

	assert.Equal(t, model.Message{ID: "MSG#1", Role: model.RoleUser, Content: "hi", Timestamp: time.Unix(100, 0)}, msgs[0])
	assert.Equal(t, model.RoleAssistant, msgs[1].Role)
	assert.Empty(t, msgs[1].Attachments)

	assert.Equal(t, []model.Attachment{{ID: "MSG#3", Name: "report.pdf", Key: "u@example.com/CONV#c/report.pdf"}}, msgs[2].Attachments)
	assert.Equal(t, "File: report.pdf", msgs[2].Content)
}

func TestSyncEngine_LoadConversation_PreservesBackendOrder(t *testing.T) {
	f := &mockFetcher{records: []backend.MessageRecord{
		{MessageID: "b", Timestamp: epoch(200)},
		{MessageID: "a", Timestamp: epoch(100)},
	}}
	e := NewSyncEngine(f, nil)

	msgs, err := e.LoadConversation(context.Background(), "u@example.com", "CONV#c")
	require.NoError(t, err)
	assert.Equal(t, "b", msgs[0].ID)
	assert.Equal(t, "a", msgs[1].ID)
}

func TestSyncEngine_LoadConversation_Fallbacks(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	f := &mockFetcher{records: []backend.MessageRecord{
		{SenderType: "user", Content: "no id, no time"},
		{SenderType: "user", Content: "no id either"},
		{SenderType: "user", Type: "file", FileKey: "u/CONV#c/photo.png"},
	}}
	e := NewSyncEngine(f, nil)
	e.now = func() time.Time { return now }

	msgs, err := e.LoadConversation(context.Background(), "u@example.com", "CONV#c")
	require.NoError(t, err)
	require.Len(t, msgs, 3)

	for _, m := range msgs {
		assert.Equal(t, now, m.Timestamp)
		assert.True(t, strings.HasPrefix(m.ID, "local-"), m.ID)
	}
	assert.NotEqual(t, msgs[0].ID, msgs[1].ID)
	assert.NotEqual(t, msgs[1].ID, msgs[2].ID)
	assert.Equal(t, "photo.png", msgs[2].Attachments[0].Name)

	// Synthesized ids are not stable across loads
	again, err := e.LoadConversation(context.Background(), "u@example.com", "CONV#c")
	require.NoError(t, err)
	assert.NotEqual(t, msgs[0].ID, again[0].ID)
}

func TestSyncEngine_LoadConversation_NotFound(t *testing.T) {
	f := &mockFetcher{err: &backend.Error{Op: "get_conversation", Kind: backend.KindHTTP, Status: http.StatusNotFound}}
	e := NewSyncEngine(f, nil)

	msgs, err := e.LoadConversation(context.Background(), "u@example.com", "CONV#new")
	require.NoError(t, err)
	assert.NotNil(t, msgs)
	assert.Empty(t, msgs)
}

func TestSyncEngine_LoadConversation_Failure(t *testing.T) {
	f := &mockFetcher{err: &backend.Error{Op: "get_conversation", Kind: backend.KindNetwork, Err: errors.New("connection refused")}}
	e := NewSyncEngine(f, nil)

	_, err := e.LoadConversation(context.Background(), "u@example.com", "CONV#c")
	require.Error(t, err)
	assert.Equal(t, backend.KindNetwork, backend.KindOf(err))
}

func TestDefaultTitle(t *testing.T) {
	assert.Equal(t, "Conversation 0123abcd", DefaultTitle("CONV#0123abcd-ffff"))
	assert.Equal(t, "Conversation 0123abcd", DefaultTitle("0123abcd-ffff"))
}

// ABOUTME: Tests for the chat backend HTTP client
// ABOUTME: Verifies request shapes, id prefix handling and error classification

package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testEmail = "user@example.com"

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(Config{BaseURL: srv.URL, Timeout: 5 * time.Second}, nil)
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	assert.NoError(t, json.NewEncoder(w).Encode(v))
}

func TestListConversations(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/get_user_conversations", r.URL.Path)
		assert.Equal(t, testEmail, r.URL.Query().Get("email"))
		writeJSON(t, w, http.StatusOK, []map[string]any{
			{"SK": "CONV#aaa", "title": "First"},
			{"SK": "CONV#bbb"},
		})
	})

	got, err := client.ListConversations(context.Background(), testEmail)
	require.NoError(t, err)
	assert.Equal(t, []ConversationSummary{
		{SK: "CONV#aaa", Title: "First"},
		{SK: "CONV#bbb"},
	}, got)
}

func TestListConversations_Malformed(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]string{"oops": "object"})
	})

	_, err := client.ListConversations(context.Background(), testEmail)
	require.Error(t, err)
	assert.Equal(t, KindMalformed, KindOf(err))
}

func TestCreateConversation(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/create_conversation", r.URL.Path)
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, testEmail, r.PostForm.Get("email"))
		writeJSON(t, w, http.StatusOK, map[string]string{"status": "success", "conv_id": "1234-5678"})
	})

	id, err := client.CreateConversation(context.Background(), testEmail)
	require.NoError(t, err)
	assert.Equal(t, "1234-5678", id)
}

func TestCreateConversation_MissingID(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]string{"status": "success"})
	})

	_, err := client.CreateConversation(context.Background(), testEmail)
	require.Error(t, err)
	assert.Equal(t, KindMalformed, KindOf(err))
}

func TestGetConversation_KeepsPrefix(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/get_conversation/"+testEmail+"/CONV#abc", r.URL.Path)
		assert.Contains(t, r.URL.EscapedPath(), "CONV%23abc")
		writeJSON(t, w, http.StatusOK, map[string]any{
			"messages": []map[string]any{
				{"messageId": "MSG#1", "senderType": "user", "content": "hi", "timestamp": 1700000000, "type": "text"},
				{"senderType": "bot", "content": "hello", "timestamp": "1700000001"},
				{"senderType": "user", "content": "File: a.pdf", "type": "file", "fileKey": "k/a.pdf"},
			},
		})
	})

	msgs, err := client.GetConversation(context.Background(), testEmail, "CONV#abc")
	require.NoError(t, err)
	require.Len(t, msgs, 3)

	assert.Equal(t, "MSG#1", msgs[0].MessageID)
	assert.True(t, msgs[0].Timestamp.Valid)
	assert.Equal(t, int64(1700000000), msgs[0].Timestamp.Time.Unix())

	assert.Equal(t, SenderBot, msgs[1].SenderType)
	assert.True(t, msgs[1].Timestamp.Valid)
	assert.Equal(t, int64(1700000001), msgs[1].Timestamp.Time.Unix())

	assert.False(t, msgs[2].Timestamp.Valid)
	assert.Equal(t, MessageTypeFile, msgs[2].Type)
	assert.Equal(t, "k/a.pdf", msgs[2].FileKey)
}

func TestGetConversation_AddsMissingPrefix(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/get_conversation/"+testEmail+"/CONV#abc", r.URL.Path)
		writeJSON(t, w, http.StatusOK, map[string]any{"messages": []any{}})
	})

	msgs, err := client.GetConversation(context.Background(), testEmail, "abc")
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestGetConversation_NotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusNotFound, map[string]string{"message": "Conversation not found"})
	})

	_, err := client.GetConversation(context.Background(), testEmail, "CONV#gone")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Contains(t, err.Error(), "Conversation not found")

	var be *Error
	require.True(t, errors.As(err, &be))
	assert.Equal(t, http.StatusNotFound, be.Status)
}

func TestGetConversation_ServerErrorIsNotNotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusInternalServerError, map[string]string{"detail": "Internal server error: boom"})
	})

	_, err := client.GetConversation(context.Background(), testEmail, "CONV#x")
	require.Error(t, err)
	assert.False(t, IsNotFound(err))
	assert.Equal(t, KindHTTP, KindOf(err))
	assert.Contains(t, err.Error(), "boom")
}

func TestGetConversation_BadTimestamp(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]any{
			"messages": []map[string]any{{"senderType": "user", "timestamp": "yesterday"}},
		})
	})

	_, err := client.GetConversation(context.Background(), testEmail, "CONV#x")
	require.Error(t, err)
	assert.Equal(t, KindMalformed, KindOf(err))
}

func TestDeleteConversation_StripsPrefix(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/delete_conversation/"+testEmail+"/abc", r.URL.Path)
		writeJSON(t, w, http.StatusOK, map[string]string{"status": "success"})
	})

	require.NoError(t, client.DeleteConversation(context.Background(), testEmail, "CONV#abc"))
}

func TestDeleteConversation_Failure(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	err := client.DeleteConversation(context.Background(), testEmail, "CONV#abc")
	require.Error(t, err)
	assert.Equal(t, KindHTTP, KindOf(err))
}

func TestUpload_StripsPrefix(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/upload", r.URL.Path)
		assert.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, testEmail, r.FormValue("email"))
		assert.Equal(t, "abc", r.FormValue("conv_id"))

		f, hdr, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer f.Close()
		data, err := io.ReadAll(f)
		assert.NoError(t, err)
		assert.Equal(t, "report.txt", hdr.Filename)
		assert.Equal(t, "file body", string(data))

		writeJSON(t, w, http.StatusOK, map[string]string{
			"status":   "success",
			"file_key": testEmail + "/CONV#abc/report.txt",
		})
	})

	key, err := client.Upload(context.Background(), testEmail, "CONV#abc", "report.txt", strings.NewReader("file body"))
	require.NoError(t, err)
	assert.Equal(t, testEmail+"/CONV#abc/report.txt", key)
}

func TestUpload_OpaquePayload(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	key, err := client.Upload(context.Background(), testEmail, "CONV#abc", "a.txt", strings.NewReader("x"))
	require.NoError(t, err)
	assert.Empty(t, key)
}

func TestSendMessage_StripsPrefix(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/send_message", r.URL.Path)
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, testEmail, r.PostForm.Get("email"))
		assert.Equal(t, "abc", r.PostForm.Get("conv_id"))
		assert.Equal(t, "hello", r.PostForm.Get("content"))
		assert.Equal(t, "false", r.PostForm.Get("is_bot"))
		writeJSON(t, w, http.StatusOK, map[string]string{"status": "success"})
	})

	require.NoError(t, client.SendMessage(context.Background(), testEmail, "CONV#abc", "hello"))
}

func TestBearerToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		writeJSON(t, w, http.StatusOK, []any{})
	}))
	defer srv.Close()

	client := New(Config{BaseURL: srv.URL + "/", Token: "tok"}, nil)
	_, err := client.ListConversations(context.Background(), testEmail)
	require.NoError(t, err)
}

func TestNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	client := New(Config{BaseURL: url}, nil)
	err := client.SendMessage(context.Background(), testEmail, "CONV#abc", "hi")
	require.Error(t, err)
	assert.Equal(t, KindNetwork, KindOf(err))
	assert.False(t, IsNotFound(err))
}

func TestPrefixHelpers(t *testing.T) {
	assert.Equal(t, "abc", StripPrefix("CONV#abc"))
	assert.Equal(t, "abc", StripPrefix("abc"))
	assert.Equal(t, "CONV#abc", WithPrefix("abc"))
	assert.Equal(t, "CONV#abc", WithPrefix("CONV#abc"))
	assert.Equal(t, "12345678", ShortID("CONV#123456789abc"))
	assert.Equal(t, "short", ShortID("short"))
}

func TestEpochSeconds_Fractional(t *testing.T) {
	var e EpochSeconds
	require.NoError(t, json.Unmarshal([]byte(`1700000000.5`), &e))
	assert.True(t, e.Valid)
	assert.Equal(t, int64(1700000000), e.Time.Unix())
	assert.Equal(t, 500*time.Millisecond, time.Duration(e.Time.Nanosecond()))

	var n EpochSeconds
	require.NoError(t, json.Unmarshal([]byte(`null`), &n))
	assert.False(t, n.Valid)
}

// ABOUTME: HTTP client for the chat backend REST surface
// ABOUTME: Lists, creates, loads and deletes conversations; uploads files and sends messages

package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// maxErrorBody bounds how much of a failed response is read for its detail.
const maxErrorBody = 4096

// Client talks to the chat backend. It never retries; every retry is user initiated.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      string
	logger     *slog.Logger
}

// Config configures a Client. Only BaseURL is required.
type Config struct {
	BaseURL string
	// Timeout bounds each request. Zero means DefaultTimeout.
	Timeout time.Duration
	// Token, when set, is sent as a bearer credential.
	Token string
	// HTTPClient replaces the default client; Timeout is then ignored.
	HTTPClient *http.Client
}

// DefaultTimeout bounds a request when Config.Timeout is zero.
const DefaultTimeout = 30 * time.Second

// New creates a Client for the backend at cfg.BaseURL. Pass nil logger for default.
func New(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}

	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: hc,
		token:      cfg.Token,
		logger:     logger.With("component", "backend"),
	}
}

// ListConversations returns the stored conversation summaries of a user.
func (c *Client) ListConversations(ctx context.Context, email string) ([]ConversationSummary, error) {
	const op = "get_user_conversations"

	q := url.Values{}
	q.Set("email", email)
	req, err := c.newRequest(ctx, http.MethodGet, "/get_user_conversations?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	var summaries []ConversationSummary
	if err := c.doJSON(req, op, &summaries); err != nil {
		return nil, err
	}
	return summaries, nil
}

// CreateConversation allocates a new conversation and returns its bare id.
func (c *Client) CreateConversation(ctx context.Context, email string) (string, error) {
	const op = "create_conversation"

	form := url.Values{}
	form.Set("email", email)
	req, err := c.newFormRequest(ctx, "/create_conversation", form)
	if err != nil {
		return "", err
	}

	var resp createResponse
	if err := c.doJSON(req, op, &resp); err != nil {
		return "", err
	}
	if resp.ConvID == "" {
		return "", &Error{Op: op, Kind: KindMalformed, Err: fmt.Errorf("missing conv_id")}
	}
	return resp.ConvID, nil
}

// GetConversation returns the stored messages of a conversation in backend order.
// The id is sent with its namespace prefix.
func (c *Client) GetConversation(ctx context.Context, email, conversationID string) ([]MessageRecord, error) {
	const op = "get_conversation"

	path := "/get_conversation/" + url.PathEscape(email) + "/" + url.PathEscape(WithPrefix(conversationID))
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var resp conversationResponse
	if err := c.doJSON(req, op, &resp); err != nil {
		return nil, err
	}
	return resp.Messages, nil
}

// DeleteConversation removes a conversation server side. The backend adds the
// namespace prefix itself, so the bare id is sent.
func (c *Client) DeleteConversation(ctx context.Context, email, conversationID string) error {
	const op = "delete_conversation"

	path := "/delete_conversation/" + url.PathEscape(email) + "/" + url.PathEscape(StripPrefix(conversationID))
	req, err := c.newRequest(ctx, http.MethodDelete, path, nil)
	if err != nil {
		return err
	}

	_, err = c.do(req, op)
	return err
}

// Upload stores a file for a conversation and returns the storage key when the
// backend reports one. The payload is otherwise opaque.
func (c *Client) Upload(ctx context.Context, email, conversationID, filename string, content io.Reader) (string, error) {
	const op = "upload"

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := mw.WriteField("email", email); err != nil {
		return "", fmt.Errorf("building upload form: %w", err)
	}
	if err := mw.WriteField("conv_id", StripPrefix(conversationID)); err != nil {
		return "", fmt.Errorf("building upload form: %w", err)
	}
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("building upload form: %w", err)
	}
	if _, err := io.Copy(fw, content); err != nil {
		return "", fmt.Errorf("reading %s: %w", filename, err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("building upload form: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/upload", &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	data, err := c.do(req, op)
	if err != nil {
		return "", err
	}

	var resp uploadResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		c.logger.Debug("upload response not JSON", "filename", filename)
		return "", nil
	}
	return resp.FileKey, nil
}

// SendMessage stores a user text message in a conversation.
func (c *Client) SendMessage(ctx context.Context, email, conversationID, content string) error {
	const op = "send_message"

	form := url.Values{}
	form.Set("email", email)
	form.Set("conv_id", StripPrefix(conversationID))
	form.Set("content", content)
	form.Set("is_bot", "false")
	req, err := c.newFormRequest(ctx, "/send_message", form)
	if err != nil {
		return err
	}

	_, err = c.do(req, op)
	return err
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

func (c *Client) newFormRequest(ctx context.Context, path string, form url.Values) (*http.Request, error) {
	req, err := c.newRequest(ctx, http.MethodPost, path, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req, nil
}

// do executes req and returns the body of a 2xx response.
func (c *Client) do(req *http.Request, op string) ([]byte, error) {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &Error{Op: op, Kind: KindNetwork, Err: err}
	}
	defer resp.Body.Close()

	c.logger.Debug("backend call",
		"op", op,
		"method", req.Method,
		"status", resp.StatusCode,
		"duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &Error{
			Op:     op,
			Kind:   KindHTTP,
			Status: resp.StatusCode,
			Detail: errorDetail(data),
		}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Op: op, Kind: KindNetwork, Err: fmt.Errorf("reading response: %w", err)}
	}
	return data, nil
}

func (c *Client) doJSON(req *http.Request, op string, out any) error {
	data, err := c.do(req, op)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &Error{Op: op, Kind: KindMalformed, Err: err}
	}
	return nil
}

// errorDetail extracts the human readable part of an error body.
func errorDetail(data []byte) string {
	var er errorResponse
	if err := json.Unmarshal(data, &er); err == nil {
		if er.Detail != "" {
			return er.Detail
		}
		if er.Message != "" {
			return er.Message
		}
	}
	return ""
}

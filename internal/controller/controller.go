// ABOUTME: ActiveConversationController wires user actions to the registry, sync engine and pipeline
// ABOUTME: Owns the displayed state and discards reload results that no longer target the active conversation

package controller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/2389/coven-chat/internal/attachment"
	"github.com/2389/coven-chat/internal/backend"
	"github.com/2389/coven-chat/internal/conversation"
	"github.com/2389/coven-chat/internal/model"
	"github.com/2389/coven-chat/internal/submission"
)

// ErrConfirmationRequired is returned by Delete when no Confirmer is configured.
var ErrConfirmationRequired = errors.New("delete requires a confirmer")

// Backend is the backend surface the controller drives.
type Backend interface {
	conversation.Fetcher
	attachment.Uploader
	submission.Sender
	CreateConversation(ctx context.Context, email string) (string, error)
	DeleteConversation(ctx context.Context, email, conversationID string) error
}

// Confirmer asks the user to confirm a destructive action.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, prompt string) bool

// Confirm implements Confirmer.
func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) bool {
	return f(ctx, prompt)
}

// View is a snapshot of everything the presentation layer renders.
type View struct {
	Conversations []model.Conversation
	ActiveID      string
	Messages      []model.Message
	Input         string
	Pending       []model.PendingAttachment
	Busy          bool
	Stage         submission.State
	// LoadError is the last history load failure other than "not found" for
	// the active conversation. It is cleared by the next successful load.
	LoadError error
}

// Options configures a Controller.
type Options struct {
	Email     string
	Backend   Backend
	Confirmer Confirmer
	Logger    *slog.Logger
}

// Controller is the single writer of the displayed conversation state.
type Controller struct {
	email       string
	backend     Backend
	registry    *conversation.Store
	sync        *conversation.SyncEngine
	pipeline    *submission.Pipeline
	confirmer   Confirmer
	broadcaster *conversation.Broadcaster[View]
	logger      *slog.Logger

	mu         sync.Mutex
	messages   []model.Message
	input      string
	pending    []model.PendingAttachment
	loadErr    error
	loadSeq    uint64 // last issued load
	appliedSeq uint64 // last load whose result was displayed
}

// New creates a Controller and its registry, sync engine and pipeline.
func New(opts Options) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	c := &Controller{
		email:       opts.Email,
		backend:     opts.Backend,
		registry:    conversation.NewStore(),
		sync:        conversation.NewSyncEngine(opts.Backend, logger),
		confirmer:   opts.Confirmer,
		broadcaster: conversation.NewBroadcaster[View](logger),
		logger:      logger.With("component", "controller"),
		messages:    []model.Message{},
	}
	c.pipeline = submission.New(
		attachment.New(opts.Backend, logger),
		opts.Backend,
		c,
		submission.Hooks{
			OnStateChange: c.onStageChange,
			OnCommitted:   c.onCommitted,
		},
		logger,
	)
	return c
}

// Bootstrap loads the conversation list and activates the first entry. An
// empty list, or a list that could not be fetched, falls back to creating a
// new conversation. Only a failed creation is returned.
func (c *Controller) Bootstrap(ctx context.Context) error {
	convs, err := c.sync.LoadConversationList(ctx, c.email)
	if err != nil {
		c.logger.Warn("conversation list unavailable, creating a new conversation", "error", err)
		return c.CreateNew(ctx)
	}
	if len(convs) == 0 {
		c.logger.Info("no stored conversations, creating one")
		return c.CreateNew(ctx)
	}

	first := convs[0].ID
	c.mu.Lock()
	c.registry.Replace(convs, first)
	c.messages = []model.Message{}
	c.pending = nil
	c.loadErr = nil
	c.publishLocked()
	c.mu.Unlock()

	c.Reload(ctx, first)
	return nil
}

// CreateNew asks the backend for a new conversation and activates it with an
// empty history.
func (c *Controller) CreateNew(ctx context.Context) error {
	id, err := c.backend.CreateConversation(ctx, c.email)
	if err != nil {
		return fmt.Errorf("creating conversation: %w", err)
	}
	id = backend.WithPrefix(id)

	c.mu.Lock()
	c.registry.UpsertAndActivate(model.Conversation{
		ID:    id,
		Title: conversation.DefaultTitle(id),
	})
	c.messages = []model.Message{}
	c.pending = nil
	c.loadErr = nil
	c.publishLocked()
	c.mu.Unlock()

	c.logger.Info("conversation created", "conversation_id", id)
	return nil
}

// Select activates id and reconciles its history. Unknown ids are ignored.
func (c *Controller) Select(ctx context.Context, id string) error {
	c.mu.Lock()
	prev := c.registry.ActiveID()
	if !c.registry.SetActive(id) {
		c.mu.Unlock()
		c.logger.Debug("ignoring select of unknown conversation", "conversation_id", id)
		return nil
	}
	if prev != id {
		c.messages = []model.Message{}
		c.pending = nil
		c.loadErr = nil
	}
	c.publishLocked()
	c.mu.Unlock()

	c.Reload(ctx, id)
	return nil
}

// Delete removes a conversation after the user confirms. The registry is only
// changed once the backend confirmed the delete. Deleting the active
// conversation clears the display and does not select another one.
func (c *Controller) Delete(ctx context.Context, id string) error {
	conv, ok := c.find(id)
	if !ok {
		c.logger.Debug("ignoring delete of unknown conversation", "conversation_id", id)
		return nil
	}
	if c.confirmer == nil {
		return ErrConfirmationRequired
	}
	if !c.confirmer.Confirm(ctx, fmt.Sprintf("Delete %q?", conv.Title)) {
		c.logger.Debug("delete declined", "conversation_id", id)
		return nil
	}

	if err := c.backend.DeleteConversation(ctx, c.email, id); err != nil {
		return fmt.Errorf("deleting conversation: %w", err)
	}

	c.mu.Lock()
	if c.registry.Remove(id) {
		c.messages = []model.Message{}
		c.pending = nil
		c.loadErr = nil
	}
	c.publishLocked()
	c.mu.Unlock()

	c.logger.Info("conversation deleted", "conversation_id", id)
	return nil
}

// Send submits text together with the pending attachments to the active
// conversation. Nothing to send, or no active conversation, is a no-op. On
// failure the text and attachments stay in place for a retry.
func (c *Controller) Send(ctx context.Context, text string) error {
	c.mu.Lock()
	c.input = text
	req := submission.Request{
		Email:          c.email,
		ConversationID: c.registry.ActiveID(),
		Text:           text,
		Attachments:    slices.Clone(c.pending),
	}
	c.publishLocked()
	c.mu.Unlock()

	err := c.pipeline.Submit(ctx, req)
	if errors.Is(err, submission.ErrNothingToSubmit) || errors.Is(err, submission.ErrNoConversation) {
		c.logger.Debug("send ignored", "reason", err)
		return nil
	}
	return err
}

// SetInput replaces the draft text.
func (c *Controller) SetInput(text string) {
	c.mu.Lock()
	c.input = text
	c.publishLocked()
	c.mu.Unlock()
}

// AttachFile adds a pending attachment to the active conversation's draft.
func (c *Controller) AttachFile(p model.PendingAttachment) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.registry.ActiveID() == "" {
		return submission.ErrNoConversation
	}
	c.pending = append(slices.Clone(c.pending), p)
	c.publishLocked()
	return nil
}

// RemoveAttachment drops a pending attachment and reports whether it existed.
func (c *Controller) RemoveAttachment(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := slices.IndexFunc(c.pending, func(p model.PendingAttachment) bool { return p.ID == id })
	if i < 0 {
		return false
	}
	c.pending = slices.Delete(slices.Clone(c.pending), i, i+1)
	c.publishLocked()
	return true
}

// Reload reconciles the displayed history of conversationID with the backend.
// The result is applied only if conversationID is still active and no load
// issued later has already been applied. A conversation the backend does not
// know shows an empty history. Any other failure keeps what is on screen
// (empty right after a switch) and is reported through View.LoadError.
func (c *Controller) Reload(ctx context.Context, conversationID string) {
	c.mu.Lock()
	c.loadSeq++
	seq := c.loadSeq
	c.mu.Unlock()

	msgs, err := c.sync.LoadConversation(ctx, c.email, conversationID)
	if err != nil {
		if ctx.Err() != nil {
			c.logger.Debug("load cancelled", "conversation_id", conversationID)
			return
		}
		c.logger.Warn("failed to load conversation",
			"conversation_id", conversationID,
			"error", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.registry.ActiveID() != conversationID || seq <= c.appliedSeq {
		c.logger.Debug("discarding stale load",
			"conversation_id", conversationID,
			"seq", seq,
			"applied_seq", c.appliedSeq)
		return
	}
	c.appliedSeq = seq
	c.loadErr = err
	if err == nil {
		c.messages = msgs
	}
	c.publishLocked()
}

// View returns a snapshot of the displayed state.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked()
}

// Busy reports whether a submission is in flight.
func (c *Controller) Busy() bool {
	return c.pipeline.Busy()
}

// Conversations returns the registry in insertion order.
func (c *Controller) Conversations() []model.Conversation {
	return c.registry.List()
}

// Subscribe returns a channel of snapshots published after every change.
func (c *Controller) Subscribe(ctx context.Context) <-chan View {
	ch, _ := c.broadcaster.Subscribe(ctx)
	return ch
}

// Close releases subscribers.
func (c *Controller) Close() {
	c.broadcaster.Close()
}

func (c *Controller) find(id string) (model.Conversation, bool) {
	for _, conv := range c.registry.List() {
		if conv.ID == id {
			return conv, true
		}
	}
	return model.Conversation{}, false
}

// onStageChange only triggers a publish. The view reads the stage from the
// pipeline itself, so a notification that arrives late cannot roll it back.
func (c *Controller) onStageChange(submission.State) {
	c.mu.Lock()
	c.publishLocked()
	c.mu.Unlock()
}

// onCommitted clears exactly what was submitted, leaving anything the user
// added while the attempt was in flight.
func (c *Controller) onCommitted(req submission.Request) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.input == req.Text {
		c.input = ""
	}
	submitted := make(map[string]bool, len(req.Attachments))
	for _, p := range req.Attachments {
		submitted[p.ID] = true
	}
	c.pending = slices.DeleteFunc(slices.Clone(c.pending), func(p model.PendingAttachment) bool {
		return submitted[p.ID]
	})
	if len(c.pending) == 0 {
		c.pending = nil
	}
	c.publishLocked()
}

func (c *Controller) viewLocked() View {
	stage := c.pipeline.State()
	return View{
		Conversations: c.registry.List(),
		ActiveID:      c.registry.ActiveID(),
		Messages:      c.messages,
		Input:         c.input,
		Pending:       slices.Clone(c.pending),
		Busy:          stage.Busy(),
		Stage:         stage,
		LoadError:     c.loadErr,
	}
}

// publishLocked must be called with mu held so snapshots go out in order.
func (c *Controller) publishLocked() {
	c.broadcaster.Publish(c.viewLocked())
}

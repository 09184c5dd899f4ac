// ABOUTME: MessageSubmissionPipeline runs upload, text send and reload as one attempt
// ABOUTME: Gates the text send on upload success and never queues a second attempt

package submission

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/2389/coven-chat/internal/attachment"
	"github.com/2389/coven-chat/internal/model"
)

// Entry guard errors. Callers treat ErrNothingToSubmit and ErrNoConversation as no-ops.
var (
	ErrNothingToSubmit = errors.New("nothing to submit")
	ErrNoConversation  = errors.New("no active conversation")
	ErrBusy            = errors.New("a submission is already in progress")
)

// Uploader uploads a batch of attachments
type Uploader interface {
	UploadAll(ctx context.Context, email, conversationID string, pending []model.PendingAttachment) []attachment.Result
}

// Sender stores a text message
type Sender interface {
	SendMessage(ctx context.Context, email, conversationID, content string) error
}

// Reloader re-fetches the authoritative view of a conversation
type Reloader interface {
	Reload(ctx context.Context, conversationID string)
}

// Hooks lets the owner of the input observe the pipeline.
type Hooks struct {
	// OnStateChange is called after every transition.
	OnStateChange func(State)
	// OnCommitted is called when the uploads and the text send succeeded,
	// right before the reload. The owner clears the submitted input here.
	OnCommitted func(Request)
}

// Request is one submission attempt.
type Request struct {
	Email          string
	ConversationID string
	Text           string
	Attachments    []model.PendingAttachment
}

// Error is a failed attempt. Reason is meant to be shown to the user.
type Error struct {
	Stage  State
	Reason string
	Err    error
}

func (e *Error) Error() string {
	return e.Reason
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Pipeline runs submission attempts, one at a time.
type Pipeline struct {
	uploader Uploader
	sender   Sender
	reloader Reloader
	hooks    Hooks
	logger   *slog.Logger

	mu    sync.Mutex
	state State
}

// New creates a Pipeline. Pass nil logger for default.
func New(uploader Uploader, sender Sender, reloader Reloader, hooks Hooks, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		uploader: uploader,
		sender:   sender,
		reloader: reloader,
		hooks:    hooks,
		logger:   logger.With("component", "submission"),
	}
}

// State returns the current state.
func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Busy reports whether an attempt is in flight. Callers must not trigger
// another submission while busy; Submit rejects it with ErrBusy.
func (p *Pipeline) Busy() bool {
	return p.State().Busy()
}

// Submit runs one attempt: upload the attachments (if any), send the text (if
// any), then reload the conversation. A failure at any stage aborts the
// attempt and is returned as *Error; the request's input is never touched on
// failure. Files uploaded before a failure stay on the server.
func (p *Pipeline) Submit(ctx context.Context, req Request) error {
	if req.ConversationID == "" {
		return ErrNoConversation
	}
	hasText := strings.TrimSpace(req.Text) != ""
	if !hasText && len(req.Attachments) == 0 {
		return ErrNothingToSubmit
	}

	first := SendingText
	if len(req.Attachments) > 0 {
		first = UploadingAttachments
	}
	if err := p.begin(first); err != nil {
		return err
	}

	logger := p.logger.With(
		"attempt", uuid.New().String()[:8],
		"conversation_id", req.ConversationID)
	logger.Debug("submission started",
		"attachments", len(req.Attachments),
		"has_text", hasText)

	if len(req.Attachments) > 0 {
		results := p.uploader.UploadAll(ctx, req.Email, req.ConversationID, req.Attachments)
		if err := attachment.FirstFailure(results); err != nil {
			return p.fail(logger, UploadingAttachments, "Could not upload attachments", err)
		}
	}

	if hasText {
		if len(req.Attachments) > 0 {
			if err := p.transition(SendingText); err != nil {
				return err
			}
		}
		if err := p.sender.SendMessage(ctx, req.Email, req.ConversationID, req.Text); err != nil {
			return p.fail(logger, SendingText, "Could not send message", err)
		}
	}

	if err := p.transition(Reloading); err != nil {
		return err
	}
	if p.hooks.OnCommitted != nil {
		p.hooks.OnCommitted(req)
	}
	p.reloader.Reload(ctx, req.ConversationID)

	if err := p.transition(Idle); err != nil {
		return err
	}
	logger.Info("submission completed")
	return nil
}

// begin moves Idle -> first, or reports ErrBusy.
func (p *Pipeline) begin(first State) error {
	p.mu.Lock()
	if p.state != Idle {
		p.mu.Unlock()
		return ErrBusy
	}
	p.state = first
	p.mu.Unlock()

	p.notify(first)
	return nil
}

func (p *Pipeline) transition(to State) error {
	p.mu.Lock()
	from := p.state
	if !CanTransition(from, to) {
		p.mu.Unlock()
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, from, to)
	}
	p.state = to
	p.mu.Unlock()

	p.notify(to)
	return nil
}

// fail records a failed stage and returns the pipeline to Idle.
func (p *Pipeline) fail(logger *slog.Logger, stage State, what string, cause error) error {
	logger.Warn("submission failed", "stage", stage.String(), "error", cause)

	if err := p.transition(Failed); err != nil {
		return err
	}
	if err := p.transition(Idle); err != nil {
		return err
	}
	return &Error{
		Stage:  stage,
		Reason: fmt.Sprintf("%s: %v", what, cause),
		Err:    cause,
	}
}

func (p *Pipeline) notify(s State) {
	if p.hooks.OnStateChange != nil {
		p.hooks.OnStateChange(s)
	}
}

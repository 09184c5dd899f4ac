// ABOUTME: Uploads a batch of pending attachments concurrently and reports each outcome
// ABOUTME: Waits for every upload to settle; a failure never cancels its siblings

package attachment

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/2389/coven-chat/internal/model"
)

// Uploader defines what the coordinator needs from the backend
type Uploader interface {
	Upload(ctx context.Context, email, conversationID, filename string, content io.Reader) (string, error)
}

// Result is the outcome of one upload.
type Result struct {
	AttachmentID string
	Name         string
	Key          string // storage key, when the backend reported one
	Err          error
}

// OK reports whether the upload succeeded.
func (r Result) OK() bool {
	return r.Err == nil
}

// Coordinator uploads attachments for a conversation.
type Coordinator struct {
	uploader Uploader
	logger   *slog.Logger
}

// New creates a Coordinator. Pass nil logger for default.
func New(uploader Uploader, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		uploader: uploader,
		logger:   logger.With("component", "attachments"),
	}
}

// UploadAll starts one upload per attachment and returns once all of them
// have settled. Results are in the order of pending. Files that uploaded
// successfully stay on the server even when a sibling fails.
func (c *Coordinator) UploadAll(ctx context.Context, email, conversationID string, pending []model.PendingAttachment) []Result {
	results := make([]Result, len(pending))

	// Plain Group: no derived context, so one failure does not cancel the rest.
	var g errgroup.Group
	for i, p := range pending {
		i, p := i, p // per-iteration copies (go directive < 1.22)
		g.Go(func() error {
			results[i] = c.upload(ctx, email, conversationID, p)
			return nil
		})
	}
	_ = g.Wait()

	var failed, succeeded int
	for _, r := range results {
		if r.OK() {
			succeeded++
		} else {
			failed++
		}
	}
	if failed > 0 && succeeded > 0 {
		c.logger.Warn("partial attachment upload, successful files are orphaned",
			"conversation_id", conversationID,
			"succeeded", succeeded,
			"failed", failed)
	}

	return results
}

func (c *Coordinator) upload(ctx context.Context, email, conversationID string, p model.PendingAttachment) Result {
	res := Result{AttachmentID: p.ID, Name: p.Name}

	if p.Handle == nil {
		res.Err = fmt.Errorf("no file data")
		return res
	}
	rc, err := p.Handle.Open()
	if err != nil {
		res.Err = fmt.Errorf("opening file: %w", err)
		return res
	}
	defer rc.Close()

	key, err := c.uploader.Upload(ctx, email, conversationID, p.Name, rc)
	if err != nil {
		c.logger.Error("attachment upload failed",
			"error", err,
			"conversation_id", conversationID,
			"attachment", p.Name)
		res.Err = err
		return res
	}

	c.logger.Debug("attachment uploaded",
		"conversation_id", conversationID,
		"attachment", p.Name,
		"key", key)
	res.Key = key
	return res
}

// FirstFailure folds a batch into a single error naming every failed file, or
// nil when all uploads succeeded.
func FirstFailure(results []Result) error {
	var names []string
	var errs []error
	for _, r := range results {
		if r.OK() {
			continue
		}
		names = append(names, fmt.Sprintf("%s (%v)", r.Name, r.Err))
		errs = append(errs, r.Err)
	}
	if len(errs) == 0 {
		return nil
	}
	return &BatchError{Failed: names, Total: len(results), Err: errors.Join(errs...)}
}

// BatchError reports a batch in which at least one upload failed.
type BatchError struct {
	Failed []string // "<name> (<reason>)" per failed file
	Total  int
	Err    error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("%d of %d attachments failed to upload: %s", len(e.Failed), e.Total, strings.Join(e.Failed, "; "))
}

func (e *BatchError) Unwrap() error {
	return e.Err
}

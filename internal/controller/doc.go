// Package controller is the top-level coordinator the presentation layer talks to.
//
// # Controller
//
//	ctl := controller.New(controller.Options{
//	    Email:     email,
//	    Backend:   backend.New(baseURL),
//	    Confirmer: confirmer,
//	})
//	if err := ctl.Bootstrap(ctx); err != nil { ... }
//
// User actions:
//
//   - CreateNew(ctx): allocate and activate an empty conversation
//   - Select(ctx, id): activate and reload, unknown ids are ignored
//   - Delete(ctx, id): confirm, delete server side, then remove locally
//   - Send(ctx, text): submit text plus pending attachments
//   - AttachFile(p), RemoveAttachment(id), SetInput(text): edit the draft
//
// # Displayed state
//
// View returns a snapshot (conversations, active id, messages, draft,
// pending attachments, busy flag) and Subscribe streams a new snapshot after
// every change.
//
// # Stale results
//
// Every history load is tagged with its conversation id and a sequence
// number. A result is dropped when its conversation is no longer active or a
// later load has already been displayed, so switching conversations while a
// load or a submission is in flight never shows the wrong history.
package controller

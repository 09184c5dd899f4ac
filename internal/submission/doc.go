// Package submission implements the send pipeline.
//
// # States
//
//	Idle -> UploadingAttachments -> SendingText -> Reloading -> Idle
//	                 |                   |
//	                 +------> Failed <---+  -> Idle
//
// UploadingAttachments is skipped when there are no attachments and
// SendingText when the trimmed text is empty. The text is only sent after
// every attachment uploaded, so a message never silently loses its files.
//
// # Reloading
//
// Nothing is appended locally from a send response. After the stages succeed
// the owner's OnCommitted hook clears the submitted input and the conversation
// is re-fetched through the Reloader.
//
// # Busy
//
// One attempt runs at a time. Submit returns ErrBusy instead of queueing;
// front ends disable their send trigger while Busy is true.
package submission

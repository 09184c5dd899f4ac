// Package attachment uploads the pending attachments of a submission.
//
// UploadAll issues one upload per file, all started at once, and waits until
// every upload has settled. A failing file does not cancel the others, so a
// batch can end half uploaded; FirstFailure turns any failure into a single
// *BatchError and the caller treats the whole batch as failed. Files that did
// reach the server stay there without a referencing message. There is no
// delete-attachment endpoint to clean them up.
package attachment

// ABOUTME: Builds pending attachments from local files
// ABOUTME: Backs the file handle with a path that is reopened on every upload attempt

package model

import (
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

const defaultMimeType = "application/octet-stream"

// pathHandle opens a file from disk each time the upload is attempted, so a
// failed submission can be retried with the same pending attachment.
type pathHandle string

func (p pathHandle) Open() (io.ReadCloser, error) {
	return os.Open(string(p))
}

// PendingFromPath stats a local file and returns it as a pending attachment.
func PendingFromPath(path string) (PendingAttachment, error) {
	info, err := os.Stat(path)
	if err != nil {
		return PendingAttachment{}, fmt.Errorf("reading attachment: %w", err)
	}
	if info.IsDir() {
		return PendingAttachment{}, fmt.Errorf("attachment %q is a directory", path)
	}

	mimeType := mime.TypeByExtension(filepath.Ext(path))
	if mimeType == "" {
		mimeType = defaultMimeType
	}

	return PendingAttachment{
		ID:       uuid.New().String(),
		Name:     filepath.Base(path),
		Size:     info.Size(),
		MimeType: mimeType,
		Handle:   pathHandle(path),
	}, nil
}

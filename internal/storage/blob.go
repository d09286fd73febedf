// Package storage keeps uploaded workbooks outside the database.
package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/pkg/errors"
)

// BlobStore persists opaque files under slash-separated keys.
type BlobStore interface {
	Put(ctx context.Context, key string, r io.Reader) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
}

var (
	ErrInvalidKey = errors.New("invalid blob key")
	ErrNotFound   = errors.New("blob not found")
)

// UploadKey names the archived workbook of one marks upload.
func UploadKey(courseID int64, uploadID string) string {
	return fmt.Sprintf("uploads/course-%d/%s.xlsx", courseID, uploadID)
}

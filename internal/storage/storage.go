// Package storage defines the object storage contract used by the upload
// pipeline and two backends: a local filesystem store served by this process
// and an S3-compatible store.
//
// Backends report failures as *Error values that wrap one of the sentinel
// errors below and keep the provider's own wording, because callers classify
// failures both with errors.Is and by message text.
package storage

import (
	"context"
	"errors"
	"path"
	"strings"
)

// Bucket names used by the service.
const (
	BucketImages    = "images"
	BucketDocuments = "documents"
)

var (
	ErrBucketNotFound   = errors.New("bucket not found")
	ErrAccessDenied     = errors.New("access denied")
	ErrAlreadyExists    = errors.New("the resource already exists")
	ErrMimeNotSupported = errors.New("mime type not supported")
	ErrInvalidPath      = errors.New("invalid object path")
	ErrObjectNotFound   = errors.New("object not found")
)

// BucketInfo describes one bucket.
type BucketInfo struct {
	Name   string `json:"name"`
	Public bool   `json:"public"`
}

// ObjectStore is the subset of a hosted storage API the service relies on.
// Upload never overwrites: an existing object at path fails with
// ErrAlreadyExists.
type ObjectStore interface {
	Upload(ctx context.Context, bucket, path string, data []byte, contentType string) error
	PublicURL(bucket, path string) string
	ListBuckets(ctx context.Context) ([]BucketInfo, error)
	Remove(ctx context.Context, bucket string, paths []string) error
}

// Error is a classified backend failure.
type Error struct {
	Op     string
	Bucket string
	Path   string
	Msg    string // provider wording, surfaced as Error()
	Err    error  // one of the sentinels above
}

func (e *Error) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

func newError(op, bucket, p string, sentinel error, msg string) *Error {
	return &Error{Op: op, Bucket: bucket, Path: p, Err: sentinel, Msg: msg}
}

// CleanPath validates an object key: relative, slash separated, no "..".
func CleanPath(p string) (string, error) {
	p = strings.TrimSpace(p)
	if p == "" || strings.HasPrefix(p, "/") || strings.Contains(p, "\\") {
		return "", ErrInvalidPath
	}
	c := path.Clean(p)
	if c == "." || c == ".." || strings.HasPrefix(c, "../") {
		return "", ErrInvalidPath
	}
	return c, nil
}

// mimeAllowed reports whether contentType matches one of the patterns.
// Patterns may end in "/*". An empty list allows everything.
func mimeAllowed(allowed []string, contentType string) bool {
	if len(allowed) == 0 {
		return true
	}
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	for _, a := range allowed {
		a = strings.ToLower(strings.TrimSpace(a))
		if a == ct || a == "*/*" {
			return true
		}
		if prefix, ok := strings.CutSuffix(a, "/*"); ok && strings.HasPrefix(ct, prefix+"/") {
			return true
		}
	}
	return false
}

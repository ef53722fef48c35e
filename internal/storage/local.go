package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"
)

// BucketPolicy configures a local bucket.
type BucketPolicy struct {
	Public      bool
	AllowedMIME []string // empty allows any type; "image/*" style wildcards accepted
}

// DefaultBuckets is the layout provisioned on first start: a public images
// bucket for any image type and a public documents bucket for PDFs and
// common attachments.
func DefaultBuckets() map[string]BucketPolicy {
	return map[string]BucketPolicy{
		BucketImages:    {Public: true, AllowedMIME: []string{"image/*", "application/pdf", "application/octet-stream"}},
		BucketDocuments: {Public: true},
	}
}

// LocalStore keeps one directory per bucket under root. Objects are created
// exclusively, so an existing path reports ErrAlreadyExists.
type LocalStore struct {
	root     string
	baseURL  string
	policies map[string]BucketPolicy
	log      zerolog.Logger
}

// NewLocalStore creates root and a directory for every bucket in policies.
// Buckets whose directory is later removed report ErrBucketNotFound.
func NewLocalStore(root, baseURL string, policies map[string]BucketPolicy, log zerolog.Logger) (*LocalStore, error) {
	logger := log.With().Str("component", "local-storage").Logger()
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, errors.New("local storage root is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create local storage directory: %w", err)
	}
	for name := range policies {
		if err := os.MkdirAll(filepath.Join(root, name), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create bucket %s: %w", name, err)
		}
	}
	s := &LocalStore{
		root:     root,
		baseURL:  strings.TrimRight(baseURL, "/"),
		policies: policies,
		log:      logger,
	}
	logger.Info().Str("path", root).Str("base_url", s.baseURL).Int("buckets", len(policies)).Msg("local storage initialized")
	return s, nil
}

func (l *LocalStore) bucketDir(bucket string) (string, bool) {
	if bucket == "" || strings.ContainsAny(bucket, "/\\") || bucket == "." || bucket == ".." {
		return "", false
	}
	dir := filepath.Join(l.root, bucket)
	st, err := os.Stat(dir)
	if err != nil || !st.IsDir() {
		return "", false
	}
	return dir, true
}

// Upload writes data to bucket/path without overwriting.
func (l *LocalStore) Upload(ctx context.Context, bucket, p string, data []byte, contentType string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dir, ok := l.bucketDir(bucket)
	if !ok {
		return newError("upload", bucket, p, ErrBucketNotFound, "Bucket not found")
	}
	clean, err := CleanPath(p)
	if err != nil {
		return newError("upload", bucket, p, ErrInvalidPath, "invalid object path: "+p)
	}
	if pol := l.policies[bucket]; !mimeAllowed(pol.AllowedMIME, contentType) {
		return newError("upload", bucket, p, ErrMimeNotSupported,
			fmt.Sprintf("mime type %s is not supported", contentType))
	}

	full := filepath.Join(dir, filepath.FromSlash(clean))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	f, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return newError("upload", bucket, p, ErrAlreadyExists, "The resource already exists")
		}
		if errors.Is(err, fs.ErrPermission) {
			return newError("upload", bucket, p, ErrAccessDenied, "permission denied: "+err.Error())
		}
		return fmt.Errorf("failed to create file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		_ = os.Remove(full)
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(full)
		return fmt.Errorf("failed to close file: %w", err)
	}

	l.log.Debug().Str("bucket", bucket).Str("path", clean).Int("bytes", len(data)).Msg("object stored")
	return nil
}

// PublicURL returns <base>/storage/v1/object/public/<bucket>/<path>.
func (l *LocalStore) PublicURL(bucket, p string) string {
	segs := strings.Split(p, "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", l.baseURL, url.PathEscape(bucket), strings.Join(segs, "/"))
}

// ListBuckets reports every bucket directory under root, sorted by name.
func (l *LocalStore) ListBuckets(ctx context.Context) ([]BucketInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(l.root)
	if err != nil {
		return nil, err
	}
	out := make([]BucketInfo, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		out = append(out, BucketInfo{Name: e.Name(), Public: l.policies[e.Name()].Public})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Remove deletes paths from bucket. Missing objects are not an error.
func (l *LocalStore) Remove(ctx context.Context, bucket string, paths []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dir, ok := l.bucketDir(bucket)
	if !ok {
		return newError("remove", bucket, "", ErrBucketNotFound, "Bucket not found")
	}
	var errs []error
	for _, p := range paths {
		clean, err := CleanPath(p)
		if err != nil {
			errs = append(errs, newError("remove", bucket, p, ErrInvalidPath, "invalid object path: "+p))
			continue
		}
		if err := os.Remove(filepath.Join(dir, filepath.FromSlash(clean))); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Open returns a readable handle for a public object.
func (l *LocalStore) Open(bucket, p string) (*os.File, error) {
	dir, ok := l.bucketDir(bucket)
	if !ok {
		return nil, newError("open", bucket, p, ErrBucketNotFound, "Bucket not found")
	}
	if !l.policies[bucket].Public {
		return nil, newError("open", bucket, p, ErrAccessDenied, "bucket is not public")
	}
	clean, err := CleanPath(p)
	if err != nil {
		return nil, newError("open", bucket, p, ErrInvalidPath, "invalid object path: "+p)
	}
	f, err := os.Open(filepath.Join(dir, filepath.FromSlash(clean)))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, newError("open", bucket, p, ErrObjectNotFound, "Object not found")
		}
		return nil, err
	}
	if st, err := f.Stat(); err != nil || st.IsDir() {
		f.Close()
		return nil, newError("open", bucket, p, ErrObjectNotFound, "Object not found")
	}
	return f, nil
}

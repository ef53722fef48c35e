// Package services – UploadService
//
// UploadService turns a client file into a stored, publicly retrievable
// object. Images are validated, transcoded to JPEG for their destination
// folder and written to the images bucket; PDFs and generic attachments go to
// the documents bucket with a fallback to images. Provider failures are
// classified into actionable configuration errors, and duplicate names are
// retried once under a randomized suffix.
package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/url"
	"path"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/unicode/norm"

	"github.com/tbourn/go-support-desk/internal/media"
	"github.com/tbourn/go-support-desk/internal/observability"
	"github.com/tbourn/go-support-desk/internal/storage"
)

const (
	// MaxAvatarBytes caps avatar uploads before transcoding.
	MaxAvatarBytes = 5 << 20
	// MaxPDFBytes caps PDF uploads.
	MaxPDFBytes = 10 << 20

	FolderAvatars = "avatars"
	FolderPDFs    = "pdfs"
	FolderFiles   = "files"
)

// knownFolders are the destinations accepted by UploadImage and UploadPDF.
var knownFolders = map[string]bool{
	FolderAvatars: true,
	"posts":       true,
	"modules":     true,
	"lessons":     true,
	"banners":     true,
	FolderPDFs:    true,
	"rewards":     true,
	"courses":     true,
}

// URL shapes DeleteImage understands, tried in order.
var (
	rePublicObject = regexp.MustCompile(`/storage/v1/object/public/images/(.+)$`)
	reSignedObject = regexp.MustCompile(`/storage/v1/object/sign/images/(.+?)(\?|$)`)
	reDirectPath   = regexp.MustCompile(`/images/(.+?)(\?|$)`)
)

// FileInput is an upload as received from the client.
type FileInput struct {
	Name        string
	ContentType string
	Data        []byte
}

// UploadService stores files in an ObjectStore.
type UploadService struct {
	Store storage.ObjectStore
	Log   zerolog.Logger

	// Now, Suffix and Transcode are replaceable for tests.
	Now       func() time.Time
	Suffix    func() string
	Transcode func([]byte, media.Kind) ([]byte, error)
}

// NewUploadService wires the default clock, suffix generator and transcoder.
func NewUploadService(store storage.ObjectStore, log zerolog.Logger) *UploadService {
	return &UploadService{
		Store:     store,
		Log:       log.With().Str("component", "uploads").Logger(),
		Now:       time.Now,
		Suffix:    randomSuffix,
		Transcode: media.Transcode,
	}
}

// UploadImage validates, transcodes and stores an image under
// <folder>/<ownerID>-<millis>.jpg in the images bucket and returns its public URL.
func (s *UploadService) UploadImage(ctx context.Context, f FileInput, folder, ownerID string) (string, error) {
	tr := otel.Tracer("services/UploadService")
	ctx, span := tr.Start(ctx, "UploadImage",
		trace.WithAttributes(
			attribute.String("upload.folder", folder),
			attribute.Int("upload.size", len(f.Data)),
		),
	)
	defer span.End()

	ct := contentTypeOf(f)
	if !strings.HasPrefix(ct, "image/") {
		s.reject(storage.BucketImages)
		return "", ErrNotImage
	}
	if folder == FolderAvatars && len(f.Data) > MaxAvatarBytes {
		s.reject(storage.BucketImages)
		return "", ErrAvatarTooLarge
	}
	if !knownFolders[folder] {
		s.reject(storage.BucketImages)
		return "", ErrInvalidFolder
	}
	if len(f.Data) == 0 {
		s.reject(storage.BucketImages)
		return "", ErrEmptyFile
	}

	out, err := s.Transcode(f.Data, media.KindForFolder(folder))
	if err != nil {
		s.reject(storage.BucketImages)
		return "", fmt.Errorf("%w: %v", ErrImageProcessing, err)
	}
	s.Log.Debug().Str("folder", folder).Int("in_bytes", len(f.Data)).Int("out_bytes", len(out)).Msg("image transcoded")

	base := fmt.Sprintf("%s-%d", ownerID, s.Now().UnixMilli())
	p := path.Join(folder, base+".jpg")
	err = s.Store.Upload(ctx, storage.BucketImages, p, out, "image/jpeg")
	if err == nil {
		observability.Uploads.WithLabelValues(storage.BucketImages, "ok").Inc()
		return s.Store.PublicURL(storage.BucketImages, p), nil
	}
	s.Log.Error().Err(err).Str("path", p).Msg("image upload failed")

	switch {
	case isBucketMissing(err):
		observability.Uploads.WithLabelValues(storage.BucketImages, "error").Inc()
		return "", s.diagnoseBuckets(ctx)

	case isPermissionDenied(err):
		observability.Uploads.WithLabelValues(storage.BucketImages, "error").Inc()
		return "", configErr(ErrStoragePermission,
			"permission denied writing to bucket %q; configure the storage policies to allow uploads", storage.BucketImages)

	case isDuplicate(err):
		retry := path.Join(folder, base+"-"+s.Suffix()+".jpg")
		s.Log.Info().Str("path", retry).Msg("name taken, retrying with suffix")
		if rerr := s.Store.Upload(ctx, storage.BucketImages, retry, out, "image/jpeg"); rerr != nil {
			observability.Uploads.WithLabelValues(storage.BucketImages, "error").Inc()
			return "", fmt.Errorf("%w: %s", ErrUploadFailed, rerr.Error())
		}
		observability.Uploads.WithLabelValues(storage.BucketImages, "retried").Inc()
		return s.Store.PublicURL(storage.BucketImages, retry), nil
	}

	observability.Uploads.WithLabelValues(storage.BucketImages, "error").Inc()
	return "", fmt.Errorf("%w: %s", ErrUploadFailed, err.Error())
}

// UploadPDF stores a PDF under <folder>/<ownerID>-<millis>.pdf, preferring
// the documents bucket and falling back to images when documents is missing.
func (s *UploadService) UploadPDF(ctx context.Context, f FileInput, folder, ownerID string) (string, error) {
	tr := otel.Tracer("services/UploadService")
	ctx, span := tr.Start(ctx, "UploadPDF", trace.WithAttributes(attribute.Int("upload.size", len(f.Data))))
	defer span.End()

	if folder == "" {
		folder = FolderPDFs
	}
	if contentTypeOf(f) != "application/pdf" {
		s.reject(storage.BucketDocuments)
		return "", ErrNotPDF
	}
	if len(f.Data) > MaxPDFBytes {
		s.reject(storage.BucketDocuments)
		return "", ErrPDFTooLarge
	}
	if !knownFolders[folder] {
		s.reject(storage.BucketDocuments)
		return "", ErrInvalidFolder
	}

	p := path.Join(folder, fmt.Sprintf("%s-%d.pdf", ownerID, s.Now().UnixMilli()))
	bucket := storage.BucketDocuments
	err := s.Store.Upload(ctx, bucket, p, f.Data, "application/pdf")
	outcome := "ok"
	if err != nil && isBucketMissing(err) {
		s.Log.Warn().Err(err).Msg("documents bucket missing, falling back to images")
		bucket = storage.BucketImages
		outcome = "fallback"
		err = s.Store.Upload(ctx, bucket, p, f.Data, "application/pdf")
	}
	if err != nil {
		observability.Uploads.WithLabelValues(bucket, "error").Inc()
		s.Log.Error().Err(err).Str("bucket", bucket).Str("path", p).Msg("pdf upload failed")
		if isMimeRejected(err) {
			return "", configErr(ErrMimeNotAllowed,
				"bucket %q does not accept PDFs; add application/pdf to its allowed MIME types", bucket)
		}
		return "", err
	}
	observability.Uploads.WithLabelValues(bucket, outcome).Inc()
	return s.Store.PublicURL(bucket, p), nil
}

// UploadFile stores a generic attachment under files/<ownerID>-<millis>.<ext>.
// Any failure on the documents bucket is retried once on images.
func (s *UploadService) UploadFile(ctx context.Context, f FileInput, ownerID string) (string, error) {
	tr := otel.Tracer("services/UploadService")
	ctx, span := tr.Start(ctx, "UploadFile", trace.WithAttributes(attribute.Int("upload.size", len(f.Data))))
	defer span.End()

	if len(f.Data) == 0 {
		s.reject(storage.BucketDocuments)
		return "", ErrEmptyFile
	}
	ct := contentTypeOf(f)
	p := path.Join(FolderFiles, fmt.Sprintf("%s-%d.%s", ownerID, s.Now().UnixMilli(), extensionOf(f.Name)))

	bucket := storage.BucketDocuments
	outcome := "ok"
	err := s.Store.Upload(ctx, bucket, p, f.Data, ct)
	if err != nil {
		s.Log.Warn().Err(err).Msg("documents upload failed, trying images")
		bucket = storage.BucketImages
		outcome = "fallback"
		err = s.Store.Upload(ctx, bucket, p, f.Data, ct)
	}
	if err != nil {
		observability.Uploads.WithLabelValues(bucket, "error").Inc()
		return "", fmt.Errorf("%w: %s", ErrUploadFailed, err.Error())
	}
	observability.Uploads.WithLabelValues(bucket, outcome).Inc()
	return s.Store.PublicURL(bucket, p), nil
}

// DeleteImage removes the images-bucket object behind a public, signed or
// direct URL. Unrecognized URLs and provider errors are logged, not returned.
func (s *UploadService) DeleteImage(ctx context.Context, rawURL string) {
	if rawURL == "" {
		return
	}
	p := imagePathFromURL(rawURL)
	if p == "" {
		s.Log.Warn().Str("url", rawURL).Msg("could not extract storage path from url")
		return
	}
	if err := s.Store.Remove(ctx, storage.BucketImages, []string{p}); err != nil {
		s.Log.Error().Err(err).Str("path", p).Msg("delete image failed")
		return
	}
	s.Log.Info().Str("path", p).Msg("image deleted")
}

// diagnoseBuckets lists buckets to explain a bucket-missing failure.
func (s *UploadService) diagnoseBuckets(ctx context.Context) error {
	buckets, err := s.Store.ListBuckets(ctx)
	if err == nil {
		names := make([]string, 0, len(buckets))
		for _, b := range buckets {
			names = append(names, b.Name)
			if b.Name != storage.BucketImages {
				continue
			}
			if !b.Public {
				return configErr(ErrBucketNotPublic,
					"bucket %q exists but is not public; mark it as a public bucket in the storage settings", storage.BucketImages)
			}
			// Present and public; the failure came from somewhere else.
			return configErr(ErrBucketMissing,
				"bucket %q could not be reached; check that it exists and is public", storage.BucketImages)
		}
		s.Log.Warn().Strs("buckets", names).Msg("images bucket not found")
		return configErr(ErrBucketMissing,
			"bucket %q not found; available buckets: %s. Create a bucket named %q and mark it public",
			storage.BucketImages, strings.Join(names, ", "), storage.BucketImages)
	}
	s.Log.Warn().Err(err).Msg("bucket listing failed")
	return configErr(ErrBucketMissing,
		"bucket %q not found or not configured; make sure it exists and is public", storage.BucketImages)
}

func (s *UploadService) reject(bucket string) {
	observability.Uploads.WithLabelValues(bucket, "rejected").Inc()
}

// imagePathFromURL applies the three URL shapes in order.
func imagePathFromURL(raw string) string {
	var p string
	if m := rePublicObject.FindStringSubmatch(raw); m != nil {
		p = m[1]
	} else if m := reSignedObject.FindStringSubmatch(raw); m != nil {
		p = m[1]
	} else if m := reDirectPath.FindStringSubmatch(raw); m != nil {
		p = m[1]
	}
	if un, err := url.PathUnescape(p); err == nil {
		p = un
	}
	return p
}

// contentTypeOf trusts the declared type unless it is missing or generic.
func contentTypeOf(f FileInput) string {
	ct := strings.ToLower(strings.TrimSpace(f.ContentType))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	if ct == "" || ct == "application/octet-stream" {
		if len(f.Data) == 0 {
			return "application/octet-stream"
		}
		ct = mimetype.Detect(f.Data).String()
		if i := strings.IndexByte(ct, ';'); i >= 0 {
			ct = ct[:i]
		}
	}
	return ct
}

// extensionOf returns the lowercase extension of name, or "bin".
func extensionOf(name string) string {
	name = norm.NFC.String(strings.TrimSpace(name))
	i := strings.LastIndexByte(name, '.')
	if i < 0 || i == len(name)-1 {
		return "bin"
	}
	ext := strings.ToLower(name[i+1:])
	if strings.ContainsAny(ext, `/\ `) {
		return "bin"
	}
	return ext
}

func randomSuffix() string {
	s := strconv.FormatInt(rand.Int63(), 36)
	if len(s) > 6 {
		s = s[len(s)-6:]
	}
	return s
}

func isBucketMissing(err error) bool {
	if errors.Is(err, storage.ErrBucketNotFound) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "Bucket not found") ||
		strings.Contains(msg, "not found") ||
		strings.Contains(msg, "does not exist")
}

func isPermissionDenied(err error) bool {
	if errors.Is(err, storage.ErrAccessDenied) {
		return true
	}
	msg := err.Error()
	for _, w := range []string{"permission", "policy", "denied", "Forbidden"} {
		if strings.Contains(msg, w) {
			return true
		}
	}
	return false
}

func isDuplicate(err error) bool {
	if errors.Is(err, storage.ErrAlreadyExists) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate") || strings.Contains(msg, "already exists")
}

func isMimeRejected(err error) bool {
	if errors.Is(err, storage.ErrMimeNotSupported) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "mime type") || strings.Contains(msg, "not supported")
}

package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/rs/zerolog"

	"github.com/tbourn/go-support-desk/internal/config"
)

var errS3Disabled = errors.New("object storage backend is not configured; set S3_* to enable uploads")

// s3API is the slice of *s3.Client used here.
type s3API interface {
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	ListBuckets(ctx context.Context, in *s3.ListBucketsInput, optFns ...func(*s3.Options)) (*s3.ListBucketsOutput, error)
	GetBucketPolicyStatus(ctx context.Context, in *s3.GetBucketPolicyStatusInput, optFns ...func(*s3.Options)) (*s3.GetBucketPolicyStatusOutput, error)
	DeleteObjects(ctx context.Context, in *s3.DeleteObjectsInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error)
}

// S3Store stores objects in an S3-compatible service. S3 has no atomic
// create-if-absent, so Upload checks with HeadObject first; two concurrent
// uploads to the same key can both succeed.
type S3Store struct {
	client     s3API
	publicBase string
	log        zerolog.Logger
	disabled   bool
}

// NewS3Store builds a client from cfg. Missing credentials yield a disabled
// store whose operations fail with a configuration error.
func NewS3Store(ctx context.Context, cfg config.S3Config, publicBase string, log zerolog.Logger) (*S3Store, error) {
	logger := log.With().Str("component", "s3-storage").Logger()
	store := &S3Store{
		publicBase: strings.TrimRight(strings.TrimSpace(publicBase), "/"),
		log:        logger,
	}

	accessKey := strings.TrimSpace(cfg.AccessKeyID)
	secretKey := strings.TrimSpace(cfg.SecretKey)
	if accessKey == "" || secretKey == "" {
		logger.Warn().Msg("S3 credentials are not set; uploads will be disabled until configured")
		store.disabled = true
		return store, nil
	}

	resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
		if cfg.Endpoint != "" {
			return aws.Endpoint{
				URL:           cfg.Endpoint,
				PartitionID:   "aws",
				SigningRegion: cfg.Region,
			}, nil
		}
		return aws.Endpoint{}, &aws.EndpointNotFoundError{}
	})

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(accessKey, secretKey, "")),
		awsconfig.WithEndpointResolverWithOptions(resolver),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	store.client = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
	})
	if store.publicBase == "" && cfg.Endpoint != "" {
		store.publicBase = strings.TrimRight(cfg.Endpoint, "/")
	}
	return store, nil
}

func (s *S3Store) ensureEnabled() error {
	if s.disabled {
		return errS3Disabled
	}
	return nil
}

// Upload stores data at bucket/key unless the key already exists.
func (s *S3Store) Upload(ctx context.Context, bucket, key string, data []byte, contentType string) error {
	if err := s.ensureEnabled(); err != nil {
		return err
	}
	clean, err := CleanPath(key)
	if err != nil {
		return newError("upload", bucket, key, ErrInvalidPath, "invalid object path: "+key)
	}

	_, err = s.client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: aws.String(bucket), Key: aws.String(clean)})
	if err == nil {
		return newError("upload", bucket, key, ErrAlreadyExists, "The resource already exists")
	}
	if mapped := classifyS3("upload", bucket, key, err); !errors.Is(mapped, ErrObjectNotFound) {
		return mapped
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(clean),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return classifyS3("upload", bucket, key, err)
	}
	s.log.Debug().Str("bucket", bucket).Str("key", clean).Int("bytes", len(data)).Msg("object stored")
	return nil
}

// PublicURL returns <publicBase>/<bucket>/<key>.
func (s *S3Store) PublicURL(bucket, key string) string {
	segs := strings.Split(key, "/")
	for i, seg := range segs {
		segs[i] = url.PathEscape(seg)
	}
	return fmt.Sprintf("%s/%s/%s", s.publicBase, url.PathEscape(bucket), strings.Join(segs, "/"))
}

// ListBuckets lists buckets and reports each one's public policy status.
// A bucket whose status cannot be read is reported as private.
func (s *S3Store) ListBuckets(ctx context.Context) ([]BucketInfo, error) {
	if err := s.ensureEnabled(); err != nil {
		return nil, err
	}
	out, err := s.client.ListBuckets(ctx, &s3.ListBucketsInput{})
	if err != nil {
		return nil, classifyS3("list", "", "", err)
	}
	infos := make([]BucketInfo, 0, len(out.Buckets))
	for _, b := range out.Buckets {
		name := aws.ToString(b.Name)
		info := BucketInfo{Name: name}
		st, err := s.client.GetBucketPolicyStatus(ctx, &s3.GetBucketPolicyStatusInput{Bucket: aws.String(name)})
		if err == nil && st.PolicyStatus != nil {
			info.Public = aws.ToBool(st.PolicyStatus.IsPublic)
		}
		infos = append(infos, info)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}

// Remove deletes keys in one batch request.
func (s *S3Store) Remove(ctx context.Context, bucket string, keys []string) error {
	if err := s.ensureEnabled(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	objs := make([]types.ObjectIdentifier, 0, len(keys))
	for _, k := range keys {
		objs = append(objs, types.ObjectIdentifier{Key: aws.String(k)})
	}
	out, err := s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
		Bucket: aws.String(bucket),
		Delete: &types.Delete{Objects: objs, Quiet: aws.Bool(true)},
	})
	if err != nil {
		return classifyS3("remove", bucket, "", err)
	}
	var errs []error
	for _, e := range out.Errors {
		errs = append(errs, fmt.Errorf("delete %s: %s", aws.ToString(e.Key), aws.ToString(e.Message)))
	}
	return errors.Join(errs...)
}

// classifyS3 maps provider error codes onto the storage sentinels.
func classifyS3(op, bucket, key string, err error) error {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return err
	}
	msg := apiErr.ErrorMessage()
	if msg == "" {
		msg = apiErr.ErrorCode()
	}
	switch apiErr.ErrorCode() {
	case "NoSuchBucket":
		return newError(op, bucket, key, ErrBucketNotFound, "Bucket not found")
	case "NotFound", "NoSuchKey":
		return newError(op, bucket, key, ErrObjectNotFound, "Object not found")
	case "AccessDenied", "Forbidden", "AllAccessDisabled", "InvalidAccessKeyId", "SignatureDoesNotMatch":
		return newError(op, bucket, key, ErrAccessDenied, "permission denied: "+msg)
	case "PreconditionFailed":
		return newError(op, bucket, key, ErrAlreadyExists, "The resource already exists")
	case "InvalidContentType", "UnsupportedMediaType":
		return newError(op, bucket, key, ErrMimeNotSupported, "mime type is not supported: "+msg)
	}
	return err
}

package storage

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/rs/zerolog"

	"github.com/tbourn/go-support-desk/internal/config"
)

type fakeS3 struct {
	objects  map[string][]byte // bucket/key
	buckets  map[string]bool   // name -> public
	putErr   error
	headErr  error
	puts     int
	deleted  []string
	policyOK bool
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string][]byte{}, buckets: map[string]bool{"images": true, "documents": false}, policyOK: true}
}

func notFound() error { return &smithy.GenericAPIError{Code: "NotFound", Message: "Not Found"} }

func (f *fakeS3) HeadObject(_ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	if f.headErr != nil {
		return nil, f.headErr
	}
	if _, ok := f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]; ok {
		return &s3.HeadObjectOutput{}, nil
	}
	return nil, notFound()
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	if _, ok := f.buckets[aws.ToString(in.Bucket)]; !ok {
		return nil, &smithy.GenericAPIError{Code: "NoSuchBucket", Message: "The specified bucket does not exist"}
	}
	b, _ := io.ReadAll(in.Body)
	f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)] = b
	f.puts++
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) ListBuckets(context.Context, *s3.ListBucketsInput, ...func(*s3.Options)) (*s3.ListBucketsOutput, error) {
	out := &s3.ListBucketsOutput{}
	for name := range f.buckets {
		out.Buckets = append(out.Buckets, types.Bucket{Name: aws.String(name)})
	}
	return out, nil
}

func (f *fakeS3) GetBucketPolicyStatus(_ context.Context, in *s3.GetBucketPolicyStatusInput, _ ...func(*s3.Options)) (*s3.GetBucketPolicyStatusOutput, error) {
	if !f.policyOK {
		return nil, &smithy.GenericAPIError{Code: "NoSuchBucketPolicy"}
	}
	return &s3.GetBucketPolicyStatusOutput{PolicyStatus: &types.PolicyStatus{IsPublic: aws.Bool(f.buckets[aws.ToString(in.Bucket)])}}, nil
}

func (f *fakeS3) DeleteObjects(_ context.Context, in *s3.DeleteObjectsInput, _ ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error) {
	for _, o := range in.Delete.Objects {
		f.deleted = append(f.deleted, aws.ToString(o.Key))
	}
	return &s3.DeleteObjectsOutput{}, nil
}

func newS3(f *fakeS3) *S3Store {
	return &S3Store{client: f, publicBase: "https://cdn.example.com", log: zerolog.Nop()}
}

func TestS3Store_UploadThenDuplicate(t *testing.T) {
	f := newFakeS3()
	s := newS3(f)
	ctx := context.Background()
	if err := s.Upload(ctx, "images", "posts/a.jpg", []byte("x"), "image/jpeg"); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	err := s.Upload(ctx, "images", "posts/a.jpg", []byte("y"), "image/jpeg")
	if !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
	if f.puts != 1 {
		t.Fatalf("duplicate must not be written, puts=%d", f.puts)
	}
}

func TestS3Store_ErrorMapping(t *testing.T) {
	f := newFakeS3()
	s := newS3(f)
	err := s.Upload(context.Background(), "ghost", "a.jpg", []byte("x"), "image/jpeg")
	if !errors.Is(err, ErrBucketNotFound) || err.Error() != "Bucket not found" {
		t.Fatalf("expected bucket not found, got %v", err)
	}

	f.putErr = &smithy.GenericAPIError{Code: "AccessDenied", Message: "Access Denied"}
	err = s.Upload(context.Background(), "images", "b.jpg", []byte("x"), "image/jpeg")
	if !errors.Is(err, ErrAccessDenied) {
		t.Fatalf("expected access denied, got %v", err)
	}

	f.putErr = nil
	f.headErr = errors.New("network down")
	if err := s.Upload(context.Background(), "images", "c.jpg", nil, "image/jpeg"); err == nil || errors.Is(err, ErrObjectNotFound) {
		t.Fatalf("unclassified head error should propagate, got %v", err)
	}
}

func TestS3Store_ListBucketsAndRemove(t *testing.T) {
	f := newFakeS3()
	s := newS3(f)
	got, err := s.ListBuckets(context.Background())
	if err != nil {
		t.Fatalf("ListBuckets: %v", err)
	}
	if len(got) != 2 || got[0] != (BucketInfo{Name: "documents"}) || got[1] != (BucketInfo{Name: "images", Public: true}) {
		t.Fatalf("unexpected buckets: %+v", got)
	}

	f.policyOK = false
	got, _ = s.ListBuckets(context.Background())
	if got[1].Public {
		t.Fatalf("unreadable policy should report private")
	}

	if err := s.Remove(context.Background(), "images", []string{"a", "b"}); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if len(f.deleted) != 2 {
		t.Fatalf("expected 2 deletions, got %v", f.deleted)
	}
	if err := s.Remove(context.Background(), "images", nil); err != nil {
		t.Fatalf("empty remove should be a no-op: %v", err)
	}
}

func TestS3Store_PublicURL(t *testing.T) {
	s := newS3(newFakeS3())
	if got := s.PublicURL("images", "posts/a.jpg"); got != "https://cdn.example.com/images/posts/a.jpg" {
		t.Fatalf("unexpected url %q", got)
	}
}

func TestNewS3Store_DisabledWithoutCredentials(t *testing.T) {
	s, err := NewS3Store(context.Background(), config.S3Config{Region: "us-east-1"}, "", zerolog.Nop())
	if err != nil {
		t.Fatalf("NewS3Store: %v", err)
	}
	if err := s.Upload(context.Background(), "images", "a.jpg", nil, "image/jpeg"); !errors.Is(err, errS3Disabled) {
		t.Fatalf("expected disabled error, got %v", err)
	}
	if _, err := s.ListBuckets(context.Background()); !errors.Is(err, errS3Disabled) {
		t.Fatalf("expected disabled error, got %v", err)
	}
}

func TestNewS3Store_WithEndpoint(t *testing.T) {
	s, err := NewS3Store(context.Background(), config.S3Config{
		Endpoint: "http://minio:9000/", Region: "us-east-1", AccessKeyID: "ak", SecretKey: "sk", UsePathStyle: true,
	}, "", zerolog.Nop())
	if err != nil {
		t.Fatalf("NewS3Store: %v", err)
	}
	if s.disabled || s.client == nil {
		t.Fatalf("store should be enabled")
	}
	if got := s.PublicURL("images", "a.jpg"); got != "http://minio:9000/images/a.jpg" {
		t.Fatalf("unexpected url %q", got)
	}
}

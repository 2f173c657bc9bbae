package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

// memoryS3 is an in-memory stand-in for the S3 client.
type memoryS3 struct {
	objects map[string][]byte
}

func newMemoryS3() *memoryS3 {
	return &memoryS3{objects: make(map[string][]byte)}
}

func (m *memoryS3) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	m.objects[aws.ToString(params.Key)] = data
	return &s3.PutObjectOutput{}, nil
}

func (m *memoryS3) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := m.objects[aws.ToString(params.Key)]
	if !ok {
		return nil, &smithy.GenericAPIError{Code: "NoSuchKey", Message: "not found"}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (m *memoryS3) DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	delete(m.objects, aws.ToString(params.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func (m *memoryS3) HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	if _, ok := m.objects[aws.ToString(params.Key)]; !ok {
		return nil, &smithy.GenericAPIError{Code: "NotFound", Message: "not found"}
	}
	return &s3.HeadObjectOutput{}, nil
}

type fakePresigner struct{}

func (fakePresigner) PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	return &v4.PresignedHTTPRequest{URL: "https://" + aws.ToString(params.Bucket) + ".s3.amazonaws.com/" + aws.ToString(params.Key) + "?signed"}, nil
}

func newTestS3Storage() (*S3Storage, *memoryS3) {
	client := newMemoryS3()
	return &S3Storage{client: client, presignClient: fakePresigner{}, bucket: "qa-bucket"}, client
}

func TestNewS3Storage_Validation(t *testing.T) {
	tests := []struct {
		name   string
		bucket string
		region string
	}{
		{name: "empty bucket", bucket: "", region: "us-east-1"},
		{name: "empty region", bucket: "test-bucket", region: ""},
		{name: "both empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewS3Storage(context.Background(), tt.bucket, tt.region); err == nil {
				t.Error("expected error but got none")
			}
		})
	}
}

func TestS3Storage_RoundTrip(t *testing.T) {
	ctx := context.Background()
	storage, client := newTestS3Storage()

	if err := storage.Upload(ctx, "state/testpilot-state.json", strings.NewReader("{}")); err != nil {
		t.Fatalf("upload failed: %v", err)
	}
	if _, ok := client.objects["state/testpilot-state.json"]; !ok {
		t.Fatalf("object stored under unexpected key: %v", client.objects)
	}

	data, err := ReadAll(ctx, storage, "state/testpilot-state.json")
	if err != nil {
		t.Fatalf("download failed: %v", err)
	}
	if string(data) != "{}" {
		t.Errorf("got %q", data)
	}

	u, err := storage.GetURL(ctx, "state/testpilot-state.json")
	if err != nil {
		t.Fatalf("GetURL failed: %v", err)
	}
	if !strings.Contains(u, "qa-bucket") {
		t.Errorf("unexpected URL %q", u)
	}

	if err := storage.Delete(ctx, "state/testpilot-state.json"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	exists, err := storage.Exists(ctx, "state/testpilot-state.json")
	if err != nil || exists {
		t.Errorf("expected object to be gone, got exists=%v err=%v", exists, err)
	}
}

func TestS3Storage_NotFound(t *testing.T) {
	ctx := context.Background()
	storage, _ := newTestS3Storage()

	if _, err := storage.Download(ctx, "missing.json"); !errors.Is(err, ErrFileNotFound) {
		t.Errorf("expected ErrFileNotFound, got %v", err)
	}
	if _, err := storage.GetURL(ctx, "missing.json"); !errors.Is(err, ErrFileNotFound) {
		t.Errorf("expected ErrFileNotFound, got %v", err)
	}
}

func TestObjectKey(t *testing.T) {
	tests := []struct {
		path      string
		want      string
		wantError bool
	}{
		{path: "exports/results.csv", want: "exports/results.csv"},
		{path: "exports//./bugs.csv", want: "exports/bugs.csv"},
		{path: `exports\win.csv`, want: "exports/win.csv"},
		{path: "", wantError: true},
		{path: "../escape", wantError: true},
		{path: "/absolute", wantError: true},
		{path: ".", wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := objectKey(tt.path)
			if tt.wantError {
				if !errors.Is(err, ErrInvalidPath) {
					t.Errorf("expected ErrInvalidPath, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIsS3NotFoundError(t *testing.T) {
	if !isS3NotFoundError(&smithy.GenericAPIError{Code: "NoSuchKey"}) {
		t.Error("NoSuchKey should be not-found")
	}
	if isS3NotFoundError(&smithy.GenericAPIError{Code: "AccessDenied"}) {
		t.Error("AccessDenied should not be not-found")
	}
	if isS3NotFoundError(errors.New("plain")) {
		t.Error("plain errors should not be not-found")
	}
}

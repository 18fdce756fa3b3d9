package minioctrl

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const DefaultDocumentsBucket = "documents"

// Service stores document binaries in MinIO. Keys have the form
// "<bucket>/<ownerID>/<basename>-<uuid><ext>" and are opaque to callers.
type Service struct {
	client *minio.Client
	bucket string
}

func NewService(endpoint, accessKeyID, secretAccessKey, bucket string, useSSL bool) (*Service, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKeyID, secretAccessKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %v", err)
	}
	if bucket == "" {
		bucket = DefaultDocumentsBucket
	}
	return &Service{client: client, bucket: bucket}, nil
}

// EnsureBucketExists creates the documents bucket when missing.
func (s *Service) EnsureBucketExists(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %v", err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket: %v", err)
		}
	}
	return nil
}

// Put uploads a document binary under a collision-free per-owner key.
func (s *Service) Put(ctx context.Context, ownerID, filename, contentType string, data []byte) (string, error) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	object := objectName(ownerID, filename)

	reader := bytes.NewReader(data)
	_, err := s.client.PutObject(ctx, s.bucket, object, reader, int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to put object: %v", err)
	}
	return s.bucket + "/" + object, nil
}

// Get downloads a document binary by its storage key.
func (s *Service) Get(ctx context.Context, key string) ([]byte, error) {
	bucket, object, err := splitKey(key)
	if err != nil {
		return nil, err
	}
	obj, err := s.client.GetObject(ctx, bucket, object, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object: %v", err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("failed to read object data: %v", err)
	}
	return data, nil
}

// Delete removes a document binary.
func (s *Service) Delete(ctx context.Context, key string) error {
	bucket, object, err := splitKey(key)
	if err != nil {
		return err
	}
	if err := s.client.RemoveObject(ctx, bucket, object, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete object: %v", err)
	}
	return nil
}

// PresignedURL returns a temporary download URL for the binary.
func (s *Service) PresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	bucket, object, err := splitKey(key)
	if err != nil {
		return "", err
	}
	reqParams := make(url.Values)
	u, err := s.client.PresignedGetObject(ctx, bucket, object, expiry, reqParams)
	if err != nil {
		return "", fmt.Errorf("failed to presign object: %v", err)
	}
	return u.String(), nil
}

func objectName(ownerID, filename string) string {
	base := path.Base(filename)
	ext := path.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	return fmt.Sprintf("%s/%s-%s%s", ownerID, stem, uuid.NewString(), ext)
}

// splitKey parses "bucket/object" storage keys.
func splitKey(key string) (string, string, error) {
	parts := strings.SplitN(key, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("malformed storage key: %q", key)
	}
	return parts[0], parts[1], nil
}

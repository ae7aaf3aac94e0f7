// Package storage keeps user avatars in an S3-compatible bucket.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MaxAvatarSize is the upload cap; the settings page advertises 2 MB.
const MaxAvatarSize = 2 * 1024 * 1024

var (
	ErrTooLarge    = errors.New("avatar exceeds 2 MB")
	ErrNotAnImage  = errors.New("avatar must be an image")
	ErrEmptyUpload = errors.New("empty upload")
)

// ValidateAvatar applies the size and mimetype rules before any bytes
// go near the bucket.
func ValidateAvatar(size int64, contentType string) error {
	if size <= 0 {
		return ErrEmptyUpload
	}
	if size > MaxAvatarSize {
		return ErrTooLarge
	}
	if !strings.HasPrefix(contentType, "image/") {
		return ErrNotAnImage
	}
	return nil
}

type AvatarStore struct {
	client    *minio.Client
	bucket    string
	publicURL string
}

func NewAvatarStore(ctx context.Context, endpoint, accessKey, secretKey, bucket, publicURL string, useSSL bool) (*AvatarStore, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("minio bucket check: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("minio make bucket: %w", err)
		}
	}

	return &AvatarStore{client: client, bucket: bucket, publicURL: strings.TrimRight(publicURL, "/")}, nil
}

// Upload validates and stores the avatar under a fresh key, returning
// its public URL.
func (s *AvatarStore) Upload(ctx context.Context, userID string, data []byte, contentType string) (string, error) {
	if err := ValidateAvatar(int64(len(data)), contentType); err != nil {
		return "", err
	}
	key := ObjectKey(userID, contentType)
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", err
	}
	return s.publicURL + "/" + path.Join(s.bucket, key), nil
}

func (s *AvatarStore) Remove(ctx context.Context, key string) error {
	return s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
}

// ObjectKey namespaces uploads per user with a random name; re-uploads
// never clobber a URL a browser may still have cached.
func ObjectKey(userID, contentType string) string {
	ext := "img"
	if i := strings.LastIndex(contentType, "/"); i >= 0 && i < len(contentType)-1 {
		ext = contentType[i+1:]
	}
	return userID + "/" + uuid.NewString() + "." + ext
}

// Package blob stores product images in an S3 compatible bucket.
package blob

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/niksmo/modelshop-admin/internal/core/domain"
	"github.com/niksmo/modelshop-admin/internal/core/port"
)

var _ port.BlobStore = (*ObjectStore)(nil)

var ErrBucketNotFound = errors.New("bucket does not exist")

// S3 error codes that mean the credential itself is wrong.
var rejectedCodes = map[string]bool{
	"InvalidAccessKeyId":    true,
	"SignatureDoesNotMatch": true,
	"AccessDenied":          true,
	"InvalidToken":          true,
	"ExpiredToken":          true,
}

type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	// PublicURL is the base URL objects are served from. Defaults to the
	// bucket URL on the endpoint.
	PublicURL string
}

// objectWriter is the part of [*minio.Client] the store needs.
type objectWriter interface {
	PutObject(
		ctx context.Context, bucket, key string, r io.Reader, size int64,
		opts minio.PutObjectOptions,
	) (minio.UploadInfo, error)
	RemoveObject(
		ctx context.Context, bucket, key string, opts minio.RemoveObjectOptions,
	) error
	BucketExists(ctx context.Context, bucket string) (bool, error)
}

type ObjectStore struct {
	client    objectWriter
	bucket    string
	publicURL string
}

// New builds the store. A missing access key, secret key or bucket is
// reported as [domain.ErrMissingCredential] without contacting the server.
func New(cfg Config) (*ObjectStore, error) {
	const op = "blob.New"

	if cfg.AccessKey == "" || cfg.SecretKey == "" || cfg.Bucket == "" {
		return nil, fmt.Errorf("%s: %w", op, domain.ErrMissingCredential)
	}

	endpoint := normalizeEndpoint(cfg.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("%s: endpoint is empty", op)
	}

	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 100,
		IdleConnTimeout:     90 * time.Second,
	}
	client, err := minio.New(endpoint, &minio.Options{
		Creds:     credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure:    cfg.UseSSL,
		Transport: transport,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	publicURL := cfg.PublicURL
	if publicURL == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		publicURL = fmt.Sprintf("%s://%s/%s", scheme, endpoint, cfg.Bucket)
	}

	return newObjectStore(client, cfg.Bucket, publicURL), nil
}

func newObjectStore(client objectWriter, bucket, publicURL string) *ObjectStore {
	return &ObjectStore{
		client:    client,
		bucket:    bucket,
		publicURL: strings.TrimRight(publicURL, "/"),
	}
}

// Ping checks that the bucket exists and the credential is accepted.
func (s *ObjectStore) Ping(ctx context.Context) error {
	const op = "ObjectStore.Ping"

	ok, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("%s: %w", op, mapError(err))
	}
	if !ok {
		return fmt.Errorf("%s: %w: %q", op, ErrBucketNotFound, s.bucket)
	}
	return nil
}

func (s *ObjectStore) Put(
	ctx context.Context, key string, data []byte, contentType string,
) (string, error) {
	const op = "ObjectStore.Put"

	_, err := s.client.PutObject(
		ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{
			ContentType:  contentType,
			CacheControl: "public, max-age=31536000, immutable",
			UserMetadata: map[string]string{"x-amz-acl": "public-read"},
		},
	)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, mapError(err))
	}

	slog.Debug("object stored", "op", op, "key", key, "size", len(data))
	return s.publicURL + "/" + key, nil
}

func (s *ObjectStore) Remove(ctx context.Context, key string) error {
	const op = "ObjectStore.Remove"

	err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
	if err != nil {
		return fmt.Errorf("%s: %w", op, mapError(err))
	}
	return nil
}

func (s *ObjectStore) KeyForURL(url string) (string, bool) {
	key, ok := strings.CutPrefix(url, s.publicURL+"/")
	if !ok || key == "" {
		return "", false
	}
	return key, true
}

func mapError(err error) error {
	if rejectedCodes[minio.ToErrorResponse(err).Code] {
		return fmt.Errorf("%w: %w", domain.ErrCredentialRejected, err)
	}
	return err
}

func normalizeEndpoint(endpoint string) string {
	endpoint = strings.TrimPrefix(strings.TrimPrefix(endpoint, "https://"), "http://")
	if i := strings.Index(endpoint, "/"); i != -1 {
		endpoint = endpoint[:i]
	}
	return endpoint
}

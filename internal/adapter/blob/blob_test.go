package blob

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/niksmo/modelshop-admin/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	putErr    error
	removeErr error
	exists    bool

	bucket string
	key    string
	body   []byte
	opts   minio.PutObjectOptions
}

func (c *fakeClient) PutObject(
	_ context.Context, bucket, key string, r io.Reader, _ int64,
	opts minio.PutObjectOptions,
) (minio.UploadInfo, error) {
	if c.putErr != nil {
		return minio.UploadInfo{}, c.putErr
	}
	body, err := io.ReadAll(r)
	if err != nil {
		return minio.UploadInfo{}, err
	}
	c.bucket, c.key, c.body, c.opts = bucket, key, body, opts
	return minio.UploadInfo{Bucket: bucket, Key: key, Size: int64(len(body))}, nil
}

func (c *fakeClient) RemoveObject(
	_ context.Context, _, key string, _ minio.RemoveObjectOptions,
) error {
	c.key = key
	return c.removeErr
}

func (c *fakeClient) BucketExists(context.Context, string) (bool, error) {
	return c.exists, c.putErr
}

func TestNew(t *testing.T) {
	t.Run("MissingCredential", func(t *testing.T) {
		_, err := New(Config{Endpoint: "localhost:9000", Bucket: "images"})
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrMissingCredential)
		assert.ErrorIs(t, err, domain.ErrConfiguration)
	})

	t.Run("DefaultPublicURL", func(t *testing.T) {
		s, err := New(Config{
			Endpoint:  "https://s3.example.com/ignored",
			AccessKey: "ak",
			SecretKey: "sk",
			Bucket:    "images",
			UseSSL:    true,
		})
		require.NoError(t, err)
		assert.Equal(t, "https://s3.example.com/images", s.publicURL)
	})
}

func TestObjectStorePut(t *testing.T) {
	t.Run("PublicReadWithContentType", func(t *testing.T) {
		c := &fakeClient{}
		s := newObjectStore(c, "images", "https://cdn.test/")

		url, err := s.Put(t.Context(), "products/a.jpg", []byte("data"), "image/jpeg")
		require.NoError(t, err)

		assert.Equal(t, "https://cdn.test/products/a.jpg", url)
		assert.Equal(t, "images", c.bucket)
		assert.Equal(t, []byte("data"), c.body)
		assert.Equal(t, "image/jpeg", c.opts.ContentType)
		assert.Equal(t, "public-read", c.opts.UserMetadata["x-amz-acl"])
	})

	t.Run("RejectedCredential", func(t *testing.T) {
		c := &fakeClient{putErr: minio.ErrorResponse{Code: "InvalidAccessKeyId"}}
		s := newObjectStore(c, "images", "https://cdn.test")

		_, err := s.Put(t.Context(), "k", []byte("x"), "image/png")
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrCredentialRejected)
		assert.ErrorIs(t, err, domain.ErrConfiguration)
	})

	t.Run("TransientError", func(t *testing.T) {
		boom := errors.New("connection reset")
		s := newObjectStore(&fakeClient{putErr: boom}, "images", "https://cdn.test")

		_, err := s.Put(t.Context(), "k", []byte("x"), "image/png")
		require.ErrorIs(t, err, boom)
		assert.NotErrorIs(t, err, domain.ErrConfiguration)
	})
}

func TestObjectStoreKeyForURL(t *testing.T) {
	s := newObjectStore(&fakeClient{}, "images", "https://cdn.test")

	key, ok := s.KeyForURL("https://cdn.test/products/a.jpg")
	assert.True(t, ok)
	assert.Equal(t, "products/a.jpg", key)

	_, ok = s.KeyForURL("https://other.test/products/a.jpg")
	assert.False(t, ok)

	_, ok = s.KeyForURL("https://cdn.test/")
	assert.False(t, ok)
}

func TestObjectStorePing(t *testing.T) {
	s := newObjectStore(&fakeClient{exists: false}, "images", "https://cdn.test")
	assert.ErrorIs(t, s.Ping(t.Context()), ErrBucketNotFound)

	s = newObjectStore(&fakeClient{exists: true}, "images", "https://cdn.test")
	assert.NoError(t, s.Ping(t.Context()))

	s = newObjectStore(
		&fakeClient{putErr: minio.ErrorResponse{Code: "AccessDenied"}}, "images", "https://cdn.test",
	)
	assert.ErrorIs(t, s.Ping(t.Context()), domain.ErrCredentialRejected)
}

func TestObjectStoreRemove(t *testing.T) {
	c := &fakeClient{}
	s := newObjectStore(c, "images", "https://cdn.test")
	require.NoError(t, s.Remove(t.Context(), "products/a.jpg"))
	assert.Equal(t, "products/a.jpg", c.key)
}

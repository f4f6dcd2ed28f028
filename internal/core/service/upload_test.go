package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/niksmo/modelshop-admin/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func stagedJPEG(payload string) domain.StagedImage {
	return domain.NewStagedImage("image/jpeg", []byte(payload))
}

func fixedClock() func() time.Time {
	t := time.UnixMilli(1700000000000)
	return func() time.Time { return t }
}

func putReturnsURLByKey(store *MockBlobStore) {
	store.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(func(_ context.Context, key string, _ []byte, _ string) string {
			return "https://cdn.test/" + key
		}, nil)
}

func TestUploadGatewayUpload(t *testing.T) {
	t.Run("PreservesOrder", func(t *testing.T) {
		store := new(MockBlobStore)
		var payloads []string
		store.On("Put", mock.Anything, mock.Anything, mock.Anything, "image/jpeg").
			Run(func(args mock.Arguments) {
				payloads = append(payloads, string(args.Get(2).([]byte)))
			}).
			Return("url", nil)

		g := NewUploadGateway(store)
		images := []domain.StagedImage{
			stagedJPEG("first"), stagedJPEG("second"), stagedJPEG("third"),
		}

		res, err := g.Upload(t.Context(), images)
		require.NoError(t, err)

		require.Len(t, res.Items, 3)
		for i, item := range res.Items {
			assert.Equal(t, i, item.Index)
			assert.NoError(t, item.Err)
		}
		assert.Equal(t, []string{"first", "second", "third"}, payloads)
		assert.Len(t, res.URLs(), 3)
	})

	t.Run("DistinctKeysWithExtension", func(t *testing.T) {
		store := new(MockBlobStore)
		putReturnsURLByKey(store)

		g := NewUploadGateway(store, KeyPrefixOpt("products"), clockOpt(fixedClock()))
		images := []domain.StagedImage{
			domain.NewStagedImage("image/png", []byte("a")),
			domain.NewStagedImage("image/x-unknown", []byte("b")),
		}

		res, err := g.Upload(t.Context(), images)
		require.NoError(t, err)
		require.Len(t, res.Uploaded(), 2)

		first, second := res.Items[0].Key, res.Items[1].Key
		assert.NotEqual(t, first, second)
		assert.True(t, strings.HasPrefix(first, "products/1700000000000-"))
		assert.True(t, strings.HasSuffix(first, ".png"))
		assert.True(t, strings.HasSuffix(second, ".bin"))
		assert.Equal(t, "https://cdn.test/"+first, res.Items[0].URL)
	})

	t.Run("SkipsMalformedEntries", func(t *testing.T) {
		store := new(MockBlobStore)
		putReturnsURLByKey(store)

		g := NewUploadGateway(store)
		images := []domain.StagedImage{
			stagedJPEG("one"),
			domain.StagedImage("not-an-image"),
			stagedJPEG("two"),
		}

		res, err := g.Upload(t.Context(), images)
		require.NoError(t, err)

		urls := res.URLs()
		require.Len(t, urls, 2)
		assert.Equal(t, res.Items[0].URL, urls[0])
		assert.Equal(t, res.Items[2].URL, urls[1])

		failed := res.Failed()
		require.Len(t, failed, 1)
		assert.Equal(t, 1, failed[0].Index)
		assert.ErrorIs(t, failed[0].Err, domain.ErrInvalidImage)
		store.AssertNumberOfCalls(t, "Put", 2)
	})

	t.Run("AllMalformed", func(t *testing.T) {
		store := new(MockBlobStore)
		g := NewUploadGateway(store)

		res, err := g.Upload(t.Context(), []domain.StagedImage{"bad", "data:text/plain;base64,aGk="})
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrNoImagesUploaded)
		assert.Len(t, res.Failed(), 2)
		store.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("EmptyInput", func(t *testing.T) {
		g := NewUploadGateway(new(MockBlobStore))
		res, err := g.Upload(t.Context(), nil)
		require.NoError(t, err)
		assert.Empty(t, res.URLs())
	})

	t.Run("MissingStore", func(t *testing.T) {
		g := NewUploadGateway(nil)
		_, err := g.Upload(t.Context(), []domain.StagedImage{stagedJPEG("x")})
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrConfiguration)
		assert.ErrorIs(t, err, domain.ErrMissingCredential)
	})

	t.Run("TransientPerItemFailure", func(t *testing.T) {
		store := new(MockBlobStore)
		boom := errors.New("connection reset")
		store.On("Put", mock.Anything, mock.Anything, []byte("one"), mock.Anything).
			Return("", boom).Once()
		store.On("Put", mock.Anything, mock.Anything, []byte("two"), mock.Anything).
			Return("https://cdn.test/two", nil).Once()

		g := NewUploadGateway(store)
		res, err := g.Upload(t.Context(), []domain.StagedImage{stagedJPEG("one"), stagedJPEG("two")})
		require.NoError(t, err)

		assert.Equal(t, []string{"https://cdn.test/two"}, res.URLs())
		require.Len(t, res.Failed(), 1)
		assert.ErrorIs(t, res.Failed()[0].Err, boom)
	})

	t.Run("CredentialRejectedRollsBack", func(t *testing.T) {
		store := new(MockBlobStore)
		store.On("Put", mock.Anything, mock.Anything, []byte("one"), mock.Anything).
			Return("https://cdn.test/one", nil).Once()
		store.On("Put", mock.Anything, mock.Anything, []byte("two"), mock.Anything).
			Return("", domain.ErrCredentialRejected).Once()
		store.On("Remove", mock.Anything, mock.Anything).Return(nil).Once()

		g := NewUploadGateway(store)
		images := []domain.StagedImage{stagedJPEG("one"), stagedJPEG("two"), stagedJPEG("three")}

		res, err := g.Upload(t.Context(), images)
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrConfiguration)
		assert.Empty(t, res.Items)

		store.AssertNumberOfCalls(t, "Put", 2)
		store.AssertNumberOfCalls(t, "Remove", 1)
	})

	t.Run("CanceledContext", func(t *testing.T) {
		store := new(MockBlobStore)
		ctx, cancel := context.WithCancel(t.Context())
		cancel()

		g := NewUploadGateway(store)
		_, err := g.Upload(ctx, []domain.StagedImage{stagedJPEG("one")})
		require.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)
		store.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestUploadGatewayDiscard(t *testing.T) {
	store := new(MockBlobStore)
	store.On("Remove", mock.Anything, "k1").Return(nil).Once()
	store.On("Remove", mock.Anything, "k3").Return(errors.New("gone")).Once()

	g := NewUploadGateway(store)
	res := domain.UploadResult{Items: []domain.UploadItem{
		{Index: 0, Key: "k1", URL: "u1"},
		{Index: 1, Err: domain.ErrInvalidImage},
		{Index: 2, Key: "k3", URL: "u3"},
	}}

	err := g.Discard(t.Context(), res)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "k3")
	store.AssertExpectations(t)
}

func TestUploadGatewayRemoveImages(t *testing.T) {
	store := new(MockBlobStore)
	store.On("KeyForURL", "https://cdn.test/products/a.jpg").Return("products/a.jpg", true)
	store.On("KeyForURL", "https://elsewhere.test/b.jpg").Return("", false)
	store.On("Remove", mock.Anything, "products/a.jpg").Return(nil).Once()

	g := NewUploadGateway(store)
	err := g.RemoveImages(t.Context(), []string{
		"https://cdn.test/products/a.jpg",
		"https://elsewhere.test/b.jpg",
	})
	require.NoError(t, err)
	store.AssertExpectations(t)
	store.AssertNumberOfCalls(t, "Remove", 1)
}

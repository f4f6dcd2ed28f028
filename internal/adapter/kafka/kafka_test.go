package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/niksmo/modelshop-admin/internal/core/domain"
	"github.com/niksmo/modelshop-admin/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"
)

type MockProducerClient struct {
	mock.Mock
}

func (m *MockProducerClient) ProduceSync(
	ctx context.Context, rs ...*kgo.Record,
) kgo.ProduceResults {
	args := m.Called(ctx, rs)
	return args.Get(0).(kgo.ProduceResults)
}

func (m *MockProducerClient) Close() {
	m.Called()
}

// jsonSerde stands in for the registry serde.
type jsonSerde struct{}

func (jsonSerde) Encode(v any) ([]byte, error) { return json.Marshal(v) }
func (jsonSerde) Decode(b []byte, v any) error  { return json.Unmarshal(b, v) }

type MockRemover struct {
	mock.Mock
}

func (m *MockRemover) RemoveImages(ctx context.Context, urls []string) error {
	args := m.Called(ctx, urls)
	return args.Error(0)
}

// refSet answers reference checks from a fixed set of shared urls.
type refSet struct {
	shared map[string]bool
	err    error
}

func (r refSet) ImageReferenced(_ context.Context, url string) (bool, error) {
	if r.err != nil {
		return false, r.err
	}
	return r.shared[url], nil
}

func newTestJanitor(rm *MockRemover, refs refSet) *ImageJanitor {
	return &ImageJanitor{opPrefix: "ImageJanitor", remover: rm, refs: refs}
}

func newTestProducer(cl ProducerClient) ProductEventsProducer {
	return ProductEventsProducer{cl: cl, encoder: jsonSerde{}, opPrefix: "ProductEventsProducer"}
}

func TestProductEventsProducer(t *testing.T) {
	evt := domain.ProductEvent{
		Type:       domain.ProductUpdated,
		ProductID:  "p1",
		Name:       "Aria",
		Images:     []string{"u1"},
		OccurredAt: time.UnixMilli(1760000000000).UTC(),
	}

	t.Run("KeyedByProductID", func(t *testing.T) {
		cl := new(MockProducerClient)
		var sent []*kgo.Record
		cl.On("ProduceSync", mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) { sent = args.Get(1).([]*kgo.Record) }).
			Return(kgo.ProduceResults{{}})

		err := newTestProducer(cl).PublishProductEvent(t.Context(), evt)
		require.NoError(t, err)

		require.Len(t, sent, 1)
		assert.Equal(t, []byte("p1"), sent[0].Key)

		var s schema.ProductEventV1
		require.NoError(t, json.Unmarshal(sent[0].Value, &s))
		assert.Equal(t, "updated", s.Type)
		assert.Equal(t, []string{"u1"}, s.Images)
	})

	t.Run("BrokerError", func(t *testing.T) {
		cl := new(MockProducerClient)
		boom := errors.New("not enough replicas")
		cl.On("ProduceSync", mock.Anything, mock.Anything).
			Return(kgo.ProduceResults{{Err: boom}})

		err := newTestProducer(cl).PublishProductEvent(t.Context(), evt)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("CanceledContext", func(t *testing.T) {
		cl := new(MockProducerClient)
		ctx, cancel := context.WithCancel(t.Context())
		cancel()

		err := newTestProducer(cl).PublishProductEvent(ctx, evt)
		assert.ErrorIs(t, err, context.Canceled)
		cl.AssertNotCalled(t, "ProduceSync", mock.Anything, mock.Anything)
	})
}

func TestImageJanitorApply(t *testing.T) {
	prev := schema.ImageSetV1{URLs: []string{"u1", "u2", "u3"}}

	t.Run("Created", func(t *testing.T) {
		rm := new(MockRemover)
		j := newTestJanitor(rm, refSet{})

		next, keep := j.apply(t.Context(), schema.ImageSetV1{}, domain.ProductEvent{
			Type: domain.ProductCreated, Images: []string{"u1"},
		})
		assert.True(t, keep)
		assert.Equal(t, []string{"u1"}, next.URLs)
		rm.AssertNotCalled(t, "RemoveImages", mock.Anything, mock.Anything)
	})

	t.Run("UpdatedRemovesDropped", func(t *testing.T) {
		rm := new(MockRemover)
		rm.On("RemoveImages", mock.Anything, []string{"u1", "u3"}).Return(nil).Once()
		j := newTestJanitor(rm, refSet{})

		next, keep := j.apply(t.Context(), prev, domain.ProductEvent{
			Type: domain.ProductUpdated, Images: []string{"u2", "u4"},
		})
		assert.True(t, keep)
		assert.Equal(t, []string{"u2", "u4"}, next.URLs)
		rm.AssertExpectations(t)
	})

	t.Run("DeletedRemovesAll", func(t *testing.T) {
		rm := new(MockRemover)
		rm.On("RemoveImages", mock.Anything, []string{"u1", "u2", "u3"}).
			Return(errors.New("bucket unreachable")).Once()
		j := newTestJanitor(rm, refSet{})

		_, keep := j.apply(t.Context(), prev, domain.ProductEvent{Type: domain.ProductDeleted})
		assert.False(t, keep)
		rm.AssertExpectations(t)
	})

	t.Run("DeletedKeepsImageOfOtherProduct", func(t *testing.T) {
		const shared = "https://cdn/products/a.jpg"
		rm := new(MockRemover)
		j := newTestJanitor(rm, refSet{shared: map[string]bool{shared: true}})

		// product A and product B were both saved with the shared image
		prevA := schema.ImageSetV1{URLs: []string{shared}}
		_, keep := j.apply(t.Context(), prevA, domain.ProductEvent{
			Type: domain.ProductDeleted, ProductID: "a",
		})
		assert.False(t, keep)
		rm.AssertNotCalled(t, "RemoveImages", mock.Anything, mock.Anything)
	})

	t.Run("UpdatedRemovesOnlyUnshared", func(t *testing.T) {
		rm := new(MockRemover)
		rm.On("RemoveImages", mock.Anything, []string{"u3"}).Return(nil).Once()
		j := newTestJanitor(rm, refSet{shared: map[string]bool{"u1": true}})

		_, keep := j.apply(t.Context(), prev, domain.ProductEvent{
			Type: domain.ProductUpdated, Images: []string{"u2"},
		})
		assert.True(t, keep)
		rm.AssertExpectations(t)
	})

	t.Run("CheckFailureKeepsImages", func(t *testing.T) {
		rm := new(MockRemover)
		j := newTestJanitor(rm, refSet{err: errors.New("db down")})

		_, keep := j.apply(t.Context(), prev, domain.ProductEvent{Type: domain.ProductDeleted})
		assert.False(t, keep)
		rm.AssertNotCalled(t, "RemoveImages", mock.Anything, mock.Anything)
	})
}

func TestCodecs(t *testing.T) {
	t.Run("ImageSet", func(t *testing.T) {
		c := newImageSetCodec()
		data, err := c.Encode(schema.ImageSetV1{URLs: []string{"a"}})
		require.NoError(t, err)

		v, err := c.Decode(data)
		require.NoError(t, err)
		assert.Equal(t, schema.ImageSetV1{URLs: []string{"a"}}, v)

		_, err = c.Encode("a")
		assert.ErrorIs(t, err, ErrInvalidValueType)
	})

	t.Run("ProductEvent", func(t *testing.T) {
		c := newProductEventCodec(jsonSerde{})
		data, err := c.Encode(schema.ProductEventV1{ProductID: "p1", Type: "created"})
		require.NoError(t, err)

		v, err := c.Decode(data)
		require.NoError(t, err)
		assert.Equal(t, "p1", v.(schema.ProductEventV1).ProductID)

		_, err = c.Encode(domain.ProductEvent{})
		assert.ErrorIs(t, err, ErrInvalidValueType)
	})
}

func TestDifference(t *testing.T) {
	assert.Equal(t, []string{"a", "c"}, difference([]string{"a", "b", "c", "a"}, []string{"b"}))
	assert.Nil(t, difference(nil, []string{"b"}))
}

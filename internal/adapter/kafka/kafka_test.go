package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
	"github.com/niksmo/storefront/pkg/schema"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"
)

// jsonSerde stands in for the registry serde.
type jsonSerde struct{}

func (jsonSerde) Encode(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonSerde) Decode(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

type MockProducerClient struct {
	mock.Mock
}

func (m *MockProducerClient) ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults {
	args := m.Called(ctx, rs)
	return args.Get(0).(kgo.ProduceResults)
}

func (m *MockProducerClient) Close() {
	m.Called()
}

type MockConsumerClient struct {
	mock.Mock
}

func (m *MockConsumerClient) PollFetches(ctx context.Context) kgo.Fetches {
	args := m.Called(ctx)
	return args.Get(0).(kgo.Fetches)
}

func (m *MockConsumerClient) Close() {
	m.Called()
}

type MockOffsetsLister struct {
	mock.Mock
}

func (m *MockOffsetsLister) ListStartOffsets(ctx context.Context, topics ...string) (kadm.ListedOffsets, error) {
	args := m.Called(ctx, topics)
	offsets, _ := args.Get(0).(kadm.ListedOffsets)
	return offsets, args.Error(1)
}

func (m *MockOffsetsLister) ListEndOffsets(ctx context.Context, topics ...string) (kadm.ListedOffsets, error) {
	args := m.Called(ctx, topics)
	offsets, _ := args.Get(0).(kadm.ListedOffsets)
	return offsets, args.Error(1)
}

func testProduct(slug string, price int64) domain.Product {
	return domain.Product{
		ID:       slug,
		Slug:     slug,
		Name:     slug,
		Price:    decimal.NewFromInt(price),
		Category: "Equipment",
	}
}

func productRecord(t *testing.T, p domain.Product, partition int32, offset int64) *kgo.Record {
	t.Helper()
	b, err := jsonSerde{}.Encode(productToSchemaV1(p))
	require.NoError(t, err)
	return &kgo.Record{Key: []byte(p.Slug), Value: b, Partition: partition, Offset: offset}
}

func tombstone(slug string, partition int32, offset int64) *kgo.Record {
	return &kgo.Record{Key: []byte(slug), Partition: partition, Offset: offset}
}

func fetchesOf(topic string, partition int32, rs ...*kgo.Record) kgo.Fetches {
	return kgo.Fetches{{
		Topics: []kgo.FetchTopic{{
			Topic: topic,
			Partitions: []kgo.FetchPartition{{
				Partition: partition,
				Records:   rs,
			}},
		}},
	}}
}

func listed(topic string, offsets map[int32]int64) kadm.ListedOffsets {
	ps := make(map[int32]kadm.ListedOffset, len(offsets))
	for p, o := range offsets {
		ps[p] = kadm.ListedOffset{Topic: topic, Partition: p, Offset: o}
	}
	return kadm.ListedOffsets{topic: ps}
}

func TestProductSchemaConversion(t *testing.T) {
	p := testProduct("barbell", 299)
	p.OriginalPrice = decimal.NewNullDecimal(decimal.RequireFromString("349.99"))
	p.Sizes = []string{"S"}

	s := productToSchemaV1(p)
	assert.Equal(t, "299", s.Price)
	require.NotNil(t, s.OriginalPrice)
	assert.Equal(t, "349.99", *s.OriginalPrice)

	back, err := schemaV1ToProduct(s)
	require.NoError(t, err)
	assert.True(t, back.Price.Equal(p.Price))
	assert.True(t, back.OriginalPrice.Decimal.Equal(p.OriginalPrice.Decimal))
	assert.Equal(t, p.Sizes, back.Sizes)

	_, err = schemaV1ToProduct(schema.ProductV1{Price: "free"})
	require.Error(t, err)
}

func TestCatalogProducer(t *testing.T) {
	ctx := context.Background()

	t.Run("TooFewOpts", func(t *testing.T) {
		_, err := NewCatalogProducer(ProducerEncoderOpt(jsonSerde{}))
		require.ErrorIs(t, err, ErrTooFewOpts)
	})

	t.Run("ProduceKeyedBySlug", func(t *testing.T) {
		cl := new(MockProducerClient)
		cl.On("ProduceSync", ctx, mock.MatchedBy(func(rs []*kgo.Record) bool {
			return len(rs) == 2 &&
				string(rs[0].Key) == "barbell" &&
				string(rs[1].Key) == "rope"
		})).Return(kgo.ProduceResults{}).Once()

		p, err := NewCatalogProducer(producerClientOpt(cl), ProducerEncoderOpt(jsonSerde{}))
		require.NoError(t, err)

		err = p.ProduceProducts(ctx, []domain.Product{
			testProduct("barbell", 299), testProduct("rope", 25),
		})
		require.NoError(t, err)
		cl.AssertExpectations(t)
	})

	t.Run("ProduceError", func(t *testing.T) {
		errBroker := errors.New("broker down")
		cl := new(MockProducerClient)
		cl.On("ProduceSync", ctx, mock.Anything).
			Return(kgo.ProduceResults{{Err: errBroker}}).Once()

		p, err := NewCatalogProducer(producerClientOpt(cl), ProducerEncoderOpt(jsonSerde{}))
		require.NoError(t, err)

		err = p.ProduceProducts(ctx, []domain.Product{testProduct("barbell", 299)})
		require.ErrorIs(t, err, errBroker)
	})

	t.Run("NothingToProduce", func(t *testing.T) {
		cl := new(MockProducerClient)
		p, err := NewCatalogProducer(producerClientOpt(cl), ProducerEncoderOpt(jsonSerde{}))
		require.NoError(t, err)

		require.NoError(t, p.ProduceProducts(ctx, nil))
		cl.AssertNotCalled(t, "ProduceSync", mock.Anything, mock.Anything)
	})
}

func TestCatalogConsumer(t *testing.T) {
	const topic = "storefront-catalog"
	ctx := context.Background()

	t.Run("TooFewOpts", func(t *testing.T) {
		_, err := NewCatalogConsumer(topic, ConsumerDecoderOpt(jsonSerde{}))
		require.ErrorIs(t, err, ErrTooFewOpts)
	})

	t.Run("LatestValueWinsAndTombstoneRemoves", func(t *testing.T) {
		lister := new(MockOffsetsLister)
		lister.On("ListStartOffsets", mock.Anything, []string{topic}).
			Return(listed(topic, map[int32]int64{0: 0}), nil)
		lister.On("ListEndOffsets", mock.Anything, []string{topic}).
			Return(listed(topic, map[int32]int64{0: 5}), nil)

		cl := new(MockConsumerClient)
		cl.On("PollFetches", ctx).Return(fetchesOf(topic, 0,
			productRecord(t, testProduct("barbell", 299), 0, 0),
			productRecord(t, testProduct("rope", 25), 0, 1),
			productRecord(t, testProduct("plates", 80), 0, 2),
		)).Once()
		cl.On("PollFetches", ctx).Return(fetchesOf(topic, 0,
			productRecord(t, testProduct("barbell", 249), 0, 3),
			tombstone("rope", 0, 4),
		)).Once()
		cl.On("Close").Once()

		c, err := NewCatalogConsumer(topic,
			consumerClientOpt(cl, lister), ConsumerDecoderOpt(jsonSerde{}))
		require.NoError(t, err)

		products, err := c.LoadProducts(ctx)
		require.NoError(t, err)
		require.Len(t, products, 2)
		assert.Equal(t, "barbell", products[0].Slug)
		assert.True(t, products[0].Price.Equal(decimal.NewFromInt(249)))
		assert.Equal(t, "plates", products[1].Slug)
		cl.AssertExpectations(t)
	})

	t.Run("EmptyTopic", func(t *testing.T) {
		lister := new(MockOffsetsLister)
		lister.On("ListStartOffsets", mock.Anything, []string{topic}).
			Return(listed(topic, map[int32]int64{0: 3}), nil)
		lister.On("ListEndOffsets", mock.Anything, []string{topic}).
			Return(listed(topic, map[int32]int64{0: 3}), nil)

		cl := new(MockConsumerClient)
		c, err := NewCatalogConsumer(topic,
			consumerClientOpt(cl, lister), ConsumerDecoderOpt(jsonSerde{}))
		require.NoError(t, err)

		products, err := c.LoadProducts(ctx)
		require.NoError(t, err)
		assert.Empty(t, products)
		cl.AssertNotCalled(t, "PollFetches", mock.Anything)
	})

	t.Run("ListOffsetsError", func(t *testing.T) {
		errAdmin := errors.New("no leader")
		lister := new(MockOffsetsLister)
		lister.On("ListStartOffsets", mock.Anything, []string{topic}).
			Return(nil, errAdmin)

		c, err := NewCatalogConsumer(topic,
			consumerClientOpt(new(MockConsumerClient), lister),
			ConsumerDecoderOpt(jsonSerde{}))
		require.NoError(t, err)

		_, err = c.LoadProducts(ctx)
		require.ErrorIs(t, err, errAdmin)
	})
}

type fakeEmitter struct {
	mu       sync.Mutex
	emitted  map[string]any
	err      error
	finished bool
}

func (e *fakeEmitter) EmitSync(key string, msg any) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.err != nil {
		return e.err
	}
	if e.emitted == nil {
		e.emitted = make(map[string]any)
	}
	e.emitted[key] = msg
	return nil
}

func (e *fakeEmitter) Finish() error {
	e.finished = true
	return nil
}

type fakeView struct {
	values  map[string]any
	running chan struct{}
}

func newFakeView(values map[string]any) *fakeView {
	return &fakeView{values: values, running: make(chan struct{})}
}

func (v *fakeView) Run(ctx context.Context) error {
	close(v.running)
	<-ctx.Done()
	return nil
}

func (v *fakeView) WaitRunning() <-chan struct{} {
	return v.running
}

func (v *fakeView) Get(key string) (any, error) {
	return v.values[key], nil
}

func TestCartTable(t *testing.T) {
	ctx := context.Background()

	t.Run("GetFromView", func(t *testing.T) {
		table := newCartTable(&fakeEmitter{}, newFakeView(map[string]any{
			"session/a/cart-storage": `{"items":[]}`,
		}))

		v, err := table.Get(ctx, "session/a/cart-storage")
		require.NoError(t, err)
		assert.Equal(t, `{"items":[]}`, v)

		_, err = table.Get(ctx, "session/b/cart-storage")
		require.ErrorIs(t, err, port.ErrKeyNotFound)
	})

	t.Run("ReadsOwnWrites", func(t *testing.T) {
		emitter := &fakeEmitter{}
		table := newCartTable(emitter, newFakeView(nil))

		require.NoError(t, table.Set(ctx, "k", "v"))
		assert.Equal(t, "v", emitter.emitted["k"])

		v, err := table.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, "v", v)
	})

	t.Run("EmitError", func(t *testing.T) {
		errEmit := errors.New("emit failed")
		table := newCartTable(&fakeEmitter{err: errEmit}, newFakeView(nil))

		require.ErrorIs(t, table.Set(ctx, "k", "v"), errEmit)
		_, err := table.Get(ctx, "k")
		require.ErrorIs(t, err, port.ErrKeyNotFound)
	})

	t.Run("UnexpectedValueType", func(t *testing.T) {
		table := newCartTable(&fakeEmitter{}, newFakeView(map[string]any{"k": 42}))
		_, err := table.Get(ctx, "k")
		require.ErrorIs(t, err, ErrInvalidValueType)
	})

	t.Run("RunAndClose", func(t *testing.T) {
		emitter := &fakeEmitter{}
		table := newCartTable(emitter, newFakeView(nil))

		runCtx, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()
		require.NoError(t, table.Run(runCtx))

		table.Close()
		assert.True(t, emitter.finished)
	})
}

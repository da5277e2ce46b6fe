package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
	"github.com/niksmo/storefront/pkg/retry"
	"github.com/niksmo/storefront/pkg/schema"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"
)

var _ port.ProductSource = (*CatalogConsumer)(nil)

type offsetsLister interface {
	ListStartOffsets(ctx context.Context, topics ...string) (kadm.ListedOffsets, error)
	ListEndOffsets(ctx context.Context, topics ...string) (kadm.ListedOffsets, error)
}

type ConsumerOpt func(*consumerOpts) error

type consumerOpts struct {
	newClient   func() (ConsumerClient, error)
	lister      offsetsLister
	closeLister func()
	decoder     Decoder
}

// ConsumerClientOpt reads the topic from its start without a group.
func ConsumerClientOpt(cfg ClientConfig, topic string) ConsumerOpt {
	return func(co *consumerOpts) error {
		admCl, err := kgo.NewClient(cfg.KgoOpts()...)
		if err != nil {
			return err
		}
		co.lister = kadm.NewClient(admCl)
		co.closeLister = admCl.Close
		co.newClient = func() (ConsumerClient, error) {
			kopts := append(cfg.KgoOpts(),
				kgo.ConsumeTopics(topic),
				kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
			)
			return kgo.NewClient(kopts...)
		}
		return nil
	}
}

func consumerClientOpt(cl ConsumerClient, lister offsetsLister) ConsumerOpt {
	return func(co *consumerOpts) error {
		co.newClient = func() (ConsumerClient, error) { return cl, nil }
		co.lister = lister
		return nil
	}
}

func ConsumerDecoderOpt(decoder Decoder) ConsumerOpt {
	return func(co *consumerOpts) error {
		if decoder == nil {
			return errors.New("decoder is nil")
		}
		co.decoder = decoder
		return nil
	}
}

func (co *consumerOpts) apply(opts ...ConsumerOpt) error {
	for _, opt := range opts {
		if err := opt(co); err != nil {
			return err
		}
	}
	if co.newClient == nil || co.lister == nil || co.decoder == nil {
		return ErrTooFewOpts
	}
	return nil
}

// A CatalogConsumer loads the catalog from the compacted catalog topic.
//
// The latest value per slug wins and a tombstone removes the product.
// Products keep the order of their first appearance.
type CatalogConsumer struct {
	opPrefix    string
	topic       string
	newClient   func() (ConsumerClient, error)
	lister      offsetsLister
	closeLister func()
	decoder     Decoder
}

func NewCatalogConsumer(topic string, opts ...ConsumerOpt) (CatalogConsumer, error) {
	const op = "NewCatalogConsumer"

	var options consumerOpts
	if err := options.apply(opts...); err != nil {
		return CatalogConsumer{}, opErr(err, op)
	}

	return CatalogConsumer{
		opPrefix:    "CatalogConsumer",
		topic:       topic,
		newClient:   options.newClient,
		lister:      options.lister,
		closeLister: options.closeLister,
		decoder:     options.decoder,
	}, nil
}

// Close releases the offsets listing client.
func (c CatalogConsumer) Close() {
	if c.closeLister != nil {
		c.closeLister()
	}
	slog.Info("consumer is closed", "op", makeOp(c.opPrefix, "Close"))
}

// LoadProducts reads the topic up to the end offsets seen at the call.
func (c CatalogConsumer) LoadProducts(ctx context.Context) ([]domain.Product, error) {
	const op = "LoadProducts"
	log := slog.With("op", makeOp(c.opPrefix, op), "topic", c.topic)

	remaining, err := c.remainingOffsets(ctx)
	if err != nil {
		return nil, opErr(err, c.opPrefix, op)
	}

	folder := newCatalogFolder()
	if len(remaining) == 0 {
		log.Warn("catalog topic is empty")
		return folder.products(), nil
	}

	cl, err := c.newClient()
	if err != nil {
		return nil, opErr(err, c.opPrefix, op)
	}
	defer cl.Close()

	for len(remaining) != 0 {
		fetches := cl.PollFetches(ctx)
		if err := fetches.Err0(); err != nil {
			return nil, opErr(err, c.opPrefix, op)
		}
		if err := handleFetchesErrs(fetches); err != nil {
			return nil, opErr(err, c.opPrefix, op)
		}

		fetches.EachRecord(func(r *kgo.Record) {
			if err := folder.apply(r, c.decoder); err != nil {
				log.Error("failed to decode value",
					"err", opErr(err, c.opPrefix, op),
					"partition", r.Partition, "offset", r.Offset)
			}
			if end, ok := remaining[r.Partition]; ok && r.Offset >= end-1 {
				delete(remaining, r.Partition)
			}
		})
	}

	products := folder.products()
	log.Info("catalog loaded", "nProducts", len(products))
	return products, nil
}

// remainingOffsets returns the end offset of each non-empty partition.
func (c CatalogConsumer) remainingOffsets(ctx context.Context) (map[int32]int64, error) {
	const op = "remainingOffsets"

	retryCfg := retry.RetryConfig{
		MaxAttempts: 3,
		Backoff:     retry.ExponentialBackoff(200 * time.Millisecond),
	}

	starts, err := retry.DoWithResult(ctx, retryCfg, func() (kadm.ListedOffsets, error) {
		return listOffsets(ctx, c.lister.ListStartOffsets, c.topic)
	})
	if err != nil {
		return nil, opErr(err, c.opPrefix, op)
	}

	ends, err := retry.DoWithResult(ctx, retryCfg, func() (kadm.ListedOffsets, error) {
		return listOffsets(ctx, c.lister.ListEndOffsets, c.topic)
	})
	if err != nil {
		return nil, opErr(err, c.opPrefix, op)
	}

	remaining := make(map[int32]int64)
	ends.Each(func(end kadm.ListedOffset) {
		start, ok := starts.Lookup(end.Topic, end.Partition)
		if ok && start.Offset >= end.Offset {
			return
		}
		if end.Offset > 0 {
			remaining[end.Partition] = end.Offset
		}
	})
	return remaining, nil
}

func listOffsets(
	ctx context.Context,
	list func(context.Context, ...string) (kadm.ListedOffsets, error),
	topic string,
) (kadm.ListedOffsets, error) {
	offsets, err := list(ctx, topic)
	if err != nil {
		return nil, err
	}
	if err := offsets.Error(); err != nil {
		return nil, err
	}
	return offsets, nil
}

func handleFetchesErrs(fetches kgo.Fetches) error {
	var errsMessages []string
	fetches.EachError(func(t string, p int32, err error) {
		if err != nil {
			errMsg := fmt.Sprintf(
				"topic %q partition %d: %q", t, p, err,
			)
			errsMessages = append(errsMessages, errMsg)
		}
	})

	if len(errsMessages) != 0 {
		return errors.New(strings.Join(errsMessages, "; "))
	}
	return nil
}

type catalogFolder struct {
	order  []string
	known  map[string]struct{}
	bySlug map[string]domain.Product
}

func newCatalogFolder() *catalogFolder {
	return &catalogFolder{
		known:  make(map[string]struct{}),
		bySlug: make(map[string]domain.Product),
	}
}

func (f *catalogFolder) apply(r *kgo.Record, decoder Decoder) error {
	slug := string(r.Key)
	if r.Value == nil {
		delete(f.bySlug, slug)
		return nil
	}

	var s schema.ProductV1
	if err := decoder.Decode(r.Value, &s); err != nil {
		return err
	}
	v, err := schemaV1ToProduct(s)
	if err != nil {
		return err
	}

	if _, ok := f.known[v.Slug]; !ok {
		f.known[v.Slug] = struct{}{}
		f.order = append(f.order, v.Slug)
	}
	f.bySlug[v.Slug] = v
	return nil
}

func (f *catalogFolder) products() []domain.Product {
	products := make([]domain.Product, 0, len(f.bySlug))
	for _, slug := range f.order {
		if v, ok := f.bySlug[slug]; ok {
			products = append(products, v)
		}
	}
	return products
}

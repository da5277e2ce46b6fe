package kafka

import (
	"context"
	"errors"
	"log/slog"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
	"github.com/twmb/franz-go/pkg/kgo"
)

var _ port.ProductsProducer = (*CatalogProducer)(nil)

type ProducerOpt func(*producerOpts) error

type producerOpts struct {
	cl      ProducerClient
	encoder Encoder
}

// ProducerClientOpt connects to the brokers and pings them.
func ProducerClientOpt(
	ctx context.Context, cfg ClientConfig, topic string,
) ProducerOpt {
	return func(opts *producerOpts) error {
		kopts := append(cfg.KgoOpts(),
			kgo.DefaultProduceTopicAlways(),
			kgo.DefaultProduceTopic(topic),
			kgo.RequiredAcks(kgo.AllISRAcks()),
		)
		cl, err := kgo.NewClient(kopts...)
		if err != nil {
			return err
		}

		if err := cl.Ping(ctx); err != nil {
			cl.Close()
			return err
		}
		opts.cl = cl
		return nil
	}
}

func producerClientOpt(cl ProducerClient) ProducerOpt {
	return func(opts *producerOpts) error {
		if cl == nil {
			return errors.New("producer client is nil")
		}
		opts.cl = cl
		return nil
	}
}

func ProducerEncoderOpt(encoder Encoder) ProducerOpt {
	return func(opts *producerOpts) error {
		if encoder == nil {
			return errors.New("encoder is nil")
		}
		opts.encoder = encoder
		return nil
	}
}

// A producer is used for composition.
//
// Producing records to kafka broker and closing underlying [kgo.Client].
type producer struct {
	opPrefix string
	cl       ProducerClient
}

func (p producer) close() {
	const op = "close"
	log := slog.With("op", makeOp(p.opPrefix, op))
	log.Info("closing producer...")
	p.cl.Close()
	log.Info("producer is closed")
}

func (p producer) produce(
	ctx context.Context, rs ...*kgo.Record,
) error {
	const op = "produce"
	res := p.cl.ProduceSync(ctx, rs...)
	if err := res.FirstErr(); err != nil {
		return opErr(err, p.opPrefix, op)
	}
	return nil
}

// A CatalogProducer publishes products keyed by slug.
type CatalogProducer struct {
	producer producer
	encoder  Encoder
	opPrefix string
}

// NewCatalogProducer requires the client and the encoder options.
func NewCatalogProducer(
	opts ...ProducerOpt,
) (CatalogProducer, error) {
	const op = "NewCatalogProducer"

	if len(opts) != 2 {
		return CatalogProducer{}, opErr(ErrTooFewOpts, op)
	}

	var options producerOpts
	for _, opt := range opts {
		if err := opt(&options); err != nil {
			return CatalogProducer{}, opErr(err, op)
		}
	}

	opPrefix := "CatalogProducer"
	p := producer{
		opPrefix: opPrefix,
		cl:       options.cl,
	}

	return CatalogProducer{
		encoder:  options.encoder,
		producer: p,
		opPrefix: opPrefix,
	}, nil
}

func (p CatalogProducer) Close() {
	p.producer.close()
}

func (p CatalogProducer) ProduceProducts(
	ctx context.Context, vs []domain.Product,
) error {
	const op = "ProduceProducts"

	if err := ctx.Err(); err != nil {
		return opErr(err, p.opPrefix, op)
	}

	if len(vs) == 0 {
		return nil
	}

	rs, err := p.createRecords(vs)
	if err != nil {
		return opErr(err, p.opPrefix, op)
	}

	if err := p.producer.produce(ctx, rs...); err != nil {
		return opErr(err, p.opPrefix, op)
	}

	slog.Info("catalog produced", "op", makeOp(p.opPrefix, op), "nProducts", len(rs))
	return nil
}

func (p CatalogProducer) createRecords(
	vs []domain.Product,
) (rs []*kgo.Record, err error) {
	const op = "createRecords"

	for _, v := range vs {
		s := productToSchemaV1(v)
		b, err := p.encoder.Encode(s)
		if err != nil {
			return nil, opErr(err, p.opPrefix, op)
		}
		r := &kgo.Record{Key: []byte(s.Slug), Value: b}
		rs = append(rs, r)
	}

	return rs, nil
}

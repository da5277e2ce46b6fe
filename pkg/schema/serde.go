package schema

import (
	"context"
	"errors"
	"fmt"

	"github.com/hamba/avro/v2"
	"github.com/twmb/franz-go/pkg/sr"
)

var (
	ErrTooFewOpts = errors.New("too few options")
)

// A Serde frames Avro payloads with the schema registry header.
type Serde interface {
	Encode(v any) ([]byte, error)
	Decode(data []byte, v any) error
}

type serde struct {
	srSerde *sr.Serde
}

func (s serde) Encode(v any) ([]byte, error) {
	return s.srSerde.Encode(v)
}

func (s serde) Decode(data []byte, v any) error {
	return s.srSerde.Decode(data, v)
}

type Opt func(*serdeOpts) error

type serdeOpts struct {
	subject string
	si      SchemaIdentifier
}

func SubjectOpt(subject string) Opt {
	return func(so *serdeOpts) error {
		if subject == "" {
			return errors.New("subject is empty string")
		}
		so.subject = subject
		return nil
	}
}

func SchemaIdentifierOpt(si SchemaIdentifier) Opt {
	return func(so *serdeOpts) error {
		if si == nil {
			return errors.New("schema identifier is nil")
		}
		so.si = si
		return nil
	}
}

// NewSerdeProductV1 requires both [SubjectOpt] and [SchemaIdentifierOpt].
func NewSerdeProductV1(ctx context.Context, opts ...Opt) (Serde, error) {
	const op = "NewSerdeProductV1"
	return serdeConstructor(
		ctx,
		ProductSchemaTextV1,
		ProductV1{},
		op,
		opts...,
	)
}

func serdeConstructor(
	ctx context.Context,
	schemaText string,
	example any,
	op string,
	opts ...Opt,
) (Serde, error) {
	var so serdeOpts
	for _, o := range opts {
		if err := o(&so); err != nil {
			return serde{}, fmt.Errorf("%s: %w", op, err)
		}
	}
	if so.subject == "" || so.si == nil {
		return serde{}, fmt.Errorf("%s: %w", op, ErrTooFewOpts)
	}

	avroSchema, err := avro.Parse(schemaText)
	if err != nil {
		return serde{}, fmt.Errorf("%s: %w", op, err)
	}

	srID, err := so.si.DetermineID(ctx, so.subject, schemaText)
	if err != nil {
		return serde{}, fmt.Errorf("%s: %w", op, err)
	}

	srSerde := new(sr.Serde)
	srSerde.Register(
		srID,
		example,
		sr.EncodeFn(AvroEncodeFn(avroSchema)),
		sr.DecodeFn(AvroDecodeFn(avroSchema)),
	)

	return serde{srSerde}, nil
}

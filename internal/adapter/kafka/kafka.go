package kafka

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"strings"

	"github.com/IBM/sarama"
	"github.com/lovoo/goka"
	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/pkg/schema"
	"github.com/shopspring/decimal"
	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/pkg/sasl/plain"
)

var (
	ErrTooFewOpts       = errors.New("too few options")
	ErrInvalidValueType = errors.New("invalid value type")
)

// A ClientConfig holds the broker connection settings.
//
// TLS and SASL are optional.
type ClientConfig struct {
	SeedBrokers []string
	TLSConfig   *tls.Config
	User        string
	Pass        string
}

// KgoOpts returns the franz-go client options for the connection.
func (c ClientConfig) KgoOpts() []kgo.Opt {
	opts := []kgo.Opt{kgo.SeedBrokers(c.SeedBrokers...)}
	if c.TLSConfig != nil {
		opts = append(opts, kgo.DialTLSConfig(c.TLSConfig))
	}
	if c.User != "" {
		auth := plain.Auth{User: c.User, Pass: c.Pass}
		opts = append(opts, kgo.SASL(auth.AsMechanism()))
	}
	return opts
}

// applySASLTLS replaces the goka global sarama config.
func applySASLTLS(tlsConfig *tls.Config, user, pass string) {
	cfg := goka.DefaultConfig()
	if tlsConfig != nil {
		cfg.Net.TLS.Enable = true
		cfg.Net.TLS.Config = tlsConfig
	}
	if user != "" {
		cfg.Net.SASL.Enable = true
		cfg.Net.SASL.Mechanism = sarama.SASLTypePlaintext
		cfg.Net.SASL.User = user
		cfg.Net.SASL.Password = pass
	}
	goka.ReplaceGlobalConfig(cfg)
}

type ProducerClient interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
	Close()
}

type ConsumerClient interface {
	PollFetches(context.Context) kgo.Fetches
	Close()
}

type Encoder interface {
	Encode(v any) ([]byte, error)
}

type Decoder interface {
	Decode(b []byte, v any) error
}

func makeOp(s ...string) string {
	return strings.Join(s, ".")
}

func opErr(err error, op ...string) error {
	return fmt.Errorf("%s: %w", makeOp(op...), err)
}

func productToSchemaV1(v domain.Product) (s schema.ProductV1) {
	s.ID = v.ID
	s.Slug = v.Slug
	s.Name = v.Name
	s.Description = v.Description
	s.Price = v.Price.String()
	if v.OriginalPrice.Valid {
		originalPrice := v.OriginalPrice.Decimal.String()
		s.OriginalPrice = &originalPrice
	}
	s.Image = v.Image
	s.Images = v.Images
	s.Category = v.Category
	s.Rating = v.Rating
	s.Reviews = v.Reviews
	s.IsNew = v.IsNew
	s.IsBestSeller = v.IsBestSeller
	s.Stock = v.Stock
	s.Sizes = v.Sizes
	s.Colors = v.Colors
	s.Tags = v.Tags
	return
}

func schemaV1ToProduct(s schema.ProductV1) (domain.Product, error) {
	price, err := decimal.NewFromString(s.Price)
	if err != nil {
		return domain.Product{}, fmt.Errorf("price: %w", err)
	}

	var originalPrice decimal.NullDecimal
	if s.OriginalPrice != nil {
		d, err := decimal.NewFromString(*s.OriginalPrice)
		if err != nil {
			return domain.Product{}, fmt.Errorf("original price: %w", err)
		}
		originalPrice = decimal.NewNullDecimal(d)
	}

	return domain.Product{
		ID:            s.ID,
		Slug:          s.Slug,
		Name:          s.Name,
		Description:   s.Description,
		Price:         price,
		OriginalPrice: originalPrice,
		Image:         s.Image,
		Images:        s.Images,
		Category:      s.Category,
		Rating:        s.Rating,
		Reviews:       s.Reviews,
		IsNew:         s.IsNew,
		IsBestSeller:  s.IsBestSeller,
		Stock:         s.Stock,
		Sizes:         s.Sizes,
		Colors:        s.Colors,
		Tags:          s.Tags,
	}, nil
}

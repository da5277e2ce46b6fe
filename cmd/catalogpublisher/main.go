// Catalogpublisher publishes the fixture catalog to the catalog topic.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/niksmo/storefront/config"
	"github.com/niksmo/storefront/internal/adapter"
	"github.com/niksmo/storefront/internal/adapter/fixture"
	"github.com/niksmo/storefront/internal/adapter/kafka"
	"github.com/niksmo/storefront/pkg/schema"
	"github.com/niksmo/storefront/pkg/sigctx"
	"github.com/twmb/franz-go/pkg/sr"
)

func main() {
	sigCtx, closeApp := sigctx.NotifyContext()
	defer closeApp()

	cfg := config.Load()

	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, opts)))

	source, err := fixture.Open(cfg.FixturePath)
	if err != nil {
		die(err)
	}
	products, err := source.LoadProducts(sigCtx)
	if err != nil {
		die(err)
	}

	srClient, err := sr.NewClient(sr.URLs(cfg.Broker.SchemaRegistryURLs...))
	if err != nil {
		die(err)
	}

	topic := cfg.Broker.Topics.Catalog
	serde, err := schema.NewSerdeProductV1(
		sigCtx,
		schema.SubjectOpt(topic+"-value"),
		schema.SchemaIdentifierOpt(schema.NewSchemaCreater(srClient)),
	)
	if err != nil {
		die(err)
	}

	clientConfig := kafka.ClientConfig{
		SeedBrokers: cfg.Broker.SeedBrokers,
		User:        cfg.Broker.User,
		Pass:        cfg.Broker.Pass,
	}
	if t := cfg.Broker.TLS; t.Enabled() {
		clientConfig.TLSConfig, err = adapter.MakeTLSConfig(t.CA, t.Cert, t.Key)
		if err != nil {
			die(err)
		}
	}

	producer, err := kafka.NewCatalogProducer(
		kafka.ProducerClientOpt(sigCtx, clientConfig, topic),
		kafka.ProducerEncoderOpt(serde),
	)
	if err != nil {
		die(err)
	}
	defer producer.Close()

	start := time.Now()
	if err := producer.ProduceProducts(sigCtx, products); err != nil {
		producer.Close()
		die(err)
	}
	fmt.Printf("published %d products to %q in %s\n",
		len(products), topic, time.Since(start))
}

func die(err error) {
	fmt.Printf("failed to publish catalog: %v\n", err)
	os.Exit(1)
}

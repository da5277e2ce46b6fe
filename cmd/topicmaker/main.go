package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/niksmo/storefront/config"
	"github.com/niksmo/storefront/internal/adapter"
	"github.com/niksmo/storefront/internal/adapter/kafka"
	"github.com/niksmo/storefront/pkg/sigctx"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
)

const (
	replicationFactor = 3
	compact           = "compact"

	// the catalog keeps the publishing order in a single partition
	catalogPartitions   = 1
	cartTablePartitions = 3
)

func main() {
	sigCtx, closeApp := sigctx.NotifyContext()
	defer closeApp()

	cfg := config.Load()

	cl := createClient(cfg)
	defer cl.Close()

	printStart(cfg)
	defer printComplete(time.Now())

	err := makeTopics(
		sigCtx, cl, catalogPartitions, compact,
		cfg.Broker.Topics.Catalog,
	)
	if err != nil {
		printFail(err)
		return
	}

	err = makeTopics(
		sigCtx, cl, cartTablePartitions, compact,
		cfg.Broker.Topics.CartTable,
	)
	if err != nil {
		printFail(err)
		return
	}
}

func createClient(cfg config.Config) *kadm.Client {
	clientConfig := kafka.ClientConfig{
		SeedBrokers: cfg.Broker.SeedBrokers,
		User:        cfg.Broker.User,
		Pass:        cfg.Broker.Pass,
	}
	if t := cfg.Broker.TLS; t.Enabled() {
		tlsConfig, err := adapter.MakeTLSConfig(t.CA, t.Cert, t.Key)
		if err != nil {
			panic(err)
		}
		clientConfig.TLSConfig = tlsConfig
	}

	cl, err := kadm.NewOptClient(clientConfig.KgoOpts()...)
	if err != nil {
		panic(err) // develop mistake
	}
	return cl
}

func makeTopics(
	ctx context.Context,
	cl *kadm.Client,
	partitions int32,
	cleanupPolicy string,
	topics ...string,
) error {
	var (
		minISR = "1"
	)

	config := map[string]*string{
		"cleanup.policy":      &cleanupPolicy,
		"min.insync.replicas": &minISR,
	}

	responses, err := cl.CreateTopics(
		ctx,
		partitions,
		replicationFactor,
		config,
		topics...,
	)

	if err != nil {
		return err
	}

	var errs []error
	for _, res := range responses.Sorted() {
		err := res.Err
		if err != nil {
			if errors.Is(res.Err, kerr.TopicAlreadyExists) {
				fmt.Printf("topic: %q already exists\n", res.Topic)
			} else {
				errs = append(errs, err)
			}
			continue
		}
		fmt.Printf("topic: %q successfully created\n", res.Topic)
	}

	return errors.Join(errs...)
}

func printStart(cfg config.Config) {
	fmt.Printf(`initializing topics...
	- %q
	- %q

`,
		cfg.Broker.Topics.Catalog,
		cfg.Broker.Topics.CartTable,
	)
}

func printComplete(start time.Time) {
	fmt.Printf("\ncomplete in %s\n", time.Since(start))
}

func printFail(err error) {
	fmt.Printf("failed to create topics: \n%s\n", err)
}

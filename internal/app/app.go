package app

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/niksmo/storefront/config"
	"github.com/niksmo/storefront/internal/adapter"
	"github.com/niksmo/storefront/internal/adapter/fixture"
	"github.com/niksmo/storefront/internal/adapter/httphandler"
	"github.com/niksmo/storefront/internal/adapter/kafka"
	"github.com/niksmo/storefront/internal/adapter/storage"
	"github.com/niksmo/storefront/internal/core/port"
	"github.com/niksmo/storefront/internal/core/service"
	"github.com/niksmo/storefront/pkg/schema"
	"github.com/redis/go-redis/v9"
	"github.com/twmb/franz-go/pkg/sr"
)

type sources struct {
	products port.ProductSource
	reviews  port.ReviewSource
	closeFn  func()
}

type App struct {
	ctx         context.Context
	cfg         config.Config
	tlsConfig   *tls.Config
	sources     sources
	cartStorage port.ClosableStorage
	service     *service.Service
	httpServer  httphandler.HTTPServer
}

func New(ctx context.Context, cfg config.Config) *App {
	app := &App{ctx: ctx, cfg: cfg}

	app.initLogger()
	app.initTLS()
	app.initSources()
	app.initCartStorage()
	app.initCoreService()
	app.initInboundAdapters()

	return app
}

func (app *App) initLogger() {
	opts := &slog.HandlerOptions{Level: app.cfg.LogLevel}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, opts))
	slog.SetDefault(logger)
}

func (app *App) initTLS() {
	const op = "App.initTLS"

	t := app.cfg.Broker.TLS
	if !t.Enabled() {
		return
	}
	tlsConfig, err := adapter.MakeTLSConfig(t.CA, t.Cert, t.Key)
	if err != nil {
		app.fallDown(op, err)
	}
	app.tlsConfig = tlsConfig
}

func (app *App) clientConfig() kafka.ClientConfig {
	return kafka.ClientConfig{
		SeedBrokers: app.cfg.Broker.SeedBrokers,
		TLSConfig:   app.tlsConfig,
		User:        app.cfg.Broker.User,
		Pass:        app.cfg.Broker.Pass,
	}
}

func (app *App) initSources() {
	const op = "App.initSources"

	// reviews are static content in both modes
	fixtureSource, err := fixture.Open(app.cfg.FixturePath)
	if err != nil {
		app.fallDown(op, err)
	}
	app.sources = sources{
		products: fixtureSource,
		reviews:  fixtureSource,
		closeFn:  func() {},
	}

	if app.cfg.CatalogSource != config.CatalogSourceKafka {
		return
	}

	srClient, err := sr.NewClient(sr.URLs(app.cfg.Broker.SchemaRegistryURLs...))
	if err != nil {
		app.fallDown(op, err)
	}

	topic := app.cfg.Broker.Topics.Catalog
	productSerde, err := schema.NewSerdeProductV1(
		app.ctx,
		schema.SubjectOpt(topic+"-value"),
		schema.SchemaIdentifierOpt(schema.NewSchemaCreater(srClient)),
	)
	if err != nil {
		app.fallDown(op, err)
	}

	consumer, err := kafka.NewCatalogConsumer(
		topic,
		kafka.ConsumerClientOpt(app.clientConfig(), topic),
		kafka.ConsumerDecoderOpt(productSerde),
	)
	if err != nil {
		app.fallDown(op, err)
	}

	app.sources.products = consumer
	app.sources.closeFn = consumer.Close
}

func (app *App) initCartStorage() {
	const op = "App.initCartStorage"

	switch app.cfg.CartStorage {
	case config.CartStorageRedis:
		r := app.cfg.Redis
		s, err := storage.NewRedisStorage(
			app.ctx,
			&redis.Options{Addr: r.Addr, Password: r.Password, DB: r.DB},
			storage.RedisPrefixOpt(r.Prefix),
			storage.RedisTTLOpt(r.TTL),
		)
		if err != nil {
			app.fallDown(op, err)
		}
		app.cartStorage = s

	case config.CartStorageSQL:
		s, err := storage.NewSQLStorage(app.ctx, app.cfg.SQLDB)
		if err != nil {
			app.fallDown(op, err)
		}
		app.cartStorage = s

	case config.CartStorageKafka:
		t, err := kafka.NewCartTable(kafka.CartTableConfig{
			SeedBrokers: app.cfg.Broker.SeedBrokers,
			Topic:       app.cfg.Broker.Topics.CartTable,
			TLSConfig:   app.tlsConfig,
			User:        app.cfg.Broker.User,
			Pass:        app.cfg.Broker.Pass,
		})
		if err != nil {
			app.fallDown(op, err)
		}
		if err := t.Run(app.ctx); err != nil {
			t.Close()
			app.fallDown(op, err)
		}
		app.cartStorage = t

	default:
		app.cartStorage = storage.NewMemoryStorage()
	}
}

func (app *App) initCoreService() {
	const op = "App.initCoreService"

	s, err := service.New(
		app.ctx,
		app.sources.products,
		app.sources.reviews,
		app.cartStorage,
		service.SearchDelayOpt(app.cfg.SearchDelay),
		service.SessionTTLOpt(app.cfg.SessionTTL),
	)
	app.sources.closeFn()
	if err != nil {
		app.cartStorage.Close()
		app.fallDown(op, err)
	}
	app.service = s
}

func (app *App) initInboundAdapters() {
	mux := http.NewServeMux()
	httphandler.Register(mux, app.service)

	handler := httphandler.WithSession(httphandler.AllowJSON(mux))
	app.httpServer = httphandler.NewHTTPServer(app.cfg.HTTPServerAddr, handler)
}

func (app *App) Run(stopFn context.CancelFunc) {
	go app.httpServer.Run(stopFn)

	slog.Info("application is running")
}

func (app *App) Close(ctx context.Context) {
	slog.Info("application is closing...")

	app.httpServer.Close(ctx)
	app.service.Close()
	app.cartStorage.Close()

	slog.Info("application is closed")
}

func (app *App) fallDown(op string, err error) {
	panic(fmt.Errorf("%s: %w", op, err))
}

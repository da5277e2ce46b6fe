package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const configFileEnvName = "STOREFRONT_CONFIG_FILE"

const (
	CatalogSourceFixture = "fixture"
	CatalogSourceKafka   = "kafka"

	CartStorageMemory = "memory"
	CartStorageRedis  = "redis"
	CartStorageSQL    = "sql"
	CartStorageKafka  = "kafka"
)

var ErrInvalidConfig = errors.New("invalid config")

type topics struct {
	Catalog   string `mapstructure:"catalog"`
	CartTable string `mapstructure:"cart_table"`
}

type brokerTLS struct {
	CA   string `mapstructure:"ca"`
	Cert string `mapstructure:"cert"`
	Key  string `mapstructure:"key"`
}

func (t brokerTLS) Enabled() bool {
	return t.CA != ""
}

type broker struct {
	SeedBrokers        []string  `mapstructure:"seed_brokers"`
	SchemaRegistryURLs []string  `mapstructure:"schema_registry_urls"`
	User               string    `mapstructure:"user"`
	Pass               string    `mapstructure:"pass"`
	TLS                brokerTLS `mapstructure:"tls"`
	Topics             topics    `mapstructure:"topics"`
}

type redis struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Prefix   string        `mapstructure:"prefix"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type Config struct {
	LogLevel       slog.Level    `mapstructure:"log_level"`
	HTTPServerAddr string        `mapstructure:"http_server_addr"`
	CatalogSource  string        `mapstructure:"catalog_source"`
	FixturePath    string        `mapstructure:"fixture_path"`
	CartStorage    string        `mapstructure:"cart_storage"`
	SearchDelay    time.Duration `mapstructure:"search_delay"`
	SessionTTL     time.Duration `mapstructure:"session_ttl"`
	CloseTimeout   time.Duration `mapstructure:"close_timeout"`
	SQLDB          string        `mapstructure:"sql_db"`
	Redis          redis         `mapstructure:"redis"`
	Broker         broker        `mapstructure:"broker"`
}

func Load() Config {
	cfg, err := LoadFile(getConfigFilepath())
	if err != nil {
		die(err)
	}
	return cfg
}

// LoadFile reads the file over the defaults and validates the result.
func LoadFile(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, err
	}

	var cfg Config
	err := v.UnmarshalExact(&cfg, viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			mapstructure.TextUnmarshallerHookFunc(),
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	))
	if err != nil {
		return Config{}, err
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("http_server_addr", ":8000")
	v.SetDefault("catalog_source", CatalogSourceFixture)
	v.SetDefault("fixture_path", "data/catalog.yaml")
	v.SetDefault("cart_storage", CartStorageMemory)
	v.SetDefault("search_delay", "300ms")
	v.SetDefault("session_ttl", "30m")
	v.SetDefault("close_timeout", "5s")
	v.SetDefault("redis.prefix", "storefront:")
	v.SetDefault("broker.topics.catalog", "storefront-catalog")
	v.SetDefault("broker.topics.cart_table", "storefront-cart-table")
}

func (c Config) validate() error {
	var errs []error

	if c.SessionTTL < 0 {
		errs = append(errs, errors.New("session_ttl: must not be negative"))
	}

	switch c.CatalogSource {
	case CatalogSourceFixture:
		if c.FixturePath == "" {
			errs = append(errs, errors.New("fixture_path: required"))
		}
	case CatalogSourceKafka:
		if len(c.Broker.SeedBrokers) == 0 {
			errs = append(errs, errors.New("broker.seed_brokers: required"))
		}
	default:
		errs = append(errs, fmt.Errorf("catalog_source: unknown %q", c.CatalogSource))
	}

	switch c.CartStorage {
	case CartStorageMemory:
	case CartStorageRedis:
		if c.Redis.Addr == "" {
			errs = append(errs, errors.New("redis.addr: required"))
		}
	case CartStorageSQL:
		if c.SQLDB == "" {
			errs = append(errs, errors.New("sql_db: required"))
		}
	case CartStorageKafka:
		if len(c.Broker.SeedBrokers) == 0 {
			errs = append(errs, errors.New("broker.seed_brokers: required"))
		}
	default:
		errs = append(errs, fmt.Errorf("cart_storage: unknown %q", c.CartStorage))
	}

	if len(errs) != 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

func getConfigFilepath() string {
	cmdLine := pflag.NewFlagSet(os.Args[0], pflag.ExitOnError)
	arg := cmdLine.String("config", "/config.yaml", "config file")
	_ = cmdLine.Parse(os.Args[1:])
	env, ok := os.LookupEnv(configFileEnvName)
	if ok {
		return env
	}
	return *arg
}

func die(err error) {
	fmt.Printf("failed to load config file: %v\n", err)
	os.Exit(2)
}

func (c Config) Print() {
	tamplate := `
	General:
	LogLevel=%q
	HTTPServerAddr=%q
	CatalogSource=%q
	FixturePath=%q
	CartStorage=%q
	SearchDelay=%q
	SessionTTL=%q
	CloseTimeout=%q
	SQLDB=%q

	Redis:
	Addr=%q
	DB=%d
	Prefix=%q
	TTL=%q

	BrokerConfig:
	SeedBrokers=%q
	SchemaRegistryURLs=%q
	TLS=%t
	SASL=%t
	Topics:
		Catalog=%q
		CartTable=%q

`
	fmt.Println("Loaded config:")
	fmt.Printf(
		strings.TrimLeft(tamplate, "\n"),
		c.LogLevel,
		c.HTTPServerAddr,
		c.CatalogSource,
		c.FixturePath,
		c.CartStorage,
		c.SearchDelay,
		c.SessionTTL,
		c.CloseTimeout,
		maskDSN(c.SQLDB),
		c.Redis.Addr,
		c.Redis.DB,
		c.Redis.Prefix,
		c.Redis.TTL,
		c.Broker.SeedBrokers,
		c.Broker.SchemaRegistryURLs,
		c.Broker.TLS.Enabled(),
		c.Broker.User != "",
		c.Broker.Topics.Catalog,
		c.Broker.Topics.CartTable,
	)
}

// maskDSN hides the password of a URL-form DSN.
func maskDSN(dsn string) string {
	scheme, rest, ok := strings.Cut(dsn, "://")
	if !ok {
		return dsn
	}
	userinfo, host, ok := strings.Cut(rest, "@")
	if !ok {
		return dsn
	}
	user, _, hasPass := strings.Cut(userinfo, ":")
	if !hasPass {
		return dsn
	}
	return scheme + "://" + user + ":***@" + host
}

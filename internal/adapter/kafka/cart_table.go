package kafka

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/lovoo/goka"
	"github.com/lovoo/goka/codec"
	"github.com/niksmo/storefront/internal/core/port"
)

var _ port.ClosableStorage = (*CartTable)(nil)

var ErrViewStopped = errors.New("view stopped")

// A CartTableConfig used for setup [CartTable].
//
// TLSConfig, User and Pass are optional.
type CartTableConfig struct {
	SeedBrokers []string
	Topic       string
	TLSConfig   *tls.Config
	User        string
	Pass        string
}

type tableEmitter interface {
	EmitSync(key string, msg any) error
	Finish() error
}

type tableView interface {
	Run(ctx context.Context) error
	WaitRunning() <-chan struct{}
	Get(key string) (any, error)
}

// A CartTable stores the saved carts in a compacted topic.
//
// Writes go through a goka emitter and reads through a goka view.
// The view catches up asynchronously so the values written by this
// process are served from memory until the view reflects them.
type CartTable struct {
	opPrefix string
	ge       tableEmitter
	gv       tableView

	mu      sync.RWMutex
	written map[string]string

	cancel context.CancelFunc
	done   chan struct{}
}

func NewCartTable(config CartTableConfig) (*CartTable, error) {
	const op = "NewCartTable"

	applySASLTLS(config.TLSConfig, config.User, config.Pass)

	ge, err := goka.NewEmitter(
		config.SeedBrokers,
		goka.Stream(config.Topic),
		new(codec.String),
	)
	if err != nil {
		return nil, opErr(err, op)
	}

	gv, err := goka.NewView(
		config.SeedBrokers,
		goka.Table(config.Topic),
		new(codec.String),
	)
	if err != nil {
		_ = ge.Finish()
		return nil, opErr(err, op)
	}

	return newCartTable(ge, gv), nil
}

func newCartTable(ge tableEmitter, gv tableView) *CartTable {
	return &CartTable{
		opPrefix: "CartTable",
		ge:       ge,
		gv:       gv,
		written:  make(map[string]string),
		done:     make(chan struct{}),
	}
}

// Run starts the view and waits until it has recovered the table.
func (t *CartTable) Run(ctx context.Context) error {
	const op = "Run"
	log := slog.With("op", makeOp(t.opPrefix, op))

	ctx, t.cancel = context.WithCancel(ctx)
	go func() {
		defer close(t.done)
		if err := t.gv.Run(ctx); err != nil {
			log.Error("unexpected fail on run", "err", err)
			return
		}
		log.Info("stopped")
	}()

	log.Info("recovering...")
	select {
	case <-t.gv.WaitRunning():
	case <-t.done:
		return opErr(ErrViewStopped, t.opPrefix, op)
	case <-ctx.Done():
		return opErr(ctx.Err(), t.opPrefix, op)
	}
	log.Info("running")
	return nil
}

func (t *CartTable) Get(ctx context.Context, key string) (string, error) {
	const op = "Get"

	if err := ctx.Err(); err != nil {
		return "", opErr(err, t.opPrefix, op)
	}

	t.mu.RLock()
	v, ok := t.written[key]
	t.mu.RUnlock()
	if ok {
		return v, nil
	}

	value, err := t.gv.Get(key)
	if err != nil {
		return "", opErr(err, t.opPrefix, op)
	}
	if value == nil {
		return "", opErr(port.ErrKeyNotFound, t.opPrefix, op)
	}

	s, ok := value.(string)
	if !ok {
		err := fmt.Errorf("%w: %T", ErrInvalidValueType, value)
		return "", opErr(err, t.opPrefix, op)
	}
	return s, nil
}

func (t *CartTable) Set(ctx context.Context, key, value string) error {
	const op = "Set"

	if err := ctx.Err(); err != nil {
		return opErr(err, t.opPrefix, op)
	}

	if err := t.ge.EmitSync(key, value); err != nil {
		return opErr(err, t.opPrefix, op)
	}

	t.mu.Lock()
	t.written[key] = value
	t.mu.Unlock()
	return nil
}

func (t *CartTable) Close() {
	const op = "Close"
	log := slog.With("op", makeOp(t.opPrefix, op))

	log.Info("closing emitter...")
	if err := t.ge.Finish(); err != nil {
		log.Error("failed to finish gracefully", "err", err)
	}

	if t.cancel != nil {
		log.Info("stopping view...")
		t.cancel()
		<-t.done
	}
	log.Info("cart table is closed")
}

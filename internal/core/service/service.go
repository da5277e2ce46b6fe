package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/niksmo/storefront/internal/core/cart"
	"github.com/niksmo/storefront/internal/core/catalog"
	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
	"github.com/niksmo/storefront/internal/core/review"
	"github.com/niksmo/storefront/internal/core/search"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrEmptySessionID  = errors.New("empty session id")
	ErrServiceClosed   = errors.New("service closed")
)

// A Session is one storefront visitor's set of stores.
type Session struct {
	ID      string
	Catalog *catalog.Store
	Cart    *cart.Store
	Search  *search.Engine

	// guarded by Service.mu
	lastSeen time.Time
}

func (s *Session) close() {
	s.Search.Close()
	s.Cart.Close()
	s.Catalog.Close()
}

// ProductDetails is what the product page shows.
type ProductDetails struct {
	Product domain.Product
	Related []domain.Product
}

// A Service owns the immutable catalog and the sessions built on it.
type Service struct {
	products    []domain.Product
	reviews     review.Catalog
	storage     port.KeyValueStorage
	searchDelay time.Duration
	sessionTTL  time.Duration

	mu        sync.Mutex
	sessions  map[string]*Session
	closed    bool
	stopSweep chan struct{}
	sweepDone chan struct{}
}

type Opt func(*Service)

func SearchDelayOpt(d time.Duration) Opt {
	return func(s *Service) {
		s.searchDelay = d
	}
}

// SessionTTLOpt evicts the sessions idle for ttl.
// Zero keeps sessions until [Service.Drop] or [Service.Close].
func SessionTTLOpt(ttl time.Duration) Opt {
	return func(s *Service) {
		s.sessionTTL = max(ttl, 0)
	}
}

// New loads the catalog and the reviews from the sources.
func New(
	ctx context.Context,
	products port.ProductSource,
	reviews port.ReviewSource,
	storage port.KeyValueStorage,
	opts ...Opt,
) (*Service, error) {
	const op = "service.New"
	log := slog.With("op", op)

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	ps, err := products.LoadProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to load products: %w", op, err)
	}

	rs, summaries, err := reviews.LoadReviews(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to load reviews: %w", op, err)
	}

	s := &Service{
		products:    ps,
		reviews:     review.NewCatalog(rs, summaries),
		storage:     storage,
		searchDelay: search.DefaultDelay,
		sessions:    make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.sessionTTL > 0 {
		s.stopSweep = make(chan struct{})
		s.sweepDone = make(chan struct{})
		go s.sweep(max(s.sessionTTL/2, time.Millisecond))
	}

	log.Info("catalog loaded", "nProducts", len(ps), "nReviewed", len(rs))
	return s, nil
}

// Session returns the session stores, creating them on first use.
func (s *Service) Session(ctx context.Context, id string) (*Session, error) {
	const op = "Service.Session"

	if id == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrEmptySessionID)
	}

	sess, err := s.touch(id)
	if sess != nil || err != nil {
		return sess, err
	}

	// the cart is restored from the storage outside the lock
	created := s.newSession(ctx, id)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		created.close()
		return nil, fmt.Errorf("%s: %w", op, ErrServiceClosed)
	}
	if sess, ok := s.sessions[id]; ok {
		sess.lastSeen = time.Now()
		s.mu.Unlock()
		created.close()
		return sess, nil
	}
	created.lastSeen = time.Now()
	s.sessions[id] = created
	s.mu.Unlock()

	slog.Debug("session created", "op", op, "session", id)
	return created, nil
}

// touch returns the existing session and refreshes its idle time.
func (s *Service) touch(id string) (*Session, error) {
	const op = "Service.Session"

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, fmt.Errorf("%s: %w", op, ErrServiceClosed)
	}
	sess, ok := s.sessions[id]
	if !ok {
		return nil, nil
	}
	sess.lastSeen = time.Now()
	return sess, nil
}

func (s *Service) newSession(ctx context.Context, id string) *Session {
	catalogStore := catalog.New(s.products)
	return &Session{
		ID:      id,
		Catalog: catalogStore,
		Cart:    cart.New(ctx, scopedStorage{s.storage, sessionPrefix(id)}),
		Search:  search.NewEngine(catalogStore, search.DelayOpt(s.searchDelay)),
	}
}

// Drop disposes the session stores. The saved cart stays in the storage.
func (s *Service) Drop(id string) {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	if ok {
		sess.close()
	}
}

// EvictIdle drops the sessions not accessed within the session TTL
// before now and returns how many were dropped.
// It is a no-op without [SessionTTLOpt].
func (s *Service) EvictIdle(now time.Time) int {
	if s.sessionTTL <= 0 {
		return 0
	}

	var idle []*Session
	s.mu.Lock()
	for id, sess := range s.sessions {
		if now.Sub(sess.lastSeen) >= s.sessionTTL {
			idle = append(idle, sess)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for _, sess := range idle {
		sess.close()
	}
	return len(idle)
}

func (s *Service) sweep(interval time.Duration) {
	const op = "Service.sweep"
	log := slog.With("op", op)

	defer close(s.sweepDone)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopSweep:
			return
		case now := <-ticker.C:
			if n := s.EvictIdle(now); n != 0 {
				log.Debug("idle sessions evicted", "nEvicted", n)
			}
		}
	}
}

// Close disposes all sessions. Later [Service.Session] calls fail.
func (s *Service) Close() {
	const op = "Service.Close"
	log := slog.With("op", op)

	s.mu.Lock()
	sessions := s.sessions
	s.sessions = make(map[string]*Session)
	s.closed = true
	stopSweep := s.stopSweep
	s.stopSweep = nil
	s.mu.Unlock()

	if stopSweep != nil {
		close(stopSweep)
		<-s.sweepDone
	}

	for _, sess := range sessions {
		sess.close()
	}
	log.Info("sessions are closed", "nSessions", len(sessions))
}

func (s *Service) Products() []domain.Product {
	return s.products
}

func (s *Service) Categories() []string {
	return catalog.Categories(s.products)
}

func (s *Service) Facets() catalog.Facets {
	return catalog.CatalogFacets(s.products)
}

func (s *Service) Product(slug string) (ProductDetails, error) {
	const op = "Service.Product"

	p, ok := catalog.FindBySlug(s.products, slug)
	if !ok {
		return ProductDetails{}, fmt.Errorf("%s: %w: %q", op, ErrProductNotFound, slug)
	}
	return ProductDetails{
		Product: p,
		Related: catalog.Related(s.products, p, catalog.DefaultRelatedLimit),
	}, nil
}

// ProductByID finds the product a cart line refers to.
func (s *Service) ProductByID(id string) (domain.Product, error) {
	const op = "Service.ProductByID"

	for _, p := range s.products {
		if p.ID == id {
			return p, nil
		}
	}
	return domain.Product{}, fmt.Errorf("%s: %w: id %q", op, ErrProductNotFound, id)
}

// Reviews returns the ordered reviews and the summary of the product.
// The summary is nil when the product has no reviews.
func (s *Service) Reviews(
	slug string, order review.Order, limit int,
) ([]domain.Review, *domain.ReviewSummary, error) {
	const op = "Service.Reviews"

	if _, ok := catalog.FindBySlug(s.products, slug); !ok {
		return nil, nil, fmt.Errorf("%s: %w: %q", op, ErrProductNotFound, slug)
	}

	rs := s.reviews.Reviews(slug, order, limit)
	summary, ok := s.reviews.Summary(slug)
	if !ok {
		return rs, nil, nil
	}
	return rs, &summary, nil
}

package coordinator

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"kycflow/internal/audit"
	"kycflow/internal/onboarding/identity"
	"kycflow/internal/onboarding/store"
	dErrors "kycflow/pkg/domain-errors"
)

// Manager owns the live coordinators. Evicted sessions are rebuilt from the
// store on their next request.
type Manager struct {
	backend Backend
	kv      store.Store
	opts    []Option
	logger  *slog.Logger
	auditor AuditPublisher

	// mu guards check-then-add on cache; it is never held across store I/O.
	mu    sync.Mutex
	cache *lru.Cache[string, *Coordinator]
	loads singleflight.Group
}

type ManagerOption func(*Manager)

func WithManagerLogger(logger *slog.Logger) ManagerOption {
	return func(m *Manager) {
		m.logger = logger
	}
}

func WithManagerAuditPublisher(p AuditPublisher) ManagerOption {
	return func(m *Manager) {
		m.auditor = p
	}
}

// WithCoordinatorOptions sets the options every coordinator is built with.
func WithCoordinatorOptions(opts ...Option) ManagerOption {
	return func(m *Manager) {
		m.opts = append(m.opts, opts...)
	}
}

func NewManager(backend Backend, kv store.Store, size int, opts ...ManagerOption) (*Manager, error) {
	m := &Manager{
		backend: backend,
		kv:      kv,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	cache, err := lru.New[string, *Coordinator](size)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create session cache")
	}
	m.cache = cache
	return m, nil
}

func (m *Manager) build(sessionID string) *Coordinator {
	opts := append([]Option{WithLogger(m.logger)}, m.opts...)
	if m.auditor != nil {
		opts = append(opts, WithAuditPublisher(m.auditor))
	}
	return New(sessionID, m.backend, m.kv, opts...)
}

// Open creates a new session. device describes the client it was opened from.
func (m *Manager) Open(ctx context.Context, device string) (*Coordinator, error) {
	sessionID := uuid.NewString()
	c := m.build(sessionID)
	// An empty identity marks the session as existing in the store.
	if err := c.steps.SaveIdentity(ctx, identity.Snapshot{}); err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.cache.Add(sessionID, c)
	m.mu.Unlock()

	var emitter audit.Emitter
	if m.auditor != nil {
		emitter = m.auditor
	}
	audit.Log(ctx, m.logger, emitter, audit.Event{
		Action:    audit.ActionSessionOpened,
		SessionID: sessionID,
		Device:    device,
	})
	return c, nil
}

// Get returns the live coordinator for sessionID, loading it from the store
// when it is not cached. Concurrent misses for one session share a load.
func (m *Manager) Get(ctx context.Context, sessionID string) (*Coordinator, error) {
	m.mu.Lock()
	c, ok := m.cache.Get(sessionID)
	m.mu.Unlock()
	if ok {
		return c, nil
	}

	v, err, _ := m.loads.Do(sessionID, func() (any, error) {
		return m.load(context.WithoutCancel(ctx), sessionID)
	})
	if err != nil {
		return nil, err
	}
	loaded := v.(*Coordinator)

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.cache.Get(sessionID); ok {
		return existing, nil
	}
	m.cache.Add(sessionID, loaded)
	return loaded, nil
}

func (m *Manager) load(ctx context.Context, sessionID string) (*Coordinator, error) {
	all, err := m.kv.GetAll(ctx, sessionID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up session")
	}
	if len(all) == 0 {
		return nil, dErrors.New(dErrors.CodeNotFound, "session not found")
	}
	c := m.build(sessionID)
	if err := c.Load(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// Close drops the session from the cache and the store.
func (m *Manager) Close(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	m.cache.Remove(sessionID)
	m.mu.Unlock()
	return m.build(sessionID).steps.Clear(ctx)
}

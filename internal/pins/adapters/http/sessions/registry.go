package sessions

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"pinboard/internal/pins/app"
	"pinboard/internal/pins/domain/entities"
	"pinboard/internal/pins/ports/repositories"
	"pinboard/internal/pins/ports/services"
	"pinboard/pkg/logger"
)

// ErrSessionNotFound возвращается для неизвестного идентификатора сессии.
var ErrSessionNotFound = errors.New("session not found")

// Ограничения реестра по умолчанию.
const (
	DefaultIdleTTL     = 30 * time.Minute
	DefaultMaxSessions = 1000
)

type entry struct {
	session  *app.Session
	view     *recordingView
	lastUsed time.Time
}

// Option настраивает реестр.
type Option func(*Registry)

// WithIdleTTL задает время простоя, после которого сессия удаляется. 0 отключает удаление по времени.
func WithIdleTTL(ttl time.Duration) Option {
	return func(r *Registry) { r.idleTTL = ttl }
}

// WithMaxSessions ограничивает число сессий; при переполнении удаляется самая давняя. 0 снимает ограничение.
func WithMaxSessions(n int) Option {
	return func(r *Registry) { r.maxSessions = n }
}

// Registry хранит сессии клиентов оверлея по идентификатору.
type Registry struct {
	repo        repositories.RecordRepository
	fingerprint services.Fingerprinter
	config      app.SessionConfig
	now         func() time.Time
	idleTTL     time.Duration
	maxSessions int

	mu       sync.Mutex
	sessions map[string]*entry
}

// NewRegistry создает реестр сессий над общим хранилищем записей.
func NewRegistry(
	repo repositories.RecordRepository,
	fingerprint services.Fingerprinter,
	config app.SessionConfig,
	now func() time.Time,
	opts ...Option,
) *Registry {
	r := &Registry{
		repo:        repo,
		fingerprint: fingerprint,
		config:      config,
		now:         now,
		idleTTL:     DefaultIdleTTL,
		maxSessions: DefaultMaxSessions,
		sessions:    make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// acquire возвращает сессию id для страницы page, создавая ее при необходимости.
// Если клиент перешел на другую страницу, сессия создается заново.
func (r *Registry) acquire(ctx context.Context, id string, page entities.Page) *entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clock()
	r.evictIdle(ctx, now)

	if e, ok := r.sessions[id]; ok && e.session.Page().Identity() == page.Identity() {
		e.lastUsed = now
		return e
	}

	logger.Log(ctx).Info(ctx, "creating session",
		zap.String("session_id", id), zap.String("page", page.Identity()))

	view := &recordingView{}
	uc := app.NewAnnotationUseCase(r.repo, r.fingerprint, view, r.now)
	e := &entry{session: app.NewSession(page, uc, view, r.config), view: view, lastUsed: now}
	if _, replacing := r.sessions[id]; !replacing {
		r.evictOldest(ctx)
	}
	r.sessions[id] = e
	return e
}

// get возвращает существующую сессию.
func (r *Registry) get(id string) (*entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clock()
	e, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if r.expired(e, now) {
		delete(r.sessions, id)
		return nil, ErrSessionNotFound
	}
	e.lastUsed = now
	return e, nil
}

// Len возвращает число сессий.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

func (r *Registry) clock() time.Time {
	if r.now == nil {
		return time.Now()
	}
	return r.now()
}

func (r *Registry) expired(e *entry, now time.Time) bool {
	return r.idleTTL > 0 && now.Sub(e.lastUsed) > r.idleTTL
}

// evictIdle вызывается под mu.
func (r *Registry) evictIdle(ctx context.Context, now time.Time) {
	if r.idleTTL <= 0 {
		return
	}
	for id, e := range r.sessions {
		if r.expired(e, now) {
			delete(r.sessions, id)
			logger.Log(ctx).Debug(ctx, "evicting idle session", zap.String("session_id", id))
		}
	}
}

// evictOldest освобождает место под новую сессию. Вызывается под mu.
func (r *Registry) evictOldest(ctx context.Context) {
	if r.maxSessions <= 0 || len(r.sessions) < r.maxSessions {
		return
	}
	var (
		oldestID string
		oldest   time.Time
	)
	for id, e := range r.sessions {
		if oldestID == "" || e.lastUsed.Before(oldest) {
			oldestID, oldest = id, e.lastUsed
		}
	}
	delete(r.sessions, oldestID)
	logger.Log(ctx).Info(ctx, "session limit reached, evicting oldest session",
		zap.String("session_id", oldestID), zap.Int("limit", r.maxSessions))
}

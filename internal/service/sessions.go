package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nurpe/proposals/internal/content"
	"github.com/nurpe/proposals/internal/model"
)

type AccessResolver interface {
	Resolve(ctx context.Context, identity *model.Identity) (model.Access, error)
}

type SessionObserver interface {
	SessionOpened()
	SessionClosed()
}

type session struct {
	store    *content.Store
	access   model.Access
	lastUsed time.Time
}

// Sessions keeps one content store per authenticated identity. Access is
// resolved once when the session opens and fixes whether the store is
// read-only. Sessions of different identities edit the same active record
// and the last completed write wins. A session without unsaved edits picks up
// other sessions' writes each time it is used.
type Sessions struct {
	persister content.Persister
	gate      AccessResolver
	template  content.Options
	clock     content.Clock
	observer  SessionObserver
	log       zerolog.Logger

	mu     sync.Mutex
	byUser map[uuid.UUID]*session
}

func NewSessions(persister content.Persister, gate AccessResolver, template content.Options, observer SessionObserver, log zerolog.Logger) *Sessions {
	clock := template.Clock
	if clock == nil {
		clock = content.RealClock()
	}
	return &Sessions{
		persister: persister,
		gate:      gate,
		template:  template,
		clock:     clock,
		observer:  observer,
		log:       log,
		byUser:    make(map[uuid.UUID]*session),
	}
}

func (s *Sessions) Open(ctx context.Context, principal model.Principal) (*content.Store, model.Access, error) {
	s.mu.Lock()
	if existing, ok := s.byUser[principal.UserID]; ok {
		existing.lastUsed = s.clock.Now()
		s.mu.Unlock()
		if _, err := existing.store.Refresh(ctx); err != nil {
			s.log.Warn().Err(err).Str("user_id", principal.UserID.String()).Msg("refresh editing session")
		}
		return existing.store, existing.access, nil
	}
	s.mu.Unlock()

	access, err := s.gate.Resolve(ctx, &model.Identity{ID: principal.UserID, Email: principal.Email})
	if err != nil {
		return nil, model.Access{}, err
	}

	opts := s.template
	opts.ReadOnly = !access.CanEdit
	opts.Log = s.log.With().Str("user_id", principal.UserID.String()).Logger()
	opts.Notifier = content.NewLogNotifier(opts.Log)
	if principal.Email != "" {
		opts.Author = principal.Email
	}
	store, err := content.Open(ctx, s.persister, opts)
	if err != nil {
		return nil, model.Access{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.byUser[principal.UserID]; ok {
		_ = store.Close(ctx)
		return existing.store, existing.access, nil
	}
	s.byUser[principal.UserID] = &session{store: store, access: access, lastUsed: s.clock.Now()}
	if s.observer != nil {
		s.observer.SessionOpened()
	}
	opts.Log.Info().Str("role", string(access.Role)).Bool("read_only", opts.ReadOnly).Msg("editing session opened")
	return store, access, nil
}

// Close flushes and forgets the session of one identity.
func (s *Sessions) Close(ctx context.Context, userID uuid.UUID) error {
	s.mu.Lock()
	sess, ok := s.byUser[userID]
	delete(s.byUser, userID)
	s.mu.Unlock()
	if !ok {
		return nil
	}
	return s.closeSession(ctx, sess)
}

func (s *Sessions) closeSession(ctx context.Context, sess *session) error {
	if s.observer != nil {
		s.observer.SessionClosed()
	}
	err := sess.store.Close(ctx)
	if waitErr := sess.store.Wait(ctx); waitErr != nil {
		err = errors.Join(err, waitErr)
	}
	return err
}

// CloseIdle flushes and forgets sessions unused for longer than maxIdle and
// returns how many were closed.
func (s *Sessions) CloseIdle(ctx context.Context, maxIdle time.Duration) int {
	cutoff := s.clock.Now().Add(-maxIdle)

	s.mu.Lock()
	idle := make(map[uuid.UUID]*session)
	for userID, sess := range s.byUser {
		if sess.lastUsed.Before(cutoff) {
			idle[userID] = sess
			delete(s.byUser, userID)
		}
	}
	s.mu.Unlock()

	for userID, sess := range idle {
		if err := s.closeSession(ctx, sess); err != nil {
			s.log.Error().Err(err).Str("user_id", userID.String()).Msg("flush idle session")
			continue
		}
		s.log.Info().Str("user_id", userID.String()).Msg("idle editing session closed")
	}
	return len(idle)
}

// Sweep closes idle sessions every interval until ctx is done.
func (s *Sessions) Sweep(ctx context.Context, interval, maxIdle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.CloseIdle(ctx, maxIdle)
		}
	}
}

// CloseAll flushes every open session. Used on shutdown.
func (s *Sessions) CloseAll(ctx context.Context) error {
	s.mu.Lock()
	open := s.byUser
	s.byUser = make(map[uuid.UUID]*session)
	s.mu.Unlock()

	var errs []error
	for userID, sess := range open {
		if err := s.closeSession(ctx, sess); err != nil {
			s.log.Error().Err(err).Str("user_id", userID.String()).Msg("flush session on shutdown")
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byUser)
}

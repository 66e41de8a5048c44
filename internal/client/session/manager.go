package session

import (
	"context"
	"sync"

	"github.com/tailorcv/tailorcv-cli/internal/apperr"
	"github.com/tailorcv/tailorcv-cli/internal/logging"
)

// API is the backend surface the Manager needs. The REST client implements
// it; tests substitute fakes.
type API interface {
	// Me verifies a token and returns the fresh user record.
	Me(ctx context.Context, token string) (User, error)

	// LoginGoogle exchanges an identity-provider credential for a session.
	LoginGoogle(ctx context.Context, credential string) (Session, error)

	// Logout invalidates the token server-side.
	Logout(ctx context.Context, token string) error
}

// Manager orchestrates boot-time verification, login and logout, and is the
// single source of truth for the currently published session.
//
// Concurrency: every state change happens under mu; slow backend calls run
// outside the lock and apply their result only if no newer operation started
// in the meantime (the gen counter is the staleness guard).
type Manager struct {
	api   API
	store Store
	log   logging.Logger

	mu      sync.Mutex
	current *Session
	gen     uint64
}

// NewManager wires a Manager to its backend and persisted store.
func NewManager(api API, store Store, log logging.Logger) *Manager {
	return &Manager{api: api, store: store, log: log}
}

// Current returns the published session, or nil when signed out. The
// returned record is never mutated in place, only replaced, so callers may
// hold it across calls.
func (m *Manager) Current() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// beginOp registers a new state-changing operation and invalidates the
// results of any operation still in flight.
func (m *Manager) beginOp() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gen++
	return m.gen
}

// publish installs s as the current session unless a newer operation has
// started since gen was issued. Reports whether the publish took effect.
func (m *Manager) publish(gen uint64, s *Session) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.gen {
		return false
	}
	m.current = s
	return true
}

// Bootstrap restores the persisted session, verifies it with the backend,
// and publishes the result. Any failure (unreadable store, rejected token,
// network error, malformed response) degrades to "no session" and wipes
// the persisted record, so routing decisions never run against a guess.
// Bootstrap always resolves; it never returns a transport error to the
// caller.
func (m *Manager) Bootstrap(ctx context.Context) *Session {
	gen := m.beginOp()

	stored, err := m.store.Load(ctx)
	if err != nil {
		m.log.Warn(ctx, "persisted session unreadable, treating as signed out", "error", err)
		m.publish(gen, nil)
		return nil
	}
	if stored == nil {
		m.publish(gen, nil)
		return nil
	}

	user, err := m.api.Me(ctx, stored.Token)
	if err != nil {
		// A configuration problem says nothing about the stored token;
		// keep the record for the run where the backend is reachable.
		if apperr.KindOf(err) == apperr.KindConfiguration {
			m.log.Warn(ctx, "cannot verify stored session", "error", err)
			m.publish(gen, nil)
			return nil
		}
		// Any other failure class makes the stored record untrustworthy.
		m.log.Info(ctx, "stored session rejected", "kind", apperr.KindOf(err).String(), "error", err)
		if cerr := m.store.Clear(ctx); cerr != nil {
			m.log.Warn(ctx, "failed to clear rejected session", "error", cerr)
		}
		m.publish(gen, nil)
		return nil
	}

	// Self-heal stale cached fields: the fresh user replaces the record
	// both in memory and on disk.
	fresh := &Session{Token: stored.Token, User: user}
	if err := m.store.Save(ctx, *fresh); err != nil {
		m.log.Warn(ctx, "failed to refresh persisted session", "error", err)
	}
	if !m.publish(gen, fresh) {
		return nil
	}
	m.log.Info(ctx, "session restored", "user", fresh.User.Email)
	return fresh
}

// Login exchanges the identity-provider credential for a session, persists
// it and publishes it. On failure the current session is left unchanged and
// the classified error is returned to the caller.
func (m *Manager) Login(ctx context.Context, rawCredential string) (*Session, error) {
	if rawCredential == "" {
		return nil, apperr.Validation("sign-in credential is empty")
	}

	gen := m.beginOp()

	sess, err := m.api.LoginGoogle(ctx, rawCredential)
	if err != nil {
		return nil, err
	}
	if err := sess.Validate(); err != nil {
		return nil, apperr.Authentication(err, "backend returned a malformed session")
	}

	if err := m.store.Save(ctx, sess); err != nil {
		// The in-memory session still works this run; it just won't
		// survive a restart.
		m.log.Warn(ctx, "failed to persist session", "error", err)
	}
	m.publish(gen, &sess)
	m.log.Info(ctx, "signed in", "user", sess.User.Email)
	return &sess, nil
}

// Logout invalidates the token server-side on a best-effort basis, then
// unconditionally clears local state and publishes "no session". Backend
// failures never block the local sign-out.
func (m *Manager) Logout(ctx context.Context) {
	cur := m.Current()
	gen := m.beginOp()

	if cur != nil {
		if err := m.api.Logout(ctx, cur.Token); err != nil {
			m.log.Warn(ctx, "backend logout failed, signing out locally", "error", err)
		}
	}
	if err := m.store.Clear(ctx); err != nil {
		m.log.Warn(ctx, "failed to clear persisted session", "error", err)
	}
	m.publish(gen, nil)
	m.log.Info(ctx, "signed out")
}

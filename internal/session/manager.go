// Package session manages authenticated call contexts for configured
// servers. Password-mode servers go through a login call whose token is
// cached per server; api-key servers pass their key through with no
// network round trip.
//
// Per server the lifecycle is:
//
//	Unauthenticated -> Authenticating -> Authenticated
//	Authenticated -> Invalidated -> Authenticating (on the next acquire)
package session

import (
	"context"
	"sync"

	"github.com/sonic-ru/zbxdash/internal/errors"
	"github.com/sonic-ru/zbxdash/internal/logger"
	"github.com/sonic-ru/zbxdash/internal/registry"
)

// Context is an authenticated call context for one server. Ephemeral:
// never persisted, dropped on logout or invalidation.
type Context struct {
	ServerID int64
	Token    string
	Mode     registry.AuthMode
}

// Authenticator performs the login/logout calls for a given server.
// Satisfied by a zabbix.Client bound to the server's URL.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (string, error)
	Logout(ctx context.Context, auth string) error
}

type state int

const (
	stateUnauthenticated state = iota
	stateAuthenticating
	stateAuthenticated
	stateInvalidated
)

// entry is the cached session state for one server id.
type entry struct {
	state state
	token string
	err   error         // outcome of the last login attempt
	done  chan struct{} // closed when the in-flight login finishes
}

// Manager caches one session per server and guarantees at most one
// in-flight login per server id.
type Manager struct {
	servers ServerSource
	dial    func(registry.Server) Authenticator
	log     logger.Logger

	mu       sync.Mutex
	sessions map[int64]*entry
}

// ServerSource resolves server ids to their configuration.
// Satisfied by *registry.Registry.
type ServerSource interface {
	Get(ctx context.Context, id int64) (registry.Server, error)
}

// NewManager creates a Manager. dial builds the per-server client used
// for login calls.
func NewManager(servers ServerSource, dial func(registry.Server) Authenticator, log logger.Logger) *Manager {
	if log == nil {
		log = logger.Noop()
	}
	return &Manager{
		servers:  servers,
		dial:     dial,
		log:      log,
		sessions: make(map[int64]*entry),
	}
}

// Acquire returns a valid call context for the server. Api-key servers
// never hit the network. For password servers a cached token is reused;
// otherwise exactly one login call runs, and concurrent acquirers wait
// for its outcome instead of issuing duplicates.
func (m *Manager) Acquire(ctx context.Context, serverID int64) (Context, error) {
	sv, err := m.servers.Get(ctx, serverID)
	if err != nil {
		return Context{}, err
	}

	if sv.AuthMode == registry.AuthAPIKey {
		return Context{ServerID: serverID, Token: sv.APIKey, Mode: registry.AuthAPIKey}, nil
	}

	for {
		m.mu.Lock()
		e, ok := m.sessions[serverID]
		if !ok {
			e = &entry{}
			m.sessions[serverID] = e
		}

		switch e.state {
		case stateAuthenticated:
			token := e.token
			m.mu.Unlock()
			return Context{ServerID: serverID, Token: token, Mode: registry.AuthPassword}, nil

		case stateAuthenticating:
			done := e.done
			m.mu.Unlock()
			select {
			case <-done:
			case <-ctx.Done():
				return Context{}, errors.WrapWithCode(ctx.Err(), errors.ErrTransport,
					"Login wait cancelled", "")
			}

			// Share the attempt's outcome instead of issuing another login.
			m.mu.Lock()
			if e.state == stateAuthenticated {
				token := e.token
				m.mu.Unlock()
				return Context{ServerID: serverID, Token: token, Mode: registry.AuthPassword}, nil
			}
			waitErr := e.err
			m.mu.Unlock()
			if waitErr != nil {
				return Context{}, waitErr
			}
			// No recorded outcome (e.g. invalidated in between): retry.

		default: // Unauthenticated or Invalidated: this caller logs in.
			e.state = stateAuthenticating
			e.done = make(chan struct{})
			done := e.done
			m.mu.Unlock()

			token, loginErr := m.login(ctx, sv)

			m.mu.Lock()
			if loginErr != nil {
				e.state = stateUnauthenticated
				e.token = ""
				e.err = loginErr
			} else {
				e.state = stateAuthenticated
				e.token = token
				e.err = nil
			}
			// Always closed, even on cancellation, so waiters and the
			// next acquirer are never stuck behind this attempt.
			close(done)
			m.mu.Unlock()

			if loginErr != nil {
				return Context{}, loginErr
			}
			return Context{ServerID: serverID, Token: token, Mode: registry.AuthPassword}, nil
		}
	}
}

// login performs the remote login call for sv.
func (m *Manager) login(ctx context.Context, sv registry.Server) (string, error) {
	m.log.Debug("logging in to server %d (%s)", sv.ID, sv.Name)
	token, err := m.dial(sv).Login(ctx, sv.Username, sv.Password)
	if err != nil {
		m.log.Warn("login to server %d failed: %v", sv.ID, err)
		return "", err
	}
	m.log.Debug("login to server %d succeeded", sv.ID)
	return token, nil
}

// Invalidate marks the cached session for serverID as invalid so the
// next Acquire re-authenticates. It is a no-op unless token matches the
// cached one: a caller holding a stale context must not stomp a session
// that was already refreshed.
func (m *Manager) Invalidate(serverID int64, token string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.sessions[serverID]
	if !ok || e.state != stateAuthenticated || e.token != token {
		return
	}
	m.log.Debug("session for server %d invalidated", serverID)
	e.state = stateInvalidated
	e.token = ""
}

// Logout tears down the cached session for serverID, notifying the
// server for password-mode sessions. Unknown or key-mode servers are a
// no-op.
func (m *Manager) Logout(ctx context.Context, serverID int64) error {
	m.mu.Lock()
	e, ok := m.sessions[serverID]
	var token string
	if ok && e.state == stateAuthenticated {
		token = e.token
	}
	delete(m.sessions, serverID)
	m.mu.Unlock()

	if token == "" {
		return nil
	}

	sv, err := m.servers.Get(ctx, serverID)
	if err != nil {
		return nil // server already removed; local teardown is enough
	}
	if err := m.dial(sv).Logout(ctx, token); err != nil {
		m.log.Warn("logout from server %d failed: %v", serverID, err)
		return err
	}
	return nil
}

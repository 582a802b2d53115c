// Package registry manages the durable list of configured monitoring
// servers. The whole list is persisted atomically as one record; entries
// are replaced copy-on-write and referenced by id everywhere else.
package registry

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/sonic-ru/zbxdash/internal/errors"
	"github.com/sonic-ru/zbxdash/internal/store"
)

// AuthMode selects how a server authenticates requests.
type AuthMode string

const (
	// AuthPassword logs in with username/password to obtain a session token.
	AuthPassword AuthMode = "password"
	// AuthAPIKey sends a static key with every request, no login call.
	AuthAPIKey AuthMode = "apikey"
)

// Server describes one configured monitoring server.
// Credentials are stored in the clear; the state database lives in the
// user's config directory with user-only expectations.
type Server struct {
	ID       int64    `json:"id"`
	Name     string   `json:"name"`
	URL      string   `json:"url"`
	AuthMode AuthMode `json:"auth_mode"`
	Username string   `json:"username,omitempty"`
	Password string   `json:"password,omitempty"`
	APIKey   string   `json:"api_key,omitempty"`
}

// Registry is the durable server list. All mutations persist the full
// list atomically through the store.
type Registry struct {
	store *store.Store

	mu     sync.Mutex
	lastID int64 // high-water mark, ids are never reused in-process
}

// New creates a Registry over s, seeding the id high-water mark from the
// persisted list.
func New(ctx context.Context, s *store.Store) (*Registry, error) {
	r := &Registry{store: s}

	servers, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, sv := range servers {
		if sv.ID > r.lastID {
			r.lastID = sv.ID
		}
	}
	return r, nil
}

// List returns all configured servers in stored order.
func (r *Registry) List(ctx context.Context) ([]Server, error) {
	return store.Read[[]Server](ctx, r.store, store.KeyServers)
}

// Get returns the server with the given id.
func (r *Registry) Get(ctx context.Context, id int64) (Server, error) {
	servers, err := r.List(ctx)
	if err != nil {
		return Server{}, err
	}
	for _, sv := range servers {
		if sv.ID == id {
			return sv, nil
		}
	}
	return Server{}, errors.New(errors.ErrConfig,
		fmt.Sprintf("Server %d not found", id),
		"Run 'zbxdash server list' to see configured servers")
}

// FindByName returns the server whose name matches (case-insensitive).
func (r *Registry) FindByName(ctx context.Context, name string) (Server, error) {
	servers, err := r.List(ctx)
	if err != nil {
		return Server{}, err
	}
	for _, sv := range servers {
		if strings.EqualFold(sv.Name, name) {
			return sv, nil
		}
	}
	return Server{}, errors.New(errors.ErrConfig,
		fmt.Sprintf("Server '%s' not found", name),
		"Run 'zbxdash server list' to see configured servers")
}

// Add assigns the next id to draft and appends it to the list.
// Ids grow monotonically and are never reused, even after a removal.
func (r *Registry) Add(ctx context.Context, draft Server) (Server, error) {
	if err := validate(draft); err != nil {
		return Server{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var added Server
	_, err := store.Mutate(ctx, r.store, store.KeyServers, func(servers []Server) []Server {
		id := r.lastID
		for _, sv := range servers {
			if sv.ID > id {
				id = sv.ID
			}
		}
		draft.ID = id + 1
		r.lastID = draft.ID
		added = draft
		return append(servers, draft)
	})
	if err != nil {
		return Server{}, err
	}
	return added, nil
}

// Update replaces the record matching sv.ID. A non-existent id is a
// no-op; the id itself is never changed.
func (r *Registry) Update(ctx context.Context, sv Server) error {
	if err := validate(sv); err != nil {
		return err
	}

	_, err := store.Mutate(ctx, r.store, store.KeyServers, func(servers []Server) []Server {
		for i := range servers {
			if servers[i].ID == sv.ID {
				servers[i] = sv
				break
			}
		}
		return servers
	})
	return err
}

// Remove deletes the record matching id. Dashboard state referencing the
// id is intentionally left alone; the coordinator degrades dangling
// selections on read.
func (r *Registry) Remove(ctx context.Context, id int64) error {
	_, err := store.Mutate(ctx, r.store, store.KeyServers, func(servers []Server) []Server {
		out := servers[:0]
		for _, sv := range servers {
			if sv.ID != id {
				out = append(out, sv)
			}
		}
		return out
	})
	return err
}

func validate(sv Server) error {
	if sv.Name == "" {
		return errors.New(errors.ErrConfig, "Server name is required", "")
	}
	if sv.URL == "" {
		return errors.New(errors.ErrConfig, "Server URL is required", "")
	}
	switch sv.AuthMode {
	case AuthPassword:
		if sv.Username == "" {
			return errors.New(errors.ErrConfig,
				"Username is required for password authentication", "")
		}
	case AuthAPIKey:
		if sv.APIKey == "" {
			return errors.New(errors.ErrConfig,
				"API key is required for key authentication", "")
		}
	default:
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Unknown auth mode '%s'", sv.AuthMode),
			"Use 'password' or 'apikey'")
	}
	return nil
}

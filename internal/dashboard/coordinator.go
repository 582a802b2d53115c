// Package dashboard coordinates the durable dashboard state (selected
// server, display filters) and application settings. All updates are
// merges against the persisted record, never blind overwrites of an
// in-memory copy, so concurrent partial updates cannot lose fields.
package dashboard

import (
	"context"

	"github.com/sonic-ru/zbxdash/internal/logger"
	"github.com/sonic-ru/zbxdash/internal/registry"
	"github.com/sonic-ru/zbxdash/internal/store"
)

// State is the durable dashboard record. SelectedServerID 0 means no
// selection.
type State struct {
	SelectedServerID  int64 `json:"selected_server_id"`
	ShowAcknowledged  bool  `json:"show_acknowledged"`
	ShowInMaintenance bool  `json:"show_in_maintenance"`
}

// Change is a partial update of State. Nil fields are left untouched.
type Change struct {
	SelectServer      *int64
	ShowAcknowledged  *bool
	ShowInMaintenance *bool
}

// Coordinator merges state changes into the persisted records and
// exposes the current materialized view.
type Coordinator struct {
	store *store.Store
	reg   *registry.Registry
	log   logger.Logger
}

// New creates a Coordinator over the given store and registry.
func New(s *store.Store, reg *registry.Registry, log logger.Logger) *Coordinator {
	if log == nil {
		log = logger.Noop()
	}
	return &Coordinator{store: s, reg: reg, log: log}
}

// Current returns the materialized dashboard state. A selection
// pointing at a removed server degrades to no selection; the degrade is
// persisted so observers converge too.
func (c *Coordinator) Current(ctx context.Context) (State, error) {
	st, err := store.Read[State](ctx, c.store, store.KeyDashboardState)
	if err != nil {
		return State{}, err
	}

	if st.SelectedServerID != 0 {
		if _, err := c.reg.Get(ctx, st.SelectedServerID); err != nil {
			c.log.Debug("selected server %d is gone, degrading to no selection", st.SelectedServerID)
			return store.Mutate(ctx, c.store, store.KeyDashboardState, func(cur State) State {
				if cur.SelectedServerID == st.SelectedServerID {
					cur.SelectedServerID = 0
				}
				return cur
			})
		}
	}
	return st, nil
}

// Apply merges ch into the persisted state and returns the result.
func (c *Coordinator) Apply(ctx context.Context, ch Change) (State, error) {
	return store.Mutate(ctx, c.store, store.KeyDashboardState, func(st State) State {
		if ch.SelectServer != nil {
			st.SelectedServerID = *ch.SelectServer
		}
		if ch.ShowAcknowledged != nil {
			st.ShowAcknowledged = *ch.ShowAcknowledged
		}
		if ch.ShowInMaintenance != nil {
			st.ShowInMaintenance = *ch.ShowInMaintenance
		}
		return st
	})
}

// SelectServer persists id as the selected server after verifying it
// exists. id 0 clears the selection.
func (c *Coordinator) SelectServer(ctx context.Context, id int64) (State, error) {
	if id != 0 {
		if _, err := c.reg.Get(ctx, id); err != nil {
			return State{}, err
		}
	}
	return c.Apply(ctx, Change{SelectServer: &id})
}

// Observe streams the dashboard state: current value immediately, then
// after every write.
func (c *Coordinator) Observe(ctx context.Context) (<-chan State, func()) {
	return store.Observe[State](ctx, c.store, store.KeyDashboardState)
}

// Package app wires the application together: config, durable state,
// the server registry, session management, problem aggregation and
// dashboard state behind a single facade the CLI talks to.
package app

import (
	"context"
	"sync"

	"github.com/sonic-ru/zbxdash/internal/aggregate"
	"github.com/sonic-ru/zbxdash/internal/config"
	"github.com/sonic-ru/zbxdash/internal/dashboard"
	"github.com/sonic-ru/zbxdash/internal/errors"
	"github.com/sonic-ru/zbxdash/internal/logger"
	"github.com/sonic-ru/zbxdash/internal/registry"
	"github.com/sonic-ru/zbxdash/internal/session"
	"github.com/sonic-ru/zbxdash/internal/store"
	"github.com/sonic-ru/zbxdash/internal/zabbix"
)

// App owns the long-lived components and exposes the operations the
// CLI needs. Create with New, release with Close.
type App struct {
	cfg *config.Config
	log logger.Logger

	store     *store.Store
	registry  *registry.Registry
	sessions  *session.Manager
	problems  *aggregate.Aggregator
	dashboard *dashboard.Coordinator

	mu      sync.Mutex
	clients map[string]*zabbix.Client
}

// New opens durable state under cfg.DataDir and wires the components.
func New(cfg *config.Config, log logger.Logger) (*App, error) {
	if log == nil {
		log = logger.Noop()
	}

	s, err := store.Open(cfg.StatePath(), log)
	if err != nil {
		return nil, err
	}

	reg, err := registry.New(context.Background(), s)
	if err != nil {
		_ = s.Close()
		return nil, err
	}

	a := &App{
		cfg:      cfg,
		log:      log,
		store:    s,
		registry: reg,
		clients:  make(map[string]*zabbix.Client),
	}
	a.sessions = session.NewManager(reg, func(sv registry.Server) session.Authenticator {
		return a.client(sv)
	}, log)
	a.problems = aggregate.New(reg, a.sessions, func(sv registry.Server) aggregate.API {
		return a.client(sv)
	}, log)
	a.dashboard = dashboard.New(s, reg, log)

	return a, nil
}

// client returns the cached API client for a server's URL, creating it
// on first use. Clients are keyed by URL so servers sharing an endpoint
// share a connection pool.
func (a *App) client(sv registry.Server) *zabbix.Client {
	a.mu.Lock()
	defer a.mu.Unlock()

	if c, ok := a.clients[sv.URL]; ok {
		return c
	}
	c := zabbix.NewClient(sv.URL, zabbix.Options{
		Timeout:            a.cfg.RequestTimeout,
		InsecureSkipVerify: a.cfg.InsecureSkipVerify,
		Logger:             a.log,
	})
	a.clients[sv.URL] = c
	return c
}

// Close releases the durable state. In-memory sessions are dropped.
func (a *App) Close() error {
	return a.store.Close()
}

// ListServers returns all configured servers.
func (a *App) ListServers(ctx context.Context) ([]registry.Server, error) {
	return a.registry.List(ctx)
}

// GetServer returns one server by id.
func (a *App) GetServer(ctx context.Context, id int64) (registry.Server, error) {
	return a.registry.Get(ctx, id)
}

// FindServer returns one server by its display name.
func (a *App) FindServer(ctx context.Context, name string) (registry.Server, error) {
	return a.registry.FindByName(ctx, name)
}

// AddServer validates and persists a new server, assigning its id.
func (a *App) AddServer(ctx context.Context, draft registry.Server) (registry.Server, error) {
	return a.registry.Add(ctx, draft)
}

// UpdateServer replaces a stored server's fields. The cached session
// for it is dropped so stale credentials are never reused.
func (a *App) UpdateServer(ctx context.Context, sv registry.Server) error {
	if err := a.registry.Update(ctx, sv); err != nil {
		return err
	}
	if err := a.sessions.Logout(ctx, sv.ID); err != nil {
		a.log.Warn("logout after update failed: %v", err)
	}
	return nil
}

// RemoveServer logs out any cached session and deletes the server.
func (a *App) RemoveServer(ctx context.Context, id int64) error {
	if err := a.sessions.Logout(ctx, id); err != nil {
		a.log.Warn("logout before removal failed: %v", err)
	}
	return a.registry.Remove(ctx, id)
}

// SelectServer records id as the dashboard's active server.
func (a *App) SelectServer(ctx context.Context, id int64) (dashboard.State, error) {
	return a.dashboard.SelectServer(ctx, id)
}

// DashboardState returns the current dashboard state.
func (a *App) DashboardState(ctx context.Context) (dashboard.State, error) {
	return a.dashboard.Current(ctx)
}

// UpdateDashboard applies a partial change to the dashboard state.
func (a *App) UpdateDashboard(ctx context.Context, ch dashboard.Change) (dashboard.State, error) {
	return a.dashboard.Apply(ctx, ch)
}

// ObserveDashboard streams dashboard state updates until cancel.
func (a *App) ObserveDashboard(ctx context.Context) (<-chan dashboard.State, func()) {
	return a.dashboard.Observe(ctx)
}

// Settings returns the application settings.
func (a *App) Settings(ctx context.Context) (dashboard.AppSettings, error) {
	return a.dashboard.Settings(ctx)
}

// UpdateTheme persists a new theme.
func (a *App) UpdateTheme(ctx context.Context, theme dashboard.Theme) (dashboard.AppSettings, error) {
	return a.dashboard.UpdateTheme(ctx, theme)
}

// UpdateLanguage persists a new display language.
func (a *App) UpdateLanguage(ctx context.Context, language string) (dashboard.AppSettings, error) {
	return a.dashboard.UpdateLanguage(ctx, language)
}

// ObserveSettings streams settings updates until cancel.
func (a *App) ObserveSettings(ctx context.Context) (<-chan dashboard.AppSettings, func()) {
	return a.dashboard.ObserveSettings(ctx)
}

// FetchProblems fetches the active problems of the dashboard's
// selected server, applying its persisted filters.
func (a *App) FetchProblems(ctx context.Context) ([]aggregate.Record, error) {
	st, err := a.dashboard.Current(ctx)
	if err != nil {
		return nil, err
	}
	if st.SelectedServerID == 0 {
		return nil, errors.New(errors.ErrConfig,
			"No server selected",
			"Run 'zbxdash select' or add a server with 'zbxdash server add'")
	}
	return a.FetchProblemsFor(ctx, st.SelectedServerID)
}

// FetchProblemsFor fetches the active problems of one server, applying
// the dashboard's persisted filters.
func (a *App) FetchProblemsFor(ctx context.Context, serverID int64) ([]aggregate.Record, error) {
	st, err := a.dashboard.Current(ctx)
	if err != nil {
		return nil, err
	}
	return a.problems.FetchProblems(ctx, serverID, aggregate.Filter{
		ShowAcknowledged:  st.ShowAcknowledged,
		ShowInMaintenance: st.ShowInMaintenance,
	})
}

// Logout drops the cached session for a server, notifying it when a
// login token is held.
func (a *App) Logout(ctx context.Context, serverID int64) error {
	return a.sessions.Logout(ctx, serverID)
}

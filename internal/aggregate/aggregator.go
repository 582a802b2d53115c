// Package aggregate joins the two remote calls behind a problem fetch
// (problem.get, then host.get for the referenced hosts) into one
// enriched result set. Host-name enrichment is best-effort: a failing or
// partial host lookup never drops problems.
package aggregate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/sonic-ru/zbxdash/internal/errors"
	"github.com/sonic-ru/zbxdash/internal/logger"
	"github.com/sonic-ru/zbxdash/internal/registry"
	"github.com/sonic-ru/zbxdash/internal/session"
	"github.com/sonic-ru/zbxdash/internal/zabbix"
)

// Record is one enriched problem, produced fresh per fetch.
type Record struct {
	ID            string
	Name          string
	Severity      int
	SeverityClass Class
	HostID        string
	HostName      string
	StartedAt     time.Time
	Age           string
	Acknowledged  bool
	InMaintenance bool
}

// Filter restricts which problems the server returns.
type Filter struct {
	ShowAcknowledged  bool
	ShowInMaintenance bool
}

// API is the subset of the remote client the aggregator needs.
type API interface {
	ActiveProblems(ctx context.Context, auth string, filter zabbix.ProblemFilter) ([]zabbix.Problem, error)
	HostsByID(ctx context.Context, auth string, ids []string) ([]zabbix.Host, error)
}

// Sessions is the subset of the session manager the aggregator needs.
type Sessions interface {
	Acquire(ctx context.Context, serverID int64) (session.Context, error)
	Invalidate(serverID int64, token string)
}

// Aggregator fetches and joins problem data for configured servers.
type Aggregator struct {
	sessions Sessions
	dial     func(registry.Server) API
	servers  session.ServerSource
	log      logger.Logger
	now      func() time.Time
}

// New creates an Aggregator. dial builds the per-server API client.
func New(servers session.ServerSource, sessions Sessions, dial func(registry.Server) API, log logger.Logger) *Aggregator {
	if log == nil {
		log = logger.Noop()
	}
	return &Aggregator{
		sessions: sessions,
		dial:     dial,
		servers:  servers,
		log:      log,
		now:      time.Now,
	}
}

// FetchProblems returns the enriched active problems of a server.
// Auth errors from the session manager propagate unchanged; an expired
// session is re-authenticated exactly once before a failure surfaces.
func (a *Aggregator) FetchProblems(ctx context.Context, serverID int64, filter Filter) ([]Record, error) {
	sv, err := a.servers.Get(ctx, serverID)
	if err != nil {
		return nil, err
	}
	client := a.dial(sv)

	remoteFilter := zabbix.ProblemFilter{
		ShowAcknowledged: filter.ShowAcknowledged,
		ShowSuppressed:   filter.ShowInMaintenance,
	}

	sess, err := a.sessions.Acquire(ctx, serverID)
	if err != nil {
		return nil, err
	}

	problems, err := client.ActiveProblems(ctx, sess.Token, remoteFilter)
	if errors.IsCode(err, errors.ErrAuth) {
		// The cached token was rejected; re-authenticate once and retry
		// the call once. A second auth failure surfaces.
		a.log.Debug("server %d rejected the session, re-authenticating", serverID)
		a.sessions.Invalidate(serverID, sess.Token)
		sess, err = a.sessions.Acquire(ctx, serverID)
		if err != nil {
			return nil, err
		}
		problems, err = client.ActiveProblems(ctx, sess.Token, remoteFilter)
	}
	if err != nil {
		return nil, err
	}

	if len(problems) == 0 {
		return []Record{}, nil
	}

	names := a.resolveHostNames(ctx, client, sess.Token, problems)

	records := make([]Record, 0, len(problems))
	for _, p := range problems {
		records = append(records, a.buildRecord(p, names))
	}
	return records, nil
}

// resolveHostNames looks up names for the distinct host ids referenced
// by problems. Failure is tolerated: the returned map is simply sparse
// (or empty) and the join falls back to placeholders per record.
func (a *Aggregator) resolveHostNames(ctx context.Context, client API, auth string, problems []zabbix.Problem) map[string]string {
	seen := make(map[string]struct{}, len(problems))
	ids := make([]string, 0, len(problems))
	for _, p := range problems {
		if p.ObjectID == "" {
			continue
		}
		if _, ok := seen[p.ObjectID]; ok {
			continue
		}
		seen[p.ObjectID] = struct{}{}
		ids = append(ids, p.ObjectID)
	}
	if len(ids) == 0 {
		return nil
	}

	hosts, err := client.HostsByID(ctx, auth, ids)
	if err != nil {
		a.log.Warn("host lookup failed, using placeholder names: %v", err)
		return nil
	}

	names := make(map[string]string, len(hosts))
	for _, h := range hosts {
		if h.Name != "" {
			names[h.HostID] = h.Name
		}
	}
	return names
}

// buildRecord derives the presentation fields for one problem.
func (a *Aggregator) buildRecord(p zabbix.Problem, names map[string]string) Record {
	name, ok := names[p.ObjectID]
	if !ok || name == "" {
		name = PlaceholderHostName(p.ObjectID)
	}

	started := time.Unix(int64(p.Clock), 0)
	severity := int(p.Severity)

	return Record{
		ID:            p.EventID,
		Name:          p.Name,
		Severity:      severity,
		SeverityClass: ClassFor(severity),
		HostID:        p.ObjectID,
		HostName:      name,
		StartedAt:     started,
		Age:           strings.TrimSpace(humanize.RelTime(started, a.now(), "", "")),
		Acknowledged:  bool(p.Acknowledged),
		InMaintenance: bool(p.Suppressed),
	}
}

// PlaceholderHostName is the fallback shown when a host id cannot be
// resolved to a name.
func PlaceholderHostName(hostID string) string {
	return fmt.Sprintf("Host-%s", hostID)
}

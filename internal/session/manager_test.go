package session

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	zbxerrors "github.com/sonic-ru/zbxdash/internal/errors"
	"github.com/sonic-ru/zbxdash/internal/logger"
	"github.com/sonic-ru/zbxdash/internal/registry"
)

// fakeAuth is an Authenticator with pluggable behavior and call counting.
type fakeAuth struct {
	mu      sync.Mutex
	logins  atomic.Int64
	logouts atomic.Int64
	loginFn func(username, password string) (string, error)
	block   chan struct{} // when set, Login blocks until closed
}

func (f *fakeAuth) Login(ctx context.Context, username, password string) (string, error) {
	f.logins.Add(1)
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return "", zbxerrors.WrapWithCode(ctx.Err(), zbxerrors.ErrTransport, "login cancelled", "")
		}
	}
	f.mu.Lock()
	fn := f.loginFn
	f.mu.Unlock()
	if fn != nil {
		return fn(username, password)
	}
	return "token-1", nil
}

func (f *fakeAuth) Logout(ctx context.Context, auth string) error {
	f.logouts.Add(1)
	return nil
}

// fixedServers is a ServerSource over a static list.
type fixedServers map[int64]registry.Server

func (s fixedServers) Get(ctx context.Context, id int64) (registry.Server, error) {
	sv, ok := s[id]
	if !ok {
		return registry.Server{}, zbxerrors.New(zbxerrors.ErrConfig, "server not found", "")
	}
	return sv, nil
}

func passwordSource() fixedServers {
	return fixedServers{
		1: {ID: 1, Name: "prod", URL: "https://zbx.example.com", AuthMode: registry.AuthPassword, Username: "Admin", Password: "zabbix"},
	}
}

func keySource() fixedServers {
	return fixedServers{
		2: {ID: 2, Name: "edge", URL: "https://edge.example.com", AuthMode: registry.AuthAPIKey, APIKey: "static-key"},
	}
}

func newManager(src ServerSource, auth *fakeAuth) *Manager {
	return NewManager(src, func(registry.Server) Authenticator { return auth }, logger.Noop())
}

func TestAcquireAPIKeyNoNetwork(t *testing.T) {
	auth := &fakeAuth{}
	m := newManager(keySource(), auth)

	got, err := m.Acquire(context.Background(), 2)
	require.NoError(t, err)

	assert.Equal(t, Context{ServerID: 2, Token: "static-key", Mode: registry.AuthAPIKey}, got)
	assert.Zero(t, auth.logins.Load(), "api-key mode must not log in")
}

func TestAcquirePasswordLogsInOnceAndCaches(t *testing.T) {
	auth := &fakeAuth{}
	m := newManager(passwordSource(), auth)
	ctx := context.Background()

	first, err := m.Acquire(ctx, 1)
	require.NoError(t, err)
	second, err := m.Acquire(ctx, 1)
	require.NoError(t, err)

	assert.Equal(t, "token-1", first.Token)
	assert.Equal(t, first, second)
	assert.Equal(t, int64(1), auth.logins.Load(), "second acquire must reuse the cached token")
}

func TestAcquireRejectionSurfacesAuthError(t *testing.T) {
	auth := &fakeAuth{loginFn: func(u, p string) (string, error) {
		return "", zbxerrors.New(zbxerrors.ErrAuth, "Authentication rejected by the server", "")
	}}
	m := newManager(passwordSource(), auth)

	_, err := m.Acquire(context.Background(), 1)
	require.Error(t, err)
	assert.True(t, zbxerrors.IsCode(err, zbxerrors.ErrAuth))
}

func TestConcurrentAcquiresShareOneLogin(t *testing.T) {
	auth := &fakeAuth{block: make(chan struct{})}
	m := newManager(passwordSource(), auth)
	ctx := context.Background()

	const callers = 8
	var wg sync.WaitGroup
	results := make([]Context, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = m.Acquire(ctx, 1)
		}(i)
	}

	// Let all callers pile up behind the blocked login, then release it.
	time.Sleep(50 * time.Millisecond)
	close(auth.block)
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, "token-1", results[i].Token)
	}
	assert.Equal(t, int64(1), auth.logins.Load(), "all callers must share one login")
}

func TestConcurrentAcquiresShareOneFailure(t *testing.T) {
	auth := &fakeAuth{block: make(chan struct{})}
	auth.loginFn = func(u, p string) (string, error) {
		return "", zbxerrors.New(zbxerrors.ErrAuth, "bad credentials", "")
	}
	m := newManager(passwordSource(), auth)
	ctx := context.Background()

	const callers = 4
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = m.Acquire(ctx, 1)
		}(i)
	}
	time.Sleep(50 * time.Millisecond)
	close(auth.block)
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.Error(t, errs[i])
		assert.True(t, zbxerrors.IsCode(errs[i], zbxerrors.ErrAuth))
	}
	assert.Equal(t, int64(1), auth.logins.Load(), "waiters must share the failed outcome")
}

func TestInvalidateTriggersExactlyOneRelogin(t *testing.T) {
	n := 0
	auth := &fakeAuth{}
	auth.loginFn = func(u, p string) (string, error) {
		n++
		if n == 1 {
			return "token-A", nil
		}
		return "token-B", nil
	}
	m := newManager(passwordSource(), auth)
	ctx := context.Background()

	first, err := m.Acquire(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "token-A", first.Token)

	// Server-signaled invalidation (e.g. "re-login, please").
	m.Invalidate(1, first.Token)

	second, err := m.Acquire(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "token-B", second.Token)
	assert.Equal(t, int64(2), auth.logins.Load(), "exactly one additional login")

	// Further acquires reuse token-B; no login storm.
	third, err := m.Acquire(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "token-B", third.Token)
	assert.Equal(t, int64(2), auth.logins.Load())
}

func TestInvalidateWithStaleTokenIsNoOp(t *testing.T) {
	auth := &fakeAuth{}
	m := newManager(passwordSource(), auth)
	ctx := context.Background()

	got, err := m.Acquire(ctx, 1)
	require.NoError(t, err)

	// A caller holding an old token must not invalidate the fresh session.
	m.Invalidate(1, "some-older-token")

	again, err := m.Acquire(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, got.Token, again.Token)
	assert.Equal(t, int64(1), auth.logins.Load())
}

func TestCancelledLoginReleasesTheSlot(t *testing.T) {
	auth := &fakeAuth{block: make(chan struct{})}
	m := newManager(passwordSource(), auth)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := m.Acquire(ctx, 1)
		errCh <- err
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		require.Error(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("cancelled acquire did not return")
	}

	// The per-server slot must not be stuck: a fresh acquire succeeds.
	close(auth.block)
	got, err := m.Acquire(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "token-1", got.Token)
}

func TestLogoutDropsSessionAndNotifiesServer(t *testing.T) {
	auth := &fakeAuth{}
	m := newManager(passwordSource(), auth)
	ctx := context.Background()

	_, err := m.Acquire(ctx, 1)
	require.NoError(t, err)

	require.NoError(t, m.Logout(ctx, 1))
	assert.Equal(t, int64(1), auth.logouts.Load())

	// The next acquire logs in again.
	_, err = m.Acquire(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), auth.logins.Load())
}

func TestAcquireUnknownServer(t *testing.T) {
	m := newManager(passwordSource(), &fakeAuth{})

	_, err := m.Acquire(context.Background(), 99)
	require.Error(t, err)
	assert.True(t, zbxerrors.IsCode(err, zbxerrors.ErrConfig))
}

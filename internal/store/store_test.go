package store

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sonic-ru/zbxdash/internal/logger"
)

type dashState struct {
	SelectedServerID  int64 `json:"selected_server_id"`
	ShowAcknowledged  bool  `json:"show_acknowledged"`
	ShowInMaintenance bool  `json:"show_in_maintenance"`
}

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "state.db"), logger.Noop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestReadAbsentKeyReturnsZeroValue(t *testing.T) {
	s := openTestStore(t)

	got, err := Read[dashState](context.Background(), s, KeyDashboardState)
	require.NoError(t, err)
	assert.Equal(t, dashState{}, got)
}

func TestWriteReadRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	want := dashState{SelectedServerID: 3, ShowAcknowledged: true}
	require.NoError(t, Write(ctx, s, KeyDashboardState, want))

	got, err := Read[dashState](ctx, s, KeyDashboardState)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestReadUndecodableFallsBackToDefault(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.putRaw(ctx, KeyAppSettings, []byte("not json at all")))

	got, err := Read[dashState](ctx, s, KeyAppSettings)
	require.NoError(t, err)
	assert.Equal(t, dashState{}, got)
}

func TestMutateMergesAgainstPersistedValue(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, Write(ctx, s, KeyDashboardState, dashState{SelectedServerID: 7}))

	got, err := Mutate(ctx, s, KeyDashboardState, func(st dashState) dashState {
		st.ShowAcknowledged = true
		return st
	})
	require.NoError(t, err)

	// The field untouched by the update function survives.
	assert.Equal(t, int64(7), got.SelectedServerID)
	assert.True(t, got.ShowAcknowledged)
}

func TestMutateConcurrentPartialUpdatesLoseNothing(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	// Three writers each own one field; any interleaving must preserve
	// all three updates.
	var wg sync.WaitGroup
	updates := []func(dashState) dashState{
		func(st dashState) dashState { st.SelectedServerID = 42; return st },
		func(st dashState) dashState { st.ShowAcknowledged = true; return st },
		func(st dashState) dashState { st.ShowInMaintenance = true; return st },
	}
	for _, fn := range updates {
		wg.Add(1)
		go func(fn func(dashState) dashState) {
			defer wg.Done()
			_, err := Mutate(ctx, s, KeyDashboardState, fn)
			assert.NoError(t, err)
		}(fn)
	}
	wg.Wait()

	got, err := Read[dashState](ctx, s, KeyDashboardState)
	require.NoError(t, err)
	assert.Equal(t, dashState{SelectedServerID: 42, ShowAcknowledged: true, ShowInMaintenance: true}, got)
}

func TestMutateCounterUnderContention(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	const n = 25
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := Mutate(ctx, s, "counter", func(c int) int { return c + 1 })
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := Read[int](ctx, s, "counter")
	require.NoError(t, err)
	assert.Equal(t, n, got)
}

func TestObserveEmitsCurrentValueImmediately(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, Write(ctx, s, KeyDashboardState, dashState{SelectedServerID: 9}))

	ch, cancel := Observe[dashState](ctx, s, KeyDashboardState)
	defer cancel()

	select {
	case got := <-ch:
		assert.Equal(t, int64(9), got.SelectedServerID)
	case <-time.After(2 * time.Second):
		t.Fatal("no initial emission")
	}
}

func TestObserveEmitsAfterEveryWrite(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	ch, cancel := Observe[dashState](ctx, s, KeyDashboardState)
	defer cancel()

	// Drain the initial emission (zero value, key absent).
	select {
	case got := <-ch:
		assert.Equal(t, dashState{}, got)
	case <-time.After(2 * time.Second):
		t.Fatal("no initial emission")
	}

	require.NoError(t, Write(ctx, s, KeyDashboardState, dashState{SelectedServerID: 1}))

	select {
	case got := <-ch:
		assert.Equal(t, int64(1), got.SelectedServerID)
	case <-time.After(2 * time.Second):
		t.Fatal("no emission after write")
	}
}

func TestObserveCancelStopsStream(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	ch, cancel := Observe[dashState](ctx, s, KeyDashboardState)
	<-ch // initial
	cancel()
	cancel() // safe to call twice

	// Writes after cancel must not block or panic.
	require.NoError(t, Write(ctx, s, KeyDashboardState, dashState{SelectedServerID: 2}))
}

func TestObserversAreIndependent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	a, cancelA := Observe[dashState](ctx, s, KeyDashboardState)
	b, cancelB := Observe[dashState](ctx, s, KeyDashboardState)
	defer cancelA()
	defer cancelB()
	<-a
	<-b

	require.NoError(t, Write(ctx, s, KeyDashboardState, dashState{SelectedServerID: 5}))

	for name, ch := range map[string]<-chan dashState{"a": a, "b": b} {
		select {
		case got := <-ch:
			assert.Equal(t, int64(5), got.SelectedServerID, "observer %s", name)
		case <-time.After(2 * time.Second):
			t.Fatalf("observer %s missed the write", name)
		}
	}
}

func TestNewestWriteSurvivesBurst(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	ch, cancel := Observe[int](ctx, s, "burst")
	defer cancel()
	<-ch // initial

	// Overflow the subscriber buffer without reading.
	const writes = subscriberBuffer * 3
	for i := 1; i <= writes; i++ {
		require.NoError(t, Write(ctx, s, "burst", i))
	}

	// Drain; the final value observed must be the newest write even
	// though older values may have been dropped.
	var last int
	deadline := time.After(2 * time.Second)
	for {
		select {
		case v := <-ch:
			last = v
			if v == writes {
				return
			}
		case <-deadline:
			t.Fatalf("newest write not delivered, last seen %d", last)
		}
	}
}

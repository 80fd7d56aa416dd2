package undo

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(grace time.Duration) *Manager {
	return NewManager(grace, time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// recorder collects commit and undo calls in order.
type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) add(s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, s)
}

func (r *recorder) list() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

func (r *recorder) item(id string) Item {
	return Item{
		ID:          id,
		Description: "delete " + id,
		Commit: func(ctx context.Context) error {
			r.add("commit:" + id)
			return nil
		},
		Undo: func() { r.add("undo:" + id) },
	}
}

func TestSchedule_FlushesPreviousItem(t *testing.T) {
	m := newTestManager(time.Hour)
	rec := &recorder{}

	require.NoError(t, m.Schedule(rec.item("a")))
	assert.Empty(t, rec.list())

	require.NoError(t, m.Schedule(rec.item("b")))
	assert.Equal(t, []string{"commit:a"}, rec.list(), "first item must commit before the second is pending")

	status := m.Status()
	assert.True(t, status.Pending)
	assert.Equal(t, "b", status.ID)

	assert.True(t, m.Undo())
	assert.Equal(t, []string{"commit:a", "undo:b"}, rec.list())
}

func TestUndo_Idempotent(t *testing.T) {
	m := newTestManager(time.Hour)
	rec := &recorder{}

	assert.False(t, m.Undo(), "undo with nothing pending is a no-op")

	require.NoError(t, m.Schedule(rec.item("a")))
	assert.True(t, m.Undo())
	assert.False(t, m.Undo())
	assert.Equal(t, []string{"undo:a"}, rec.list())
	assert.False(t, m.Status().Pending)
}

func TestExpiry_CommitsOnceAndUndoIsNoop(t *testing.T) {
	m := newTestManager(20 * time.Millisecond)
	rec := &recorder{}

	require.NoError(t, m.Schedule(rec.item("a")))
	require.Eventually(t, func() bool { return len(rec.list()) == 1 }, time.Second, 5*time.Millisecond)

	assert.False(t, m.Undo())
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, []string{"commit:a"}, rec.list())
	assert.False(t, m.Status().Pending)
}

func TestExpiry_FailedCommitIsNotRetried(t *testing.T) {
	m := newTestManager(10 * time.Millisecond)
	var calls atomic.Int32

	require.NoError(t, m.Schedule(Item{
		ID: "a",
		Commit: func(ctx context.Context) error {
			calls.Add(1)
			return errors.New("remote store unavailable")
		},
	}))

	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
	assert.False(t, m.Status().Pending, "a failed commit does not resurrect the item")
}

func TestStatus_RemainingRoundsUp(t *testing.T) {
	m := newTestManager(30 * time.Second)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	now := start
	m.now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}
	advance := func(d time.Duration) {
		mu.Lock()
		now = now.Add(d)
		mu.Unlock()
	}

	assert.Equal(t, Status{}, m.Status())

	require.NoError(t, m.Schedule(Item{ID: "a", Description: "delete note"}))
	assert.Equal(t, 30, m.Status().Remaining)

	advance(1500 * time.Millisecond)
	assert.Equal(t, 29, m.Status().Remaining)

	advance(28*time.Second + 400*time.Millisecond)
	assert.Equal(t, 1, m.Status().Remaining)

	advance(time.Second)
	assert.Equal(t, 0, m.Status().Remaining)

	assert.True(t, m.Undo())
}

func TestSubscribe_ReceivesTicksAndFinalEvent(t *testing.T) {
	m := newTestManager(1500 * time.Millisecond)
	ch, cancel := m.Subscribe()
	defer cancel()

	require.NoError(t, m.Schedule(Item{ID: "a", Commit: func(context.Context) error { return nil }}))

	var got []Event
	timeout := time.After(5 * time.Second)
	for {
		select {
		case s := <-ch:
			got = append(got, s.Event)
			if s.Event == EventCommitted {
				assert.Equal(t, EventScheduled, got[0])
				assert.Contains(t, got, EventTick)
				return
			}
		case <-timeout:
			t.Fatalf("no commit event, got %v", got)
		}
	}
}

func TestClose_CommitsPendingAndRejectsNewItems(t *testing.T) {
	m := newTestManager(time.Hour)
	rec := &recorder{}
	ch, _ := m.Subscribe()

	require.NoError(t, m.Schedule(rec.item("a")))
	require.NoError(t, m.Close(context.Background()))
	assert.Equal(t, []string{"commit:a"}, rec.list())

	assert.ErrorIs(t, m.Schedule(rec.item("b")), ErrClosed)
	assert.False(t, m.Undo())

	// The subscription is closed after draining what was already sent.
	for range ch {
	}
}

// Package undo commits destructive actions after a grace period unless the
// user cancels them first. At most one action is pending per Manager.
package undo

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"sync"
	"time"
)

// ErrClosed is returned by Schedule after Close.
var ErrClosed = errors.New("undo manager closed")

// Item is a destructive action waiting for its grace period to run out.
type Item struct {
	ID          string
	Description string
	// Commit performs the remote deletion. It should be idempotent.
	Commit func(ctx context.Context) error
	// Undo restores whatever the caller hid when scheduling. Optional.
	Undo func()
}

// Event says why a Status was emitted.
type Event string

const (
	EventScheduled Event = "scheduled"
	EventTick      Event = "tick"
	EventCommitted Event = "committed"
	EventCancelled Event = "cancelled"
)

// Status describes the pending item, if any.
type Status struct {
	Event       Event     `json:"event,omitempty"`
	Pending     bool      `json:"pending"`
	ID          string    `json:"id,omitempty"`
	Description string    `json:"description,omitempty"`
	Remaining   int       `json:"remaining_seconds"`
	ExpiresAt   time.Time `json:"expires_at,omitzero"`
}

type entry struct {
	item    Item
	expires time.Time
	timer   *time.Timer
	done    chan struct{}
}

// Manager owns at most one pending Item.
type Manager struct {
	grace         time.Duration
	commitTimeout time.Duration
	logger        *slog.Logger
	now           func() time.Time

	// scheduleMu serializes Schedule so a flush and the following
	// registration are not interleaved with another Schedule.
	scheduleMu sync.Mutex

	mu      sync.Mutex
	pending *entry
	subs    map[chan Status]struct{}
	closed  bool
}

func NewManager(grace, commitTimeout time.Duration, logger *slog.Logger) *Manager {
	return &Manager{
		grace:         grace,
		commitTimeout: commitTimeout,
		logger:        logger.With("component", "undo"),
		now:           time.Now,
		subs:          make(map[chan Status]struct{}),
	}
}

// Schedule makes item pending. An item that is already pending is
// committed first, synchronously, so two items are never pending together.
func (m *Manager) Schedule(item Item) error {
	m.scheduleMu.Lock()
	defer m.scheduleMu.Unlock()

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	prev := m.claim()
	m.mu.Unlock()

	if prev != nil {
		m.logger.Info("flushing pending delete", "id", prev.item.ID)
		m.commit(prev)
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	e := &entry{
		item:    item,
		expires: m.now().Add(m.grace),
		done:    make(chan struct{}),
	}
	e.timer = time.AfterFunc(m.grace, func() { m.expire(e) })
	m.pending = e
	status := m.statusLocked(EventScheduled)
	m.mu.Unlock()

	go m.countdown(e)
	m.broadcast(status)
	m.logger.Debug("delete scheduled", "id", item.ID, "grace", m.grace)
	return nil
}

// Undo cancels the pending item and runs its Undo callback. It reports
// false when nothing was pending.
func (m *Manager) Undo() bool {
	m.mu.Lock()
	e := m.claim()
	m.mu.Unlock()
	if e == nil {
		return false
	}

	if e.item.Undo != nil {
		e.item.Undo()
	}
	m.broadcast(Status{Event: EventCancelled, ID: e.item.ID, Description: e.item.Description})
	m.logger.Info("delete cancelled", "id", e.item.ID)
	return true
}

// Status reports the pending item with its remaining whole seconds, rounded up.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.statusLocked("")
}

// Subscribe returns a channel of status updates: one per second while an
// item is pending, plus one when it is scheduled, committed or cancelled.
// Slow readers miss ticks rather than block the manager.
func (m *Manager) Subscribe() (<-chan Status, func()) {
	ch := make(chan Status, 4)

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	m.subs[ch] = struct{}{}
	m.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			if _, ok := m.subs[ch]; ok {
				delete(m.subs, ch)
				close(ch)
			}
		})
	}
}

// Close commits any pending item on a best-effort basis, bounded by ctx,
// and rejects further scheduling.
func (m *Manager) Close(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	e := m.claim()
	m.mu.Unlock()

	var err error
	if e != nil {
		m.logger.Info("committing pending delete on shutdown", "id", e.item.ID)
		err = m.commitWith(ctx, e)
	}

	m.mu.Lock()
	for ch := range m.subs {
		delete(m.subs, ch)
		close(ch)
	}
	m.mu.Unlock()
	return err
}

// claim must be called with mu held. It detaches the pending entry so
// exactly one of expire, Undo, Schedule or Close acts on it.
func (m *Manager) claim() *entry {
	e := m.pending
	if e == nil {
		return nil
	}
	m.pending = nil
	e.timer.Stop()
	close(e.done)
	return e
}

func (m *Manager) expire(e *entry) {
	m.mu.Lock()
	if m.pending != e {
		m.mu.Unlock()
		return
	}
	m.claim()
	m.mu.Unlock()

	m.commit(e)
}

func (m *Manager) commit(e *entry) {
	ctx, cancel := context.WithTimeout(context.Background(), m.commitTimeout)
	defer cancel()
	_ = m.commitWith(ctx, e)
}

// commitWith runs the commit once. Failures are logged and never retried.
func (m *Manager) commitWith(ctx context.Context, e *entry) error {
	var err error
	if e.item.Commit != nil {
		err = e.item.Commit(ctx)
	}
	if err != nil {
		m.logger.Error("deferred delete failed", "id", e.item.ID, "description", e.item.Description, "error", err)
	} else {
		m.logger.Info("delete committed", "id", e.item.ID)
	}
	m.broadcast(Status{Event: EventCommitted, ID: e.item.ID, Description: e.item.Description})
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return nil
}

func (m *Manager) countdown(e *entry) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-e.done:
			return
		case <-ticker.C:
			m.mu.Lock()
			if m.pending != e {
				m.mu.Unlock()
				return
			}
			status := m.statusLocked(EventTick)
			m.mu.Unlock()
			m.broadcast(status)
		}
	}
}

func (m *Manager) statusLocked(event Event) Status {
	e := m.pending
	if e == nil {
		return Status{Event: event}
	}
	return Status{
		Event:       event,
		Pending:     true,
		ID:          e.item.ID,
		Description: e.item.Description,
		Remaining:   remainingSeconds(e.expires.Sub(m.now())),
		ExpiresAt:   e.expires,
	}
}

func (m *Manager) broadcast(s Status) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for ch := range m.subs {
		select {
		case ch <- s:
		default:
		}
	}
}

func remainingSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Seconds()))
}

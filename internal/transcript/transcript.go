// Package transcript holds the ordered log of chat turns.
//
// Invariants:
//   - Insertion order is chronological order.
//   - At most one turn is open (mutable) at a time, and only an assistant
//     turn appended last can be open.
//   - Open content only changes through UpdateContent/AppendContent until
//     Close; closed turns never change.
package transcript

import (
	"errors"
	"sync"
	"time"
)

var (
	// ErrInvalidHandle is returned when a handle does not reference the open tail.
	ErrInvalidHandle = errors.New("transcript: handle is not the open tail turn")
	// ErrTurnOpen is returned by Append while another turn is still open.
	ErrTurnOpen = errors.New("transcript: a turn is already open")
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message in the transcript.
type Turn struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	ModelID   string    `json:"model_id,omitempty"`
}

// Handle references a turn by position and creation time.
type Handle struct {
	index     int
	createdAt time.Time
}

func (h Handle) Index() int { return h.index }

type EventKind int

const (
	EventAppended EventKind = iota
	EventUpdated
	EventClosed
	EventReset
)

// Event describes a single mutation. Turn is a copy taken under the lock.
type Event struct {
	Kind  EventKind
	Index int
	Turn  Turn
	Open  bool
}

// Store is an append-only transcript with one open tail slot.
type Store struct {
	mu        sync.RWMutex
	turns     []Turn
	open      int // index of the open turn, -1 if none
	observers []func(Event)
	now       func() time.Time
}

// New returns a Store seeded with closed history turns.
func New(history []Turn) *Store {
	turns := make([]Turn, len(history))
	copy(turns, history)
	return &Store{turns: turns, open: -1, now: time.Now}
}

// Observe registers fn to be called after every mutation. Observers run
// outside the store lock, in registration order.
func (s *Store) Observe(fn func(Event)) {
	s.mu.Lock()
	s.observers = append(s.observers, fn)
	s.mu.Unlock()
}

// Append adds t to the end of the transcript. Assistant turns start open.
func (s *Store) Append(t Turn) (Handle, error) {
	s.mu.Lock()
	if s.open >= 0 {
		s.mu.Unlock()
		return Handle{}, ErrTurnOpen
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = s.now()
	}
	s.turns = append(s.turns, t)
	idx := len(s.turns) - 1
	if t.Role == RoleAssistant {
		s.open = idx
	}
	ev := Event{Kind: EventAppended, Index: idx, Turn: t, Open: s.open == idx}
	observers := s.observers
	s.mu.Unlock()

	notify(observers, ev)
	return Handle{index: idx, createdAt: t.CreatedAt}, nil
}

// UpdateContent replaces the content of the open tail turn.
func (s *Store) UpdateContent(h Handle, content string) error {
	return s.mutate(h, func(t *Turn) { t.Content = content })
}

// AppendContent appends suffix to the content of the open tail turn.
func (s *Store) AppendContent(h Handle, suffix string) error {
	return s.mutate(h, func(t *Turn) { t.Content += suffix })
}

func (s *Store) mutate(h Handle, fn func(*Turn)) error {
	s.mu.Lock()
	if !s.isOpenTail(h) {
		s.mu.Unlock()
		return ErrInvalidHandle
	}
	fn(&s.turns[h.index])
	ev := Event{Kind: EventUpdated, Index: h.index, Turn: s.turns[h.index], Open: true}
	observers := s.observers
	s.mu.Unlock()

	notify(observers, ev)
	return nil
}

// Close marks the open tail turn immutable.
func (s *Store) Close(h Handle) error {
	s.mu.Lock()
	if !s.isOpenTail(h) {
		s.mu.Unlock()
		return ErrInvalidHandle
	}
	s.open = -1
	ev := Event{Kind: EventClosed, Index: h.index, Turn: s.turns[h.index]}
	observers := s.observers
	s.mu.Unlock()

	notify(observers, ev)
	return nil
}

// Reset drops every turn. It fails while a turn is open.
func (s *Store) Reset() error {
	s.mu.Lock()
	if s.open >= 0 {
		s.mu.Unlock()
		return ErrTurnOpen
	}
	s.turns = nil
	observers := s.observers
	s.mu.Unlock()

	notify(observers, Event{Kind: EventReset, Index: -1})
	return nil
}

// Turn returns a copy of the turn referenced by h.
func (s *Store) Turn(h Handle) (Turn, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if h.index < 0 || h.index >= len(s.turns) || !s.turns[h.index].CreatedAt.Equal(h.createdAt) {
		return Turn{}, false
	}
	return s.turns[h.index], true
}

// Snapshot returns a copy of the full ordered transcript.
func (s *Store) Snapshot() []Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.turns)
}

// Open returns the handle of the open tail turn, if any.
func (s *Store) Open() (Handle, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.open < 0 {
		return Handle{}, false
	}
	return Handle{index: s.open, createdAt: s.turns[s.open].CreatedAt}, true
}

// isOpenTail requires s.mu held.
func (s *Store) isOpenTail(h Handle) bool {
	return s.open >= 0 &&
		h.index == s.open &&
		h.index == len(s.turns)-1 &&
		s.turns[h.index].CreatedAt.Equal(h.createdAt)
}

func notify(observers []func(Event), ev Event) {
	for _, fn := range observers {
		fn(ev)
	}
}

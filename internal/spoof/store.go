package spoof

import (
	"slices"
	"strings"
	"sync"

	"github.com/spoofmac/spoofmac/pkg/mac"
)

// State of one interface.
type State int

const (
	Original State = iota
	Spoofed
)

func (s State) String() string {
	if s == Spoofed {
		return "spoofed"
	}
	return "original"
}

// Entry is what the store knows about an interface.
type Entry struct {
	Name        string
	Original    mac.Addr
	HasOriginal bool
	Current     mac.Addr
	State       State
	// Verified is set when the interface reported the address of the
	// last transition after it was applied.
	Verified bool
}

// Store tracks interfaces for the lifetime of the process. The original
// address of an interface is recorded once and never overwritten.
type Store struct {
	mu      sync.Mutex
	entries map[string]*Entry
}

func NewStore() *Store {
	return &Store{entries: make(map[string]*Entry)}
}

// Remember records addr as the original address of name unless one is
// already known. It reports whether addr was recorded.
func (s *Store) Remember(name string, addr mac.Addr) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.entry(name)
	if e.HasOriginal {
		return false
	}
	e.Original = addr
	e.HasOriginal = true
	return true
}

// Get returns a copy of the entry for name.
func (s *Store) Get(name string) (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[name]
	if !ok {
		return Entry{Name: name}, false
	}
	return *e, true
}

// Entries returns copies of all entries sorted by name.
func (s *Store) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Entry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, *e)
	}
	slices.SortFunc(out, func(a, b Entry) int {
		return strings.Compare(a.Name, b.Name)
	})
	return out
}

func (s *Store) update(name string, fn func(*Entry)) Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.entry(name)
	fn(e)
	return *e
}

// entry must be called with mu held.
func (s *Store) entry(name string) *Entry {
	e, ok := s.entries[name]
	if !ok {
		e = &Entry{Name: name}
		s.entries[name] = e
	}
	return e
}

// Package ledger tracks the trigger signatures already applied to an entity.
//
// A chat host re-renders the same message many times; the ledger makes
// repeated delivery of one rating-change marker idempotent.
package ledger

import (
	"encoding/json"
	"sync"
)

// Ledger is a set of consumed signatures with insertion order kept for
// eviction and persistence.
type Ledger struct {
	mu      sync.RWMutex
	seen    map[string]struct{}
	order   []string
	maxSize int // <= 0 means unbounded
}

// New creates an empty ledger.
func New(opts ...Option) *Ledger {
	l := &Ledger{seen: make(map[string]struct{})}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Has reports whether sig was already applied.
func (l *Ledger) Has(sig string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.seen[sig]
	return ok
}

// Mark records sig as applied.
func (l *Ledger) Mark(sig string) {
	l.SeenAndRecord(sig)
}

// SeenAndRecord atomically checks sig and records it if new.
// Returns true if sig was already present.
func (l *Ledger) SeenAndRecord(sig string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.seen[sig]; ok {
		return true
	}
	if l.maxSize > 0 && len(l.order) >= l.maxSize {
		l.evictOldest()
	}
	l.seen[sig] = struct{}{}
	l.order = append(l.order, sig)
	return false
}

// Unmark forgets sig so it can be applied again.
func (l *Ledger) Unmark(sig string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.seen[sig]; !ok {
		return
	}
	delete(l.seen, sig)
	for i, s := range l.order {
		if s == sig {
			l.order = append(l.order[:i], l.order[i+1:]...)
			break
		}
	}
}

// evictOldest drops the first recorded signature. Caller holds l.mu.
func (l *Ledger) evictOldest() {
	if len(l.order) == 0 {
		return
	}
	delete(l.seen, l.order[0])
	l.order[0] = ""
	l.order = l.order[1:]
}

// Len returns the number of recorded signatures.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.order)
}

// Signatures returns the recorded signatures, oldest first.
func (l *Ledger) Signatures() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]string, len(l.order))
	copy(out, l.order)
	return out
}

// Clone returns an independent copy.
func (l *Ledger) Clone() *Ledger {
	l.mu.RLock()
	defer l.mu.RUnlock()
	c := &Ledger{
		seen:    make(map[string]struct{}, len(l.seen)),
		order:   make([]string, len(l.order)),
		maxSize: l.maxSize,
	}
	copy(c.order, l.order)
	for _, s := range c.order {
		c.seen[s] = struct{}{}
	}
	return c
}

type wireLedger struct {
	MaxSize    int      `json:"max_size,omitempty"`
	Signatures []string `json:"signatures"`
}

// MarshalJSON persists the ledger alongside its entity.
func (l *Ledger) MarshalJSON() ([]byte, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	sigs := l.order
	if sigs == nil {
		sigs = []string{}
	}
	return json.Marshal(wireLedger{MaxSize: l.maxSize, Signatures: sigs})
}

// UnmarshalJSON restores a persisted ledger.
func (l *Ledger) UnmarshalJSON(data []byte) error {
	var w wireLedger
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.maxSize = w.MaxSize
	l.seen = make(map[string]struct{}, len(w.Signatures))
	l.order = l.order[:0]
	for _, s := range w.Signatures {
		if _, dup := l.seen[s]; dup {
			continue
		}
		l.seen[s] = struct{}{}
		l.order = append(l.order, s)
	}
	return nil
}

// Package reconcile diffs a freshly resolved batch against the persisted
// entity set. A key absent from the store is inserted; an open key that has
// disappeared from the batch is soft-closed. Closure is permanent: a closed key
// is never reopened or re-inserted, and never closed a second time.
package reconcile

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

var (
	// ErrDuplicateKey is returned when one batch carries the same key twice
	ErrDuplicateKey = errors.New("duplicate reconciliation key")
	// ErrEmptyKey is returned for a record without a usable key
	ErrEmptyKey = errors.New("empty reconciliation key")
)

// Persisted is the stored state of one entity
type Persisted struct {
	Key      string
	Closed   bool
	ClosedAt *time.Time
}

// Delta is the set of changes one run applies to the store
type Delta[T any] struct {
	Insert     []T      // new records, in incoming order
	Close      []string // open keys missing from the batch, sorted
	Unchanged  int      // keys present in both sides
	Reappeared []string // closed keys seen again, left closed
}

// Empty reports whether applying the delta would change nothing
func (d Delta[T]) Empty() bool {
	return len(d.Insert) == 0 && len(d.Close) == 0
}

// Reconcile computes the delta between incoming records and persisted state.
// keyOf extracts the reconciliation key; keys are compared after trimming
// surrounding space.
func Reconcile[T any](incoming []T, keyOf func(T) string, persisted []Persisted) (Delta[T], error) {
	var delta Delta[T]

	stored := make(map[string]Persisted, len(persisted))
	for _, p := range persisted {
		stored[strings.TrimSpace(p.Key)] = p
	}

	seen := make(map[string]bool, len(incoming))
	for i, rec := range incoming {
		key := strings.TrimSpace(keyOf(rec))
		if key == "" {
			return Delta[T]{}, fmt.Errorf("record %d: %w", i, ErrEmptyKey)
		}
		if seen[key] {
			return Delta[T]{}, fmt.Errorf("record %d: %w %q", i, ErrDuplicateKey, key)
		}
		seen[key] = true

		p, ok := stored[key]
		switch {
		case !ok:
			delta.Insert = append(delta.Insert, rec)
		case p.Closed:
			delta.Reappeared = append(delta.Reappeared, key)
		default:
			delta.Unchanged++
		}
	}

	for key, p := range stored {
		if !p.Closed && !seen[key] {
			delta.Close = append(delta.Close, key)
		}
	}
	sort.Strings(delta.Close)

	return delta, nil
}

// Package ident assigns unique notification identifiers, skipping bands
// reserved by other notification producers.
package ident

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"attune/internal/nudge"
	"attune/internal/store"
)

// ErrExhausted is returned when no identifier below the ceiling remains.
var ErrExhausted = errors.New("notification identifier space exhausted")

// DefaultMaxID is the default allocation ceiling, chosen so identifiers fit
// platforms that store notification ids as signed 32-bit integers.
const DefaultMaxID = int64(1)<<31 - 1

// Allocator hands out monotonically distinct notification identifiers. The
// high-water mark and the reserved ranges are persisted, so allocations never
// repeat across restarts and never land inside a reserved band.
type Allocator struct {
	store *store.Store
	maxID int64

	mu sync.Mutex
}

// NewAllocator builds an allocator over the given store.
func NewAllocator(st *store.Store) *Allocator {
	return &Allocator{store: st, maxID: DefaultMaxID}
}

// Allocate returns the next free identifier. Reserved ranges are consulted
// with an O(ranges) containment check per candidate; a candidate inside a
// range skips to just past that range's end, so a handful of ranges costs a
// handful of comparisons.
func (a *Allocator) Allocate(ctx context.Context) (int64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	ranges, err := a.store.ReservedRanges(ctx)
	if err != nil {
		return 0, fmt.Errorf("load reserved ranges: %w", err)
	}
	last, err := a.store.LastAllocatedID(ctx)
	if err != nil {
		return 0, fmt.Errorf("load allocator mark: %w", err)
	}

	candidate := last + 1
	for candidate <= a.maxID {
		if blocked, next := inReservedRange(candidate, ranges); blocked {
			candidate = next
			continue
		}
		if err := a.store.SetLastAllocatedID(ctx, candidate); err != nil {
			return 0, fmt.Errorf("persist allocator mark: %w", err)
		}
		return candidate, nil
	}
	return 0, ErrExhausted
}

// RegisterReservedRange records a band claimed by another producer.
// Idempotent: registering the same band twice changes nothing.
func (a *Allocator) RegisterReservedRange(ctx context.Context, start, end int64, owner string) error {
	r := nudge.ReservedRange{Start: start, End: end, Owner: owner}
	if err := r.Validate(); err != nil {
		return err
	}
	return a.store.AddReservedRange(ctx, r)
}

// ReservedRanges returns the persisted reserved bands.
func (a *Allocator) ReservedRanges(ctx context.Context) ([]nudge.ReservedRange, error) {
	return a.store.ReservedRanges(ctx)
}

func inReservedRange(candidate int64, ranges []nudge.ReservedRange) (bool, int64) {
	for _, r := range ranges {
		if r.Contains(candidate) {
			return true, r.End + 1
		}
	}
	return false, candidate
}

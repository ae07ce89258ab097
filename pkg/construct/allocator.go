package construct

import "sync"

// Allocator hands out the identifiers of constructed entities: a monotonic
// counter plus a map from construction key (entity name + sorted grouping
// values) to the identifier already allocated for it.
//
// Within one construction pass, rows producing the same construction key
// receive the same identifier and different keys never collide. Across
// passes the counter keeps rising and the key map is reset, so identifiers
// are never reused even for identical keys.
//
// One allocator belongs to one query execution. It is internally locked so
// a future design may parallelize grouping, but a single construction pass
// must remain its only writer.
type Allocator struct {
	mu       sync.Mutex
	next     int64
	assigned map[string]int64
}

// NewAllocator creates an allocator whose first identifier is 1.
func NewAllocator() *Allocator {
	return &Allocator{next: 1, assigned: make(map[string]int64)}
}

// EnsureAtLeast raises the counter so the next identifier is at least min.
// Callers seed it above the source graph's highest identifier before
// constructing, keeping new entities collision-free.
func (a *Allocator) EnsureAtLeast(min int64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.next < min {
		a.next = min
	}
}

// BeginPass resets the key map. Called once at the start of every
// construction pass; the counter is left untouched.
func (a *Allocator) BeginPass() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.assigned = make(map[string]int64)
}

// Fresh allocates an identifier unconditionally. Used for ungrouped
// entities, which get a new identifier per row.
func (a *Allocator) Fresh() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	id := a.next
	a.next++
	return id
}

// For returns the identifier recorded for the construction key, allocating
// and recording a fresh one on first sight. fresh reports whether the key
// was new.
func (a *Allocator) For(key string) (id int64, fresh bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if id, ok := a.assigned[key]; ok {
		return id, false
	}
	id = a.next
	a.next++
	a.assigned[key] = id
	return id, true
}

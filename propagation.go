// propagation.go - lock-free single-writer/single-reader property mailbox

/*
alcore - lock-free 3D positional audio mixing engine
(c) 2026 The alcore Authors
License: GPLv3 or later
*/

package al

import "sync/atomic"

// Mailbox is the generic lock-free handoff primitive described in spec
// Section 4.9: an API-thread writer publishes a complete property snapshot
// via atomic exchange; the mixer thread consumes it the same way. Consumed
// (and superseded) snapshots return to a CAS-based free list for reuse, so
// snapshots are not reallocated on the steady-state path; each push onto the
// free list does allocate a small list node. The zero value is ready to use.
//
// T should be a plain-data struct copied by value into freshly Acquired
// nodes; Mailbox never inspects T's fields, so partial/torn updates are
// impossible by construction — a reader either sees a whole snapshot or none.
type Mailbox[T any] struct {
	update atomic.Pointer[T]
	free   atomic.Pointer[freeNode[T]]
}

type freeNode[T any] struct {
	val  *T
	next *freeNode[T]
}

// Acquire returns a snapshot to fill in, reusing one from the free list when
// available. The caller (an API thread) owns the returned pointer
// exclusively until it calls Publish.
func (m *Mailbox[T]) Acquire() *T {
	for {
		n := m.free.Load()
		if n == nil {
			return new(T)
		}
		if m.free.CompareAndSwap(n, n.next) {
			return n.val
		}
	}
}

// Publish atomically installs v as the pending update, returning the
// previously pending snapshot (if any) to the free list. Called by an API
// thread after Acquire and filling every field.
func (m *Mailbox[T]) Publish(v *T) {
	old := m.update.Swap(v)
	if old != nil {
		m.release(old)
	}
}

// Consume atomically takes the pending update, if any, returning (nil,
// false) when nothing is pending. Called once per block by the mixer
// thread. The caller must call Release once it has copied the snapshot's
// fields into its active params, to return the node to the free list.
func (m *Mailbox[T]) Consume() (*T, bool) {
	v := m.update.Swap(nil)
	if v == nil {
		return nil, false
	}
	return v, true
}

// Release returns a consumed snapshot to the free list for reuse.
func (m *Mailbox[T]) Release(v *T) {
	m.release(v)
}

func (m *Mailbox[T]) release(v *T) {
	n := &freeNode[T]{val: v}
	for {
		head := m.free.Load()
		n.next = head
		if m.free.CompareAndSwap(head, n) {
			return
		}
		// CAS loop: wait-free by construction, bounded by the number of
		// concurrent producers racing this push (see DESIGN.md open
		// questions on free-list livelock).
	}
}

// Pending reports whether an update is currently waiting for the mixer,
// without consuming it. Used by deferred-update bookkeeping.
func (m *Mailbox[T]) Pending() bool {
	return m.update.Load() != nil
}

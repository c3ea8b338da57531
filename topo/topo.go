// Package topo assigns stable identities to hook calls based on their
// position in the nested call structure of a render pass. An identity is an
// ordered path of counters: sibling calls at one nesting depth are numbered
// by a monotonically increasing counter that resets on every scope entry, so
// the same call structure yields the same identities on every pass.
package topo

import (
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

const pathSep = "/"

// CallID is the positional identity of one hook call. It is a comparable
// value and can be used directly as a map key.
type CallID struct {
	path string
}

// RootID returns the identity for a top-level component with the given name.
func RootID(name string) CallID {
	return CallID{path: name}
}

func (id CallID) child(slot int) CallID {
	return CallID{path: id.path + pathSep + strconv.Itoa(slot)}
}

func (id CallID) String() string { return id.path }

func (id CallID) IsZero() bool { return id.path == "" }

// Root returns the top-level component identity this call belongs to.
func (id CallID) Root() CallID {
	if i := strings.Index(id.path, pathSep); i >= 0 {
		return CallID{path: id.path[:i]}
	}
	return id
}

// Within reports whether id is root itself or lives in root's subtree.
func (id CallID) Within(root CallID) bool {
	return id == root || strings.HasPrefix(id.path, root.path+pathSep)
}

// Key is a 64-bit storage key derived from an identity path or a name.
type Key uint64

// KeyOf hashes an arbitrary name into a storage key. Used for named global
// state that is not tied to any call position.
func KeyOf(name string) Key {
	return Key(xxhash.Sum64String(name))
}

// Key returns the storage key for this identity.
func (id CallID) Key() Key {
	return Key(xxhash.Sum64String(id.path))
}

type frame struct {
	base CallID
	next int
}

// Allocator hands out CallIDs during one component render. It must be driven
// in the exact same call order and nesting structure every pass for the
// identities to remain stable; a hook call skipped on one pass shifts every
// identity after it.
type Allocator struct {
	stack []frame
}

// NewAllocator returns an allocator rooted at the given component identity.
func NewAllocator(root CallID) *Allocator {
	return &Allocator{stack: []frame{{base: root}}}
}

// Reset rewinds the allocator to its root with all counters zeroed. Called at
// the top of every render of the owning component.
func (a *Allocator) Reset() {
	a.stack = a.stack[:1]
	a.stack[0].next = 0
}

// NextID returns the next identity at the current nesting level and advances
// the level's counter.
func (a *Allocator) NextID() CallID {
	top := &a.stack[len(a.stack)-1]
	id := top.base.child(top.next)
	top.next++
	return id
}

// EnterScope pushes a fresh nesting level. The scope itself consumes one slot
// at the current level; identities allocated inside it are children of that
// slot. The returned release func pops the level and must be called on every
// exit path, typically via defer.
func (a *Allocator) EnterScope() (release func()) {
	top := &a.stack[len(a.stack)-1]
	slot := top.next
	top.next++
	a.stack = append(a.stack, frame{base: top.base.child(slot)})

	depth := len(a.stack)
	return func() {
		if len(a.stack) >= depth {
			a.stack = a.stack[:depth-1]
		}
	}
}

// Depth returns the number of open nesting levels, including the root.
func (a *Allocator) Depth() int { return len(a.stack) }

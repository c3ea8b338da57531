package hooks

import (
	"reflect"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/hookparty/hookparty/topo"
)

// atomState is one primitive reactive cell in the registry: a current value,
// the component call-sites subscribed to it, and the derived reactions to
// recompute when it changes. Derived values are layered on these same cells;
// the registry itself only ever holds primitive state.
type atomState struct {
	key         topo.Key
	name        string
	value       any
	init        func() any
	initialized bool
	disposed    bool

	subs      mapset.Set[topo.CallID]
	reactions mapset.Set[topo.Key]
}

func newAtomState(key topo.Key, name string) *atomState {
	return &atomState{
		key:       key,
		name:      name,
		subs:      mapset.NewThreadUnsafeSet[topo.CallID](),
		reactions: mapset.NewThreadUnsafeSet[topo.Key](),
	}
}

// Atom is a handle to a named reactive value. Handles are plain values, cheap
// to copy, and may outlive the cell they point at; writes through a stale
// handle are dropped with a logged warning rather than failing the pass.
type Atom[T any] struct {
	e    *Engine
	key  topo.Key
	name string
}

// NewAtom registers a reactive cell under name, running init once on first
// registration. Calling it again with an existing name returns a handle to
// the existing cell without re-initializing it.
func NewAtom[T any](e *Engine, name string, init func() T) Atom[T] {
	key := topo.KeyOf(name)
	if _, ok := e.atoms[key]; !ok {
		st := newAtomState(key, name)
		st.init = func() any { return init() }
		st.value = init()
		st.initialized = true
		e.atoms[key] = st
	}
	return Atom[T]{e: e, key: key, name: name}
}

// UseAtom creates a reactive cell owned by the current call-site: it is
// disposed automatically when the call-site stops being visited, unlike a
// NewAtom cell which lives for the life of the engine.
func UseAtom[T any](ctx *Ctx, init func() T) Atom[T] {
	id := ctx.NextID()
	key := id.Key()
	e := ctx.e
	if _, ok := e.atoms[key]; !ok {
		st := newAtomState(key, id.String())
		st.init = func() any { return init() }
		st.value = init()
		st.initialized = true
		e.atoms[key] = st
		e.RegisterEffect(id, func() { e.disposeAtom(key) })
	}
	return Atom[T]{e: e, key: key, name: id.String()}
}

// Name returns the name the atom was registered under.
func (a Atom[T]) Name() string { return a.name }

// Key returns the atom's storage key.
func (a Atom[T]) Key() topo.Key { return a.key }

// Get reads the value and subscribes the current call-site: when the value
// later changes, even later in the same render, the owning component is
// re-rendered.
func (a Atom[T]) Get(ctx *Ctx) T {
	site := ctx.NextID()
	ctx.e.trackRead(a.key, site)
	v, _ := atomValue[T](a.e, a.key)
	return v
}

// GetUntracked reads the value without subscribing anything.
func (a Atom[T]) GetUntracked() T {
	v, _ := atomValue[T](a.e, a.key)
	return v
}

// TryGet reads the value, reporting false when the cell has been disposed or
// never initialized.
func (a Atom[T]) TryGet() (T, bool) {
	return atomValue[T](a.e, a.key)
}

// Set replaces the value. Equal values (for comparable types) are a no-op:
// no reaction runs and no render is enqueued. Otherwise every downstream
// reaction recomputes synchronously and every subscriber's component is
// queued for re-render in the current phase.
func (a Atom[T]) Set(v T) { a.e.writeAtom(a.key, a.name, v, true) }

// InertSet replaces the value without notifying anyone. Reactions and
// subscribers see the new value next time something else makes them look.
func (a Atom[T]) InertSet(v T) { a.e.writeAtom(a.key, a.name, v, false) }

// Update applies fn to a copy of the current value and stores the result
// through the normal Set path.
func (a Atom[T]) Update(fn func(*T)) {
	v, ok := atomValue[T](a.e, a.key)
	if !ok {
		a.e.warnStaleWrite(a.name)
		return
	}
	fn(&v)
	a.Set(v)
}

// Reset re-runs the init closure the atom was registered with and stores the
// result through the normal Set path.
func (a Atom[T]) Reset() {
	st, ok := a.e.atoms[a.key]
	if !ok || st.disposed || st.init == nil {
		a.e.warnStaleWrite(a.name)
		return
	}
	a.Set(st.init().(T))
}

// StateExists reports whether the cell is still live.
func (a Atom[T]) StateExists() bool {
	st, ok := a.e.atoms[a.key]
	return ok && !st.disposed && st.initialized
}

// Dispose removes the cell. Outstanding handles stay valid to hold but any
// write through them is dropped with a warning.
func (a Atom[T]) Dispose() { a.e.disposeAtom(a.key) }

// HasChanged reports whether the atom's value differs from what this
// call-site saw on the previous pass, and remembers the new value.
func (a Atom[T]) HasChanged(ctx *Ctx) bool {
	cur := a.Get(ctx)
	prev := GetOrInit(ctx, func() T { return cur })
	changed := valueChanged(*prev, cur)
	*prev = cur
	return changed
}

// OnChange invokes fn with the previous and current value when the atom
// changed since this call-site last looked.
func (a Atom[T]) OnChange(ctx *Ctx, fn func(prev, curr T)) {
	cur := a.Get(ctx)
	prev := GetOrInit(ctx, func() T { return cur })
	if !valueChanged(*prev, cur) {
		return
	}
	p := *prev
	*prev = cur
	fn(p, cur)
}

func atomValue[T any](e *Engine, key topo.Key) (T, bool) {
	var zero T
	st, ok := e.atoms[key]
	if !ok || st.disposed || !st.initialized {
		return zero, false
	}
	v, ok := st.value.(T)
	if !ok {
		panic(engineFault{err: &TypeMismatchError{
			ID:        topo.RootID(st.name),
			Stored:    reflect.TypeOf(st.value),
			Requested: reflect.TypeOf((*T)(nil)).Elem(),
		}})
	}
	return v, true
}

func (e *Engine) writeAtom(key topo.Key, name string, v any, notify bool) {
	st, ok := e.atoms[key]
	if !ok || st.disposed {
		e.warnStaleWrite(name)
		return
	}
	if !notify {
		st.value = v
		st.initialized = true
		return
	}
	if st.initialized && !valueChanged(st.value, v) {
		return
	}
	st.value = v
	st.initialized = true
	e.reactAndNotify(st)
}

// reactAndNotify runs the cell's downstream reactions synchronously, then
// queues every subscriber's owning component for re-render.
func (e *Engine) reactAndNotify(st *atomState) {
	for _, rkey := range st.reactions.ToSlice() {
		e.executeReaction(rkey)
	}
	for id := range st.subs.Iter() {
		e.sched.enqueue(id.Root())
	}
}

// disposeAtom removes the cell from the registry entirely, so a later
// NewAtom or UseAtom under the same key starts over from init. The disposed
// flag is left set for any handle-free reference still holding the state.
func (e *Engine) disposeAtom(key topo.Key) {
	st, ok := e.atoms[key]
	if !ok {
		return
	}
	st.disposed = true
	st.value = nil
	st.subs.Clear()
	st.reactions.Clear()
	delete(e.atoms, key)
}

func (e *Engine) warnStaleWrite(name string) {
	e.logger.Printf("hooks: dropped write to disposed atom %q", name)
}

// valueChanged implements the write-suppression policy: comparable values
// are compared by equality, everything else is always treated as changed.
func valueChanged(old, next any) bool {
	if old == nil {
		return true
	}
	ot, nt := reflect.TypeOf(old), reflect.TypeOf(next)
	if nt == nil || ot != nt || !nt.Comparable() {
		return true
	}
	return old != next
}

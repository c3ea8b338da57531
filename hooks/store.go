package hooks

import (
	"reflect"

	"github.com/hookparty/hookparty/topo"
)

// cell owns one piece of hook-local state, keyed by call-site identity. The
// boxed value is a *T so callers get a pointer that stays stable for as long
// as the call-site keeps being visited.
type cell struct {
	id    topo.CallID
	tag   reflect.Type
	value any
}

func getOrInitID[T any](e *Engine, id topo.CallID, init func() T) (*T, error) {
	key := id.Key()
	want := reflect.TypeOf((*T)(nil)).Elem()
	if c, ok := e.cells[key]; ok {
		if c.tag != want {
			return nil, &TypeMismatchError{ID: id, Stored: c.tag, Requested: want}
		}
		return c.value.(*T), nil
	}
	v := init()
	ptr := &v
	e.cells[key] = &cell{id: id, tag: want, value: ptr}
	return ptr, nil
}

// GetOrInit is the primitive every higher-level hook builds on: it returns
// the state stored for the current call-site, calling init exactly once on
// the first visit. The returned pointer is the same on every pass as long as
// the call structure around it is unchanged. If the stored type differs from
// T the pass aborts with a TypeMismatchError.
func GetOrInit[T any](ctx *Ctx, init func() T) *T {
	id := ctx.NextID()
	ptr, err := getOrInitID(ctx.e, id, init)
	if err != nil {
		panic(engineFault{id: id, err: err})
	}
	return ptr
}

// StateExistsForID reports whether state of type T is stored for id.
func StateExistsForID[T any](e *Engine, id topo.CallID) bool {
	c, ok := e.cells[id.Key()]
	return ok && c.tag == reflect.TypeOf((*T)(nil)).Elem()
}

// GetStateForID returns a copy of the state stored for id, or false when
// nothing (or something of another type) is stored there.
func GetStateForID[T any](e *Engine, id topo.CallID) (T, bool) {
	var zero T
	c, ok := e.cells[id.Key()]
	if !ok || c.tag != reflect.TypeOf((*T)(nil)).Elem() {
		return zero, false
	}
	return *c.value.(*T), true
}

// SetStateForID stores state for id directly, replacing whatever was there,
// without scheduling any re-render. Used by hosts and tests to seed state.
func SetStateForID[T any](e *Engine, id topo.CallID, v T) {
	key := id.Key()
	want := reflect.TypeOf((*T)(nil)).Elem()
	if c, ok := e.cells[key]; ok && c.tag == want {
		*c.value.(*T) = v
		return
	}
	ptr := &v
	e.cells[key] = &cell{id: id, tag: want, value: ptr}
}

// UpdateStateForID mutates the state stored for id in place. Returns false
// when no state of type T exists there.
func UpdateStateForID[T any](e *Engine, id topo.CallID, fn func(*T)) bool {
	c, ok := e.cells[id.Key()]
	if !ok || c.tag != reflect.TypeOf((*T)(nil)).Elem() {
		return false
	}
	fn(c.value.(*T))
	return true
}

// RemoveStateForID evicts id's state immediately, running any cleanups
// registered for it.
func RemoveStateForID(e *Engine, id topo.CallID) {
	e.evict(id)
}

// RegisterEffect stores a cleanup closure invoked when id is swept or its
// component unmounts.
func (e *Engine) RegisterEffect(id topo.CallID, cleanup func()) {
	e.cleanups[id] = append(e.cleanups[id], cleanup)
}

// evict removes id's cell, runs its cleanups and prunes it from every atom's
// subscriber set.
func (e *Engine) evict(id topo.CallID) {
	delete(e.cells, id.Key())
	delete(e.missed, id)
	if keys := e.subscriptions[id]; keys != nil {
		e.dropSubscriptions(id, keys)
	}
	fns := e.cleanups[id]
	delete(e.cleanups, id)
	for _, fn := range fns {
		fn()
	}
}

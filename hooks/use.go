package hooks

import (
	"reflect"

	"github.com/hookparty/hookparty/topo"
)

// State is the accessor returned by UseState: read, replace or mutate one
// piece of component-local state from anywhere, including host callbacks
// running between passes.
type State[T any] struct {
	e   *Engine
	id  topo.CallID
	ptr *T
}

// UseState associates a value of type T with the current call-site, running
// init only on the first visit.
func UseState[T any](ctx *Ctx, init func() T) State[T] {
	id := ctx.NextID()
	ptr, err := getOrInitID(ctx.e, id, init)
	if err != nil {
		panic(engineFault{id: id, err: err})
	}
	return State[T]{e: ctx.e, id: id, ptr: ptr}
}

// ID returns the call-site identity the state is bound to.
func (s State[T]) ID() topo.CallID { return s.id }

// Get returns the current value.
func (s State[T]) Get() T { return *s.ptr }

// GetWith passes a pointer to the live value to fn, without scheduling
// anything.
func (s State[T]) GetWith(fn func(*T)) { fn(s.ptr) }

// Set replaces the value and queues a re-render of the owning component.
// Setting an equal value is a no-op. A Set after the call-site's state was
// swept is dropped with a warning, like a stale atom write.
func (s State[T]) Set(v T) {
	if _, ok := s.e.cells[s.id.Key()]; !ok {
		s.e.logger.Printf("hooks: dropped write to swept state %s", s.id)
		return
	}
	if !valueChanged(*s.ptr, v) {
		return
	}
	*s.ptr = v
	s.e.sched.enqueue(s.id.Root())
}

// Update applies fn to the live value and queues a re-render.
func (s State[T]) Update(fn func(*T)) {
	if _, ok := s.e.cells[s.id.Key()]; !ok {
		s.e.logger.Printf("hooks: dropped write to swept state %s", s.id)
		return
	}
	fn(s.ptr)
	s.e.sched.enqueue(s.id.Root())
}

type memoCell[T any] struct {
	value T
	deps  []any
	valid bool
}

// UseMemo recomputes a value only when deps change (compared deeply). With no
// deps it computes once and caches forever.
func UseMemo[T any](ctx *Ctx, compute func() T, deps ...any) T {
	m := GetOrInit(ctx, func() memoCell[T] { return memoCell[T]{} })
	if !m.valid || !reflect.DeepEqual(m.deps, deps) {
		m.value = compute()
		m.deps = deps
		m.valid = true
	}
	return m.value
}

// Reducer is the accessor returned by UseReducer.
type Reducer[S, A any] struct {
	state  State[S]
	reduce func(S, A) S
}

// UseReducer manages state through a reducer function; Dispatch feeds it an
// action and queues a re-render.
func UseReducer[S, A any](ctx *Ctx, reduce func(S, A) S, init func() S) Reducer[S, A] {
	return Reducer[S, A]{
		state:  UseState(ctx, init),
		reduce: reduce,
	}
}

// State returns the current reduced state.
func (r Reducer[S, A]) State() S { return r.state.Get() }

// Dispatch applies an action.
func (r Reducer[S, A]) Dispatch(action A) {
	r.state.Set(r.reduce(r.state.Get(), action))
}

type effectCell struct {
	deps       []any
	cleanup    func()
	ran        bool
	registered bool
}

// UseEffect runs fn when deps change (or every render with no deps), calling
// the cleanup returned by the previous run first. The last cleanup also runs
// when the call-site is swept or the component unmounts. fn may return nil.
func UseEffect(ctx *Ctx, fn func() (cleanup func()), deps ...any) {
	id := ctx.NextID()
	c, err := getOrInitID(ctx.e, id, func() effectCell { return effectCell{} })
	if err != nil {
		panic(engineFault{id: id, err: err})
	}
	if !c.registered {
		c.registered = true
		ctx.e.RegisterEffect(id, func() {
			if c.cleanup != nil {
				c.cleanup()
			}
		})
	}
	if c.ran && len(deps) > 0 && reflect.DeepEqual(c.deps, deps) {
		return
	}
	if c.cleanup != nil {
		c.cleanup()
	}
	c.cleanup = fn()
	c.deps = deps
	c.ran = true
}

// OnUnmount registers a cleanup for the current call-site, invoked when the
// call-site is swept or its component unmounts. Re-renders do not stack
// duplicate registrations.
func OnUnmount(ctx *Ctx, cleanup func()) {
	id := ctx.NextID()
	registered, err := getOrInitID(ctx.e, id, func() bool { return false })
	if err != nil {
		panic(engineFault{id: id, err: err})
	}
	if *registered {
		return
	}
	*registered = true
	ctx.e.RegisterEffect(id, cleanup)
}

// DoOnce runs fn exactly once for this call-site, however many times the
// component renders. The returned state reports (and can reset) whether it
// has run.
func DoOnce(ctx *Ctx, fn func()) State[bool] {
	done := UseState(ctx, func() bool { return false })
	if !done.Get() {
		fn()
		done.Set(true)
	}
	return done
}

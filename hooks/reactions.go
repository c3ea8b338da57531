package hooks

import (
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/hookparty/hookparty/topo"
)

// reaction is a derived value: a compute closure re-run whenever one of the
// atoms it observed is set. Its result lives in an ordinary registry cell, so
// components (and other reactions) subscribe to it exactly like to an atom.
type reaction struct {
	key     topo.Key
	name    string
	compute func(rx *Rx) any
}

// Rx is the recording scope handed to a reaction's compute closure. Reads
// made through it become the reaction's dependencies for the next run,
// replacing the previous set wholesale.
type Rx struct {
	e    *Engine
	key  topo.Key
	keys mapset.Set[topo.Key]
}

// Observe reads the atom's value and records it as a dependency of the
// recomputing reaction.
func (a Atom[T]) Observe(rx *Rx) T {
	rx.keys.Add(a.key)
	v, _ := atomValue[T](a.e, a.key)
	return v
}

// Reaction is a handle to a derived value.
type Reaction[T any] struct {
	e    *Engine
	key  topo.Key
	name string
}

// NewReaction registers a derived value under name and computes it once
// immediately. Recomputation happens synchronously whenever an observed atom
// is set (not when it is inert-set).
func NewReaction[T any](e *Engine, name string, compute func(rx *Rx) T) Reaction[T] {
	r := newReaction(e, name, compute)
	if st := e.atoms[r.key]; st != nil && !st.initialized {
		e.executeReaction(r.key)
	}
	return r
}

// NewReactionSuspended registers a derived value without computing it; the
// first Get (or Observe) runs it. Until then it has no dependencies and no
// atom write will trigger it.
func NewReactionSuspended[T any](e *Engine, name string, compute func(rx *Rx) T) Reaction[T] {
	return newReaction(e, name, compute)
}

func newReaction[T any](e *Engine, name string, compute func(rx *Rx) T) Reaction[T] {
	key := topo.KeyOf(name)
	if _, ok := e.reactions[key]; !ok {
		e.reactions[key] = &reaction{
			key:     key,
			name:    name,
			compute: func(rx *Rx) any { return compute(rx) },
		}
		e.atoms[key] = newAtomState(key, name)
	}
	return Reaction[T]{e: e, key: key, name: name}
}

// Name returns the name the reaction was registered under.
func (r Reaction[T]) Name() string { return r.name }

// Key returns the reaction's storage key.
func (r Reaction[T]) Key() topo.Key { return r.key }

// Get reads the derived value and subscribes the current call-site, running
// the compute closure first if it has never run.
func (r Reaction[T]) Get(ctx *Ctx) T {
	r.ensure()
	site := ctx.NextID()
	r.e.trackRead(r.key, site)
	v, _ := atomValue[T](r.e, r.key)
	return v
}

// GetUntracked reads the derived value without subscribing anything.
func (r Reaction[T]) GetUntracked() T {
	r.ensure()
	v, _ := atomValue[T](r.e, r.key)
	return v
}

// Observe reads the derived value as a dependency of another reaction,
// chaining them: when this one recomputes to a different value, the observer
// recomputes too.
func (r Reaction[T]) Observe(rx *Rx) T {
	r.ensure()
	rx.keys.Add(r.key)
	v, _ := atomValue[T](r.e, r.key)
	return v
}

// Remove drops the reaction and its backing cell.
func (r Reaction[T]) Remove() {
	e := r.e
	if old := e.reactionDeps[r.key]; old != nil {
		for k := range old.Iter() {
			if st := e.atoms[k]; st != nil {
				st.reactions.Remove(r.key)
			}
		}
		delete(e.reactionDeps, r.key)
	}
	delete(e.reactions, r.key)
	e.disposeAtom(r.key)
}

// StateExists reports whether the derived value has been computed and not
// removed.
func (r Reaction[T]) StateExists() bool {
	st, ok := r.e.atoms[r.key]
	return ok && !st.disposed && st.initialized
}

func (r Reaction[T]) ensure() {
	if st := r.e.atoms[r.key]; st != nil && !st.initialized && !st.disposed {
		r.e.executeReaction(r.key)
	}
}

// executeReaction re-runs one reaction: record fresh dependencies, replace
// the old set, then store the result through the normal change-suppressed
// write path so downstream reactions and subscribers cascade. Reentrant
// executions of a reaction already on the stack are skipped, which breaks
// dependency cycles instead of recursing forever.
func (e *Engine) executeReaction(key topo.Key) {
	r, ok := e.reactions[key]
	if !ok || e.executingRx[key] {
		return
	}
	e.executingRx[key] = true
	defer delete(e.executingRx, key)

	rx := &Rx{e: e, key: key, keys: mapset.NewThreadUnsafeSet[topo.Key]()}
	v := r.compute(rx)

	if old := e.reactionDeps[key]; old != nil {
		for k := range old.Difference(rx.keys).Iter() {
			if st := e.atoms[k]; st != nil {
				st.reactions.Remove(key)
			}
		}
	}
	for k := range rx.keys.Iter() {
		if st := e.atoms[k]; st != nil {
			st.reactions.Add(key)
		}
	}
	e.reactionDeps[key] = rx.keys

	st := e.atoms[key]
	if st == nil || st.disposed {
		return
	}
	if st.initialized && !valueChanged(st.value, v) {
		return
	}
	st.value = v
	st.initialized = true
	e.reactAndNotify(st)
}

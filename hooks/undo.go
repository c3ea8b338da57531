package hooks

// command pairs a do closure with its inverse.
type command struct {
	do   func()
	undo func()
}

// UndoStore is the engine's undo queue: reversible atom writes push commands
// onto it and the cursor travels back and forth replaying them. Pushing while
// the cursor sits mid-history truncates the redo tail, like any editor.
type UndoStore struct {
	e        *Engine
	commands []command
	cursor   int
}

func (u *UndoStore) push(do, undo func()) {
	u.commands = append(u.commands[:u.cursor], command{do: do, undo: undo})
	u.cursor = len(u.commands)
}

// Len returns the number of recorded commands.
func (u *UndoStore) Len() int { return len(u.commands) }

// Cursor returns the current position in the history.
func (u *UndoStore) Cursor() int { return u.cursor }

// TravelBackwards undoes the most recent command, if any.
func (u *UndoStore) TravelBackwards() {
	if u.cursor > 0 {
		u.commands[u.cursor-1].undo()
		u.cursor--
	}
}

// TravelForwards redoes the next command, if any.
func (u *UndoStore) TravelForwards() {
	if u.cursor < len(u.commands) {
		u.commands[u.cursor].do()
		u.cursor++
	}
}

// TravelTo replays or unwinds history until the cursor sits at the given
// position.
func (u *UndoStore) TravelTo(cursor int) {
	if cursor < 0 {
		cursor = 0
	}
	if cursor > len(u.commands) {
		cursor = len(u.commands)
	}
	for u.cursor > cursor {
		u.TravelBackwards()
	}
	for u.cursor < cursor {
		u.TravelForwards()
	}
}

// ReversibleAtom is an atom whose notifying writes are recorded on the
// engine's undo queue. Inert writes are not recorded.
type ReversibleAtom[T any] struct {
	Atom[T]
}

// NewReversibleAtom registers a reversible cell under name, running init once
// on first registration.
func NewReversibleAtom[T any](e *Engine, name string, init func() T) ReversibleAtom[T] {
	return ReversibleAtom[T]{Atom: NewAtom(e, name, init)}
}

// Set replaces the value and records the transition for undo. A write the
// atom would suppress as unchanged records no history.
func (a ReversibleAtom[T]) Set(v T) {
	prev, ok := atomValue[T](a.e, a.key)
	if !ok {
		a.e.warnStaleWrite(a.name)
		return
	}
	if !valueChanged(prev, v) {
		return
	}
	next := v
	a.e.undo.push(
		func() { a.Atom.Set(next) },
		func() { a.Atom.Set(prev) },
	)
	a.Atom.Set(v)
}

// Update applies fn to a copy of the current value and records the
// transition for undo. An update that leaves the value unchanged records no
// history.
func (a ReversibleAtom[T]) Update(fn func(*T)) {
	prev, ok := atomValue[T](a.e, a.key)
	if !ok {
		a.e.warnStaleWrite(a.name)
		return
	}
	v := prev
	fn(&v)
	if !valueChanged(prev, v) {
		return
	}
	next := v
	a.e.undo.push(
		func() { a.Atom.Set(next) },
		func() { a.Atom.Set(prev) },
	)
	a.Atom.Set(v)
}

// Package hooks is a hook-state engine: it lets stateful functions (state
// cells, derived reactions, effects) persist values across repeated renders
// of the same component without the caller threading that state explicitly.
// Call-site identity comes from package topo; atoms carry reactive values
// whose readers are tracked per pass and re-rendered, batched, when a value
// changes.
//
// The engine is single-threaded by design, matching a browser-style event
// loop: one external event is handled start to finish, all writes inside it
// are batched, and exactly the affected components re-render when the event
// completes.
package hooks

import (
	"log"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/hookparty/hookparty/topo"
)

// RenderFunc is a component's render callback. It is re-invoked whenever any
// state or atom the component read has changed.
type RenderFunc func(ctx *Ctx)

// Component is a registered top-level render callback with a stable root
// identity. All hook state created while it renders lives in its subtree and
// is swept when the corresponding call-sites stop being visited.
type Component struct {
	e      *Engine
	id     topo.CallID
	render RenderFunc
	alloc  *topo.Allocator

	visited     mapset.Set[topo.CallID]
	prevVisited mapset.Set[topo.CallID]
	renderPass  uint64
	live        bool
}

// ID returns the component's root identity.
func (c *Component) ID() topo.CallID { return c.id }

// Live reports whether the component is still mounted.
func (c *Component) Live() bool { return c.live }

// Engine owns all hook state: the type-erased store, the atom registry, the
// dependency tracker, the render scheduler and the lifecycle sweeper. It is
// an explicit value rather than a process singleton so tests can run several
// independent instances.
type Engine struct {
	logger         *log.Logger
	onError        OnErrorFunc
	maxFlushRounds int
	evictionGrace  int

	pass uint64

	components map[topo.CallID]*Component
	mountOrder []*Component

	cells    map[topo.Key]*cell
	cleanups map[topo.CallID][]func()
	missed   map[topo.CallID]int

	atoms         map[topo.Key]*atomState
	reactions     map[topo.Key]*reaction
	reactionDeps  map[topo.Key]mapset.Set[topo.Key]
	executingRx   map[topo.Key]bool
	subscriptions map[topo.CallID]mapset.Set[topo.Key]

	sched   scheduler
	tracker tracker

	rendered []*Component

	undo *UndoStore
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger routes recoverable diagnostics (dropped stale writes and the
// like) to the given logger instead of log.Default().
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithOnError installs a callback observing fatal faults before they are
// returned to the host.
func WithOnError(fn OnErrorFunc) Option {
	return func(e *Engine) { e.onError = fn }
}

// WithMaxFlushRounds caps how many reentrant flush rounds one phase may take
// before the engine fails with TooManyReentrantUpdatesError. Default 10.
func WithMaxFlushRounds(n int) Option {
	return func(e *Engine) { e.maxFlushRounds = n }
}

// WithEvictionGrace keeps state for an unvisited call-site alive for n extra
// passes before the sweeper evicts it. Default 0: evicted at the end of the
// first pass that misses it.
func WithEvictionGrace(n int) Option {
	return func(e *Engine) { e.evictionGrace = n }
}

// NewEngine creates an empty engine.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		logger:         log.Default(),
		maxFlushRounds: 10,
		components:     map[topo.CallID]*Component{},
		cells:          map[topo.Key]*cell{},
		cleanups:       map[topo.CallID][]func(){},
		missed:         map[topo.CallID]int{},
		atoms:          map[topo.Key]*atomState{},
		reactions:      map[topo.Key]*reaction{},
		reactionDeps:   map[topo.Key]mapset.Set[topo.Key]{},
		executingRx:    map[topo.Key]bool{},
		subscriptions:  map[topo.CallID]mapset.Set[topo.Key]{},
	}
	for _, opt := range opts {
		opt(e)
	}
	e.undo = &UndoStore{e: e}
	return e
}

// Pass returns the number of the pass currently executing (or the last one
// that completed).
func (e *Engine) Pass() uint64 { return e.pass }

// Undo returns the engine's undo queue.
func (e *Engine) Undo() *UndoStore { return e.undo }

// Mount registers a render callback under the given name and schedules its
// first render. The name is the component's root identity; mounting a second
// component under a live name panics.
func (e *Engine) Mount(name string, render RenderFunc) *Component {
	id := topo.RootID(name)
	if _, ok := e.components[id]; ok {
		panic("hooks: component " + name + " already mounted")
	}
	c := &Component{
		e:      e,
		id:     id,
		render: render,
		alloc:  topo.NewAllocator(id),
		live:   true,
	}
	e.components[id] = c
	e.mountOrder = append(e.mountOrder, c)
	e.sched.enqueue(id)
	return c
}

// Unmount removes the component, evicts every cell in its subtree and prunes
// its atom subscriptions. A RenderTask still queued for it becomes a no-op.
func (e *Engine) Unmount(c *Component) {
	if !c.live {
		return
	}
	c.live = false
	delete(e.components, c.id)
	for i, mc := range e.mountOrder {
		if mc == c {
			e.mountOrder = append(e.mountOrder[:i], e.mountOrder[i+1:]...)
			break
		}
	}
	for _, set := range []mapset.Set[topo.CallID]{c.prevVisited, c.visited} {
		if set == nil {
			continue
		}
		for id := range set.Iter() {
			e.evict(id)
		}
	}
}

// Ctx is the per-render context handed to RenderFuncs. Hook functions use it
// to derive call-site identities; it is only valid for the duration of the
// render it was created for.
type Ctx struct {
	e *Engine
	c *Component
}

// Engine returns the engine this render belongs to.
func (ctx *Ctx) Engine() *Engine { return ctx.e }

// ComponentID returns the identity of the component being rendered.
func (ctx *Ctx) ComponentID() topo.CallID { return ctx.c.id }

// Scope opens a nested identity level, for hook calls made inside loops or
// child render helpers. Release the returned func on every exit path:
//
//	done := ctx.Scope()
//	defer done()
func (ctx *Ctx) Scope() (release func()) {
	return ctx.c.alloc.EnterScope()
}

// NextID allocates the identity for the current hook call and records it as
// visited this pass.
func (ctx *Ctx) NextID() topo.CallID {
	id := ctx.c.alloc.NextID()
	ctx.c.visited.Add(id)
	delete(ctx.e.missed, id)
	return id
}

// RunPass renders every live component, flushes any renders the pass itself
// enqueued and sweeps state for call-sites that were not revisited. Invoke it
// for the initial render and whenever the whole tree must be replayed.
func (e *Engine) RunPass() (err error) {
	defer e.recoverPass(&err)
	e.beginPass()
	e.sched.take() // every live component renders below; drop queued tasks
	for _, c := range append([]*Component(nil), e.mountOrder...) {
		if c.live {
			e.renderComponent(c)
		}
	}
	if err := e.flush(); err != nil {
		return e.fail(topo.CallID{}, err)
	}
	e.endPass()
	return nil
}

// Dispatch handles one external event: the event func runs with writes
// batching, then exactly the components its writes touched are re-rendered,
// then the sweeper reconciles.
func (e *Engine) Dispatch(event func()) (err error) {
	defer e.recoverPass(&err)
	e.beginPass()
	event()
	if err := e.flush(); err != nil {
		return e.fail(topo.CallID{}, err)
	}
	e.endPass()
	return nil
}

// Flush completes a phase that was opened by writes outside RunPass or
// Dispatch (for example a State.Set from a host callback): it renders the
// pending components and sweeps. A no-op when nothing is pending.
func (e *Engine) Flush() (err error) {
	if e.sched.idle() {
		return nil
	}
	defer e.recoverPass(&err)
	e.beginPass()
	if err := e.flush(); err != nil {
		return e.fail(topo.CallID{}, err)
	}
	e.endPass()
	return nil
}

func (e *Engine) beginPass() {
	e.pass++
	e.rendered = e.rendered[:0]
}

func (e *Engine) endPass() {
	e.sweep()
}

// flush drains the scheduler: one render per pending component per round,
// insertion order. Writes made during a round land in the next round, capped
// by maxFlushRounds.
func (e *Engine) flush() error {
	for round := 0; ; round++ {
		batch := e.sched.take()
		if len(batch) == 0 {
			return nil
		}
		if round >= e.maxFlushRounds {
			return &TooManyReentrantUpdatesError{Rounds: round, Pending: batch}
		}
		for _, id := range batch {
			c, ok := e.components[id]
			if !ok || !c.live {
				continue // unmounted before its turn, stale task
			}
			e.renderComponent(c)
		}
	}
}

func (e *Engine) renderComponent(c *Component) {
	ctx := &Ctx{e: e, c: c}
	e.sched.forget(c.id)

	c.alloc.Reset()
	c.visited = mapset.NewThreadUnsafeSet[topo.CallID]()
	e.tracker.begin(c.id)
	defer func() {
		edges := e.tracker.end()
		e.commitEdges(c, edges)
	}()

	c.render(ctx)

	if c.renderPass != e.pass {
		c.renderPass = e.pass
		e.rendered = append(e.rendered, c)
	}
}

// fail reports a fatal fault and resets transient pass state so the engine
// stays usable for the next pass.
func (e *Engine) fail(id topo.CallID, err error) error {
	e.sched.reset()
	e.tracker.reset()
	if e.onError != nil {
		e.onError(id, err)
	}
	return err
}

func (e *Engine) recoverPass(err *error) {
	r := recover()
	if r == nil {
		return
	}
	fault, ok := r.(engineFault)
	if !ok {
		panic(r)
	}
	*err = e.fail(fault.id, fault.err)
}

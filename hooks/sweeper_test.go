package hooks_test

import (
	"testing"

	"github.com/hookparty/hookparty/hooks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// state behind a branch that stops rendering is evicted, and a later render
// of the branch starts from init again
func TestUnvisitedStateEvicted(t *testing.T) {
	e := hooks.NewEngine()

	inits := 0
	show := true
	e.Mount("view", func(ctx *hooks.Ctx) {
		release := ctx.Scope()
		if show {
			st := hooks.UseState(ctx, func() int { inits++; return 0 })
			st.GetWith(func(v *int) { *v = 99 })
		}
		release()
	})
	require.NoError(t, e.RunPass())
	require.Equal(t, 1, inits)

	show = false
	require.NoError(t, e.RunPass())

	show = true
	require.NoError(t, e.RunPass())
	assert.Equal(t, 2, inits, "evicted state must re-init")
}

// a swept call-site's atom subscription is pruned: writes after eviction do
// not re-render the component
func TestEvictionPrunesSubscriptions(t *testing.T) {
	e := hooks.NewEngine()
	count := hooks.NewAtom(e, "count", func() int { return 0 })

	show := true
	renders := 0
	e.Mount("view", func(ctx *hooks.Ctx) {
		renders++
		release := ctx.Scope()
		if show {
			count.Get(ctx)
		}
		release()
	})
	require.NoError(t, e.RunPass())
	require.Equal(t, 1, renders)

	show = false
	require.NoError(t, e.RunPass())
	require.Equal(t, 2, renders)

	require.NoError(t, e.Dispatch(func() { count.Set(7) }))
	assert.Equal(t, 2, renders)
}

// an eviction grace spares state for that many missed passes
func TestEvictionGrace(t *testing.T) {
	e := hooks.NewEngine(hooks.WithEvictionGrace(2))

	inits := 0
	show := true
	e.Mount("view", func(ctx *hooks.Ctx) {
		release := ctx.Scope()
		if show {
			hooks.UseState(ctx, func() int { inits++; return 0 })
		}
		release()
	})
	require.NoError(t, e.RunPass())
	require.Equal(t, 1, inits)

	show = false
	require.NoError(t, e.RunPass()) // missed 1
	require.NoError(t, e.RunPass()) // missed 2, still spared

	show = true
	require.NoError(t, e.RunPass())
	assert.Equal(t, 1, inits, "state within grace keeps its value")

	show = false
	require.NoError(t, e.RunPass())
	require.NoError(t, e.RunPass())
	require.NoError(t, e.RunPass()) // missed 3, evicted

	show = true
	require.NoError(t, e.RunPass())
	assert.Equal(t, 2, inits)
}

// the eviction grace also spares call-site atoms, which own no state cell
func TestEvictionGraceSparesUseAtom(t *testing.T) {
	e := hooks.NewEngine(hooks.WithEvictionGrace(1))

	inits := 0
	var handle hooks.Atom[int]
	show := true
	e.Mount("view", func(ctx *hooks.Ctx) {
		release := ctx.Scope()
		if show {
			handle = hooks.UseAtom(ctx, func() int { inits++; return 1 })
		}
		release()
	})
	require.NoError(t, e.RunPass())
	handle.Set(2)

	show = false
	require.NoError(t, e.RunPass()) // missed 1, spared
	assert.True(t, handle.StateExists())
	assert.Equal(t, 2, handle.GetUntracked())

	show = true
	require.NoError(t, e.RunPass())
	assert.Equal(t, 1, inits, "atom within grace keeps its value")

	show = false
	require.NoError(t, e.RunPass())
	require.NoError(t, e.RunPass()) // missed 2, evicted
	assert.False(t, handle.StateExists())
}

// revisiting within the grace resets the miss counter
func TestGraceCounterResetsOnVisit(t *testing.T) {
	e := hooks.NewEngine(hooks.WithEvictionGrace(1))

	inits := 0
	show := true
	render := func(ctx *hooks.Ctx) {
		release := ctx.Scope()
		if show {
			hooks.UseState(ctx, func() int { inits++; return 0 })
		}
		release()
	}
	e.Mount("view", render)
	require.NoError(t, e.RunPass())

	for i := 0; i < 3; i++ {
		show = false
		require.NoError(t, e.RunPass()) // one miss, spared
		show = true
		require.NoError(t, e.RunPass()) // visit resets the counter
	}
	assert.Equal(t, 1, inits)
}

// cleanups registered at a call-site run when it is swept
func TestCleanupRunsOnSweep(t *testing.T) {
	e := hooks.NewEngine()

	var cleaned []string
	show := true
	e.Mount("view", func(ctx *hooks.Ctx) {
		release := ctx.Scope()
		if show {
			hooks.OnUnmount(ctx, func() { cleaned = append(cleaned, "branch") })
		}
		release()
	})
	require.NoError(t, e.RunPass())
	require.NoError(t, e.RunPass())
	require.Empty(t, cleaned, "re-renders must not trigger cleanup")

	show = false
	require.NoError(t, e.RunPass())
	assert.Equal(t, []string{"branch"}, cleaned)
}

// effect cleanup runs between reruns and once more on sweep
func TestEffectCleanupOrdering(t *testing.T) {
	e := hooks.NewEngine()

	var log []string
	dep := 1
	show := true
	e.Mount("view", func(ctx *hooks.Ctx) {
		release := ctx.Scope()
		if show {
			d := dep
			hooks.UseEffect(ctx, func() func() {
				log = append(log, "run")
				return func() { log = append(log, "clean") }
			}, d)
		}
		release()
	})
	require.NoError(t, e.RunPass())
	require.Equal(t, []string{"run"}, log)

	require.NoError(t, e.RunPass()) // same dep, no rerun
	require.Equal(t, []string{"run"}, log)

	dep = 2
	require.NoError(t, e.RunPass())
	require.Equal(t, []string{"run", "clean", "run"}, log)

	show = false
	require.NoError(t, e.RunPass())
	assert.Equal(t, []string{"run", "clean", "run", "clean"}, log)
}

// unmounting a component evicts all its state and runs its cleanups
func TestUnmountEvictsComponentState(t *testing.T) {
	e := hooks.NewEngine()
	count := hooks.NewAtom(e, "count", func() int { return 0 })

	cleaned := false
	renders := 0
	panel := e.Mount("panel", func(ctx *hooks.Ctx) {
		renders++
		count.Get(ctx)
		hooks.OnUnmount(ctx, func() { cleaned = true })
	})
	require.NoError(t, e.RunPass())

	e.Unmount(panel)
	assert.True(t, cleaned)

	require.NoError(t, e.Dispatch(func() { count.Set(1) }))
	assert.Equal(t, 1, renders, "unmounted component must not re-render")
}

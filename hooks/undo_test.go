package hooks_test

import (
	"testing"

	"github.com/hookparty/hookparty/hooks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// reversible writes land on the undo queue and travel back and forth
func TestReversibleSetTravels(t *testing.T) {
	e := hooks.NewEngine()
	count := hooks.NewReversibleAtom(e, "count", func() int { return 0 })

	count.Set(1)
	count.Set(2)
	count.Set(3)
	require.Equal(t, 3, count.GetUntracked())
	require.Equal(t, 3, e.Undo().Len())
	require.Equal(t, 3, e.Undo().Cursor())

	e.Undo().TravelBackwards()
	assert.Equal(t, 2, count.GetUntracked())
	e.Undo().TravelBackwards()
	assert.Equal(t, 1, count.GetUntracked())
	e.Undo().TravelForwards()
	assert.Equal(t, 2, count.GetUntracked())

	e.Undo().TravelTo(0)
	assert.Equal(t, 0, count.GetUntracked())
	e.Undo().TravelTo(3)
	assert.Equal(t, 3, count.GetUntracked())
}

// traveling past either end of the history is a no-op
func TestTravelBounds(t *testing.T) {
	e := hooks.NewEngine()
	count := hooks.NewReversibleAtom(e, "count", func() int { return 0 })
	count.Set(1)

	e.Undo().TravelBackwards()
	e.Undo().TravelBackwards()
	assert.Equal(t, 0, count.GetUntracked())
	assert.Equal(t, 0, e.Undo().Cursor())

	e.Undo().TravelForwards()
	e.Undo().TravelForwards()
	assert.Equal(t, 1, count.GetUntracked())
	assert.Equal(t, 1, e.Undo().Cursor())

	e.Undo().TravelTo(-5)
	assert.Equal(t, 0, count.GetUntracked())
	e.Undo().TravelTo(99)
	assert.Equal(t, 1, count.GetUntracked())
}

// a write while the cursor sits mid-history discards the redo tail
func TestPushTruncatesRedoTail(t *testing.T) {
	e := hooks.NewEngine()
	count := hooks.NewReversibleAtom(e, "count", func() int { return 0 })

	count.Set(1)
	count.Set(2)
	e.Undo().TravelBackwards()
	require.Equal(t, 1, count.GetUntracked())

	count.Set(7)
	assert.Equal(t, 2, e.Undo().Len())
	assert.Equal(t, 2, e.Undo().Cursor())

	e.Undo().TravelForwards() // nothing to redo
	assert.Equal(t, 7, count.GetUntracked())
	e.Undo().TravelBackwards()
	assert.Equal(t, 1, count.GetUntracked())
}

// a suppressed write of an equal value records no history and keeps the
// redo tail
func TestEqualWriteNotRecorded(t *testing.T) {
	e := hooks.NewEngine()
	count := hooks.NewReversibleAtom(e, "count", func() int { return 0 })

	count.Set(1)
	count.Set(1)
	count.Update(func(v *int) {})
	assert.Equal(t, 1, e.Undo().Len())

	e.Undo().TravelBackwards()
	require.Equal(t, 0, count.GetUntracked())

	count.Set(0) // suppressed, must not truncate the redo tail
	assert.Equal(t, 1, e.Undo().Len())
	assert.Equal(t, 0, e.Undo().Cursor())

	e.Undo().TravelForwards()
	assert.Equal(t, 1, count.GetUntracked())
}

// Update records the before and after values like Set
func TestReversibleUpdate(t *testing.T) {
	e := hooks.NewEngine()
	words := hooks.NewReversibleAtom(e, "words", func() string { return "a" })

	words.Update(func(s *string) { *s += "b" })
	words.Update(func(s *string) { *s += "c" })
	require.Equal(t, "abc", words.GetUntracked())

	e.Undo().TravelBackwards()
	assert.Equal(t, "ab", words.GetUntracked())
	e.Undo().TravelForwards()
	assert.Equal(t, "abc", words.GetUntracked())
}

// undo travel notifies subscribers like any other write
func TestTravelRerendersSubscribers(t *testing.T) {
	e := hooks.NewEngine()
	count := hooks.NewReversibleAtom(e, "count", func() int { return 0 })

	var seen int
	e.Mount("view", func(ctx *hooks.Ctx) {
		seen = count.Get(ctx)
	})
	require.NoError(t, e.RunPass())

	count.Set(9)
	require.NoError(t, e.Flush())
	require.Equal(t, 9, seen)

	e.Undo().TravelBackwards()
	require.NoError(t, e.Flush())
	assert.Equal(t, 0, seen)
}

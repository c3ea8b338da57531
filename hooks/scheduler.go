package hooks

import (
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/hookparty/hookparty/topo"
)

// scheduler queues pending re-renders for the current phase. Tasks are
// deduplicated and kept in insertion order; take hands the engine one round's
// batch, and writes made while that round renders accumulate into the next
// one.
type scheduler struct {
	pending []topo.CallID
	queued  mapset.Set[topo.CallID]
}

// enqueue adds a component render task, collapsing duplicates within the
// current round.
func (s *scheduler) enqueue(root topo.CallID) {
	if s.queued == nil {
		s.queued = mapset.NewThreadUnsafeSet[topo.CallID]()
	}
	if s.queued.Contains(root) {
		return
	}
	s.queued.Add(root)
	s.pending = append(s.pending, root)
}

// forget drops a pending task for a component that has just been rendered by
// other means, so it does not fire twice in one cycle.
func (s *scheduler) forget(root topo.CallID) {
	if s.queued == nil || !s.queued.Contains(root) {
		return
	}
	s.queued.Remove(root)
	for i, id := range s.pending {
		if id == root {
			s.pending = append(s.pending[:i], s.pending[i+1:]...)
			break
		}
	}
}

// take removes and returns the current pending batch. Writes made while the
// batch renders start a fresh one.
func (s *scheduler) take() []topo.CallID {
	if len(s.pending) == 0 {
		return nil
	}
	batch := s.pending
	s.pending = nil
	s.queued = mapset.NewThreadUnsafeSet[topo.CallID]()
	return batch
}

func (s *scheduler) idle() bool {
	return len(s.pending) == 0
}

func (s *scheduler) reset() {
	s.pending = nil
	s.queued = nil
}

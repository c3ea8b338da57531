package hooks

import "github.com/hookparty/hookparty/topo"

// sweep reconciles stale call-sites after a pass: for every component that
// rendered, any identity present last pass but absent now is evicted (subject
// to the eviction grace): its cell removed, its cleanups run and its atom
// subscriptions pruned. Runs synchronously at pass end so memory stays
// bounded by the currently rendered tree shape.
func (e *Engine) sweep() {
	for _, c := range e.rendered {
		e.sweepComponent(c)
	}
	e.rendered = e.rendered[:0]
}

// Miss counts live per identity, not per cell, so call-sites that own no cell
// (UseAtom, tracked reads) get the same grace as state cells. Visiting an
// identity resets its count.
func (e *Engine) sweepComponent(c *Component) {
	if c.prevVisited != nil {
		var spared []topo.CallID
		for id := range c.prevVisited.Difference(c.visited).Iter() {
			e.missed[id]++
			if e.missed[id] <= e.evictionGrace {
				// Not evicted yet; keep watching it next pass.
				spared = append(spared, id)
				continue
			}
			e.evict(id)
		}
		for _, id := range spared {
			c.visited.Add(id)
		}
	}
	c.prevVisited = c.visited
}

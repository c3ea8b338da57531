package hooks

import (
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/hookparty/hookparty/topo"
)

// edge records one tracked atom read: which call-site read which atom.
type edge struct {
	atom topo.Key
	site topo.CallID
}

type trackScope struct {
	id    topo.CallID
	edges []edge
}

// tracker records which atoms were read during which render invocation. One
// scope per component render. Reads outside any render (host callbacks,
// reaction computes) are not recorded here.
type tracker struct {
	stack []trackScope
}

func (t *tracker) begin(id topo.CallID) {
	t.stack = append(t.stack, trackScope{id: id})
}

func (t *tracker) read(atom topo.Key, site topo.CallID) {
	if len(t.stack) == 0 {
		return
	}
	top := &t.stack[len(t.stack)-1]
	top.edges = append(top.edges, edge{atom: atom, site: site})
}

// trackRead records one tracked read and subscribes the site to the atom
// immediately, so a write later in the same render already notifies it. The
// end-of-render commit then only prunes edges that were not re-read.
func (e *Engine) trackRead(key topo.Key, site topo.CallID) {
	e.tracker.read(key, site)
	if st := e.atoms[key]; st != nil {
		st.subs.Add(site)
	}
}

func (t *tracker) end() []edge {
	top := t.stack[len(t.stack)-1]
	t.stack = t.stack[:len(t.stack)-1]
	return top.edges
}

func (t *tracker) reset() { t.stack = nil }

// commitEdges replaces, wholesale, each visited call-site's membership in the
// subscriber sets of the atoms it read this render. Full replacement is the
// point: a call-site that stopped reading an atom stops being notified on the
// very next pass, with no unsubscribe API.
func (e *Engine) commitEdges(c *Component, edges []edge) {
	fresh := map[topo.CallID]mapset.Set[topo.Key]{}
	for _, ed := range edges {
		set, ok := fresh[ed.site]
		if !ok {
			set = mapset.NewThreadUnsafeSet[topo.Key]()
			fresh[ed.site] = set
		}
		set.Add(ed.atom)
	}

	for site, keys := range fresh {
		old := e.subscriptions[site]
		if old != nil {
			for key := range old.Difference(keys).Iter() {
				if st := e.atoms[key]; st != nil {
					st.subs.Remove(site)
				}
			}
		}
		for key := range keys.Iter() {
			if st := e.atoms[key]; st != nil {
				st.subs.Add(site)
			}
		}
		e.subscriptions[site] = keys
	}

	// A site visited this pass that recorded no reads sheds any edges left
	// over from earlier passes.
	for site := range c.visited.Iter() {
		if _, ok := fresh[site]; ok {
			continue
		}
		if old := e.subscriptions[site]; old != nil {
			e.dropSubscriptions(site, old)
		}
	}
}

func (e *Engine) dropSubscriptions(site topo.CallID, keys mapset.Set[topo.Key]) {
	for key := range keys.Iter() {
		if st := e.atoms[key]; st != nil {
			st.subs.Remove(site)
		}
	}
	delete(e.subscriptions, site)
}

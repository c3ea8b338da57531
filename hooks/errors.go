package hooks

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/hookparty/hookparty/topo"
)

// OnErrorFunc observes fatal engine faults before they are returned from
// RunPass, Dispatch or Flush. id is the identity the fault was attributed to,
// when known.
type OnErrorFunc func(id topo.CallID, err error)

// TypeMismatchError reports that a call-site's hook type changed between
// passes. This is a programming error, usually caused by a hook call that is
// skipped on some passes and shifts every identity after it; the engine
// aborts the pass rather than hand back state of the wrong type.
type TypeMismatchError struct {
	ID        topo.CallID
	Stored    reflect.Type
	Requested reflect.Type
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("hooks: state for %s holds %s, requested as %s (conditional hook call?)",
		e.ID, e.Stored, e.Requested)
}

// TooManyReentrantUpdatesError reports a write cycle: renders kept writing
// atoms that re-enqueued renders until the flush round cap was hit. Pending
// carries the identities still queued when the engine gave up.
type TooManyReentrantUpdatesError struct {
	Rounds  int
	Pending []topo.CallID
}

func (e *TooManyReentrantUpdatesError) Error() string {
	chain := make([]string, len(e.Pending))
	for i, id := range e.Pending {
		chain[i] = id.String()
	}
	return fmt.Sprintf("hooks: still %d pending renders after %d flush rounds: %s",
		len(e.Pending), e.Rounds, strings.Join(chain, ", "))
}

// engineFault wraps a fatal error so the pass boundary can tell it apart from
// arbitrary panics out of user code.
type engineFault struct {
	id  topo.CallID
	err error
}

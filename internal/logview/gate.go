package logview

import "sync"

// loadIntent is the coalescable part of a load request: whether it resets
// the view and whether it reads forward. Intents from overlapping calls OR
// together, so a reset asked for while another load runs is never lost.
type loadIntent struct {
	Reset bool
	Newer bool
}

func (i loadIntent) merge(other loadIntent) loadIntent {
	return loadIntent{
		Reset: i.Reset || other.Reset,
		Newer: i.Newer || other.Newer,
	}
}

// loadGate keeps at most one load in flight. Calls landing while the gate is
// held fold their intent into a single pending replay, carried out by the
// goroutine holding the gate right after its own request resolves. The gate
// moves idle -> in flight -> (replay while intents are pending) -> idle, and
// stands in for locking: responses can never resolve out of order because a
// second request never starts until the first has been merged.
type loadGate struct {
	mu       sync.Mutex
	inFlight bool
	pending  *loadIntent
}

// enter reports whether the caller acquired the gate. When another load
// holds it, the intent joins the pending replay instead and enter reports
// false; the caller must not fetch.
func (g *loadGate) enter(intent loadIntent) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.inFlight {
		if g.pending == nil {
			g.pending = &intent
		} else {
			merged := g.pending.merge(intent)
			g.pending = &merged
		}
		return false
	}
	g.inFlight = true
	return true
}

// leave releases the gate. If intents arrived while the caller held it, the
// gate stays held and leave returns the merged intent for the caller to
// replay.
func (g *loadGate) leave() (loadIntent, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.pending != nil {
		next := *g.pending
		g.pending = nil
		return next, true
	}
	g.inFlight = false
	return loadIntent{}, false
}

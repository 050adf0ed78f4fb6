// Package output is the contract for the N discrete indicator outputs.
// At most one output is active at a time; that invariant is enforced by the
// command-handling logic, not here.
package output

// Bank is a set of discrete outputs with a hold primitive that keeps an
// output's electrical level fixed across a low-power suspension that would
// otherwise reset peripheral state.
type Bank interface {
	Count() int
	// Set drives output idx on or off. Out-of-range indices are ignored.
	Set(idx int, on bool)
	// Hold freezes the current electrical level of idx across suspension.
	Hold(idx int)
	// Release undoes Hold; the caller reasserts the level via Set after.
	Release(idx int)
}

package link

// Wait is a captured-start timestamp check: the non-blocking replacement
// for every delay in the protocol. A zero Wait is unarmed.
type Wait struct {
	startMs int64
	armed   bool
}

// Start captures nowMs as the wait origin. Any timestamp is valid,
// including zero.
func (w *Wait) Start(nowMs int64) {
	w.startMs = nowMs
	w.armed = true
}

// Armed reports whether Start has been called since the last Clear.
func (w *Wait) Armed() bool { return w.armed }

// Elapsed reports whether d ms have passed since Start. An unarmed Wait is
// elapsed, so "send immediately, then every interval" needs no special case.
func (w *Wait) Elapsed(nowMs, d int64) bool {
	return !w.armed || nowMs-w.startMs >= d
}

// Clear disarms the wait.
func (w *Wait) Clear() {
	w.startMs = 0
	w.armed = false
}

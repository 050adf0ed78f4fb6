package indicator

import "lightlink-go/x/timex"

// Status logs a periodic one-line report: active index, time since the
// last command, sleep-cycle count, and the current mode. Registered as its
// own scheduler task so the report cadence is independent of the role's
// state machines. The first poll reports immediately.
type Status struct {
	ind        *Indicator
	intervalMs int64
	lastMs     int64 // 0 means not yet reported
}

// NewStatus reports every intervalMs (default 10000).
func NewStatus(ind *Indicator, intervalMs int64) *Status {
	if intervalMs <= 0 {
		intervalMs = 10000
	}
	return &Status{ind: ind, intervalMs: intervalMs}
}

func (s *Status) Name() string { return "status" }

func (s *Status) Poll(nowMs int64) {
	if !timex.Due(nowMs, s.lastMs, s.intervalMs) {
		return
	}
	s.lastMs = nowMs

	active, sinceMs, cycles, mode := s.snapshot(nowMs)
	println("Info: status: active index", active,
		"| ms since command", sinceMs,
		"| sleep cycles", cycles,
		"| mode", mode)
}

func (s *Status) snapshot(nowMs int64) (active int, sinceMs int64, cycles int, mode string) {
	ind := s.ind
	ind.mu.Lock()
	defer ind.mu.Unlock()

	active = ind.active
	sinceMs = timex.SinceMs(nowMs, ind.lastActivityMs)
	cycles = ind.sleepCycles
	mode = "normal sleep cycle"
	if ind.extended {
		mode = "extended awake"
	} else if sinceMs < ind.cfg.PostCommandMs {
		mode = "post-command scanning"
	}
	return active, sinceMs, cycles, mode
}

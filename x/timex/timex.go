package timex

import "time"

// NowMs returns Unix milliseconds as int64.
func NowMs() int64 { return time.Now().UnixMilli() }

// Due reports whether intervalMs has elapsed since lastMs at nowMs.
// lastMs==0 is treated as "never fired", so the first check is due.
func Due(nowMs, lastMs, intervalMs int64) bool {
	if lastMs == 0 {
		return true
	}
	return nowMs-lastMs >= intervalMs
}

// SinceMs returns nowMs-startMs, clamped at zero for clock skew.
func SinceMs(nowMs, startMs int64) int64 {
	d := nowMs - startMs
	if d < 0 {
		return 0
	}
	return d
}

// Package config resolves the per-role tunables from embedded JSON. Values
// arrive as a map from tinyjson and are clamped into sane ranges; anything
// absent falls back to the deployed defaults.
package config

import (
	"errors"

	"lightlink-go/transport"
	"lightlink-go/x/mathx"

	"github.com/andreyvit/tinyjson"
)

// EmbeddedLookup allows overriding how raw configs are resolved.
var EmbeddedLookup = func(role string) ([]byte, bool) {
	b, ok := embeddedConfigs[role]
	return b, ok
}

// Commander holds the dispatch-role tunables.
type Commander struct {
	Channel         uint8
	Outputs         int
	RetryIntervalMs int64
	RetryCeiling    int
	HoldMs          int64
	StrictAck       bool
	IndicatorAddr   transport.Addr
}

// Indicator holds the receiving-role tunables.
type Indicator struct {
	Channel        uint8
	Pins           []int
	AckRedundancy  int
	AckSpacingMs   int64
	AwakeMs        int64
	SleepMs        int64
	PostCommandMs  int64
	ExtendedMs     int64
	MaxSleepCycles int
	StatusMs       int64
}

// LoadCommander parses and sanitizes the commander config.
func LoadCommander() (Commander, error) {
	m, err := load("commander")
	if err != nil {
		return Commander{}, err
	}
	c := Commander{
		Channel:         uint8(mathx.Clamp(intField(m, "channel", 6), 1, 14)),
		Outputs:         int(mathx.Clamp(intField(m, "outputs", 3), 1, 8)),
		RetryIntervalMs: mathx.Clamp(intField(m, "retry_interval_ms", 500), 50, 5000),
		RetryCeiling:    int(mathx.Clamp(intField(m, "retry_ceiling", 12), 1, 100)),
		HoldMs:          mathx.Clamp(intField(m, "hold_ms", 10000), 1000, 60000),
		StrictAck:       boolField(m, "strict_ack", false),
	}
	if s, ok := m["indicator_addr"].(string); ok {
		a, err := transport.ParseAddr(s)
		if err != nil {
			return Commander{}, errors.New("bad indicator_addr: " + s)
		}
		c.IndicatorAddr = a
	}
	return c, nil
}

// LoadIndicator parses and sanitizes the indicator config.
func LoadIndicator() (Indicator, error) {
	m, err := load("indicator")
	if err != nil {
		return Indicator{}, err
	}
	c := Indicator{
		Channel:        uint8(mathx.Clamp(intField(m, "channel", 6), 1, 14)),
		AckRedundancy:  int(mathx.Clamp(intField(m, "ack_redundancy", 3), 1, 10)),
		AckSpacingMs:   mathx.Clamp(intField(m, "ack_spacing_ms", 20), 5, 500),
		AwakeMs:        mathx.Clamp(intField(m, "awake_ms", 300), 50, 5000),
		SleepMs:        mathx.Clamp(intField(m, "sleep_ms", 1700), 100, 60000),
		PostCommandMs:  mathx.Clamp(intField(m, "post_command_ms", 3000), 500, 60000),
		ExtendedMs:     mathx.Clamp(intField(m, "extended_ms", 10000), 1000, 120000),
		MaxSleepCycles: int(mathx.Clamp(intField(m, "max_sleep_cycles", 10), 1, 1000)),
		StatusMs:       mathx.Clamp(intField(m, "status_ms", 10000), 1000, 600000),
	}
	if raw, ok := m["pins"].([]any); ok {
		for _, v := range raw {
			if f, ok := v.(float64); ok {
				c.Pins = append(c.Pins, int(f))
			}
		}
	}
	if len(c.Pins) == 0 {
		c.Pins = []int{25, 26, 27}
	}
	return c, nil
}

func load(role string) (map[string]any, error) {
	raw, ok := EmbeddedLookup(role)
	if !ok || len(raw) == 0 {
		return nil, errors.New("no embedded config for role: " + role)
	}
	r := tinyjson.Raw(raw)
	val := r.Value()
	r.EnsureEOF()
	m, ok := val.(map[string]any)
	if !ok {
		return nil, errors.New("embedded config is not a JSON object")
	}
	return m, nil
}

func intField(m map[string]any, key string, def int64) int64 {
	if f, ok := m[key].(float64); ok {
		return int64(f)
	}
	return def
}

func boolField(m map[string]any, key string, def bool) bool {
	if b, ok := m[key].(bool); ok {
		return b
	}
	return def
}

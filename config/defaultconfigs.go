package config

// -----------------------------------------------------------------------------
// Embedded configuration
//
// One JSON blob per role, baked into the image. Adjust here (or regenerate)
// when a deployment needs different timings or a different indicator MAC.
// -----------------------------------------------------------------------------

const cfgCommander = `{
  "channel": 6,
  "outputs": 3,
  "retry_interval_ms": 500,
  "retry_ceiling": 12,
  "hold_ms": 10000,
  "strict_ack": false,
  "indicator_addr": "E8:31:CD:C6:FE:68"
}`

const cfgIndicator = `{
  "channel": 6,
  "pins": [25, 26, 27],
  "ack_redundancy": 3,
  "ack_spacing_ms": 20,
  "awake_ms": 300,
  "sleep_ms": 1700,
  "post_command_ms": 3000,
  "extended_ms": 10000,
  "max_sleep_cycles": 10,
  "status_ms": 10000
}`

var embeddedConfigs = map[string][]byte{
	"commander": []byte(cfgCommander),
	"indicator": []byte(cfgIndicator),
}

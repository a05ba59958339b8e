package types

// HAL configuration supplied on topic "config/hal".

type HALConfig struct {
	Devices []HALDevice `json:"devices"`
	Pollers []PollSpec  `json:"pollers,omitempty"`
}

type HALDevice struct {
	ID     string `json:"id"`     // logical device id
	Type   string `json:"type"`   // e.g. "gpio_led", "sx1262"
	Params any    `json:"params"` // device-specific params
}

// PollSpec is a config-time schedule: HAL calls Verb on the capability
// every IntervalMs.
type PollSpec struct {
	Domain     string `json:"domain"`
	Kind       Kind   `json:"kind"`
	Name       string `json:"name"`
	Verb       string `json:"verb"`        // typically "read"
	IntervalMs uint32 `json:"interval_ms"` // >0
}

package types

// ------------------------
// PMU (axp2101)
// ------------------------

type PMUInfo struct {
	Chip string `json:"chip"`
	Bus  string `json:"bus"`
	Addr uint16 `json:"addr"`
}

// BatteryValue is the retained value at hal/cap/power/battery/<name>/value.
type BatteryValue struct {
	Present  bool   `json:"present"`
	MilliV   uint16 `json:"mV"`
	Percent  uint8  `json:"percent"`
	VBUSmV   uint16 `json:"vbus_mV"`
	Charging bool   `json:"charging"`
	ChargeSt string `json:"charge_state"`
	VBUSGood bool   `json:"vbus_good"`
}

// RailSet is the payload of control verb "set" on a rail capability.
type RailSet struct {
	On     bool   `json:"on"`
	MilliV uint16 `json:"mV,omitempty"` // 0 leaves the voltage unchanged
}

type RailValue struct {
	On     bool   `json:"on"`
	MilliV uint16 `json:"mV"`
}

package types

// ------------------------
// GNSS
// ------------------------

type GNSSInfo struct {
	Module string `json:"module"` // "l76k"
	Bus    string `json:"bus"`    // "uart1"
	Baud   uint32 `json:"baud"`
}

// GNSSFix is the retained value of a GNSS capability. Coordinates are in
// 1e-7 degrees so the payload stays integer-only.
type GNSSFix struct {
	Valid      bool   `json:"valid"`
	LatE7      int32  `json:"lat_e7"`
	LonE7      int32  `json:"lon_e7"`
	AltM       int32  `json:"alt_m"`
	Satellites int16  `json:"sats"`
	UnixS      int64  `json:"unix_s,omitempty"`
	Sentence   string `json:"sentence"` // "GGA" | "RMC" | "GLL"
}

// GNSSSetRate is the payload of control verb "set_rate".
type GNSSSetRate struct {
	IntervalMs uint16 `json:"interval_ms"` // 100..1000
}

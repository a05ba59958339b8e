package types

// ------------------------
// LoRa radio
// ------------------------

type LoRaInfo struct {
	Chip    string `json:"chip"` // "sx1262"
	Bus     string `json:"bus"`  // "spi0"
	FreqHz  uint32 `json:"freq_hz"`
	SF      uint8  `json:"sf"`
	BWkHz   uint32 `json:"bw_khz"`
	TxPower int8   `json:"tx_power_dbm"`
	// FrontEnd is true when TXEN/RXEN drive an external PA/LNA.
	FrontEnd bool `json:"front_end"`
}

// LoRaSend is the payload of control verb "send".
type LoRaSend struct {
	Data      []byte `json:"data"`
	TimeoutMs uint32 `json:"timeout_ms,omitempty"`
}

// LoRaPacket is published as a tagged event ("rx") for every received frame.
type LoRaPacket struct {
	Data []byte `json:"data"`
	TSms int64  `json:"ts_ms"`
}

// LoRaStats is the retained value of a radio capability.
type LoRaStats struct {
	TxOK   uint32 `json:"tx_ok"`
	TxFail uint32 `json:"tx_fail"`
	Rx     uint32 `json:"rx"`
}

// LoRaListen is the payload of control verb "listen".
type LoRaListen struct {
	On bool `json:"on"`
}

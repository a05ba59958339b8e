package config

// -----------------------------------------------------------------------------
// Embedded configuration
//
// Key: device (variant) name, as placed in ctx under CtxDeviceKey.
// Val: raw JSON bytes for that device. Every top-level key becomes a retained
// config/<key> message. The HAL device list is derived from the variant and
// is not part of this document.
// -----------------------------------------------------------------------------

const cfgTBeam1W = `{
  "heartbeat": {
      "interval": 2
  },
  "status": {
      "title": "T-Beam 1W"
  }
}`

const cfgPicoLoRa = `{
  "heartbeat": {
      "interval": 1
  },
  "status": {
      "title": "Pico LoRa"
  }
}`

const cfgPiBench = `{
  "heartbeat": {
      "interval": 1
  },
  "status": {
      "title": "Pi bench"
  }
}`

var embeddedConfigs = map[string][]byte{
	"tbeam_1w":  []byte(cfgTBeam1W),
	"pico_lora": []byte(cfgPicoLoRa),
	"pi_bench":  []byte(cfgPiBench),
}

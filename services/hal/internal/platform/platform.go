// Package platform turns a board variant into the two things HAL boots from:
// a ResourcePlan wiring controllers to pins, and a HALConfig listing the
// logical devices. NC pins are carried through unchanged so the devices that
// need them fail to build with not_connected instead of being left out.
package platform

import (
	axp2101dev "meshnode-go/services/hal/devices/axp2101"
	"meshnode-go/services/hal/devices/gpio_button"
	"meshnode-go/services/hal/devices/gpio_led"
	l76kdev "meshnode-go/services/hal/devices/l76k"
	sh1106dev "meshnode-go/services/hal/devices/sh1106"
	"meshnode-go/services/hal/devices/sx1262"
	"meshnode-go/services/hal/internal/provider"
	"meshnode-go/types"
	"meshnode-go/variant"
)

const (
	i2cHz = 400_000
	spiHz = 8_000_000

	batteryPollMs = 5_000
)

// Default LoRa channel: EU868 g1, SF9/125 kHz. The SX1262 output is held at
// 22 dBm; on high-power boards the external PA sets the radiated power.
const (
	loraFreqHz  = 868_100_000
	loraSF      = 9
	loraBWkHz   = 125
	loraTxPower = 22
)

// Device ids used in the generated config.
const (
	IDRadio   = "lora0"
	IDGNSS    = "gnss0"
	IDDisplay = "oled0"
	IDPMU     = "pmu0"
	IDButton  = "button_user"
	IDLED     = "led0"
)

// busIDs names the controllers a variant's buses map onto.
type busIDs struct{ spi, i2c, uart string }

func busesFor(soc string) busIDs {
	switch soc {
	case "rp2040":
		// Pico LoRa HAT: SPI1 on GP10..12, I2C0 on GP4/5, UART0 on GP0/1.
		return busIDs{spi: "spi1", i2c: "i2c0", uart: "uart0"}
	case "bcm283x":
		// Linux bench: periph registry names for /dev/i2c-1, spidev0.0 and the
		// primary UART.
		return busIDs{spi: "SPI0.0", i2c: "1", uart: "/dev/serial0"}
	default:
		// ESP32-S3: SPI2 (FSPI) for the radio, UART1 for GNSS; UART0 is the console.
		return busIDs{spi: "spi2", i2c: "i2c0", uart: "uart1"}
	}
}

// FromVariant builds the resource plan and device list for v.
func FromVariant(v variant.Variant) (provider.ResourcePlan, types.HALConfig) {
	ids := busesFor(v.SoC)
	plan := provider.ResourcePlan{
		SoC: v.SoC,
		SPI: []provider.SPIPlan{{
			ID: ids.spi, SCK: int(v.LoRa.SCK), MOSI: int(v.LoRa.MOSI), MISO: int(v.LoRa.MISO), Hz: spiHz,
		}},
		I2C: []provider.I2CPlan{{
			ID: ids.i2c, SDA: int(v.I2C.SDA), SCL: int(v.I2C.SCL), Hz: i2cHz,
		}},
		UART: []provider.UARTPlan{{
			ID: ids.uart, TX: int(v.GNSS.TX), RX: int(v.GNSS.RX), Baud: v.GNSS.Baud,
		}},
	}

	cfg := types.HALConfig{Devices: []types.HALDevice{
		{ID: IDRadio, Type: "sx1262", Params: sx1262.Params{
			SPI:   ids.spi,
			NSS:   int(v.LoRa.CS),
			Reset: int(v.LoRa.Reset), Busy: int(v.LoRa.Busy), DIO1: int(v.LoRa.DIO1),
			TXEN: int(v.LoRa.TXEN), RXEN: int(v.LoRa.RXEN),
			DIO2AsRFSwitch: v.LoRa.DIO2AsRFSwitch,
			FreqHz:         loraFreqHz, SF: loraSF, BWkHz: loraBWkHz, TxPowerDBm: loraTxPower,
			Domain: "radio", Name: "main",
		}},
		{ID: IDGNSS, Type: "l76k", Params: l76kdev.Params{
			Bus: ids.uart, Baud: v.GNSS.Baud,
			Domain: "nav", Name: "main",
		}},
		{ID: IDButton, Type: "gpio_button", Params: gpio_button.Params{
			Pin: int(v.ButtonUser), Pull: "up", Invert: true, DebounceMs: 20, HoldMs: 1500,
			Domain: "io", Name: "user",
		}},
		{ID: IDLED, Type: "gpio_led", Params: gpio_led.Params{
			Pin:    int(v.LED),
			Domain: "io", Name: "status",
		}},
	}}

	if v.Display == variant.DisplaySH1106 {
		cfg.Devices = append(cfg.Devices, types.HALDevice{
			ID: IDDisplay, Type: "sh1106", Params: sh1106dev.Params{
				Bus: ids.i2c, Title: v.Name,
				Domain: "ui", Name: "main",
			},
		})
	}
	if v.PMU == variant.PMUAXP2101 {
		cfg.Devices = append(cfg.Devices, types.HALDevice{
			ID: IDPMU, Type: "axp2101", Params: axp2101dev.Params{
				Bus: ids.i2c, EnableCharger: true,
				Domain: "power", Name: "main",
			},
		})
		cfg.Pollers = append(cfg.Pollers, types.PollSpec{
			Domain: "power", Kind: types.KindBattery, Name: "main", Verb: "read", IntervalMs: batteryPollMs,
		})
	}
	return plan, cfg
}

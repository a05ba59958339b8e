// Package tbeam1w declares the LilyGO T-Beam 1W (ESP32-S3) variant:
// SX1262 with a 1 W front end, L76K GNSS, I2C OLED and PMU.
//
// Pins stay NC until filled in from the board's published pin map. Do not
// guess them; an NC pin makes the consuming driver refuse to start.
package tbeam1w

import "meshnode-go/variant"

// LoRa: SX1262 + 1 W front end.
const (
	LoRaSCK  = variant.NC
	LoRaMISO = variant.NC
	LoRaMOSI = variant.NC
	LoRaCS   = variant.NC

	LoRaReset = variant.NC
	LoRaBusy  = variant.NC
	LoRaDIO1  = variant.NC

	LoRaTXEN = variant.NC // PA_EN / TX_EN
	LoRaRXEN = variant.NC // LNA_EN / RX_EN
)

// I2C: OLED + PMU.
const (
	I2CSDA = variant.NC
	I2CSCL = variant.NC
)

// Display: SH1106 on I2C is common across the T-Beam family. Verify before
// enabling.
const Display = variant.DisplayNone

// GNSS (L76K).
const (
	GPSRX   = variant.NC
	GPSTX   = variant.NC
	GPSBaud = 9600
)

// Buttons / LEDs.
const (
	ButtonUser = variant.NC
	LEDPin     = variant.NC
)

// Power management: newer boards carry an AXP2101. Verify before enabling.
const PMU = variant.PMUNone

// Init is the variant bring-up hook. Nothing to do yet: I2C priming or rail
// enables belong here once the pin map is confirmed.
func Init() {}

// Variant assembles the declarations above.
var Variant = variant.Variant{
	Name: "tbeam_1w",
	SoC:  "esp32s3",
	LoRa: variant.LoRa{
		SCK: LoRaSCK, MISO: LoRaMISO, MOSI: LoRaMOSI, CS: LoRaCS,
		Reset: LoRaReset, Busy: LoRaBusy, DIO1: LoRaDIO1,
		TXEN: LoRaTXEN, RXEN: LoRaRXEN,
	},
	I2C:        variant.I2C{SDA: I2CSDA, SCL: I2CSCL},
	GNSS:       variant.GNSS{RX: GPSRX, TX: GPSTX, Baud: GPSBaud},
	ButtonUser: ButtonUser,
	LED:        LEDPin,
	Display:    Display,
	PMU:        PMU,
	Init:       Init,
}

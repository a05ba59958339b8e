// Package pibench wires the radio, GNSS and OLED of the field board to a
// Raspberry Pi header so the HAL can run on Linux with the periph provider.
// LoRa CS is a plain GPIO; spidev still drives CE0, which nothing listens to.
package pibench

import "meshnode-go/variant"

const (
	LoRaSCK   variant.Pin = 11
	LoRaMOSI  variant.Pin = 10
	LoRaMISO  variant.Pin = 9
	LoRaCS    variant.Pin = 25
	LoRaReset variant.Pin = 17
	LoRaBusy  variant.Pin = 22
	LoRaDIO1  variant.Pin = 27
)

const (
	I2CSDA variant.Pin = 2
	I2CSCL variant.Pin = 3
)

const (
	GPSTX   variant.Pin = 14
	GPSRX   variant.Pin = 15
	GPSBaud             = 9600
)

const (
	ButtonUser variant.Pin = 23
	LEDPin     variant.Pin = 24
)

var Variant = variant.Variant{
	Name: "pi_bench",
	SoC:  "bcm283x",
	LoRa: variant.LoRa{
		SCK: LoRaSCK, MISO: LoRaMISO, MOSI: LoRaMOSI, CS: LoRaCS,
		Reset: LoRaReset, Busy: LoRaBusy, DIO1: LoRaDIO1,
		TXEN: variant.NC, RXEN: variant.NC,
		DIO2AsRFSwitch: true,
	},
	I2C:        variant.I2C{SDA: I2CSDA, SCL: I2CSCL},
	GNSS:       variant.GNSS{RX: GPSRX, TX: GPSTX, Baud: GPSBaud},
	ButtonUser: ButtonUser,
	LED:        LEDPin,
	Display:    variant.DisplaySH1106,
	PMU:        variant.PMUNone,
}

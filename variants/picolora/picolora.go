// Package picolora declares a breadboard prototype: Raspberry Pi Pico with an
// SX1262 LoRa HAT (DIO2 drives the RF switch), a UART GNSS, an I2C OLED and
// a user button. Every pin is assigned; it is the reference for a fully
// wired variant.
package picolora

import "meshnode-go/variant"

const (
	LoRaSCK   variant.Pin = 10
	LoRaMOSI  variant.Pin = 11
	LoRaMISO  variant.Pin = 12
	LoRaCS    variant.Pin = 3
	LoRaReset variant.Pin = 15
	LoRaBusy  variant.Pin = 2
	LoRaDIO1  variant.Pin = 20
)

const (
	I2CSDA variant.Pin = 4
	I2CSCL variant.Pin = 5
)

const (
	GPSTX   variant.Pin = 0 // uart0 TX -> receiver RX
	GPSRX   variant.Pin = 1
	GPSBaud             = 9600
)

const (
	ButtonUser variant.Pin = 17
	LEDPin     variant.Pin = 25
)

var Variant = variant.Variant{
	Name: "pico_lora",
	SoC:  "rp2040",
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

//go:build esp32s3 || rp2040

package sh1106dev

import (
	"tinygo.org/x/drivers"
	"tinygo.org/x/drivers/sh1106"
)

func init() { openDisplay = openSH1106 }

func openSH1106(bus drivers.I2C, addr uint16, w, h int16) (Canvas, error) {
	d := sh1106.NewI2C(bus)
	d.Configure(sh1106.Config{Width: w, Height: h, Address: addr, VccState: sh1106.SWITCHCAPVCC})
	d.ClearDisplay()
	return &d, nil
}

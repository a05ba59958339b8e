//go:build esp32s3 || rp2040

package sx1262

import (
	"tinygo.org/x/drivers"
	"tinygo.org/x/drivers/sx126x"
)

func init() { openRadio = openSX126x }

func openSX126x(spi drivers.SPI, ctl *Control) (Radio, error) {
	dev := sx126x.New(spi)
	dev.SetDeviceType(sx126x.DEVICE_TYPE_SX1262)
	if err := dev.SetRadioController(ctl); err != nil {
		return nil, err
	}
	return dev, nil
}

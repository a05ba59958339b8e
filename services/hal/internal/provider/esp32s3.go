//go:build esp32s3

package provider

import (
	"context"
	"time"

	"machine"

	"meshnode-go/errcode"
	"meshnode-go/services/hal/internal/core"

	"tinygo.org/x/drivers"
)

// ESP32-S3 controllers: i2c0 is I2C0, spi2 is FSPI (GP-SPI2), uart1 is the
// first UART free of the console. Every peripheral routes through the GPIO
// matrix, so any non-reserved pin may carry any signal.

func openI2C(p I2CPlan) (i2cTx, error) {
	var hw *machine.I2C
	switch p.ID {
	case "i2c0":
		hw = machine.I2C0
	default:
		return nil, errcode.UnknownBus
	}
	if err := hw.Configure(machine.I2CConfig{
		SCL:       machine.Pin(p.SCL),
		SDA:       machine.Pin(p.SDA),
		Frequency: p.Hz,
	}); err != nil {
		return nil, err
	}
	return hw, nil
}

func openSPI(p SPIPlan) (drivers.SPI, error) {
	var hw *machine.SPI
	switch p.ID {
	case "spi2":
		hw = machine.SPI2
	default:
		return nil, errcode.UnknownBus
	}
	err := hw.Configure(machine.SPIConfig{
		Frequency: p.Hz,
		SCK:       machine.Pin(p.SCK),
		SDO:       machine.Pin(p.MOSI),
		SDI:       machine.Pin(p.MISO),
		Mode:      0,
	})
	if err != nil {
		return nil, err
	}
	return hw, nil
}

func openUART(p UARTPlan) (core.SerialPort, error) {
	var hw *machine.UART
	switch p.ID {
	case "uart1":
		hw = machine.UART1
	default:
		return nil, errcode.UnknownBus
	}
	s := &espSerialPort{u: hw, tx: machine.Pin(p.TX), rx: machine.Pin(p.RX)}
	if err := s.SetBaudRate(p.Baud); err != nil {
		return nil, err
	}
	return s, nil
}

func setPinIRQ(p machine.Pin, edge core.Edge, handler func()) error {
	var change machine.PinChange
	switch edge {
	case core.EdgeRising:
		change = machine.PinRising
	case core.EdgeFalling:
		change = machine.PinFalling
	case core.EdgeBoth:
		change = machine.PinToggle
	default:
		return errcode.InvalidParams
	}
	return p.SetInterrupt(change, func(machine.Pin) { handler() })
}

func clearPinIRQ(p machine.Pin) error { return p.SetInterrupt(0, nil) }

// espSerialPort adapts machine.UART. The machine UART read never blocks, so
// receives poll the RX ring.
type espSerialPort struct {
	u      *machine.UART
	tx, rx machine.Pin
}

const uartPollEvery = 5 * time.Millisecond

func (p *espSerialPort) Write(b []byte) (int, error) { return p.u.Write(b) }

func (p *espSerialPort) RecvSomeContext(ctx context.Context, buf []byte) (int, error) {
	return pollRecv(ctx, buf, p.u.Read, uartPollEvery)
}

// SetBaudRate reconfigures the UART on the same pins.
func (p *espSerialPort) SetBaudRate(br uint32) error {
	return p.u.Configure(machine.UARTConfig{BaudRate: br, TX: p.tx, RX: p.rx})
}

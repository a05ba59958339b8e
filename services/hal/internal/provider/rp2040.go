//go:build rp2040

package provider

import (
	"context"

	"machine"

	"meshnode-go/errcode"
	"meshnode-go/services/hal/internal/core"

	uartx "github.com/jangala-dev/tinygo-uartx/uartx"
	"tinygo.org/x/drivers"
)

func openI2C(p I2CPlan) (i2cTx, error) {
	var hw *machine.I2C
	switch p.ID {
	case "i2c0":
		hw = machine.I2C0
	case "i2c1":
		hw = machine.I2C1
	default:
		return nil, errcode.UnknownBus
	}
	sda, scl := machine.Pin(p.SDA), machine.Pin(p.SCL)
	sda.Configure(machine.PinConfig{Mode: machine.PinI2C})
	scl.Configure(machine.PinConfig{Mode: machine.PinI2C})
	if err := hw.Configure(machine.I2CConfig{SCL: scl, SDA: sda, Frequency: p.Hz}); err != nil {
		return nil, err
	}
	return hw, nil
}

func openSPI(p SPIPlan) (drivers.SPI, error) {
	var hw *machine.SPI
	switch p.ID {
	case "spi0":
		hw = machine.SPI0
	case "spi1":
		hw = machine.SPI1
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
	var hw *uartx.UART
	switch p.ID {
	case "uart0":
		hw = uartx.UART0
	case "uart1":
		hw = uartx.UART1
	default:
		return nil, errcode.UnknownBus
	}
	// Defaults inside uartx apply if baud is zero.
	if err := hw.Configure(uartx.UARTConfig{
		BaudRate: p.Baud,
		TX:       machine.Pin(p.TX),
		RX:       machine.Pin(p.RX),
	}); err != nil {
		return nil, err
	}
	return &rp2SerialPort{u: hw}, nil
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

// ---- rp2SerialPort: adapts uartx to core.SerialPort (+optional configurators) ----
type rp2SerialPort struct{ u *uartx.UART }

func (p *rp2SerialPort) Write(b []byte) (int, error) { return p.u.Write(b) }
func (p *rp2SerialPort) RecvSomeContext(ctx context.Context, buf []byte) (int, error) {
	return p.u.RecvSomeContext(ctx, buf)
}
func (p *rp2SerialPort) SetBaudRate(br uint32) error { p.u.SetBaudRate(br); return nil }

// Parity strings: "none","even","odd"
func (p *rp2SerialPort) SetFormat(databits, stopbits uint8, parity string) error {
	var par uartx.UARTParity
	switch parity {
	case "even":
		par = uartx.ParityEven
	case "odd":
		par = uartx.ParityOdd
	default:
		par = uartx.ParityNone
	}
	return p.u.SetFormat(databits, stopbits, par)
}

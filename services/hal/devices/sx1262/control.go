package sx1262

import (
	"time"

	"meshnode-go/errcode"
	"meshnode-go/services/hal/internal/core"
)

// RF switch modes, numbered as the sx126x driver numbers them.
const (
	rfSwitchRX = iota
	rfSwitchTXLP
	rfSwitchTXHP
)

const busyTimeout = 100 * time.Millisecond

// Control drives the SX1262 side-band lines from claimed GPIOs: chip select,
// BUSY, DIO1 and, on boards with an external PA/LNA, TXEN/RXEN. It has the
// method set of sx126x.RadioController.
type Control struct {
	NSS, Reset, Busy, DIO1 core.GPIOHandle
	TXEN, RXEN             core.GPIOHandle // nil when DIO2 drives the switch

	// edges opens a DIO1 rising-edge stream.
	edges func() (core.GPIOEdgeStream, error)
	dio1  core.GPIOEdgeStream
	mode  int
}

func (c *Control) Init() error {
	if err := c.NSS.ConfigureOutput(true); err != nil {
		return err
	}
	if err := c.Reset.ConfigureOutput(true); err != nil {
		return err
	}
	if err := c.Busy.ConfigureInput(core.PullNone); err != nil {
		return err
	}
	if err := c.DIO1.ConfigureInput(core.PullNone); err != nil {
		return err
	}
	for _, p := range []core.GPIOHandle{c.TXEN, c.RXEN} {
		if p != nil {
			if err := p.ConfigureOutput(false); err != nil {
				return err
			}
		}
	}
	c.mode = -1
	return nil
}

// HardReset pulses RESET low. The chip is ready once BUSY drops.
func (c *Control) HardReset() error {
	c.Reset.Set(false)
	time.Sleep(2 * time.Millisecond)
	c.Reset.Set(true)
	time.Sleep(10 * time.Millisecond)
	return c.WaitWhileBusy()
}

// SetRfSwitchMode routes the antenna. TX enables the PA and never together
// with the LNA.
func (c *Control) SetRfSwitchMode(mode int) error {
	c.mode = mode
	if c.TXEN == nil && c.RXEN == nil {
		return nil
	}
	tx := mode == rfSwitchTXLP || mode == rfSwitchTXHP
	// Break before make.
	if c.TXEN != nil {
		c.TXEN.Set(false)
	}
	if c.RXEN != nil {
		c.RXEN.Set(false)
	}
	if tx && c.TXEN != nil {
		c.TXEN.Set(true)
	}
	if !tx && c.RXEN != nil {
		c.RXEN.Set(true)
	}
	return nil
}

// Idle drops both front-end enables.
func (c *Control) Idle() {
	if c.TXEN != nil {
		c.TXEN.Set(false)
	}
	if c.RXEN != nil {
		c.RXEN.Set(false)
	}
	c.mode = -1
}

func (c *Control) SetNss(state bool) error {
	c.NSS.Set(state)
	return nil
}

func (c *Control) WaitWhileBusy() error {
	deadline := time.Now().Add(busyTimeout)
	for c.Busy.Get() {
		if time.Now().After(deadline) {
			return errcode.Timeout
		}
		time.Sleep(100 * time.Microsecond)
	}
	return nil
}

// SetupInterrupts calls handler on every DIO1 rising edge.
func (c *Control) SetupInterrupts(handler func()) error {
	if c.edges == nil {
		return errcode.Unsupported
	}
	es, err := c.edges()
	if err != nil {
		return err
	}
	c.dio1 = es
	go func() {
		for ev := range es.Events() {
			if ev.Level {
				handler()
			}
		}
	}()
	return nil
}

func (c *Control) close() {
	c.Idle()
	if c.dio1 != nil {
		c.dio1.Close()
		c.dio1 = nil
	}
}

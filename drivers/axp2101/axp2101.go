// Package axp2101 is a register-level driver for the X-Powers AXP2101 PMU
// found on recent LilyGO boards. Integer-only; all voltages are in mV.
package axp2101

import (
	"errors"

	"tinygo.org/x/drivers"
)

var (
	ErrNotDetected  = errors.New("axp2101: chip id mismatch")
	ErrRailRange    = errors.New("axp2101: voltage out of rail range")
	ErrUnknownRail  = errors.New("axp2101: unknown rail")
	ErrNotSupported = errors.New("axp2101: rail has no voltage control")
)

type Config struct {
	Address uint16 // defaults to Address
	// EnableCharger turns on battery charging during Configure.
	EnableCharger bool
}

type Device struct {
	i2c  drivers.I2C
	addr uint16
	w    [2]byte
	r    [2]byte
}

func New(i2c drivers.I2C) *Device {
	return &Device{i2c: i2c, addr: Address}
}

// Configure checks the chip id, then enables the voltage ADCs and the fuel
// gauge.
func (d *Device) Configure(cfg Config) error {
	if cfg.Address != 0 {
		d.addr = cfg.Address
	}
	id, err := d.readReg(regChipID)
	if err != nil {
		return err
	}
	if id != ChipID {
		return ErrNotDetected
	}
	if err := d.setBits(regADCEnable, adcVBAT|adcVBUS|adcVSYS); err != nil {
		return err
	}
	bits := byte(cgGaugeEnable)
	if cfg.EnableCharger {
		bits |= cgChargeEnable
	}
	return d.setBits(regChargeGauge, bits)
}

// Addr returns the bus address in use.
func (d *Device) Addr() uint16 { return d.addr }

// ---- Status ----

type ChargeState uint8

const (
	ChargeTrickle ChargeState = iota
	ChargePre
	ChargeCC
	ChargeCV
	ChargeDone
	ChargeIdle
)

func (c ChargeState) String() string {
	switch c {
	case ChargeTrickle:
		return "trickle"
	case ChargePre:
		return "precharge"
	case ChargeCC:
		return "cc"
	case ChargeCV:
		return "cv"
	case ChargeDone:
		return "done"
	default:
		return "idle"
	}
}

// Charging is true for the active charge phases.
func (c ChargeState) Charging() bool { return c <= ChargeCV }

type Status struct {
	VBUSGood       bool
	BatteryPresent bool
	Charge         ChargeState
}

func (d *Device) Status() (Status, error) {
	d.w[0] = regStatus1
	if err := d.i2c.Tx(d.addr, d.w[:1], d.r[:2]); err != nil {
		return Status{}, err
	}
	s1, s2 := d.r[0], d.r[1]
	cs := ChargeState(s2 & 0x07)
	if cs > ChargeIdle {
		cs = ChargeIdle
	}
	return Status{
		VBUSGood:       s1&st1VBUSGood != 0,
		BatteryPresent: s1&st1BatPresent != 0,
		Charge:         cs,
	}, nil
}

func (d *Device) BatteryMilliV() (uint16, error) { return d.read14(regVBATH) }
func (d *Device) VBUSMilliV() (uint16, error)    { return d.read14(regVBUSH) }
func (d *Device) VSYSMilliV() (uint16, error)    { return d.read14(regVSYSH) }

// BatteryPercent is the fuel gauge estimate, 0..100.
func (d *Device) BatteryPercent() (uint8, error) {
	v, err := d.readReg(regBatteryPercent)
	if v > 100 {
		v = 100
	}
	return v, err
}

// ---- low level ----

func (d *Device) readReg(reg byte) (byte, error) {
	d.w[0] = reg
	if err := d.i2c.Tx(d.addr, d.w[:1], d.r[:1]); err != nil {
		return 0, err
	}
	return d.r[0], nil
}

func (d *Device) writeReg(reg, val byte) error {
	d.w[0] = reg
	d.w[1] = val
	return d.i2c.Tx(d.addr, d.w[:2], nil)
}

func (d *Device) setBits(reg, mask byte) error {
	v, err := d.readReg(reg)
	if err != nil {
		return err
	}
	return d.writeReg(reg, v|mask)
}

func (d *Device) clearBits(reg, mask byte) error {
	v, err := d.readReg(reg)
	if err != nil {
		return err
	}
	return d.writeReg(reg, v&^mask)
}

// read14 reads a big-endian 14-bit ADC result (H then L).
func (d *Device) read14(regH byte) (uint16, error) {
	d.w[0] = regH
	if err := d.i2c.Tx(d.addr, d.w[:1], d.r[:2]); err != nil {
		return 0, err
	}
	return uint16(d.r[0]&0x3F)<<8 | uint16(d.r[1]), nil
}

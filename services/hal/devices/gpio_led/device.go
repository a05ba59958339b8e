package gpio_led

import (
	"context"

	"meshnode-go/errcode"
	"meshnode-go/services/hal/internal/core"
	"meshnode-go/types"
	"meshnode-go/x/timex"
)

type Params struct {
	Pin       int
	ActiveLow bool
	Initial   bool
	Domain    string
	Name      string
}

type Device struct {
	id        string
	pin       core.GPIOHandle
	activeLow bool
	initial   bool
	pub       core.EventEmitter
	reg       core.ResourceRegistry
	addr      core.CapAddr
}

func (d *Device) ID() string { return d.id }

func (d *Device) Capabilities() []core.CapabilitySpec {
	return []core.CapabilitySpec{{
		Domain: d.addr.Domain,
		Kind:   types.KindLED,
		Name:   d.addr.Name,
		Info: types.Info{
			SchemaVersion: 1,
			Driver:        "gpio_led",
			Detail:        types.LEDInfo{Pin: d.pin.Number()},
		},
	}}
}

func (d *Device) Init(ctx context.Context) error {
	level := d.initial
	if d.activeLow {
		level = !level
	}
	if err := d.pin.ConfigureOutput(level); err != nil {
		return err
	}
	d.emitValueNow()
	return nil
}

func (d *Device) Close() error {
	d.reg.ReleaseGPIO(d.id, d.pin.Number())
	return nil
}

func (d *Device) Control(_ core.CapAddr, method string, payload any) (core.EnqueueResult, error) {
	switch method {
	case "set":
		p, code := core.As[types.LEDSet](payload)
		if code != "" {
			return core.EnqueueResult{OK: false, Error: code}, nil
		}
		d.setLogical(p.On)
		d.emitValueNow()
		return core.EnqueueResult{OK: true}, nil
	case "toggle":
		d.setLogical(!d.getLogical())
		d.emitValueNow()
		return core.EnqueueResult{OK: true}, nil
	case "read":
		d.emitValueNow()
		return core.EnqueueResult{OK: true}, nil
	default:
		return core.EnqueueResult{OK: false, Error: errcode.Unsupported}, nil
	}
}

func (d *Device) setLogical(on bool) {
	level := on
	if d.activeLow {
		level = !level
	}
	d.pin.Set(level)
}

func (d *Device) getLogical() bool {
	level := d.pin.Get()
	if d.activeLow {
		level = !level
	}
	return level
}

func (d *Device) emitValueNow() {
	_ = d.pub.Emit(core.Event{
		Addr:    d.addr,
		Payload: types.LEDValue{On: d.getLogical()},
		TSms:    timex.NowMs(),
	})
}

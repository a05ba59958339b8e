package axp2101dev

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"meshnode-go/drivers/axp2101"
	"meshnode-go/errcode"
	"meshnode-go/services/hal/internal/core"
	"meshnode-go/types"
)

type railCap struct {
	a core.CapAddr
	r axp2101.Rail
}

// Device is a single-goroutine HAL device for the AXP2101. Every register
// access happens on the worker.
type Device struct {
	id    string
	aBat  core.CapAddr // power/battery/<name>
	rails []railCap    // power/rail/<rail>

	res    core.Resources
	params Params
	alive  atomic.Bool

	// Owned by the worker only:
	dev *axp2101.Device

	reqCh chan request
	done  chan struct{}
}

type opCode uint8

const (
	opSample opCode = iota
	opRailRead
	opRailSet
	opStop
)

type request struct {
	op   opCode
	rail railCap
	set  types.RailSet
}

func (d *Device) ID() string { return d.id }

func (d *Device) Capabilities() []core.CapabilitySpec {
	info := types.Info{SchemaVersion: 1, Driver: "axp2101", Detail: types.PMUInfo{
		Chip: "axp2101", Bus: d.params.Bus, Addr: d.params.Addr,
	}}
	out := []core.CapabilitySpec{{Domain: d.aBat.Domain, Kind: types.KindBattery, Name: d.aBat.Name, Info: info}}
	for _, rc := range d.rails {
		out = append(out, core.CapabilitySpec{Domain: rc.a.Domain, Kind: types.KindRail, Name: rc.a.Name, Info: info})
	}
	return out
}

func (d *Device) Init(ctx context.Context) error {
	d.reqCh = make(chan request, 8)
	d.done = make(chan struct{})
	d.alive.Store(true)
	go d.worker(ctx)

	// Seed retained values.
	d.reqCh <- request{op: opSample}
	for _, rc := range d.rails {
		select {
		case d.reqCh <- request{op: opRailRead, rail: rc}:
		default:
		}
	}
	return nil
}

func (d *Device) Close() error {
	if d.alive.Swap(false) {
		select {
		case d.reqCh <- request{op: opStop}:
		default:
		}
		t := time.NewTimer(300 * time.Millisecond)
		select {
		case <-d.done:
		case <-t.C:
		}
		t.Stop()
	}
	d.res.Reg.ReleaseI2C(d.id, core.ResourceID(d.params.Bus))
	return nil
}

func (d *Device) Control(a core.CapAddr, verb string, payload any) (core.EnqueueResult, error) {
	send := func(req request) (core.EnqueueResult, error) {
		if !d.alive.Load() {
			return core.EnqueueResult{Error: errcode.HALNotReady}, nil
		}
		select {
		case d.reqCh <- req:
			return core.EnqueueResult{OK: true}, nil
		default:
			return core.EnqueueResult{Error: errcode.Busy}, nil
		}
	}

	if a == d.aBat {
		if verb == "read" {
			return send(request{op: opSample})
		}
		return core.EnqueueResult{Error: errcode.Unsupported}, nil
	}
	rc, ok := d.rail(a)
	if !ok {
		return core.EnqueueResult{Error: errcode.UnknownCapability}, nil
	}
	switch verb {
	case "read":
		return send(request{op: opRailRead, rail: rc})
	case "set":
		v, code := core.As[types.RailSet](payload)
		if code != "" {
			return core.EnqueueResult{Error: code}, nil
		}
		return send(request{op: opRailSet, rail: rc, set: v})
	default:
		return core.EnqueueResult{Error: errcode.Unsupported}, nil
	}
}

func (d *Device) rail(a core.CapAddr) (railCap, bool) {
	for _, rc := range d.rails {
		if rc.a == a {
			return rc, true
		}
	}
	return railCap{}, false
}

// ---- Worker ----

func (d *Device) worker(ctx context.Context) {
	defer close(d.done)
	for {
		select {
		case <-ctx.Done():
			return
		case req := <-d.reqCh:
			switch req.op {
			case opSample:
				d.sampleBattery()
			case opRailRead:
				d.readRail(req.rail)
			case opRailSet:
				d.setRail(req.rail, req.set)
			case opStop:
				return
			}
		}
	}
}

func (d *Device) sampleBattery() {
	ts := time.Now().UnixMilli()
	st, err := d.dev.Status()
	if err != nil {
		_ = d.res.Pub.Emit(core.Event{Addr: d.aBat, TSms: ts, Err: string(errcode.Of(err))})
		return
	}
	bv := types.BatteryValue{
		Present:  st.BatteryPresent,
		Charging: st.Charge.Charging(),
		ChargeSt: st.Charge.String(),
		VBUSGood: st.VBUSGood,
	}
	if st.BatteryPresent {
		if mv, err := d.dev.BatteryMilliV(); err == nil {
			bv.MilliV = mv
		}
		if pc, err := d.dev.BatteryPercent(); err == nil {
			bv.Percent = pc
		}
	}
	if st.VBUSGood {
		if mv, err := d.dev.VBUSMilliV(); err == nil {
			bv.VBUSmV = mv
		}
	}
	_ = d.res.Pub.Emit(core.Event{Addr: d.aBat, Payload: bv, TSms: ts})
}

func (d *Device) readRail(rc railCap) {
	ts := time.Now().UnixMilli()
	on, err := d.dev.RailEnabled(rc.r)
	if err != nil {
		_ = d.res.Pub.Emit(core.Event{Addr: rc.a, TSms: ts, Err: string(errcode.Of(err))})
		return
	}
	mv, err := d.dev.RailMilliV(rc.r)
	if err != nil {
		_ = d.res.Pub.Emit(core.Event{Addr: rc.a, TSms: ts, Err: string(errcode.Of(err))})
		return
	}
	_ = d.res.Pub.Emit(core.Event{Addr: rc.a, Payload: types.RailValue{On: on, MilliV: mv}, TSms: ts})
}

// setRail programs the voltage before enabling, and disables before any
// voltage change when turning off.
func (d *Device) setRail(rc railCap, v types.RailSet) {
	fail := func(tag string, err error) {
		code := string(errcode.Of(err))
		if errors.Is(err, axp2101.ErrRailRange) {
			code = string(errcode.InvalidPayload)
		}
		ts := time.Now().UnixMilli()
		_ = d.res.Pub.Emit(core.Event{Addr: rc.a, EventTag: tag, TSms: ts, Payload: code})
		_ = d.res.Pub.Emit(core.Event{Addr: rc.a, TSms: ts, Err: code})
	}
	if v.MilliV != 0 && v.On {
		if err := d.dev.SetRailMilliV(rc.r, v.MilliV); err != nil {
			fail("set_voltage_failed", err)
			return
		}
	}
	if err := d.dev.EnableRail(rc.r, v.On); err != nil {
		fail("enable_failed", err)
		return
	}
	if v.MilliV != 0 && !v.On {
		if err := d.dev.SetRailMilliV(rc.r, v.MilliV); err != nil {
			fail("set_voltage_failed", err)
			return
		}
	}
	d.readRail(rc)
}

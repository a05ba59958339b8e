package gpio_button

import (
	"context"
	"time"

	"meshnode-go/errcode"
	"meshnode-go/services/hal/internal/core"
	"meshnode-go/types"
	"meshnode-go/x/timex"
)

// Device publishes the button level as its value and "pressed", "released"
// and optionally "held" as tagged events.
type Device struct {
	id     string
	pinN   int
	gpio   core.GPIOHandle
	invert bool

	pub core.EventEmitter
	reg core.ResourceRegistry

	a core.CapAddr

	debounce time.Duration
	hold     time.Duration // 0 disables "held"
	es       core.GPIOEdgeStream
	done     chan struct{}
}

func (d *Device) ID() string { return d.id }

func (d *Device) Capabilities() []core.CapabilitySpec {
	return []core.CapabilitySpec{{
		Domain: d.a.Domain,
		Kind:   types.KindButton,
		Name:   d.a.Name,
		Info:   types.Info{SchemaVersion: 1, Driver: "gpio_button", Detail: types.ButtonInfo{Pin: d.pinN}},
	}}
}

func (d *Device) Init(ctx context.Context) error {
	d.emitValue(d.pressed(), timex.NowMs())

	es, err := d.reg.SubscribeGPIOEdges(d.id, d.pinN, core.EdgeBoth, d.debounce, 8)
	if err != nil {
		// Still readable by polling.
		d.pub.Emit(core.Event{Addr: d.a, Err: "edge_sub_failed"})
		return nil
	}
	d.es = es
	d.done = make(chan struct{})
	go d.edgeLoop()
	return nil
}

func (d *Device) Close() error {
	if d.es != nil {
		d.reg.UnsubscribeGPIOEdges(d.id, d.pinN)
		d.es.Close()
		<-d.done
		d.es = nil
	}
	d.reg.ReleaseGPIO(d.id, d.pinN)
	return nil
}

func (d *Device) Control(_ core.CapAddr, verb string, _ any) (core.EnqueueResult, error) {
	if verb != "read" {
		return core.EnqueueResult{Error: errcode.Unsupported}, nil
	}
	d.emitValue(d.pressed(), timex.NowMs())
	return core.EnqueueResult{OK: true}, nil
}

func (d *Device) edgeLoop() {
	defer close(d.done)

	hold := time.NewTimer(time.Hour)
	hold.Stop()
	defer hold.Stop()

	for {
		select {
		case ev, ok := <-d.es.Events():
			if !ok {
				return
			}
			pressed := d.logicalPressed(ev.Level)
			tag := "released"
			if pressed {
				tag = "pressed"
			}
			d.pub.Emit(core.Event{Addr: d.a, EventTag: tag, Payload: types.ButtonValue{Pressed: pressed}, TSms: ev.TSms})
			d.emitValue(pressed, ev.TSms)

			if pressed && d.hold > 0 {
				timex.Rearm(hold, d.hold)
			} else {
				timex.Disarm(hold)
			}

		case <-hold.C:
			if d.pressed() {
				d.pub.Emit(core.Event{Addr: d.a, EventTag: "held", Payload: types.ButtonValue{Pressed: true}, TSms: timex.NowMs()})
			}
		}
	}
}

func (d *Device) pressed() bool { return d.logicalPressed(d.gpio.Get()) }

func (d *Device) emitValue(pressed bool, ts int64) {
	d.pub.Emit(core.Event{Addr: d.a, Payload: types.ButtonValue{Pressed: pressed}, TSms: ts})
}

func (d *Device) logicalPressed(level bool) bool {
	return level != d.invert
}

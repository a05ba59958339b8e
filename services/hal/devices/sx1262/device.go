package sx1262

import (
	"context"
	"sync/atomic"

	"meshnode-go/errcode"
	"meshnode-go/services/hal/internal/core"
	"meshnode-go/types"
	"meshnode-go/x/timex"

	"tinygo.org/x/drivers/lora"
)

type cmdKind uint8

const (
	cmdSend cmdKind = iota
	cmdListen
)

type command struct {
	kind cmdKind
	data []byte
	on   bool
	tmo  uint32
}

// Device owns one SX1262. A single worker goroutine serialises all radio
// access: queued sends first, then a bounded receive window while listening.
type Device struct {
	id    string
	a     core.CapAddr
	pub   core.EventEmitter
	radio Radio
	ctl   *Control
	cfg   lora.Config
	bus   string
	rxWin uint32
	txTO  uint32
	fe    bool

	cmds   chan command
	cancel context.CancelFunc
	done   chan struct{}
	closer func()

	txOK, txFail, rx atomic.Uint32
}

func (d *Device) ID() string { return d.id }

func (d *Device) Capabilities() []core.CapabilitySpec {
	return []core.CapabilitySpec{{
		Domain: d.a.Domain,
		Kind:   types.KindLoRa,
		Name:   d.a.Name,
		Info: types.Info{SchemaVersion: 1, Driver: "sx1262", Detail: types.LoRaInfo{
			Chip:     "sx1262",
			Bus:      d.bus,
			FreqHz:   d.cfg.Freq,
			SF:       d.cfg.Sf,
			BWkHz:    bandwidthKHz(d.cfg.Bw),
			TxPower:  d.cfg.LoraTxPowerDBm,
			FrontEnd: d.fe,
		}},
	}}
}

func (d *Device) Init(ctx context.Context) error {
	if err := d.ctl.HardReset(); err != nil {
		return errcode.Wrap("sx1262.reset", err)
	}
	if !d.radio.DetectDevice() {
		return errcode.NotDetected
	}
	d.radio.LoraConfig(d.cfg)

	wctx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel
	d.done = make(chan struct{})
	go d.worker(wctx)
	d.emitStats()
	return nil
}

func (d *Device) Close() error {
	if d.cancel != nil {
		d.cancel()
		<-d.done
		d.cancel = nil
	}
	d.radio.SetStandby()
	d.ctl.close()
	if d.closer != nil {
		d.closer()
	}
	return nil
}

func (d *Device) Control(_ core.CapAddr, verb string, payload any) (core.EnqueueResult, error) {
	switch verb {
	case "send":
		p, code := core.As[types.LoRaSend](payload)
		if code != "" {
			return core.EnqueueResult{Error: code}, nil
		}
		if len(p.Data) == 0 || len(p.Data) > 255 {
			return core.EnqueueResult{Error: errcode.InvalidPayload}, nil
		}
		tmo := p.TimeoutMs
		if tmo == 0 {
			tmo = d.txTO
		}
		data := append([]byte(nil), p.Data...)
		return d.enqueue(command{kind: cmdSend, data: data, tmo: tmo}), nil
	case "listen":
		p, code := core.As[types.LoRaListen](payload)
		if code != "" {
			return core.EnqueueResult{Error: code}, nil
		}
		return d.enqueue(command{kind: cmdListen, on: p.On}), nil
	case "read":
		d.emitStats()
		return core.EnqueueResult{OK: true}, nil
	default:
		return core.EnqueueResult{Error: errcode.Unsupported}, nil
	}
}

func (d *Device) enqueue(c command) core.EnqueueResult {
	select {
	case d.cmds <- c:
		return core.EnqueueResult{OK: true}
	default:
		return core.EnqueueResult{Error: errcode.Busy}
	}
}

func (d *Device) worker(ctx context.Context) {
	defer close(d.done)
	listening := false
	for {
		if !listening {
			select {
			case <-ctx.Done():
				return
			case c := <-d.cmds:
				listening = d.run(c, listening)
			}
			continue
		}
		select {
		case <-ctx.Done():
			return
		case c := <-d.cmds:
			listening = d.run(c, listening)
		default:
			d.receive()
		}
	}
}

func (d *Device) run(c command, listening bool) bool {
	switch c.kind {
	case cmdListen:
		if !c.on {
			d.radio.SetStandby()
			d.ctl.Idle()
		}
		return c.on
	case cmdSend:
		err := d.radio.Tx(c.data, c.tmo)
		if !listening {
			d.ctl.Idle()
		}
		if err != nil {
			d.txFail.Add(1)
			d.pub.Emit(core.Event{Addr: d.a, Err: string(errcode.Of(err))})
		} else {
			d.txOK.Add(1)
			d.pub.Emit(core.Event{Addr: d.a, EventTag: "tx", Payload: types.LoRaPacket{Data: c.data, TSms: timex.NowMs()}})
		}
		d.emitStats()
	}
	return listening
}

func (d *Device) receive() {
	pkt, err := d.radio.Rx(d.rxWin)
	if err != nil {
		d.pub.Emit(core.Event{Addr: d.a, Err: string(errcode.Of(err))})
		return
	}
	if pkt == nil {
		return // window elapsed
	}
	d.rx.Add(1)
	d.pub.Emit(core.Event{Addr: d.a, EventTag: "rx", Payload: types.LoRaPacket{Data: pkt, TSms: timex.NowMs()}})
	d.emitStats()
}

func (d *Device) emitStats() {
	d.pub.Emit(core.Event{Addr: d.a, Payload: types.LoRaStats{
		TxOK:   d.txOK.Load(),
		TxFail: d.txFail.Load(),
		Rx:     d.rx.Load(),
	}})
}

func bandwidthKHz(code uint8) uint32 {
	switch code {
	case lora.Bandwidth_31_25:
		return 31
	case lora.Bandwidth_62_5:
		return 62
	case lora.Bandwidth_125_0:
		return 125
	case lora.Bandwidth_250_0:
		return 250
	case lora.Bandwidth_500_0:
		return 500
	}
	return 0
}

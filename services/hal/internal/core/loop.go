package core

import (
	"context"
	"time"

	"meshnode-go/bus"
	"meshnode-go/errcode"
	"meshnode-go/types"
	"meshnode-go/x/timex"
)

const (
	eventQueueLen = 16
	pollQueueLen  = 8
	pollJitter    = 50 * time.Millisecond
)

type HAL struct {
	conn *bus.Connection
	res  Resources

	dev      map[string]Device  // devID -> device
	capIndex map[CapAddr]string // capability -> devID
	failed   map[string]bool    // devIDs whose build or init failed

	evCh   chan Event
	pollCh chan PollReq
	poller *Poller
}

func NewHAL(conn *bus.Connection, reg ResourceRegistry) *HAL {
	h := &HAL{
		conn:     conn,
		dev:      map[string]Device{},
		capIndex: map[CapAddr]string{},
		failed:   map[string]bool{},
		evCh:     make(chan Event, eventQueueLen),
		pollCh:   make(chan PollReq, pollQueueLen),
	}
	h.res = Resources{Reg: reg, Pub: h}
	h.poller = NewPoller(h.pollCh)
	return h
}

func (h *HAL) Run(ctx context.Context) {
	cfgSub := h.conn.Subscribe(TopicConfigHAL())
	ctrlSub := h.conn.Subscribe(ctrlWildcard())
	defer h.conn.Unsubscribe(cfgSub)
	defer h.conn.Unsubscribe(ctrlSub)
	defer h.closeAll()

	go h.poller.Run(ctx)

	h.pubHALState("idle", "awaiting_config")
	ready := false
	for {
		select {
		case <-ctx.Done():
			h.pubHALState("stopped", "context_cancelled")
			return
		case msg := <-cfgSub.Channel():
			cfg, ok := msg.Payload.(types.HALConfig)
			if !ok {
				println("[hal] config/hal payload is not a HALConfig")
				continue
			}
			h.applyConfig(ctx, cfg)
			if !ready {
				ready = true
				h.pubHALState("ready", "")
			}
		case m := <-ctrlSub.Channel():
			if !ready {
				h.reply(m, errcode.HALNotReady)
				continue
			}
			h.handleControl(m)
		case ev := <-h.evCh:
			h.handleEvent(ev)
		case pr := <-h.pollCh:
			h.handlePoll(pr)
		}
	}
}

// applyConfig is additive: devices already built are left alone, failed
// ones are retried.
func (h *HAL) applyConfig(ctx context.Context, cfg types.HALConfig) {
	for i := range cfg.Devices {
		dc := cfg.Devices[i]
		if _, exists := h.dev[dc.ID]; exists {
			continue
		}
		b, ok := lookupBuilder(dc.Type)
		if !ok {
			println("[hal] no builder for type:", dc.Type, "id:", dc.ID)
			h.devFailed(dc.ID, errcode.UnknownDeviceType)
			continue
		}
		dev, err := b.Build(ctx, BuilderInput{ID: dc.ID, Type: dc.Type, Params: dc.Params, Res: h.res})
		if err != nil {
			println("[hal] build failed for:", dc.ID, "err:", err.Error())
			h.devFailed(dc.ID, err)
			continue
		}
		if err := dev.Init(ctx); err != nil {
			println("[hal] init failed for:", dc.ID, "err:", err.Error())
			_ = dev.Close()
			h.devFailed(dc.ID, err)
			continue
		}
		h.dev[dev.ID()] = dev
		if h.failed[dc.ID] {
			delete(h.failed, dc.ID)
			h.conn.Publish(h.conn.NewMessage(DevStatus(dc.ID), nil, true))
		}

		for _, cs := range dev.Capabilities() {
			a := CapAddr{Domain: cs.Domain, Kind: cs.Kind, Name: cs.Name}
			if a.Domain == "" {
				a.Domain = DefaultDomainFor(cs.Kind)
			}
			if a.Name == "" {
				a.Name = dev.ID()
			}
			h.capIndex[a] = dev.ID()
			h.conn.Publish(h.conn.NewMessage(CapInfo(a), cs.Info, true))
			h.conn.Publish(h.conn.NewMessage(
				CapStatus(a),
				types.CapabilityStatus{Link: types.LinkDown, TSms: timex.NowMs()},
				true,
			))
		}
	}

	for _, ps := range cfg.Pollers {
		if ps.IntervalMs == 0 {
			continue
		}
		verb := ps.Verb
		if verb == "" {
			verb = "read"
		}
		h.poller.Upsert(CapAddr{Domain: ps.Domain, Kind: ps.Kind, Name: ps.Name}, verb,
			time.Duration(ps.IntervalMs)*time.Millisecond, pollJitter)
	}
}

func (h *HAL) devFailed(id string, err error) {
	h.failed[id] = true
	h.conn.Publish(h.conn.NewMessage(
		DevStatus(id),
		types.CapabilityStatus{Link: types.LinkDegraded, TSms: timex.NowMs(), Error: string(errcode.Of(err))},
		true,
	))
}

func (h *HAL) handleControl(msg *bus.Message) {
	// hal/cap/<domain>/<kind>/<name>/control/<verb>
	if msg.Topic.Len() < 7 {
		h.reply(msg, errcode.InvalidTopic)
		return
	}
	domain, _ := msg.Topic.At(2).(string)
	kind, _ := msg.Topic.At(3).(string)
	name, _ := msg.Topic.At(4).(string)
	verb, _ := msg.Topic.At(6).(string)

	a := CapAddr{Domain: domain, Kind: types.Kind(kind), Name: name}
	dev := h.lookup(a)
	if dev == nil {
		h.reply(msg, errcode.UnknownCapability)
		return
	}
	res, err := dev.Control(a, verb, msg.Payload)
	switch {
	case err != nil:
		h.reply(msg, errcode.Of(err))
	case res.OK:
		h.reply(msg, "")
	case res.Error == "":
		h.reply(msg, errcode.Busy)
	default:
		h.reply(msg, res.Error)
	}
}

func (h *HAL) handlePoll(pr PollReq) {
	dev := h.lookup(pr.Addr)
	if dev == nil {
		return
	}
	if res, err := dev.Control(pr.Addr, pr.Verb, nil); err != nil || !res.OK {
		// Busy devices skip a beat; the schedule stays armed.
		return
	}
}

func (h *HAL) lookup(a CapAddr) Device {
	id, ok := h.capIndex[a]
	if !ok {
		return nil
	}
	return h.dev[id]
}

func (h *HAL) handleEvent(ev Event) {
	a := ev.Addr
	ts := ev.TSms
	if ts == 0 {
		ts = timex.NowMs()
	}

	if ev.Err != "" {
		h.conn.Publish(h.conn.NewMessage(
			CapStatus(a),
			types.CapabilityStatus{Link: types.LinkDegraded, TSms: ts, Error: ev.Err},
			true,
		))
		return
	}

	switch {
	case ev.EventTag != "":
		h.conn.Publish(h.conn.NewMessage(CapEventTagged(a, ev.EventTag), ev.Payload, false))
	case ev.IsEvent:
		h.conn.Publish(h.conn.NewMessage(CapEvent(a), ev.Payload, false))
	default:
		h.conn.Publish(h.conn.NewMessage(CapValue(a), ev.Payload, true))
	}
	h.conn.Publish(h.conn.NewMessage(
		CapStatus(a),
		types.CapabilityStatus{Link: types.LinkUp, TSms: ts},
		true,
	))
}

func (h *HAL) pubHALState(level, status string) {
	h.conn.Publish(h.conn.NewMessage(
		TopicHALState(),
		types.HALState{Level: level, Status: status, TSms: timex.NowMs()},
		true,
	))
}

func (h *HAL) closeAll() {
	for id, d := range h.dev {
		if err := d.Close(); err != nil {
			println("[hal] close failed for:", id)
		}
	}
}

// DefaultDomainFor picks the public domain for a kind when a device leaves
// it empty.
func DefaultDomainFor(k types.Kind) string {
	switch k {
	case types.KindLoRa:
		return "radio"
	case types.KindGNSS:
		return "nav"
	case types.KindBattery, types.KindRail:
		return "power"
	case types.KindDisplay:
		return "ui"
	default:
		return "io"
	}
}

// ---- HAL as EventEmitter (enqueue to single publisher) ----

func (h *HAL) Emit(ev Event) bool {
	select {
	case h.evCh <- ev:
		return true
	default:
		return false
	}
}

package core_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"meshnode-go/bus"
	"meshnode-go/errcode"
	"meshnode-go/services/hal/internal/core"
	"meshnode-go/types"
)

const fakeType = "core_test_fake"

type fakeParams struct {
	FailFirstBuild bool
	FailInit       bool
}

type fakeDev struct {
	id     string
	pub    core.EventEmitter
	a      core.CapAddr
	closed atomic.Bool
}

func (d *fakeDev) ID() string { return d.id }

func (d *fakeDev) Capabilities() []core.CapabilitySpec {
	// Domain and Name left empty: HAL fills in io/<id>.
	return []core.CapabilitySpec{{Kind: types.KindLED, Info: types.Info{SchemaVersion: 1, Driver: fakeType}}}
}

func (d *fakeDev) Init(context.Context) error { return nil }

func (d *fakeDev) Control(_ core.CapAddr, verb string, _ any) (core.EnqueueResult, error) {
	switch verb {
	case "toggle":
		return core.EnqueueResult{OK: true}, nil
	case "refuse":
		return core.EnqueueResult{Error: errcode.InvalidPayload}, nil
	case "stall":
		return core.EnqueueResult{}, &errcode.E{C: errcode.Timeout, Op: "fake"}
	}
	return core.EnqueueResult{}, nil
}

func (d *fakeDev) Close() error { d.closed.Store(true); return nil }

type failingInit struct{ *fakeDev }

func (failingInit) Init(context.Context) error { return errcode.NotDetected }

type fakeBuilder struct {
	mu       sync.Mutex
	attempts map[string]int
	built    chan *fakeDev
}

func (b *fakeBuilder) Build(_ context.Context, in core.BuilderInput) (core.Device, error) {
	p, _ := in.Params.(fakeParams)
	b.mu.Lock()
	b.attempts[in.ID]++
	n := b.attempts[in.ID]
	b.mu.Unlock()
	if p.FailFirstBuild && n == 1 {
		return nil, &errcode.E{C: errcode.NotConnected, Op: "fake.build"}
	}
	d := &fakeDev{id: in.ID, pub: in.Res.Pub}
	d.a = core.CapAddr{Domain: "io", Kind: types.KindLED, Name: in.ID}
	if p.FailInit {
		return failingInit{d}, nil
	}
	b.built <- d
	return d, nil
}

var fakes = &fakeBuilder{attempts: map[string]int{}, built: make(chan *fakeDev, 8)}

func init() { core.RegisterBuilder(fakeType, fakes) }

func next(t *testing.T, s *bus.Subscription) *bus.Message {
	t.Helper()
	select {
	case m := <-s.Channel():
		return m
	case <-time.After(time.Second):
		t.Fatal("timeout waiting on subscription")
		return nil
	}
}

func waitState(t *testing.T, s *bus.Subscription, level string) {
	t.Helper()
	for {
		if st, ok := next(t, s).Payload.(types.HALState); ok && st.Level == level {
			return
		}
	}
}

func request(t *testing.T, c *bus.Connection, topic bus.Topic) any {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	reply, err := c.RequestWait(ctx, c.NewMessage(topic, nil, false))
	if err != nil {
		t.Fatalf("request %v: %v", topic, err)
	}
	return reply.Payload
}

func wantErrReply(t *testing.T, got any, code errcode.Code) {
	t.Helper()
	r, ok := got.(types.ErrorReply)
	if !ok || r.OK || r.Error != string(code) {
		t.Fatalf("reply = %#v, want %s", got, code)
	}
}

func TestHAL_Lifecycle(t *testing.T) {
	b := bus.NewBus(32)
	cli := b.NewConnection("cli")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := core.NewHAL(b.NewConnection("hal"), nil)
	done := make(chan struct{})
	go func() { h.Run(ctx); close(done) }()

	state := cli.Subscribe(core.TopicHALState())
	waitState(t, state, "idle")

	a := core.CapAddr{Domain: "io", Kind: types.KindLED, Name: "dev0"}
	wantErrReply(t, request(t, cli, core.CapCtrl(a, "toggle")), errcode.HALNotReady)

	cfg := types.HALConfig{Devices: []types.HALDevice{
		{ID: "dev0", Type: fakeType},
		{ID: "ghost", Type: "no_such_type"},
		{ID: "flaky", Type: fakeType, Params: fakeParams{FailFirstBuild: true}},
		{ID: "mute", Type: fakeType, Params: fakeParams{FailInit: true}},
	}}
	cli.Publish(cli.NewMessage(core.TopicConfigHAL(), cfg, true))
	waitState(t, state, "ready")
	dev := <-fakes.built

	if info, ok := next(t, cli.Subscribe(core.CapInfo(a))).Payload.(types.Info); !ok || info.Driver != fakeType {
		t.Fatalf("info = %#v", info)
	}
	if st := next(t, cli.Subscribe(core.CapStatus(a))).Payload.(types.CapabilityStatus); st.Link != types.LinkDown {
		t.Fatalf("initial link = %s", st.Link)
	}
	for id, code := range map[string]errcode.Code{
		"ghost": errcode.UnknownDeviceType,
		"flaky": errcode.NotConnected,
		"mute":  errcode.NotDetected,
	} {
		st := next(t, cli.Subscribe(core.DevStatus(id))).Payload.(types.CapabilityStatus)
		if st.Link != types.LinkDegraded || st.Error != string(code) {
			t.Errorf("%s status = %+v, want %s", id, st, code)
		}
	}

	t.Run("controls", func(t *testing.T) {
		if r, ok := request(t, cli, core.CapCtrl(a, "toggle")).(types.OKReply); !ok || !r.OK {
			t.Fatalf("toggle reply = %#v", r)
		}
		wantErrReply(t, request(t, cli, core.CapCtrl(a, "refuse")), errcode.InvalidPayload)
		wantErrReply(t, request(t, cli, core.CapCtrl(a, "stall")), errcode.Timeout)
		wantErrReply(t, request(t, cli, core.CapCtrl(a, "noop")), errcode.Busy)
		other := core.CapAddr{Domain: "io", Kind: types.KindLED, Name: "nobody"}
		wantErrReply(t, request(t, cli, core.CapCtrl(other, "toggle")), errcode.UnknownCapability)
	})

	t.Run("events", func(t *testing.T) {
		status := cli.Subscribe(core.CapStatus(a))
		next(t, status) // retained link down
		values := cli.Subscribe(core.CapValue(a))
		tagged := cli.Subscribe(core.CapEventTagged(a, "blink"))

		dev.pub.Emit(core.Event{Addr: a, Payload: types.LEDValue{On: true}, TSms: 42})
		if v := next(t, values).Payload.(types.LEDValue); !v.On {
			t.Fatalf("value = %+v", v)
		}
		if st := next(t, status).Payload.(types.CapabilityStatus); st.Link != types.LinkUp || st.TSms != 42 {
			t.Fatalf("status = %+v", st)
		}

		dev.pub.Emit(core.Event{Addr: a, EventTag: "blink", Payload: "x"})
		if p := next(t, tagged).Payload; p != "x" {
			t.Fatalf("tagged = %#v", p)
		}
		next(t, status)

		dev.pub.Emit(core.Event{Addr: a, Err: "no_fix"})
		if st := next(t, status).Payload.(types.CapabilityStatus); st.Link != types.LinkDegraded || st.Error != "no_fix" {
			t.Fatalf("err status = %+v", st)
		}
	})

	t.Run("retry", func(t *testing.T) {
		cli.Publish(cli.NewMessage(core.TopicConfigHAL(), cfg, true))
		if d := <-fakes.built; d.id != "flaky" {
			t.Fatalf("rebuilt %q", d.id)
		}
		fa := core.CapAddr{Domain: "io", Kind: types.KindLED, Name: "flaky"}
		if r, ok := request(t, cli, core.CapCtrl(fa, "toggle")).(types.OKReply); !ok || !r.OK {
			t.Fatalf("flaky toggle = %#v", r)
		}
		// Cleared retained status is not replayed.
		s := cli.Subscribe(core.DevStatus("flaky"))
		select {
		case m := <-s.Channel():
			t.Fatalf("stale dev status %#v", m.Payload)
		case <-time.After(50 * time.Millisecond):
		}
	})

	cancel()
	<-done
	if !dev.closed.Load() {
		t.Fatal("device not closed on shutdown")
	}
}

func TestDefaultDomainFor(t *testing.T) {
	cases := map[types.Kind]string{
		types.KindLoRa:    "radio",
		types.KindGNSS:    "nav",
		types.KindBattery: "power",
		types.KindRail:    "power",
		types.KindDisplay: "ui",
		types.KindButton:  "io",
		types.KindLED:     "io",
	}
	for k, want := range cases {
		if got := core.DefaultDomainFor(k); got != want {
			t.Errorf("%s => %q, want %q", k, got, want)
		}
	}
}

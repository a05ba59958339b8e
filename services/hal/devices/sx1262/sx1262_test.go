package sx1262

import (
	"context"
	"sync"
	"testing"
	"time"

	"meshnode-go/errcode"
	"meshnode-go/services/hal/internal/core"
	"meshnode-go/services/hal/internal/provider"
	"meshnode-go/types"

	"tinygo.org/x/drivers"
	"tinygo.org/x/drivers/lora"
)

type fakeRadio struct {
	mu   sync.Mutex
	cfg  lora.Config
	sent [][]byte
	rxQ  chan []byte
	ctl  *Control
	txFE []bool // TXEN level seen during each Tx
}

func (r *fakeRadio) LoraConfig(cfg lora.Config) { r.mu.Lock(); r.cfg = cfg; r.mu.Unlock() }
func (r *fakeRadio) SetStandby()                {}
func (r *fakeRadio) DetectDevice() bool         { return true }

func (r *fakeRadio) Tx(pkt []byte, _ uint32) error {
	_ = r.ctl.SetRfSwitchMode(rfSwitchTXHP)
	r.mu.Lock()
	r.sent = append(r.sent, pkt)
	if r.ctl.TXEN != nil {
		r.txFE = append(r.txFE, r.ctl.TXEN.Get())
	}
	r.mu.Unlock()
	return nil
}

func (r *fakeRadio) Rx(timeoutMs uint32) ([]byte, error) {
	_ = r.ctl.SetRfSwitchMode(rfSwitchRX)
	select {
	case p := <-r.rxQ:
		return p, nil
	case <-time.After(time.Duration(timeoutMs) * time.Millisecond):
		return nil, nil
	}
}

type sink struct{ ch chan core.Event }

func (s sink) Emit(ev core.Event) bool {
	select {
	case s.ch <- ev:
		return true
	default:
		return false
	}
}

func (s sink) waitTag(t *testing.T, tag string) core.Event {
	t.Helper()
	deadline := time.After(time.Second)
	for {
		select {
		case ev := <-s.ch:
			if ev.EventTag == tag {
				return ev
			}
		case <-deadline:
			t.Fatalf("no %q event", tag)
		}
	}
}

func plan() provider.ResourcePlan {
	return provider.ResourcePlan{
		SoC: "rp2040",
		SPI: []provider.SPIPlan{{ID: "spi1", SCK: 10, MOSI: 11, MISO: 12, Hz: 8_000_000}},
	}
}

func params() Params {
	return Params{
		SPI: "spi1", NSS: 3, Reset: 15, Busy: 2, DIO1: 20,
		TXEN: 6, RXEN: 7,
		FreqHz: 868_000_000, SF: 9, BWkHz: 125, TxPowerDBm: 22,
		RxWindowMs: 20,
	}
}

func withFakeRadio(t *testing.T) *fakeRadio {
	t.Helper()
	fr := &fakeRadio{rxQ: make(chan []byte, 4)}
	prev := openRadio
	openRadio = func(_ drivers.SPI, ctl *Control) (Radio, error) {
		fr.ctl = ctl
		return fr, ctl.Init()
	}
	t.Cleanup(func() { openRadio = prev })
	return fr
}

func build(t *testing.T, reg core.ResourceRegistry, p Params, pub core.EventEmitter) (*Device, error) {
	t.Helper()
	d, err := builder{}.Build(context.Background(), core.BuilderInput{
		ID: "lora0", Type: "sx1262", Params: p,
		Res: core.Resources{Reg: reg, Pub: pub},
	})
	if err != nil {
		return nil, err
	}
	return d.(*Device), nil
}

func TestBuild_RefusesNCPins(t *testing.T) {
	withFakeRadio(t)
	reg := provider.NewHost(plan())
	defer reg.Close()

	p := params()
	p.DIO1 = -1
	_, err := build(t, reg, p, sink{make(chan core.Event, 8)})
	if errcode.Of(err) != errcode.NotConnected {
		t.Fatalf("Build with NC DIO1 = %v, want not_connected", err)
	}
	// The claims made before the failure are released.
	for _, n := range []int{3, 15, 2} {
		if _, err := reg.ClaimGPIO("other", n); err != nil {
			t.Fatalf("pin %d leaked: %v", n, err)
		}
	}
}

func TestBuild_FrontEndOptionalWithDIO2(t *testing.T) {
	withFakeRadio(t)
	reg := provider.NewHost(plan())
	defer reg.Close()

	p := params()
	p.TXEN, p.RXEN = -1, -1
	if _, err := build(t, reg, p, sink{make(chan core.Event, 8)}); errcode.Of(err) != errcode.NotConnected {
		t.Fatalf("NC front end without DIO2 switch = %v", err)
	}
	p.DIO2AsRFSwitch = true
	d, err := build(t, reg, p, sink{make(chan core.Event, 8)})
	if err != nil {
		t.Fatalf("DIO2 switch: %v", err)
	}
	if d.fe {
		t.Fatal("front end reported without TXEN/RXEN")
	}
}

func TestBuild_NoRadioDriver(t *testing.T) {
	prev := openRadio
	openRadio = nil
	defer func() { openRadio = prev }()

	reg := provider.NewHost(plan())
	defer reg.Close()
	if _, err := build(t, reg, params(), sink{make(chan core.Event, 8)}); errcode.Of(err) != errcode.Unsupported {
		t.Fatalf("Build = %v, want unsupported", err)
	}
}

func TestLoRaConfig(t *testing.T) {
	cases := []struct {
		name string
		sf   uint8
		bw   uint32
		ldro uint8
		ok   bool
	}{
		{"sf9 125k", 9, 125, lora.LowDataRateOptimizeOff, true},
		{"sf12 125k needs ldro", 12, 125, lora.LowDataRateOptimizeOn, true},
		{"sf11 250k", 11, 250, lora.LowDataRateOptimizeOff, true},
		{"bad bw", 9, 100, 0, false},
		{"bad sf", 13, 125, 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := params()
			p.SF, p.BWkHz = tc.sf, tc.bw
			cfg, err := loraConfig(p)
			if !tc.ok {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if cfg.Ldr != tc.ldro || cfg.SyncWord != lora.SyncPrivate || cfg.Cr != lora.CodingRate4_5 {
				t.Fatalf("cfg = %+v", cfg)
			}
		})
	}
}

func TestLoRaConfig_TxPowerClamped(t *testing.T) {
	for in, want := range map[int8]int8{30: 22, 14: 14, -20: -9} {
		p := params()
		p.TxPowerDBm = in
		cfg, err := loraConfig(p)
		if err != nil {
			t.Fatal(err)
		}
		if cfg.LoraTxPowerDBm != want {
			t.Errorf("tx power %d => %d, want %d", in, cfg.LoraTxPowerDBm, want)
		}
	}
}

func TestControl_RfSwitch(t *testing.T) {
	reg := provider.NewHost(plan())
	defer reg.Close()
	ctl := &Control{
		NSS: reg.Pin(3), Reset: reg.Pin(15), Busy: reg.Pin(2), DIO1: reg.Pin(20),
		TXEN: reg.Pin(6), RXEN: reg.Pin(7),
	}
	if err := ctl.Init(); err != nil {
		t.Fatal(err)
	}
	tx, rx := reg.Pin(6), reg.Pin(7)

	_ = ctl.SetRfSwitchMode(rfSwitchTXHP)
	if !tx.Get() || rx.Get() {
		t.Fatalf("tx: TXEN=%v RXEN=%v", tx.Get(), rx.Get())
	}
	_ = ctl.SetRfSwitchMode(rfSwitchRX)
	if tx.Get() || !rx.Get() {
		t.Fatalf("rx: TXEN=%v RXEN=%v", tx.Get(), rx.Get())
	}
	ctl.Idle()
	if tx.Get() || rx.Get() {
		t.Fatal("idle left an enable high")
	}
}

func TestControl_WaitWhileBusyTimeout(t *testing.T) {
	reg := provider.NewHost(plan())
	defer reg.Close()
	busy := reg.Pin(2)
	busy.Drive(true)
	ctl := &Control{Busy: busy}
	if err := ctl.WaitWhileBusy(); err != errcode.Timeout {
		t.Fatalf("WaitWhileBusy = %v", err)
	}
}

func TestDevice_SendAndReceive(t *testing.T) {
	fr := withFakeRadio(t)
	reg := provider.NewHost(plan())
	defer reg.Close()
	out := sink{make(chan core.Event, 32)}

	d, err := build(t, reg, params(), out)
	if err != nil {
		t.Fatal(err)
	}
	if err := d.Init(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer d.Close()

	info := d.Capabilities()[0].Info.Detail.(types.LoRaInfo)
	if info.FreqHz != 868_000_000 || info.BWkHz != 125 || !info.FrontEnd {
		t.Fatalf("info = %+v", info)
	}

	res, _ := d.Control(d.a, "send", types.LoRaSend{Data: []byte("hi")})
	if !res.OK {
		t.Fatalf("send: %v", res.Error)
	}
	out.waitTag(t, "tx")
	fr.mu.Lock()
	if len(fr.sent) != 1 || string(fr.sent[0]) != "hi" || !fr.txFE[0] {
		t.Fatalf("sent %q, TXEN during tx %v", fr.sent, fr.txFE)
	}
	fr.mu.Unlock()
	if reg.Pin(6).Get() {
		t.Fatal("PA left enabled after tx")
	}

	if res, _ := d.Control(d.a, "listen", types.LoRaListen{On: true}); !res.OK {
		t.Fatalf("listen: %v", res.Error)
	}
	fr.rxQ <- []byte("pong")
	ev := out.waitTag(t, "rx")
	if p := ev.Payload.(types.LoRaPacket); string(p.Data) != "pong" {
		t.Fatalf("rx payload %q", p.Data)
	}
}

func TestDevice_ControlErrors(t *testing.T) {
	withFakeRadio(t)
	reg := provider.NewHost(plan())
	defer reg.Close()
	d, err := build(t, reg, params(), sink{make(chan core.Event, 32)})
	if err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		verb    string
		payload any
		want    errcode.Code
	}{
		{"send", types.LoRaSend{}, errcode.InvalidPayload},
		{"send", "text", errcode.InvalidPayload},
		{"listen", 1, errcode.InvalidPayload},
		{"reboot", nil, errcode.Unsupported},
	}
	for _, tc := range cases {
		res, _ := d.Control(d.a, tc.verb, tc.payload)
		if res.OK || res.Error != tc.want {
			t.Errorf("%s(%v) = %+v, want %s", tc.verb, tc.payload, res, tc.want)
		}
	}

	// Worker not started: the queue fills and reports busy.
	for i := 0; i < cap(d.cmds); i++ {
		d.Control(d.a, "send", types.LoRaSend{Data: []byte{1}})
	}
	if res, _ := d.Control(d.a, "send", types.LoRaSend{Data: []byte{1}}); res.Error != errcode.Busy {
		t.Fatalf("full queue = %+v", res)
	}
}

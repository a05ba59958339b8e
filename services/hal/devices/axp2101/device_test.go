package axp2101dev

import (
	"context"
	"testing"
	"time"

	"meshnode-go/drivers/axp2101"
	"meshnode-go/errcode"
	"meshnode-go/services/hal/internal/core"
	"meshnode-go/services/hal/internal/provider"
	"meshnode-go/types"

	"tinygo.org/x/drivers/tester"
)

// Register addresses as the chip documents them.
const (
	regStatus1    = 0x00
	regStatus2    = 0x01
	regChipID     = 0x03
	regVBATH      = 0x34
	regVBUSH      = 0x38
	regLDOEnable0 = 0x90
	regALDO2Volt  = 0x93
	regPercent    = 0xA4
)

type sink struct{ ch chan core.Event }

func (s sink) Emit(ev core.Event) bool {
	select {
	case s.ch <- ev:
		return true
	default:
		return false
	}
}

func (s sink) next(t *testing.T, a core.CapAddr) core.Event {
	t.Helper()
	deadline := time.After(time.Second)
	for {
		select {
		case ev := <-s.ch:
			if ev.Addr == a && ev.EventTag == "" {
				return ev
			}
		case <-deadline:
			t.Fatalf("no value on %+v", a)
		}
	}
}

func setup(t *testing.T) (*provider.Host, *tester.I2CDevice8) {
	t.Helper()
	h := provider.NewHost(provider.ResourcePlan{
		SoC: "rp2040",
		I2C: []provider.I2CPlan{{ID: "i2c0", SDA: 4, SCL: 5, Hz: 400_000}},
	})
	t.Cleanup(h.Close)
	bus := tester.NewI2CBus(t)
	fake := bus.NewDevice(axp2101.Address)
	fake.Registers[regChipID] = axp2101.ChipID
	h.AttachI2C("i2c0", bus)
	return h, fake
}

func build(t *testing.T, reg core.ResourceRegistry, p any, out sink) (*Device, error) {
	t.Helper()
	d, err := builder{}.Build(context.Background(), core.BuilderInput{
		ID: "pmu", Type: "axp2101", Params: p, Res: core.Resources{Reg: reg, Pub: out},
	})
	if err != nil {
		return nil, err
	}
	return d.(*Device), nil
}

func TestBuild_Errors(t *testing.T) {
	h, fake := setup(t)
	cases := []struct {
		name   string
		params any
		want   errcode.Code
	}{
		{"wrong type", "i2c0", errcode.InvalidParams},
		{"no bus", Params{}, errcode.InvalidParams},
		{"bad rail", Params{Bus: "i2c0", Rails: []string{"dcdc9"}}, errcode.InvalidParams},
		{"unknown bus", Params{Bus: "i2c7"}, errcode.UnknownBus},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := build(t, h, tc.params, sink{}); errcode.Of(err) != tc.want {
				t.Fatalf("err = %v, want %s", err, tc.want)
			}
		})
	}

	fake.Registers[regChipID] = 0x47
	if _, err := build(t, h, Params{Bus: "i2c0"}, sink{}); errcode.Of(err) != errcode.NotDetected {
		t.Fatalf("wrong chip = %v", err)
	}
	// The failed build released its claim.
	fake.Registers[regChipID] = axp2101.ChipID
	if _, err := build(t, h, &Params{Bus: "i2c0"}, sink{}); err != nil {
		t.Fatalf("rebuild: %v", err)
	}
}

func TestBattery_Read(t *testing.T) {
	h, fake := setup(t)
	fake.Registers[regStatus1] = 1<<5 | 1<<3 // VBUS good, battery present
	fake.Registers[regStatus2] = 0x02        // CC
	fake.Registers[regVBATH] = 0x10
	fake.Registers[regVBATH+1] = 0x1B // 4123 mV
	fake.Registers[regVBUSH] = 0x13
	fake.Registers[regVBUSH+1] = 0x88 // 5000 mV
	fake.Registers[regPercent] = 87

	out := sink{make(chan core.Event, 16)}
	d, err := build(t, h, Params{Bus: "i2c0", Name: "main"}, out)
	if err != nil {
		t.Fatal(err)
	}
	if caps := d.Capabilities(); len(caps) != 1 || caps[0].Kind != types.KindBattery || caps[0].Domain != "power" {
		t.Fatalf("caps = %+v", caps)
	}
	if err := d.Init(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer d.Close()

	ev := out.next(t, d.aBat)
	bv, ok := ev.Payload.(types.BatteryValue)
	if !ok {
		t.Fatalf("payload %#v", ev.Payload)
	}
	want := types.BatteryValue{Present: true, MilliV: 4123, Percent: 87, VBUSmV: 5000, Charging: true, ChargeSt: "cc", VBUSGood: true}
	if bv != want {
		t.Fatalf("battery = %+v, want %+v", bv, want)
	}

	if res, _ := d.Control(d.aBat, "read", nil); !res.OK {
		t.Fatalf("read = %+v", res)
	}
	out.next(t, d.aBat)
	if res, _ := d.Control(d.aBat, "set", types.RailSet{On: true}); res.Error != errcode.Unsupported {
		t.Fatalf("battery set = %+v", res)
	}
}

func TestRail_SetAndRead(t *testing.T) {
	h, fake := setup(t)
	out := sink{make(chan core.Event, 16)}
	d, err := build(t, h, Params{Bus: "i2c0", Rails: []string{"aldo2"}}, out)
	if err != nil {
		t.Fatal(err)
	}
	if err := d.Init(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer d.Close()

	rail := d.rails[0].a
	if rail.Kind != types.KindRail || rail.Name != "aldo2" {
		t.Fatalf("rail addr = %+v", rail)
	}
	if v := out.next(t, rail).Payload.(types.RailValue); v.On || v.MilliV != 500 {
		t.Fatalf("seed = %+v", v)
	}

	if res, _ := d.Control(rail, "set", types.RailSet{On: true, MilliV: 3300}); !res.OK {
		t.Fatalf("set = %+v", res)
	}
	if v := out.next(t, rail).Payload.(types.RailValue); !v.On || v.MilliV != 3300 {
		t.Fatalf("after set = %+v", v)
	}
	if fake.Registers[regLDOEnable0]&(1<<1) == 0 || fake.Registers[regALDO2Volt]&0x1F != 28 {
		t.Fatalf("regs en=%#x volt=%#x", fake.Registers[regLDOEnable0], fake.Registers[regALDO2Volt])
	}

	if res, _ := d.Control(rail, "set", types.RailSet{On: true, MilliV: 9000}); !res.OK {
		t.Fatalf("enqueue out-of-range = %+v", res)
	}
	if ev := out.next(t, rail); ev.Err != string(errcode.InvalidPayload) {
		t.Fatalf("out of range = %+v", ev)
	}

	if res, _ := d.Control(rail, "set", "on"); res.Error != errcode.InvalidPayload {
		t.Fatalf("bad payload = %+v", res)
	}
	other := core.CapAddr{Domain: "power", Kind: types.KindRail, Name: "bldo1"}
	if res, _ := d.Control(other, "read", nil); res.Error != errcode.UnknownCapability {
		t.Fatalf("unexposed rail = %+v", res)
	}
}

func TestClose_ReleasesBus(t *testing.T) {
	h, _ := setup(t)
	d, err := build(t, h, Params{Bus: "i2c0"}, sink{make(chan core.Event, 8)})
	if err != nil {
		t.Fatal(err)
	}
	if err := d.Init(context.Background()); err != nil {
		t.Fatal(err)
	}
	d.Close()
	if res, _ := d.Control(d.aBat, "read", nil); res.Error != errcode.HALNotReady {
		t.Fatalf("after close = %+v", res)
	}
	if _, err := h.ClaimI2C("other", "i2c0"); err != nil {
		t.Fatalf("claim after close: %v", err)
	}
}

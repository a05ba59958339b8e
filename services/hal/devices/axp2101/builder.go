package axp2101dev

import (
	"context"

	"meshnode-go/drivers/axp2101"
	"meshnode-go/errcode"
	"meshnode-go/services/hal/internal/core"
	"meshnode-go/types"
	"meshnode-go/x/strx"
)

// Params wires one AXP2101 PMU.
type Params struct {
	Bus           string   // e.g. "i2c0" (required)
	Addr          uint16   // 0 => axp2101.Address
	EnableCharger bool     // turn the charger on at Configure
	Rails         []string // rails exposed as capabilities, e.g. "aldo2"

	Domain string // default "power"
	Name   string // battery capability name; default device id
}

func init() { core.RegisterBuilder("axp2101", builder{}) }

type builder struct{}

func (builder) Build(ctx context.Context, in core.BuilderInput) (core.Device, error) {
	p, ok := in.Params.(Params)
	if !ok {
		if pp, ok2 := in.Params.(*Params); ok2 && pp != nil {
			p = *pp
		} else {
			return nil, errcode.InvalidParams
		}
	}
	if p.Bus == "" {
		return nil, errcode.InvalidParams
	}
	if p.Addr == 0 {
		p.Addr = axp2101.Address
	}
	p.Domain = strx.Coalesce(p.Domain, "power")
	p.Name = strx.Coalesce(p.Name, in.ID)
	rails := make([]axp2101.Rail, 0, len(p.Rails))
	for _, n := range p.Rails {
		r, ok := axp2101.RailByName(n)
		if !ok {
			return nil, &errcode.E{C: errcode.InvalidParams, Op: "axp2101.rails", Msg: "unknown rail " + n}
		}
		rails = append(rails, r)
	}

	bus, err := in.Res.Reg.ClaimI2C(in.ID, core.ResourceID(p.Bus))
	if err != nil {
		return nil, errcode.Wrap("axp2101.i2c", err)
	}
	drv := axp2101.New(bus)
	if err := drv.Configure(axp2101.Config{Address: p.Addr, EnableCharger: p.EnableCharger}); err != nil {
		in.Res.Reg.ReleaseI2C(in.ID, core.ResourceID(p.Bus))
		return nil, &errcode.E{C: errcode.NotDetected, Op: "axp2101.configure", Err: err}
	}

	d := &Device{
		id:     in.ID,
		aBat:   core.CapAddr{Domain: p.Domain, Kind: types.KindBattery, Name: p.Name},
		res:    in.Res,
		dev:    drv,
		params: p,
	}
	for _, r := range rails {
		d.rails = append(d.rails, railCap{
			a: core.CapAddr{Domain: p.Domain, Kind: types.KindRail, Name: r.String()},
			r: r,
		})
	}
	return d, nil
}

package l76kdev

import (
	"context"

	"meshnode-go/drivers/l76k"
	"meshnode-go/errcode"
	"meshnode-go/services/hal/internal/core"
	"meshnode-go/types"
	"meshnode-go/x/strx"
)

// Params wires an L76K receiver to a UART.
type Params struct {
	Bus  string // e.g. "uart1"
	Baud uint32 // 0 => l76k.DefaultBaud

	FixIntervalMs uint16 // 0 leaves the receiver default (1 s)
	Constellation uint8  // l76k.GPS|BeiDou|GLONASS mask; 0 => GPS+BeiDou

	Domain string
	Name   string
}

func init() { core.RegisterBuilder("l76k", builder{}) }

type builder struct{}

func (builder) Build(ctx context.Context, in core.BuilderInput) (core.Device, error) {
	p, ok := in.Params.(Params)
	if !ok || p.Bus == "" {
		return nil, errcode.InvalidParams
	}
	if p.Baud == 0 {
		p.Baud = l76k.DefaultBaud
	}
	if _, err := l76k.SetBaud(p.Baud); err != nil {
		return nil, errcode.InvalidParams
	}
	if p.FixIntervalMs != 0 {
		if _, err := l76k.SetFixInterval(p.FixIntervalMs); err != nil {
			return nil, errcode.InvalidParams
		}
	}
	p.Domain = strx.Coalesce(p.Domain, "nav")
	p.Name = strx.Coalesce(p.Name, in.ID)

	// Claim the serial bus exclusively.
	sp, err := in.Res.Reg.ClaimSerial(in.ID, core.ResourceID(p.Bus))
	if err != nil {
		return nil, errcode.Wrap("l76k.uart", err)
	}
	d := &Device{
		id:     in.ID,
		a:      core.CapAddr{Domain: p.Domain, Kind: types.KindGNSS, Name: p.Name},
		res:    in.Res,
		port:   sp,
		params: p,
	}
	if c, ok := sp.(core.SerialConfigurator); ok {
		d.cfgB = c
	}
	return d, nil
}

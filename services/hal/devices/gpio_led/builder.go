package gpio_led

import (
	"context"

	"meshnode-go/errcode"
	"meshnode-go/services/hal/internal/core"
	"meshnode-go/types"
	"meshnode-go/x/strx"
)

func init() { core.RegisterBuilder("gpio_led", builder{}) }

type builder struct{}

func (builder) Build(ctx context.Context, in core.BuilderInput) (core.Device, error) {
	p, ok := in.Params.(Params)
	if !ok {
		return nil, errcode.InvalidParams
	}
	h, err := in.Res.Reg.ClaimGPIO(in.ID, p.Pin)
	if err != nil {
		return nil, errcode.Wrap("gpio_led.pin", err)
	}
	d := &Device{
		id:        in.ID,
		pin:       h,
		activeLow: p.ActiveLow,
		initial:   p.Initial,
		pub:       in.Res.Pub,
		reg:       in.Res.Reg,
		addr:      core.CapAddr{Domain: strx.Coalesce(p.Domain, "io"), Kind: types.KindLED, Name: strx.Coalesce(p.Name, in.ID)},
	}
	return d, nil
}

package gpio_button

import (
	"context"
	"time"

	"meshnode-go/errcode"
	"meshnode-go/services/hal/internal/core"
	"meshnode-go/types"
	"meshnode-go/x/strx"
)

func init() { core.RegisterBuilder("gpio_button", builder{}) }

type Params struct {
	Pin        int
	Pull       string // "none","up","down"
	Invert     bool   // true if pressed == low
	DebounceMs uint16
	HoldMs     uint16 // a press held this long also emits "held"; 0 disables
	Domain     string
	Name       string
}

type builder struct{}

func (builder) Build(ctx context.Context, in core.BuilderInput) (core.Device, error) {
	p, ok := in.Params.(Params)
	if !ok {
		return nil, errcode.InvalidParams
	}
	p.Domain = strx.Coalesce(p.Domain, "io")
	p.Name = strx.Coalesce(p.Name, in.ID)

	gpio, err := in.Res.Reg.ClaimGPIO(in.ID, p.Pin)
	if err != nil {
		return nil, errcode.Wrap("gpio_button.pin", err)
	}
	pull := core.PullNone
	switch p.Pull {
	case "up":
		pull = core.PullUp
	case "down":
		pull = core.PullDown
	}
	if err := gpio.ConfigureInput(pull); err != nil {
		in.Res.Reg.ReleaseGPIO(in.ID, p.Pin)
		return nil, err
	}

	return &Device{
		id:       in.ID,
		pinN:     p.Pin,
		gpio:     gpio,
		invert:   p.Invert,
		pub:      in.Res.Pub,
		reg:      in.Res.Reg,
		a:        core.CapAddr{Domain: p.Domain, Kind: types.KindButton, Name: p.Name},
		debounce: time.Duration(p.DebounceMs) * time.Millisecond,
		hold:     time.Duration(p.HoldMs) * time.Millisecond,
	}, nil
}

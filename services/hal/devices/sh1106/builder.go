package sh1106dev

import (
	"context"
	"image/color"

	"meshnode-go/errcode"
	"meshnode-go/services/hal/internal/core"
	"meshnode-go/types"
	"meshnode-go/x/strx"

	"tinygo.org/x/drivers"
)

const defaultAddr = 0x3C

type Params struct {
	Bus    string // e.g. "i2c0"
	Addr   uint16 // 0 => 0x3C
	Width  int16  // 0 => 128
	Height int16  // 0 => 64
	Title  string // first line shown after Init

	Domain string
	Name   string
}

// Canvas is the subset of the sh1106 driver the device draws with.
type Canvas interface {
	ClearBuffer()
	SetPixel(x, y int16, c color.RGBA)
	Display() error
	Size() (w, h int16)
}

// openDisplay configures a controller on a claimed bus. It is set on targets
// that carry the sh1106 driver.
var openDisplay func(bus drivers.I2C, addr uint16, w, h int16) (Canvas, error)

func init() { core.RegisterBuilder("sh1106", builder{}) }

type builder struct{}

func (builder) Build(ctx context.Context, in core.BuilderInput) (core.Device, error) {
	p, ok := in.Params.(Params)
	if !ok || p.Bus == "" {
		return nil, errcode.InvalidParams
	}
	if p.Addr == 0 {
		p.Addr = defaultAddr
	}
	if p.Width == 0 {
		p.Width = 128
	}
	if p.Height == 0 {
		p.Height = 64
	}
	p.Domain = strx.Coalesce(p.Domain, "ui")
	p.Name = strx.Coalesce(p.Name, in.ID)

	bus, err := in.Res.Reg.ClaimI2C(in.ID, core.ResourceID(p.Bus))
	if err != nil {
		return nil, errcode.Wrap("sh1106.i2c", err)
	}
	release := func() { in.Res.Reg.ReleaseI2C(in.ID, core.ResourceID(p.Bus)) }

	// Display-off command; doubles as a presence probe.
	if err := bus.Tx(p.Addr, []byte{0x00, 0xAE}, nil); err != nil {
		release()
		return nil, &errcode.E{C: errcode.NotDetected, Op: "sh1106.probe", Err: err}
	}
	if openDisplay == nil {
		release()
		return nil, errcode.Unsupported
	}
	cv, err := openDisplay(bus, p.Addr, p.Width, p.Height)
	if err != nil {
		release()
		return nil, errcode.Wrap("sh1106.open", err)
	}

	return &Device{
		id:      in.ID,
		a:       core.CapAddr{Domain: p.Domain, Kind: types.KindDisplay, Name: p.Name},
		pub:     in.Res.Pub,
		cv:      cv,
		params:  p,
		release: release,
	}, nil
}

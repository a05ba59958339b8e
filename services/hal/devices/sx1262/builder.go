package sx1262

import (
	"context"
	"time"

	"meshnode-go/errcode"
	"meshnode-go/services/hal/internal/core"
	"meshnode-go/types"
	"meshnode-go/x/mathx"
	"meshnode-go/x/strx"

	"tinygo.org/x/drivers"
	"tinygo.org/x/drivers/lora"
)

func init() { core.RegisterBuilder("sx1262", builder{}) }

// Params wires one SX1262. Pins are GPIO numbers; a negative pin is not
// connected and fails the build.
type Params struct {
	SPI                     string
	NSS, Reset, Busy, DIO1  int
	TXEN, RXEN              int
	DIO2AsRFSwitch          bool
	FreqHz                  uint32
	SF                      uint8 // 7..12
	BWkHz                   uint32
	CR                      uint8 // lora.CodingRate4_5..4_8
	TxPowerDBm              int8
	PublicSync              bool // LoRaWAN public sync word instead of private
	Preamble                uint16
	RxWindowMs, TxTimeoutMs uint32
	Domain, Name            string
}

// Radio is the subset of the sx126x driver the device uses.
type Radio interface {
	LoraConfig(cfg lora.Config)
	Tx(pkt []byte, timeoutMs uint32) error
	Rx(timeoutMs uint32) ([]byte, error)
	SetStandby()
	DetectDevice() bool
}

// openRadio binds a driver to a claimed SPI bus and control lines. It is set
// on targets that have the sx126x driver; elsewhere the device is unsupported.
var openRadio func(spi drivers.SPI, ctl *Control) (Radio, error)

type builder struct{}

func (builder) Build(ctx context.Context, in core.BuilderInput) (core.Device, error) {
	p, ok := in.Params.(Params)
	if !ok {
		return nil, errcode.InvalidParams
	}
	cfg, err := loraConfig(p)
	if err != nil {
		return nil, err
	}
	p.Domain = strx.Coalesce(p.Domain, "radio")
	p.Name = strx.Coalesce(p.Name, in.ID)

	cl := claimer{reg: in.Res.Reg, id: in.ID}
	ctl := &Control{}
	ctl.NSS = cl.gpio("nss", p.NSS)
	ctl.Reset = cl.gpio("reset", p.Reset)
	ctl.Busy = cl.gpio("busy", p.Busy)
	ctl.DIO1 = cl.gpio("dio1", p.DIO1)
	if !p.DIO2AsRFSwitch || p.TXEN >= 0 {
		ctl.TXEN = cl.gpio("txen", p.TXEN)
	}
	if !p.DIO2AsRFSwitch || p.RXEN >= 0 {
		ctl.RXEN = cl.gpio("rxen", p.RXEN)
	}
	spi := cl.spi(p.SPI)
	if cl.err != nil {
		cl.release()
		return nil, cl.err
	}

	dio1 := p.DIO1
	ctl.edges = func() (core.GPIOEdgeStream, error) {
		return in.Res.Reg.SubscribeGPIOEdges(in.ID, dio1, core.EdgeRising, 0, 4)
	}

	if openRadio == nil {
		cl.release()
		return nil, errcode.Unsupported
	}
	radio, err := openRadio(spi, ctl)
	if err != nil {
		cl.release()
		return nil, errcode.Wrap("sx1262.open", err)
	}

	rxWin := p.RxWindowMs
	if rxWin == 0 {
		rxWin = 1000
	}
	txTO := p.TxTimeoutMs
	if txTO == 0 {
		txTO = 2000
	}
	return &Device{
		id:     in.ID,
		a:      core.CapAddr{Domain: p.Domain, Kind: types.KindLoRa, Name: p.Name},
		pub:    in.Res.Pub,
		radio:  radio,
		ctl:    ctl,
		cfg:    cfg,
		bus:    p.SPI,
		rxWin:  rxWin,
		txTO:   txTO,
		fe:     ctl.TXEN != nil || ctl.RXEN != nil,
		cmds:   make(chan command, 4),
		closer: cl.release,
	}, nil
}

// claimer collects claims so a partial build can be unwound. The first
// error wins.
type claimer struct {
	reg   core.ResourceRegistry
	id    string
	pins  []int
	spiID core.ResourceID
	err   error
}

func (c *claimer) gpio(role string, n int) core.GPIOHandle {
	if c.err != nil {
		return nil
	}
	h, err := c.reg.ClaimGPIO(c.id, n)
	if err != nil {
		c.err = &errcode.E{C: errcode.Of(err), Op: "sx1262." + role, Err: err}
		return nil
	}
	c.pins = append(c.pins, n)
	return h
}

func (c *claimer) spi(id string) drivers.SPI {
	if c.err != nil {
		return nil
	}
	s, err := c.reg.ClaimSPI(c.id, core.ResourceID(id))
	if err != nil {
		c.err = &errcode.E{C: errcode.Of(err), Op: "sx1262.spi", Err: err}
		return nil
	}
	c.spiID = core.ResourceID(id)
	return s
}

func (c *claimer) release() {
	for _, n := range c.pins {
		c.reg.ReleaseGPIO(c.id, n)
	}
	c.pins = nil
	if c.spiID != "" {
		c.reg.ReleaseSPI(c.id, c.spiID)
		c.spiID = ""
	}
}

// SX1262 high-power PA output range.
const (
	minTxDBm = -9
	maxTxDBm = 22
)

func loraConfig(p Params) (lora.Config, error) {
	bw, ok := bandwidthCode(p.BWkHz)
	if !ok || p.FreqHz == 0 || p.SF < 5 || p.SF > 12 {
		return lora.Config{}, errcode.InvalidParams
	}
	cr := p.CR
	if cr == 0 {
		cr = lora.CodingRate4_5
	}
	pre := p.Preamble
	if pre == 0 {
		pre = 16
	}
	sw := uint16(lora.SyncPrivate)
	if p.PublicSync {
		sw = lora.SyncPublic
	}
	ldr := uint8(lora.LowDataRateOptimizeOff)
	// Symbol time above 16 ms needs LDRO.
	if symbolTime(p.SF, p.BWkHz) > 16*time.Millisecond {
		ldr = lora.LowDataRateOptimizeOn
	}
	return lora.Config{
		Freq:           p.FreqHz,
		Sf:             p.SF,
		Bw:             bw,
		Cr:             cr,
		Ldr:            ldr,
		Preamble:       pre,
		SyncWord:       sw,
		HeaderType:     lora.HeaderExplicit,
		Crc:            lora.CRCOn,
		Iq:             lora.IQStandard,
		LoraTxPowerDBm: mathx.Clamp(p.TxPowerDBm, minTxDBm, maxTxDBm),
	}, nil
}

func bandwidthCode(khz uint32) (uint8, bool) {
	switch khz {
	case 125:
		return lora.Bandwidth_125_0, true
	case 250:
		return lora.Bandwidth_250_0, true
	case 500:
		return lora.Bandwidth_500_0, true
	case 62:
		return lora.Bandwidth_62_5, true
	case 31:
		return lora.Bandwidth_31_25, true
	}
	return 0, false
}

func symbolTime(sf uint8, bwKHz uint32) time.Duration {
	if bwKHz == 0 {
		return 0
	}
	return time.Duration(uint64(1)<<sf) * time.Millisecond / time.Duration(bwKHz)
}

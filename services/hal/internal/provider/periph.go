//go:build linux && periph && !(rp2040 || esp32s3)

package provider

import (
	"context"
	"errors"
	"io"
	"strconv"
	"sync"
	"time"

	"meshnode-go/errcode"
	"meshnode-go/services/hal/internal/core"
	"meshnode-go/services/hal/internal/gpioirq"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"

	"github.com/pkg/term"
	"tinygo.org/x/drivers"
)

// The periph provider runs the HAL on a Linux bench host (a Raspberry Pi
// with the radio and sensors on its header). Pins are BCM numbers. Bus ids
// in the plan are periph bus names ("1" for /dev/i2c-1, "SPI0.0") and tty
// paths for UARTs ("/dev/serial0").

var _ core.ResourceRegistry = (*periphRegistry)(nil)

type periphGPIO struct {
	p gpio.PinIO
	n int

	mu   sync.Mutex
	pull gpio.Pull
	stop chan struct{}
}

func (g *periphGPIO) Number() int { return g.n }

func (g *periphGPIO) ConfigureInput(pull core.Pull) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	switch pull {
	case core.PullUp:
		g.pull = gpio.PullUp
	case core.PullDown:
		g.pull = gpio.PullDown
	default:
		g.pull = gpio.Float
	}
	return g.p.In(g.pull, gpio.NoEdge)
}

func (g *periphGPIO) ConfigureOutput(initial bool) error { return g.p.Out(gpio.Level(initial)) }

func (g *periphGPIO) Set(b bool) { _ = g.p.Out(gpio.Level(b)) }
func (g *periphGPIO) Get() bool  { return g.p.Read() == gpio.High }
func (g *periphGPIO) Toggle()    { g.Set(!g.Get()) }

// SetIRQ arms kernel edge detection and waits for edges on a goroutine.
func (g *periphGPIO) SetIRQ(edge core.Edge, handler func()) error {
	var e gpio.Edge
	switch edge {
	case core.EdgeRising:
		e = gpio.RisingEdge
	case core.EdgeFalling:
		e = gpio.FallingEdge
	case core.EdgeBoth:
		e = gpio.BothEdges
	default:
		return errcode.InvalidParams
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.stop != nil {
		return core.ErrEdgeInUse
	}
	if err := g.p.In(g.pull, e); err != nil {
		return err
	}
	stop := make(chan struct{})
	g.stop = stop
	go func() {
		for {
			select {
			case <-stop:
				return
			default:
			}
			if g.p.WaitForEdge(100 * time.Millisecond) {
				handler()
			}
		}
	}()
	return nil
}

func (g *periphGPIO) ClearIRQ() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.stop == nil {
		return nil
	}
	close(g.stop)
	g.stop = nil
	return g.p.In(g.pull, gpio.NoEdge)
}

// periphI2C adapts an i2c.Bus to drivers.I2C.
type periphI2C struct{ b i2c.BusCloser }

func (d periphI2C) Tx(addr uint16, w, r []byte) error { return d.b.Tx(addr, w, r) }

// periphSPI adapts an spi.Conn to drivers.SPI.
type periphSPI struct{ c spi.Conn }

func (d periphSPI) Tx(w, r []byte) error {
	switch {
	case w == nil:
		w = make([]byte, len(r))
	case r == nil:
		r = make([]byte, len(w))
	}
	return d.c.Tx(w, r)
}

func (d periphSPI) Transfer(b byte) (byte, error) {
	var r [1]byte
	err := d.c.Tx([]byte{b}, r[:])
	return r[0], err
}

var _ drivers.SPI = periphSPI{}

// ttyPort adapts a raw-mode tty to core.SerialPort. Reads time out every
// 100 ms so a cancelled context is noticed.
type ttyPort struct {
	t *term.Term
}

func openTTY(path string, baud uint32) (*ttyPort, error) {
	t, err := term.Open(path, term.Speed(int(baud)), term.RawMode, term.ReadTimeout(100*time.Millisecond))
	if err != nil {
		return nil, err
	}
	return &ttyPort{t: t}, nil
}

func (p *ttyPort) Write(b []byte) (int, error) { return p.t.Write(b) }

func (p *ttyPort) RecvSomeContext(ctx context.Context, buf []byte) (int, error) {
	for {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		n, err := p.t.Read(buf)
		if n > 0 {
			return n, nil
		}
		if err != nil && !errors.Is(err, io.EOF) {
			return 0, err
		}
	}
}

func (p *ttyPort) SetBaudRate(br uint32) error { return p.t.SetSpeed(int(br)) }

func (p *ttyPort) Close() error { return p.t.Close() }

type periphRegistry struct {
	pins  *core.PinTable
	buses *core.BusTable
	irq   *gpioirq.Worker
	stopW context.CancelFunc

	mu      sync.Mutex
	gpio    map[int]*periphGPIO
	i2c     map[core.ResourceID]i2c.BusCloser
	spiP    map[core.ResourceID]spi.PortCloser
	spi     map[core.ResourceID]drivers.SPI
	tty     map[core.ResourceID]*ttyPort
	openErr map[core.ResourceID]error
}

// New initialises periph host drivers and opens every fully wired bus.
func New(plan ResourcePlan) (Registry, error) {
	if _, err := host.Init(); err != nil {
		return nil, err
	}
	pins, buses := newTables(plan)
	ctx, cancel := context.WithCancel(context.Background())
	r := &periphRegistry{
		pins:    pins,
		buses:   buses,
		irq:     gpioirq.New(32),
		stopW:   cancel,
		gpio:    map[int]*periphGPIO{},
		i2c:     map[core.ResourceID]i2c.BusCloser{},
		spiP:    map[core.ResourceID]spi.PortCloser{},
		spi:     map[core.ResourceID]drivers.SPI{},
		tty:     map[core.ResourceID]*ttyPort{},
		openErr: map[core.ResourceID]error{},
	}
	r.irq.Start(ctx)

	for _, p := range plan.I2C {
		if p.state() != core.BusReady {
			continue
		}
		id := core.ResourceID(p.ID)
		b, err := i2creg.Open(p.ID)
		if err == nil && p.Hz > 0 {
			err = b.SetSpeed(physic.Frequency(p.Hz) * physic.Hertz)
		}
		if err != nil {
			println("[provider] " + p.ID + ": " + err.Error())
			r.openErr[id] = err
			continue
		}
		r.i2c[id] = b
	}
	for _, p := range plan.SPI {
		if p.state() != core.BusReady {
			continue
		}
		id := core.ResourceID(p.ID)
		port, err := spireg.Open(p.ID)
		if err != nil {
			println("[provider] " + p.ID + ": " + err.Error())
			r.openErr[id] = err
			continue
		}
		c, err := port.Connect(physic.Frequency(p.Hz)*physic.Hertz, spi.Mode0, 8)
		if err != nil {
			_ = port.Close()
			println("[provider] " + p.ID + ": " + err.Error())
			r.openErr[id] = err
			continue
		}
		r.spiP[id] = port
		r.spi[id] = periphSPI{c: c}
	}
	for _, p := range plan.UART {
		if p.state() != core.BusReady {
			continue
		}
		id := core.ResourceID(p.ID)
		port, err := openTTY(p.ID, p.Baud)
		if err != nil {
			println("[provider] " + p.ID + ": " + err.Error())
			r.openErr[id] = err
			continue
		}
		r.tty[id] = port
	}
	return r, nil
}

func (r *periphRegistry) lookupGPIO(n int) (*periphGPIO, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if g, ok := r.gpio[n]; ok {
		return g, nil
	}
	p := gpioreg.ByName("GPIO" + strconv.Itoa(n))
	if p == nil {
		return nil, errcode.UnknownPin
	}
	g := &periphGPIO{p: p, n: n, pull: gpio.Float}
	r.gpio[n] = g
	return g, nil
}

func (r *periphRegistry) ClaimGPIO(devID string, n int) (core.GPIOHandle, error) {
	if err := r.pins.Claim(devID, n); err != nil {
		return nil, err
	}
	g, err := r.lookupGPIO(n)
	if err != nil {
		r.pins.Release(devID, n)
		return nil, err
	}
	return g, nil
}

func (r *periphRegistry) ReleaseGPIO(devID string, n int) {
	if !r.pins.Release(devID, n) {
		return
	}
	if g, err := r.lookupGPIO(n); err == nil {
		_ = g.ClearIRQ()
		_ = g.p.In(gpio.Float, gpio.NoEdge)
	}
}

func (r *periphRegistry) SubscribeGPIOEdges(devID string, n int, edge core.Edge, debounce time.Duration, buf int) (core.GPIOEdgeStream, error) {
	if owner, ok := r.pins.Owner(n); !ok || owner != devID {
		return nil, errcode.PinInUse
	}
	g, err := r.lookupGPIO(n)
	if err != nil {
		return nil, err
	}
	s, err := r.irq.Subscribe(g, edge, debounce, buf)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *periphRegistry) UnsubscribeGPIOEdges(devID string, n int) {
	if owner, ok := r.pins.Owner(n); ok && owner == devID {
		if g, err := r.lookupGPIO(n); err == nil {
			_ = g.ClearIRQ()
		}
	}
}

func (r *periphRegistry) claimBus(devID string, id core.ResourceID) error {
	if err := r.buses.Claim(devID, id); err != nil {
		return err
	}
	r.mu.Lock()
	err := r.openErr[id]
	r.mu.Unlock()
	if err != nil {
		r.buses.Release(devID, id)
		return err
	}
	return nil
}

func (r *periphRegistry) ClaimI2C(devID string, id core.ResourceID) (drivers.I2C, error) {
	if err := r.claimBus(devID, id); err != nil {
		return nil, err
	}
	r.mu.Lock()
	b := r.i2c[id]
	r.mu.Unlock()
	if b == nil {
		r.buses.Release(devID, id)
		return nil, errcode.UnknownBus
	}
	return periphI2C{b: b}, nil
}

func (r *periphRegistry) ReleaseI2C(devID string, id core.ResourceID) { r.buses.Release(devID, id) }

func (r *periphRegistry) ClaimSPI(devID string, id core.ResourceID) (drivers.SPI, error) {
	if err := r.claimBus(devID, id); err != nil {
		return nil, err
	}
	r.mu.Lock()
	s := r.spi[id]
	r.mu.Unlock()
	if s == nil {
		r.buses.Release(devID, id)
		return nil, errcode.UnknownBus
	}
	return s, nil
}

func (r *periphRegistry) ReleaseSPI(devID string, id core.ResourceID) { r.buses.Release(devID, id) }

func (r *periphRegistry) ClaimSerial(devID string, id core.ResourceID) (core.SerialPort, error) {
	if err := r.claimBus(devID, id); err != nil {
		return nil, err
	}
	r.mu.Lock()
	p := r.tty[id]
	r.mu.Unlock()
	if p == nil {
		r.buses.Release(devID, id)
		return nil, errcode.UnknownBus
	}
	return p, nil
}

func (r *periphRegistry) ReleaseSerial(devID string, id core.ResourceID) { r.buses.Release(devID, id) }

func (r *periphRegistry) Close() {
	r.stopW()
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, g := range r.gpio {
		_ = g.ClearIRQ()
	}
	for _, b := range r.i2c {
		_ = b.Close()
	}
	for _, p := range r.spiP {
		_ = p.Close()
	}
	for _, p := range r.tty {
		_ = p.Close()
	}
}

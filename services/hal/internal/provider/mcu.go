//go:build rp2040 || esp32s3

package provider

import (
	"context"
	"sync"
	"time"

	"machine"

	"meshnode-go/errcode"
	"meshnode-go/services/hal/internal/core"
	"meshnode-go/services/hal/internal/gpioirq"

	"tinygo.org/x/drivers"
)

var _ core.ResourceRegistry = (*mcuRegistry)(nil)

// -----------------------------------------------------------------------------
// GPIO handle
// -----------------------------------------------------------------------------

type mcuGPIO struct {
	p machine.Pin
	n int
}

func (g *mcuGPIO) Number() int { return g.n }

func (g *mcuGPIO) ConfigureInput(pull core.Pull) error {
	var mode machine.PinMode
	switch pull {
	case core.PullUp:
		mode = machine.PinInputPullup
	case core.PullDown:
		mode = machine.PinInputPulldown
	default:
		mode = machine.PinInput
	}
	g.p.Configure(machine.PinConfig{Mode: mode})
	return nil
}

func (g *mcuGPIO) ConfigureOutput(initial bool) error {
	g.p.Configure(machine.PinConfig{Mode: machine.PinOutput})
	g.p.Set(initial)
	return nil
}

func (g *mcuGPIO) Set(b bool) { g.p.Set(b) }
func (g *mcuGPIO) Get() bool  { return g.p.Get() }
func (g *mcuGPIO) Toggle() {
	if g.p.Get() {
		g.p.Low()
	} else {
		g.p.High()
	}
}

func (g *mcuGPIO) SetIRQ(edge core.Edge, handler func()) error { return setPinIRQ(g.p, edge, handler) }
func (g *mcuGPIO) ClearIRQ() error                             { return clearPinIRQ(g.p) }

// -----------------------------------------------------------------------------
// I²C owner (one worker per bus)
// -----------------------------------------------------------------------------

type i2cTx interface {
	Tx(addr uint16, w, r []byte) error
}

// request posted to the per-bus worker
type i2cReq struct {
	addr uint16
	w, r []byte
	done chan error // buffered(1); worker replies best-effort
}

// per-bus owner that hosts a single worker goroutine
type i2cOwner struct {
	hw   i2cTx
	reqs chan i2cReq
	quit chan struct{}
}

func newI2COwner(hw i2cTx) *i2cOwner {
	o := &i2cOwner{
		hw:   hw,
		reqs: make(chan i2cReq, 16),
		quit: make(chan struct{}),
	}
	go o.loop()
	return o
}

func (o *i2cOwner) loop() {
	for {
		select {
		case req := <-o.reqs:
			err := o.hw.Tx(req.addr, req.w, req.r)
			select {
			case req.done <- err:
			default:
			}
		case <-o.quit:
			return
		}
	}
}

func (o *i2cOwner) stop() { close(o.quit) }

// driversI2C adapts the owner to tinygo.org/x/drivers.I2C with a per-call
// deadline.
type driversI2C struct {
	o       *i2cOwner
	timeout time.Duration
}

var _ drivers.I2C = (*driversI2C)(nil)

func (d *driversI2C) Tx(addr uint16, w, r []byte) error {
	req := i2cReq{addr: addr, w: w, r: r, done: make(chan error, 1)}
	t := time.NewTimer(d.timeout)
	defer t.Stop()
	select {
	case d.o.reqs <- req:
	case <-t.C:
		return errcode.Busy
	}
	select {
	case err := <-req.done:
		return err
	case <-t.C:
		return errcode.Timeout
	}
}

// -----------------------------------------------------------------------------
// Resource registry
// -----------------------------------------------------------------------------

type mcuRegistry struct {
	pins  *core.PinTable
	buses *core.BusTable
	irq   *gpioirq.Worker
	stopW context.CancelFunc

	mu      sync.Mutex
	gpio    map[int]*mcuGPIO
	i2c     map[core.ResourceID]*i2cOwner
	spi     map[core.ResourceID]drivers.SPI
	uart    map[core.ResourceID]core.SerialPort
	openErr map[core.ResourceID]error
}

// New configures every fully wired bus in the plan. A bus the SoC port cannot
// open stays in the table; claims on it return the open error.
func New(plan ResourcePlan) (Registry, error) {
	pins, buses := newTables(plan)
	ctx, cancel := context.WithCancel(context.Background())
	r := &mcuRegistry{
		pins:    pins,
		buses:   buses,
		irq:     gpioirq.New(32),
		stopW:   cancel,
		gpio:    map[int]*mcuGPIO{},
		i2c:     map[core.ResourceID]*i2cOwner{},
		spi:     map[core.ResourceID]drivers.SPI{},
		uart:    map[core.ResourceID]core.SerialPort{},
		openErr: map[core.ResourceID]error{},
	}
	r.irq.Start(ctx)

	for _, p := range plan.I2C {
		if p.state() != core.BusReady {
			continue
		}
		id := core.ResourceID(p.ID)
		hw, err := openI2C(p)
		if err != nil {
			println("[provider] " + p.ID + ": " + err.Error())
			r.openErr[id] = err
			continue
		}
		r.i2c[id] = newI2COwner(hw)
	}
	for _, p := range plan.SPI {
		if p.state() != core.BusReady {
			continue
		}
		id := core.ResourceID(p.ID)
		hw, err := openSPI(p)
		if err != nil {
			println("[provider] " + p.ID + ": " + err.Error())
			r.openErr[id] = err
			continue
		}
		r.spi[id] = hw
	}
	for _, p := range plan.UART {
		if p.state() != core.BusReady {
			continue
		}
		id := core.ResourceID(p.ID)
		port, err := openUART(p)
		if err != nil {
			println("[provider] " + p.ID + ": " + err.Error())
			r.openErr[id] = err
			continue
		}
		r.uart[id] = port
	}
	return r, nil
}

func (r *mcuRegistry) lookupGPIO(n int) *mcuGPIO {
	r.mu.Lock()
	defer r.mu.Unlock()
	if g, ok := r.gpio[n]; ok {
		return g
	}
	g := &mcuGPIO{p: machine.Pin(n), n: n}
	r.gpio[n] = g
	return g
}

func (r *mcuRegistry) ClaimGPIO(devID string, n int) (core.GPIOHandle, error) {
	if err := r.pins.Claim(devID, n); err != nil {
		return nil, err
	}
	return r.lookupGPIO(n), nil
}

// ReleaseGPIO puts the pin back to input.
func (r *mcuRegistry) ReleaseGPIO(devID string, n int) {
	if !r.pins.Release(devID, n) {
		return
	}
	g := r.lookupGPIO(n)
	_ = g.ClearIRQ()
	g.p.Configure(machine.PinConfig{Mode: machine.PinInput})
}

func (r *mcuRegistry) SubscribeGPIOEdges(devID string, n int, edge core.Edge, debounce time.Duration, buf int) (core.GPIOEdgeStream, error) {
	if owner, ok := r.pins.Owner(n); !ok || owner != devID {
		return nil, errcode.PinInUse
	}
	s, err := r.irq.Subscribe(r.lookupGPIO(n), edge, debounce, buf)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *mcuRegistry) UnsubscribeGPIOEdges(devID string, n int) {
	if owner, ok := r.pins.Owner(n); ok && owner == devID {
		_ = r.lookupGPIO(n).ClearIRQ()
	}
}

func (r *mcuRegistry) claimBus(devID string, id core.ResourceID) error {
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

func (r *mcuRegistry) ClaimI2C(devID string, id core.ResourceID) (drivers.I2C, error) {
	if err := r.claimBus(devID, id); err != nil {
		return nil, err
	}
	r.mu.Lock()
	o := r.i2c[id]
	r.mu.Unlock()
	if o == nil {
		r.buses.Release(devID, id)
		return nil, errcode.UnknownBus
	}
	return &driversI2C{o: o, timeout: 250 * time.Millisecond}, nil
}

func (r *mcuRegistry) ReleaseI2C(devID string, id core.ResourceID) { r.buses.Release(devID, id) }

func (r *mcuRegistry) ClaimSPI(devID string, id core.ResourceID) (drivers.SPI, error) {
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

func (r *mcuRegistry) ReleaseSPI(devID string, id core.ResourceID) { r.buses.Release(devID, id) }

func (r *mcuRegistry) ClaimSerial(devID string, id core.ResourceID) (core.SerialPort, error) {
	if err := r.claimBus(devID, id); err != nil {
		return nil, err
	}
	r.mu.Lock()
	p := r.uart[id]
	r.mu.Unlock()
	if p == nil {
		r.buses.Release(devID, id)
		return nil, errcode.UnknownBus
	}
	return p, nil
}

func (r *mcuRegistry) ReleaseSerial(devID string, id core.ResourceID) { r.buses.Release(devID, id) }

// Close stops background workers (IRQ fan-out and per-bus I2C goroutines).
func (r *mcuRegistry) Close() {
	r.stopW()
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.i2c {
		o.stop()
	}
}

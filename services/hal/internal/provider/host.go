//go:build !(rp2040 || esp32s3)

package provider

import (
	"context"
	"sync"
	"time"

	"meshnode-go/errcode"
	"meshnode-go/services/hal/internal/core"
	"meshnode-go/services/hal/internal/gpioirq"

	"tinygo.org/x/drivers"
)

var _ core.ResourceRegistry = (*Host)(nil)

// Host is an in-memory registry for host builds and tests. Pins are FakePins
// that tests drive directly; buses are whatever the test attaches.
type Host struct {
	pins  *core.PinTable
	buses *core.BusTable
	irq   *gpioirq.Worker
	stop  context.CancelFunc

	mu     sync.Mutex
	gpio   map[int]*FakePin
	i2c    map[core.ResourceID]drivers.I2C
	spi    map[core.ResourceID]drivers.SPI
	serial map[core.ResourceID]*HostSerial
}

func NewHost(plan ResourcePlan) *Host {
	pins, buses := newTables(plan)
	ctx, cancel := context.WithCancel(context.Background())
	h := &Host{
		pins:   pins,
		buses:  buses,
		irq:    gpioirq.New(16),
		stop:   cancel,
		gpio:   map[int]*FakePin{},
		i2c:    map[core.ResourceID]drivers.I2C{},
		spi:    map[core.ResourceID]drivers.SPI{},
		serial: map[core.ResourceID]*HostSerial{},
	}
	for _, u := range plan.UART {
		h.serial[core.ResourceID(u.ID)] = NewHostSerial(u.Baud)
	}
	h.irq.Start(ctx)
	return h
}

func (h *Host) Close() { h.stop() }

// Pin returns the fake behind GPIO n, creating it on first use.
func (h *Host) Pin(n int) *FakePin {
	h.mu.Lock()
	defer h.mu.Unlock()
	p := h.gpio[n]
	if p == nil {
		p = &FakePin{n: n}
		h.gpio[n] = p
	}
	return p
}

// AttachI2C installs the bus handed out by ClaimI2C(id).
func (h *Host) AttachI2C(id core.ResourceID, bus drivers.I2C) {
	h.mu.Lock()
	h.i2c[id] = bus
	h.mu.Unlock()
}

func (h *Host) AttachSPI(id core.ResourceID, bus drivers.SPI) {
	h.mu.Lock()
	h.spi[id] = bus
	h.mu.Unlock()
}

func (h *Host) Serial(id core.ResourceID) *HostSerial {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.serial[id]
}

// ---- GPIO ----

func (h *Host) ClaimGPIO(devID string, n int) (core.GPIOHandle, error) {
	if err := h.pins.Claim(devID, n); err != nil {
		return nil, err
	}
	return h.Pin(n), nil
}

func (h *Host) ReleaseGPIO(devID string, n int) {
	if h.pins.Release(devID, n) {
		_ = h.Pin(n).ClearIRQ()
	}
}

func (h *Host) SubscribeGPIOEdges(devID string, n int, edge core.Edge, debounce time.Duration, buf int) (core.GPIOEdgeStream, error) {
	if owner, ok := h.pins.Owner(n); !ok || owner != devID {
		return nil, errcode.PinInUse
	}
	s, err := h.irq.Subscribe(h.Pin(n), edge, debounce, buf)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (h *Host) UnsubscribeGPIOEdges(devID string, n int) {
	if owner, ok := h.pins.Owner(n); ok && owner == devID {
		_ = h.Pin(n).ClearIRQ()
	}
}

// ---- buses ----

func (h *Host) ClaimI2C(devID string, id core.ResourceID) (drivers.I2C, error) {
	if err := h.buses.Claim(devID, id); err != nil {
		return nil, err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if b := h.i2c[id]; b != nil {
		return b, nil
	}
	return absentI2C{}, nil
}

func (h *Host) ReleaseI2C(devID string, id core.ResourceID) { h.buses.Release(devID, id) }

func (h *Host) ClaimSPI(devID string, id core.ResourceID) (drivers.SPI, error) {
	if err := h.buses.Claim(devID, id); err != nil {
		return nil, err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if b := h.spi[id]; b != nil {
		return b, nil
	}
	return absentSPI{}, nil
}

func (h *Host) ReleaseSPI(devID string, id core.ResourceID) { h.buses.Release(devID, id) }

func (h *Host) ClaimSerial(devID string, id core.ResourceID) (core.SerialPort, error) {
	if err := h.buses.Claim(devID, id); err != nil {
		return nil, err
	}
	if s := h.Serial(id); s != nil {
		return s, nil
	}
	return nil, errcode.UnknownBus
}

func (h *Host) ReleaseSerial(devID string, id core.ResourceID) { h.buses.Release(devID, id) }

// absentI2C and absentSPI stand in for buses nothing is attached to: every
// transfer fails as if no device answered.
type absentI2C struct{}

func (absentI2C) Tx(uint16, []byte, []byte) error { return errcode.NotDetected }

type absentSPI struct{}

func (absentSPI) Tx(w, r []byte) error        { return errcode.NotDetected }
func (absentSPI) Transfer(byte) (byte, error) { return 0, errcode.NotDetected }

// -----------------------------------------------------------------------------
// FakePin
// -----------------------------------------------------------------------------

// FakePin is a GPIO whose level tests set with Drive. Edges matching the
// armed IRQ call the handler synchronously.
type FakePin struct {
	mu      sync.Mutex
	n       int
	level   bool
	output  bool
	pull    core.Pull
	edge    core.Edge
	handler func()
}

func (p *FakePin) Number() int { return p.n }

func (p *FakePin) ConfigureInput(pull core.Pull) error {
	p.mu.Lock()
	p.output, p.pull = false, pull
	if pull == core.PullUp {
		p.level = true
	}
	p.mu.Unlock()
	return nil
}

func (p *FakePin) ConfigureOutput(initial bool) error {
	p.mu.Lock()
	p.output, p.level = true, initial
	p.mu.Unlock()
	return nil
}

func (p *FakePin) Set(b bool) { p.Drive(b) }
func (p *FakePin) Get() bool  { p.mu.Lock(); defer p.mu.Unlock(); return p.level }
func (p *FakePin) Toggle()    { p.Drive(!p.Get()) }

func (p *FakePin) IsOutput() bool { p.mu.Lock(); defer p.mu.Unlock(); return p.output }

// Drive sets the level as if from outside and fires the IRQ on a matching edge.
func (p *FakePin) Drive(level bool) {
	p.mu.Lock()
	prev := p.level
	p.level = level
	h, e := p.handler, p.edge
	p.mu.Unlock()
	if h == nil || prev == level {
		return
	}
	if e == core.EdgeBoth || (e == core.EdgeRising && level) || (e == core.EdgeFalling && !level) {
		h()
	}
}

func (p *FakePin) SetIRQ(edge core.Edge, handler func()) error {
	p.mu.Lock()
	p.edge, p.handler = edge, handler
	p.mu.Unlock()
	return nil
}

func (p *FakePin) ClearIRQ() error {
	p.mu.Lock()
	p.edge, p.handler = core.EdgeNone, nil
	p.mu.Unlock()
	return nil
}

// -----------------------------------------------------------------------------
// HostSerial
// -----------------------------------------------------------------------------

// HostSerial is a loopback-free UART: Feed queues bytes for the device to
// read and Written returns what the device sent.
type HostSerial struct {
	mu   sync.Mutex
	baud uint32
	rx   []byte
	tx   []byte
	wake chan struct{}
}

func NewHostSerial(baud uint32) *HostSerial {
	return &HostSerial{baud: baud, wake: make(chan struct{}, 1)}
}

func (s *HostSerial) Feed(p []byte) {
	s.mu.Lock()
	s.rx = append(s.rx, p...)
	s.mu.Unlock()
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *HostSerial) Written() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]byte(nil), s.tx...)
}

func (s *HostSerial) Baud() uint32 { s.mu.Lock(); defer s.mu.Unlock(); return s.baud }

func (s *HostSerial) Write(p []byte) (int, error) {
	s.mu.Lock()
	s.tx = append(s.tx, p...)
	s.mu.Unlock()
	return len(p), nil
}

func (s *HostSerial) RecvSomeContext(ctx context.Context, buf []byte) (int, error) {
	for {
		s.mu.Lock()
		if len(s.rx) > 0 {
			n := copy(buf, s.rx)
			s.rx = s.rx[n:]
			s.mu.Unlock()
			return n, nil
		}
		s.mu.Unlock()
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-s.wake:
		}
	}
}

func (s *HostSerial) SetBaudRate(br uint32) error {
	s.mu.Lock()
	s.baud = br
	s.mu.Unlock()
	return nil
}

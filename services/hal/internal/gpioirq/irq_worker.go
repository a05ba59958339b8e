// services/hal/internal/gpioirq/irq_worker.go
package gpioirq

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"meshnode-go/services/hal/internal/core"
)

// IRQPin is a GPIO that can call a handler from interrupt context.
type IRQPin interface {
	core.GPIOHandle
	SetIRQ(edge core.Edge, handler func()) error
	ClearIRQ() error
}

// Worker moves edge interrupts out of ISR context, debounces them and fans
// them out to per-pin streams.
type Worker struct {
	// Written by ISR; MUST NOT block the ISR:
	isrQ chan isrEvent

	mu      sync.Mutex
	streams map[int]*Stream // pin -> stream

	drops uint32 // ISR drop counter
}

type isrEvent struct {
	pin   int
	level bool // captured in ISR
}

func New(isrBuf int) *Worker {
	if isrBuf <= 0 {
		isrBuf = 64
	}
	return &Worker{
		isrQ:    make(chan isrEvent, isrBuf),
		streams: map[int]*Stream{},
	}
}

func (w *Worker) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case ev := <-w.isrQ:
				w.handleISR(ev)
			}
		}
	}()
}

// Subscribe arms the pin's interrupt. One stream per pin.
func (w *Worker) Subscribe(pin IRQPin, edge core.Edge, debounce time.Duration, buf int) (*Stream, error) {
	if buf <= 0 {
		buf = 4
	}
	n := pin.Number()
	s := &Stream{
		w:         w,
		pin:       pin,
		edge:      edge,
		debounce:  debounce,
		lastLevel: pin.Get(),
		ch:        make(chan core.EdgeEvent, buf),
	}

	w.mu.Lock()
	if _, busy := w.streams[n]; busy {
		w.mu.Unlock()
		return nil, core.ErrEdgeInUse
	}
	w.streams[n] = s
	w.mu.Unlock()

	// ISR handler: fast register read + non-blocking channel send.
	handler := func() {
		select {
		case w.isrQ <- isrEvent{pin: n, level: pin.Get()}:
		default:
			atomic.AddUint32(&w.drops, 1)
		}
	}
	if err := pin.SetIRQ(edge, handler); err != nil {
		w.mu.Lock()
		delete(w.streams, n)
		w.mu.Unlock()
		return nil, err
	}
	return s, nil
}

func (w *Worker) handleISR(ev isrEvent) {
	w.mu.Lock()
	defer w.mu.Unlock()
	s := w.streams[ev.pin]
	if s == nil {
		return
	}
	now := time.Now()
	if !s.lastEvent.IsZero() && now.Sub(s.lastEvent) < s.debounce {
		return
	}
	if ev.level == s.lastLevel && s.edge == core.EdgeBoth {
		// Bounce that settled back before we looked.
		return
	}
	s.lastLevel = ev.level
	s.lastEvent = now
	select {
	case s.ch <- core.EdgeEvent{Pin: ev.pin, Level: ev.level, TSms: now.UnixMilli()}:
	default:
		// consumer is slow; drop
	}
}

func (w *Worker) ISRDrops() uint32 { return atomic.LoadUint32(&w.drops) }

// Stream implements core.GPIOEdgeStream.
type Stream struct {
	w         *Worker
	pin       IRQPin
	edge      core.Edge
	debounce  time.Duration
	lastLevel bool
	lastEvent time.Time
	ch        chan core.EdgeEvent
	closed    bool
}

func (s *Stream) Events() <-chan core.EdgeEvent { return s.ch }

func (s *Stream) Close() {
	_ = s.pin.ClearIRQ()
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	if s.w.streams[s.pin.Number()] == s {
		delete(s.w.streams, s.pin.Number())
	}
	close(s.ch)
}

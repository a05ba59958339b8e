package core

import (
	"context"
	"time"

	"meshnode-go/errcode"

	"tinygo.org/x/drivers"
)

type ResourceID string // e.g. "i2c0", "spi2", "uart1"

// ---- GPIO handles ----

type Pull uint8

const (
	PullNone Pull = iota
	PullUp
	PullDown
)

type Edge uint8

const (
	EdgeNone Edge = iota
	EdgeRising
	EdgeFalling
	EdgeBoth
)

type GPIOHandle interface {
	Number() int
	ConfigureInput(pull Pull) error
	ConfigureOutput(initial bool) error
	Set(bool)
	Get() bool
	Toggle()
}

// EdgeEvent is one debounced transition on a subscribed pin.
type EdgeEvent struct {
	Pin   int
	Level bool
	TSms  int64
}

type GPIOEdgeStream interface {
	Events() <-chan EdgeEvent
	Close()
}

// ---- Stream buses ----

// SerialPort is a claimed UART. RecvSomeContext blocks until at least one
// byte is available or ctx is done.
type SerialPort interface {
	Write(p []byte) (int, error)
	RecvSomeContext(ctx context.Context, buf []byte) (int, error)
}

type SerialConfigurator interface {
	SetBaudRate(br uint32) error
}

type SerialFormatConfigurator interface {
	SetFormat(databits, stopbits uint8, parity string) error
}

// ---- Device → HAL telemetry (single shape) ----
// By default an Event is a value update, published retained to .../value.
// With IsEvent or a non-empty EventTag it goes to .../event[/tag] instead.
// A non-empty Err publishes only .../status=degraded.

type Event struct {
	Addr     CapAddr
	Payload  any
	TSms     int64
	Err      string
	IsEvent  bool
	EventTag string
}

type EventEmitter interface {
	// Emit must be non-blocking; false indicates a drop under pressure.
	Emit(ev Event) bool
}

// ---- Unified registry interface ----

type ResourceRegistry interface {
	// GPIO. A negative pin is not connected and is refused.
	ClaimGPIO(devID string, pin int) (GPIOHandle, error)
	ReleaseGPIO(devID string, pin int)
	SubscribeGPIOEdges(devID string, pin int, edge Edge, debounce time.Duration, buf int) (GPIOEdgeStream, error)
	UnsubscribeGPIOEdges(devID string, pin int)

	// Transactional buses
	ClaimI2C(devID string, id ResourceID) (drivers.I2C, error)
	ReleaseI2C(devID string, id ResourceID)
	ClaimSPI(devID string, id ResourceID) (drivers.SPI, error)
	ReleaseSPI(devID string, id ResourceID)

	// Stream buses
	ClaimSerial(devID string, id ResourceID) (SerialPort, error)
	ReleaseSerial(devID string, id ResourceID)
}

var ErrEdgeInUse error = &errcode.E{C: errcode.PinInUse, Op: "gpio.edges", Msg: "pin already has an edge subscriber"}

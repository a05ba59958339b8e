package provider

import (
	"meshnode-go/services/hal/internal/core"
	"meshnode-go/variant/boards"
)

// ResourcePlan specifies wiring and operating parameters chosen for a board.
// Providers consume this plan to instantiate resource owners. A bus whose
// pins include a negative (NC) number is kept in the plan so that claims on
// it fail with not_connected rather than unknown_bus.
type ResourcePlan struct {
	SoC  string // boards descriptor name
	I2C  []I2CPlan
	SPI  []SPIPlan
	UART []UARTPlan
}

type I2CPlan struct {
	ID  string // e.g. "i2c0"
	SDA int    // GPIO number
	SCL int    // GPIO number
	Hz  uint32 // bus frequency
}

type SPIPlan struct {
	ID              string // e.g. "spi2"
	SCK, MOSI, MISO int
	Hz              uint32
}

type UARTPlan struct {
	ID   string // e.g. "uart1"
	TX   int    // GPIO number
	RX   int    // GPIO number
	Baud uint32 // initial baud
}

// Registry is a ResourceRegistry with workers that must be stopped.
type Registry interface {
	core.ResourceRegistry
	Close()
}

func (p I2CPlan) state() core.BusState  { return connected(p.SDA, p.SCL) }
func (p SPIPlan) state() core.BusState  { return connected(p.SCK, p.MOSI, p.MISO) }
func (p UARTPlan) state() core.BusState { return connected(p.TX, p.RX) }

func connected(pins ...int) core.BusState {
	for _, n := range pins {
		if n < 0 {
			return core.BusNotConnected
		}
	}
	return core.BusReady
}

// pinValidator accepts the GPIOs the SoC exposes and does not reserve. An
// unknown SoC accepts any non-negative pin.
func pinValidator(soc string) func(int) bool {
	b, ok := boards.ByName(soc)
	if !ok {
		return func(n int) bool { return n >= 0 }
	}
	return func(n int) bool { return b.Has(n) && !b.IsReserved(n) }
}

// newTables builds pin and bus bookkeeping from a plan. I2C and SPI are
// shared (address or chip select per device); UARTs are exclusive.
func newTables(plan ResourcePlan) (*core.PinTable, *core.BusTable) {
	pins := &core.PinTable{Valid: pinValidator(plan.SoC)}
	buses := &core.BusTable{}
	for _, b := range plan.I2C {
		buses.Add(core.ResourceID(b.ID), b.state(), true)
	}
	for _, b := range plan.SPI {
		buses.Add(core.ResourceID(b.ID), b.state(), true)
	}
	for _, b := range plan.UART {
		buses.Add(core.ResourceID(b.ID), b.state(), false)
	}
	return pins, buses
}

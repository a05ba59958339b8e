package boards

// Board describes what the PCB/SoC can do (controllers present, GPIO range,
// pins the SoC keeps for itself). It must not include wiring choices (pins
// assigned to peripherals) or operating parameters (clock rates, baud).
type Board struct {
	Name             string
	GPIOMin, GPIOMax int

	// Missing lists numbers inside [GPIOMin, GPIOMax] the package does not bond out.
	Missing []int
	// Reserved pins are wired to flash/PSRAM or board internals; using one is an error.
	Reserved []int
	// Strapping pins are sampled at reset; usable, but a peripheral may alter boot mode.
	Strapping []int
	// USB and Console pins are usable at the cost of the native USB / boot console.
	USB     []int
	Console []int

	// Controllers present (identities only; e.g. "i2c0", "spi2", "uart1").
	I2C  []string
	SPI  []string
	UART []string
}

// Has reports whether n is a GPIO the package actually exposes.
func (b Board) Has(n int) bool {
	if n < b.GPIOMin || n > b.GPIOMax {
		return false
	}
	return !contains(b.Missing, n)
}

func (b Board) IsReserved(n int) bool  { return contains(b.Reserved, n) }
func (b Board) IsStrapping(n int) bool { return contains(b.Strapping, n) }
func (b Board) IsUSB(n int) bool       { return contains(b.USB, n) }
func (b Board) IsConsole(n int) bool   { return contains(b.Console, n) }

func contains(set []int, n int) bool {
	for _, v := range set {
		if v == n {
			return true
		}
	}
	return false
}

// ByName returns a known board descriptor.
func ByName(name string) (Board, bool) {
	switch name {
	case ESP32S3.Name:
		return ESP32S3, true
	case RP2040.Name:
		return RP2040, true
	case BCM283X.Name:
		return BCM283X, true
	}
	return Board{}, false
}

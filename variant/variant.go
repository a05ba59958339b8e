// Package variant declares the board-specific pin table and feature toggles
// a firmware build is compiled against, and checks them before any driver
// touches a pin.
package variant

import "strconv"

// Pin is a GPIO number as the SoC numbers it.
type Pin int

// NC marks a pin that is not connected, or not yet looked up in the board's
// pin map. Drivers must refuse to start on an NC pin.
const NC Pin = -1

func (p Pin) Connected() bool { return p != NC }

func (p Pin) String() string {
	if p == NC {
		return "NC"
	}
	return "GPIO" + strconv.Itoa(int(p))
}

// Role names the function a pin serves.
type Role string

const (
	RoleLoRaSCK   Role = "lora.sck"
	RoleLoRaMISO  Role = "lora.miso"
	RoleLoRaMOSI  Role = "lora.mosi"
	RoleLoRaCS    Role = "lora.cs"
	RoleLoRaReset Role = "lora.reset"
	RoleLoRaBusy  Role = "lora.busy"
	RoleLoRaDIO1  Role = "lora.dio1"
	RoleLoRaTXEN  Role = "lora.txen"
	RoleLoRaRXEN  Role = "lora.rxen"
	RoleI2CSDA    Role = "i2c.sda"
	RoleI2CSCL    Role = "i2c.scl"
	RoleGNSSRX    Role = "gnss.rx"
	RoleGNSSTX    Role = "gnss.tx"
	RoleButton    Role = "button.user"
	RoleLED       Role = "led"
)

// Display selects the OLED controller driver, if any.
type Display uint8

const (
	DisplayNone Display = iota
	DisplaySH1106
)

func (d Display) String() string {
	switch d {
	case DisplaySH1106:
		return "sh1106"
	default:
		return "none"
	}
}

// PMU selects the power-management IC driver, if any.
type PMU uint8

const (
	PMUNone PMU = iota
	PMUAXP2101
)

func (p PMU) String() string {
	switch p {
	case PMUAXP2101:
		return "axp2101"
	default:
		return "none"
	}
}

// LoRa wires an SX126x transceiver: SPI, control lines and the optional
// PA/LNA enables of a high-power front end.
type LoRa struct {
	SCK, MISO, MOSI, CS Pin
	Reset, Busy, DIO1   Pin
	TXEN, RXEN          Pin // PA_EN / LNA_EN; names vary by schematic
	// DIO2AsRFSwitch means the radio drives its own RF switch from DIO2,
	// so TXEN/RXEN may stay NC.
	DIO2AsRFSwitch bool
}

type I2C struct {
	SDA, SCL Pin
}

// GNSS is a UART-attached receiver. RX/TX are from the MCU's side.
type GNSS struct {
	RX, TX Pin
	Baud   uint32
}

// Variant is the full declaration for one board.
type Variant struct {
	Name string
	SoC  string // boards descriptor name

	LoRa       LoRa
	I2C        I2C
	GNSS       GNSS
	ButtonUser Pin
	LED        Pin

	Display Display
	PMU     PMU

	// Shared lists groups of roles that may intentionally sit on one pin.
	Shared [][]Role

	// Init runs once at bring-up, before any subsystem uses the pins.
	// Nil means nothing to do.
	Init func()
}

// Assignment is one row of the pin table.
type Assignment struct {
	Role     Role
	Pin      Pin
	Optional bool
}

// Pins returns the table in declaration order.
func (v Variant) Pins() []Assignment {
	rfOpt := v.LoRa.DIO2AsRFSwitch
	return []Assignment{
		{Role: RoleLoRaSCK, Pin: v.LoRa.SCK},
		{Role: RoleLoRaMISO, Pin: v.LoRa.MISO},
		{Role: RoleLoRaMOSI, Pin: v.LoRa.MOSI},
		{Role: RoleLoRaCS, Pin: v.LoRa.CS},
		{Role: RoleLoRaReset, Pin: v.LoRa.Reset},
		{Role: RoleLoRaBusy, Pin: v.LoRa.Busy},
		{Role: RoleLoRaDIO1, Pin: v.LoRa.DIO1},
		{Role: RoleLoRaTXEN, Pin: v.LoRa.TXEN, Optional: rfOpt},
		{Role: RoleLoRaRXEN, Pin: v.LoRa.RXEN, Optional: rfOpt},
		{Role: RoleI2CSDA, Pin: v.I2C.SDA},
		{Role: RoleI2CSCL, Pin: v.I2C.SCL},
		{Role: RoleGNSSRX, Pin: v.GNSS.RX},
		{Role: RoleGNSSTX, Pin: v.GNSS.TX},
		{Role: RoleButton, Pin: v.ButtonUser},
		{Role: RoleLED, Pin: v.LED},
	}
}

// PinFor looks up a role.
func (v Variant) PinFor(r Role) (Pin, bool) {
	for _, a := range v.Pins() {
		if a.Role == r {
			return a.Pin, true
		}
	}
	return NC, false
}

// mayShare reports whether roles a and b are declared as one shared group.
func (v Variant) mayShare(a, b Role) bool {
	for _, g := range v.Shared {
		var hasA, hasB bool
		for _, r := range g {
			hasA = hasA || r == a
			hasB = hasB || r == b
		}
		if hasA && hasB {
			return true
		}
	}
	return false
}

package boards

// BCM283X is the 40-pin header of a Raspberry Pi running Linux, used as a
// bench host. Pins are BCM numbers. GPIO0/1 carry the HAT ID EEPROM.
// Controller names are the ones periph registers: I2C bus "1"
// (/dev/i2c-1), spidev "SPI0.0" and the primary UART tty.
var BCM283X = Board{
	Name:     "bcm283x",
	GPIOMin:  0,
	GPIOMax:  27,
	Reserved: []int{0, 1},

	I2C:  []string{"1"},
	SPI:  []string{"SPI0.0", "SPI0.1"},
	UART: []string{"/dev/serial0"},
}

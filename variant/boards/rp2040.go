package boards

// RP2040 as mounted on a Raspberry Pi Pico: GP23 (SMPS mode), GP24 (VBUS
// sense) and GP29 (VSYS/3 ADC) are board internals. GP25 is the on-board LED.
var RP2040 = Board{
	Name:     "rp2040",
	GPIOMin:  0,
	GPIOMax:  29,
	Reserved: []int{23, 24, 29},

	I2C:  []string{"i2c0", "i2c1"},
	SPI:  []string{"spi0", "spi1"},
	UART: []string{"uart0", "uart1"},
}

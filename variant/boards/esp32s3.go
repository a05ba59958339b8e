package boards

// ESP32S3 covers the ESP32-S3 module family with quad SPI flash/PSRAM.
// GPIO22..25 are not bonded out; GPIO26..32 carry the SPI flash/PSRAM bus.
var ESP32S3 = Board{
	Name:      "esp32s3",
	GPIOMin:   0,
	GPIOMax:   48,
	Missing:   []int{22, 23, 24, 25},
	Reserved:  []int{26, 27, 28, 29, 30, 31, 32},
	Strapping: []int{0, 3, 45, 46},
	USB:       []int{19, 20},
	Console:   []int{43, 44},

	I2C:  []string{"i2c0", "i2c1"},
	SPI:  []string{"spi2", "spi3"},
	UART: []string{"uart0", "uart1", "uart2"},
}

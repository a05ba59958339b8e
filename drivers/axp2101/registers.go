package axp2101

// Default 7-bit I2C address.
const Address = 0x34

// ChipID is the value of regChipID on an AXP2101.
const ChipID = 0x4A

const (
	regStatus1 = 0x00
	regStatus2 = 0x01
	regChipID  = 0x03

	regChargeGauge = 0x18 // charger / fuel gauge / watchdog enables
	regADCEnable   = 0x30

	regVBATH = 0x34 // 14-bit, mV
	regVBUSH = 0x38
	regVSYSH = 0x3A

	regDCDCEnable = 0x80
	regDCDC1Volt  = 0x82

	regLDOEnable0 = 0x90
	regALDO1Volt  = 0x92
	regALDO2Volt  = 0x93
	regALDO3Volt  = 0x94
	regALDO4Volt  = 0x95
	regBLDO1Volt  = 0x96
	regBLDO2Volt  = 0x97

	regBatteryPercent = 0xA4
)

// regStatus1 bits
const (
	st1VBUSGood   = 1 << 5
	st1BatPresent = 1 << 3
)

// regChargeGauge bits
const (
	cgGaugeEnable  = 1 << 3
	cgChargeEnable = 1 << 1
)

// regADCEnable bits
const (
	adcVBAT = 1 << 0
	adcVBUS = 1 << 2
	adcVSYS = 1 << 3
)

package axp2101

// Rail is a switchable output.
type Rail uint8

const (
	DCDC1 Rail = iota
	ALDO1
	ALDO2
	ALDO3
	ALDO4
	BLDO1
	BLDO2
	numRails
)

type railDesc struct {
	name     string
	enReg    byte
	enBit    byte
	voltReg  byte
	minMV    uint16
	maxMV    uint16
	stepMV   uint16
	codeMask byte
}

var rails = [numRails]railDesc{
	DCDC1: {"dcdc1", regDCDCEnable, 0, regDCDC1Volt, 1500, 3400, 100, 0x1F},
	ALDO1: {"aldo1", regLDOEnable0, 0, regALDO1Volt, 500, 3500, 100, 0x1F},
	ALDO2: {"aldo2", regLDOEnable0, 1, regALDO2Volt, 500, 3500, 100, 0x1F},
	ALDO3: {"aldo3", regLDOEnable0, 2, regALDO3Volt, 500, 3500, 100, 0x1F},
	ALDO4: {"aldo4", regLDOEnable0, 3, regALDO4Volt, 500, 3500, 100, 0x1F},
	BLDO1: {"bldo1", regLDOEnable0, 4, regBLDO1Volt, 500, 3500, 100, 0x1F},
	BLDO2: {"bldo2", regLDOEnable0, 5, regBLDO2Volt, 500, 3500, 100, 0x1F},
}

func (r Rail) String() string {
	if r >= numRails {
		return "unknown"
	}
	return rails[r].name
}

// RailByName maps "aldo2" etc. to a Rail.
func RailByName(name string) (Rail, bool) {
	for i := range rails {
		if rails[i].name == name {
			return Rail(i), true
		}
	}
	return 0, false
}

func (d *Device) EnableRail(r Rail, on bool) error {
	if r >= numRails {
		return ErrUnknownRail
	}
	rd := rails[r]
	if on {
		return d.setBits(rd.enReg, 1<<rd.enBit)
	}
	return d.clearBits(rd.enReg, 1<<rd.enBit)
}

func (d *Device) RailEnabled(r Rail) (bool, error) {
	if r >= numRails {
		return false, ErrUnknownRail
	}
	rd := rails[r]
	v, err := d.readReg(rd.enReg)
	return v&(1<<rd.enBit) != 0, err
}

// SetRailMilliV programs the output voltage. Values between steps round down.
func (d *Device) SetRailMilliV(r Rail, mv uint16) error {
	if r >= numRails {
		return ErrUnknownRail
	}
	rd := rails[r]
	if mv < rd.minMV || mv > rd.maxMV {
		return ErrRailRange
	}
	code := byte((mv - rd.minMV) / rd.stepMV)
	v, err := d.readReg(rd.voltReg)
	if err != nil {
		return err
	}
	return d.writeReg(rd.voltReg, v&^rd.codeMask|code&rd.codeMask)
}

func (d *Device) RailMilliV(r Rail) (uint16, error) {
	if r >= numRails {
		return 0, ErrUnknownRail
	}
	rd := rails[r]
	v, err := d.readReg(rd.voltReg)
	if err != nil {
		return 0, err
	}
	return rd.minMV + uint16(v&rd.codeMask)*rd.stepMV, nil
}

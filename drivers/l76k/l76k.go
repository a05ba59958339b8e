// Package l76k speaks the Quectel L76K's NMEA-0183 dialect: PCAS
// configuration commands out, checksummed sentences in.
package l76k

import (
	"errors"

	"meshnode-go/x/conv"
)

// DefaultBaud is the factory UART rate.
const DefaultBaud = 9600

var (
	ErrBadBaud     = errors.New("l76k: unsupported baud rate")
	ErrBadInterval = errors.New("l76k: fix interval must be 100..1000 ms")
	ErrFraming     = errors.New("l76k: malformed sentence")
	ErrChecksum    = errors.New("l76k: checksum mismatch")
)

// Checksum is the XOR of every byte between '$' and '*'.
func Checksum(body string) byte {
	var cs byte
	for i := 0; i < len(body); i++ {
		cs ^= body[i]
	}
	return cs
}

// Sentence frames body as "$<body>*HH\r\n".
func Sentence(body string) string {
	cs := Checksum(body)
	return "$" + body + "*" + hexString(cs) + "\r\n"
}

// Verify checks framing and checksum of a sentence without line ending.
func Verify(s string) error {
	if len(s) < 4 || s[0] != '$' || s[len(s)-3] != '*' {
		return ErrFraming
	}
	want, ok := conv.ParseHexByte(s[len(s)-2:])
	if !ok {
		return ErrFraming
	}
	if Checksum(s[1:len(s)-3]) != want {
		return ErrChecksum
	}
	return nil
}

var baudCodes = [...]uint32{4800, 9600, 19200, 38400, 57600, 115200}

// SetBaud builds PCAS01. The receiver switches rate after replying.
func SetBaud(baud uint32) (string, error) {
	for i, b := range baudCodes {
		if b == baud {
			return Sentence("PCAS01," + itoa(i)), nil
		}
	}
	return "", ErrBadBaud
}

// SetFixInterval builds PCAS02.
func SetFixInterval(ms uint16) (string, error) {
	if ms < 100 || ms > 1000 {
		return "", ErrBadInterval
	}
	return Sentence("PCAS02," + itoa(int(ms))), nil
}

// Output selects per-sentence output divisors; 0 disables a sentence.
type Output struct {
	GGA, GLL, GSA, GSV, RMC, VTG, ZDA uint8
}

// DefaultOutput keeps what the position parser consumes.
var DefaultOutput = Output{GGA: 1, RMC: 1}

// SetOutput builds PCAS03.
func SetOutput(o Output) string {
	f := [...]uint8{o.GGA, o.GLL, o.GSA, o.GSV, o.RMC, o.VTG, o.ZDA, 0, 0, 0}
	body := "PCAS03"
	for _, v := range f {
		body += "," + itoa(int(v))
	}
	// res1,res2,UTC,GST,res3,res4,res5,TIM stay empty
	body += ",,,0,0,,,,0"
	return Sentence(body)
}

// Constellation is the PCAS04 mode mask.
type Constellation uint8

const (
	GPS     Constellation = 1
	BeiDou  Constellation = 2
	GLONASS Constellation = 4
)

// SetConstellation builds PCAS04.
func SetConstellation(c Constellation) string {
	c &= GPS | BeiDou | GLONASS
	if c == 0 {
		c = GPS | BeiDou
	}
	return Sentence("PCAS04," + itoa(int(c)))
}

type RestartMode uint8

const (
	HotStart RestartMode = iota
	WarmStart
	ColdStart
	FactoryReset
)

// Restart builds PCAS10.
func Restart(m RestartMode) string {
	if m > FactoryReset {
		m = HotStart
	}
	return Sentence("PCAS10," + itoa(int(m)))
}

func itoa(n int) string {
	var b [12]byte
	return string(conv.Itoa(b[:], int64(n)))
}

func hexString(b byte) string {
	h := conv.HexByte(b)
	return string(h[:])
}

// Package conv formats and parses numbers without fmt or strconv, for the
// NMEA and display paths that run on the MCU.
package conv

// Itoa writes n in base 10 at the end of buf and returns the written tail.
// A 20-byte buf holds any int64.
func Itoa(buf []byte, n int64) []byte {
	if n >= 0 {
		return Utoa(buf, uint64(n))
	}
	out := Utoa(buf, uint64(-n))
	i := len(buf) - len(out)
	if i == 0 {
		return out
	}
	buf[i-1] = '-'
	return buf[i-1:]
}

// Utoa is Itoa for unsigned values.
func Utoa(buf []byte, n uint64) []byte {
	i := len(buf)
	for i > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
		if n == 0 {
			break
		}
	}
	return buf[i:]
}

package conv

const hexDigits = "0123456789ABCDEF"

// HexByte returns the two uppercase hex digits of b.
func HexByte(b byte) [2]byte {
	return [2]byte{hexDigits[b>>4], hexDigits[b&0xF]}
}

// ParseHexByte parses exactly two hex digits, either case.
func ParseHexByte(s string) (byte, bool) {
	if len(s) != 2 {
		return 0, false
	}
	hi, ok1 := nibble(s[0])
	lo, ok2 := nibble(s[1])
	return hi<<4 | lo, ok1 && ok2
}

func nibble(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	}
	return 0, false
}

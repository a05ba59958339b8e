package conv

import "testing"

func TestItoaUtoa(t *testing.T) {
	var b [20]byte
	for _, c := range []struct {
		n    int64
		want string
	}{{0, "0"}, {7, "7"}, {-42, "-42"}, {9600, "9600"}, {-9223372036854775808, "-9223372036854775808"}} {
		if got := string(Itoa(b[:], c.n)); got != c.want {
			t.Errorf("Itoa(%d) = %q", c.n, got)
		}
	}
	if got := string(Utoa(b[:], 115200)); got != "115200" {
		t.Errorf("Utoa = %q", got)
	}
}

func TestHex(t *testing.T) {
	h := HexByte(0x1A)
	if string(h[:]) != "1A" {
		t.Errorf("HexByte = %q", h)
	}
	for _, s := range []string{"1a", "1A"} {
		if v, ok := ParseHexByte(s); !ok || v != 0x1A {
			t.Errorf("ParseHexByte(%q) = %#x %v", s, v, ok)
		}
	}
	for _, s := range []string{"", "1", "G0", "123"} {
		if _, ok := ParseHexByte(s); ok {
			t.Errorf("ParseHexByte(%q) accepted", s)
		}
	}
}

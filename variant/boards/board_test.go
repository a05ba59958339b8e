package boards

import "testing"

func TestESP32S3_Has(t *testing.T) {
	cases := []struct {
		pin  int
		want bool
	}{
		{-1, false},
		{0, true},
		{21, true},
		{22, false},
		{25, false},
		{26, true}, // exists, but reserved
		{48, true},
		{49, false},
	}
	for _, tc := range cases {
		if got := ESP32S3.Has(tc.pin); got != tc.want {
			t.Errorf("Has(%d) = %v, want %v", tc.pin, got, tc.want)
		}
	}
	if !ESP32S3.IsReserved(30) || ESP32S3.IsReserved(33) {
		t.Fatal("flash pins misclassified")
	}
	if !ESP32S3.IsStrapping(0) || !ESP32S3.IsUSB(20) || !ESP32S3.IsConsole(43) {
		t.Fatal("special pins misclassified")
	}
}

func TestByName(t *testing.T) {
	for _, n := range []string{"esp32s3", "rp2040", "bcm283x"} {
		b, ok := ByName(n)
		if !ok || b.Name != n {
			t.Fatalf("ByName(%q) = %+v, %v", n, b, ok)
		}
	}
	if _, ok := ByName("avr"); ok {
		t.Fatal("unknown board resolved")
	}
}

func TestBCM283X(t *testing.T) {
	if !BCM283X.Has(27) || BCM283X.Has(28) {
		t.Fatal("header range")
	}
	if !BCM283X.IsReserved(0) || BCM283X.IsReserved(2) {
		t.Fatal("ID EEPROM pins misclassified")
	}
}

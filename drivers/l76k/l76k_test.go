package l76k

import (
	"errors"
	"strings"
	"testing"
)

func TestCommands(t *testing.T) {
	baud, err := SetBaud(9600)
	if err != nil {
		t.Fatal(err)
	}
	rate, err := SetFixInterval(1000)
	if err != nil {
		t.Fatal(err)
	}
	cases := []struct {
		name, got, want string
	}{
		{"baud", baud, "$PCAS01,1*1D\r\n"},
		{"rate", rate, "$PCAS02,1000*2E\r\n"},
		{"gps+bds", SetConstellation(GPS | BeiDou), "$PCAS04,3*1A\r\n"},
		{"default constellation", SetConstellation(0), "$PCAS04,3*1A\r\n"},
		{"cold", Restart(ColdStart), "$PCAS10,2*1E\r\n"},
	}
	for _, c := range cases {
		if c.got != c.want {
			t.Errorf("%s: got %q, want %q", c.name, c.got, c.want)
		}
	}
}

func TestCommandErrors(t *testing.T) {
	if _, err := SetBaud(14400); !errors.Is(err, ErrBadBaud) {
		t.Errorf("baud: %v", err)
	}
	for _, ms := range []uint16{0, 99, 1001} {
		if _, err := SetFixInterval(ms); !errors.Is(err, ErrBadInterval) {
			t.Errorf("interval %d: %v", ms, err)
		}
	}
}

func TestSetOutput_IsValidSentence(t *testing.T) {
	s := SetOutput(DefaultOutput)
	if !strings.HasPrefix(s, "$PCAS03,1,0,0,0,1,0,0,") {
		t.Fatalf("unexpected body: %q", s)
	}
	if err := Verify(strings.TrimRight(s, "\r\n")); err != nil {
		t.Fatalf("own output does not verify: %v", err)
	}
}

func TestVerify(t *testing.T) {
	good := "$GPGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,*47"
	if err := Verify(good); err != nil {
		t.Fatalf("good sentence: %v", err)
	}
	if err := Verify(strings.Replace(good, "*47", "*48", 1)); !errors.Is(err, ErrChecksum) {
		t.Errorf("bad checksum: %v", err)
	}
	for _, s := range []string{"", "$*", "GPGGA*47", "$GPGGA,1*4", "$GPGGA*ZZ"} {
		if err := Verify(s); !errors.Is(err, ErrFraming) {
			t.Errorf("%q: %v", s, err)
		}
	}
}

func TestLineReader(t *testing.T) {
	var r LineReader
	var got []string
	emit := func(l []byte) { got = append(got, string(l)) }

	r.Feed([]byte("noise$GPRMC,1*00\r\n$GP"), emit)
	r.Feed([]byte("GGA,2*00\r"), emit)
	r.Feed([]byte("\n"), emit)

	want := []string{"$GPRMC,1*00", "$GPGGA,2*00"}
	if len(got) != len(want) {
		t.Fatalf("got %q", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestLineReader_DropsOverlong(t *testing.T) {
	var r LineReader
	var got []string
	emit := func(l []byte) { got = append(got, string(l)) }

	r.Feed([]byte("$"+strings.Repeat("A", MaxSentence+10)+"\r\n"), emit)
	r.Feed([]byte("$OK*00\r\n"), emit)
	if len(got) != 1 || got[0] != "$OK*00" {
		t.Fatalf("got %q", got)
	}
}

func TestPositional(t *testing.T) {
	cases := []struct {
		in     string
		typ    string
		ok     bool
		commas int
	}{
		{"$GNRMC,083559.000,A,4717.11437,N,00833.91522,E,0.004,77.52,091202,,,A,V*33", "RMC", true, 12},
		{"$GPRMC,203522.00,A,5109.0262308,N,11401.8407342,W,0.004,133.4,010622,0.0,E,D*2B", "RMC", true, 12},
		{"$GNGGA,092725.00,4717.11399,N,00833.91590,E,1,08,1.01,499.6,M,48.0,M,,*5B", "GGA", true, 14},
		{"$GPGSV,1,1,01,21,,,31*79", "GSV", false, 7},
		{"$GP", "", false, 0},
	}
	for _, tc := range cases {
		typ, out, ok := Positional(tc.in)
		if typ != tc.typ || ok != tc.ok {
			t.Errorf("Positional(%q) = %q %v", tc.in, typ, ok)
			continue
		}
		if ok && strings.Count(out, ",") != tc.commas {
			t.Errorf("Positional(%q) out %q", tc.in, out)
		}
	}
	if _, out, _ := Positional("$GNRMC,083559.000,A,4717.11437,N,00833.91522,E,0.004,77.52,091202,,,A,V*33"); !strings.HasSuffix(out, ",A*33") {
		t.Errorf("trimmed RMC = %q", out)
	}
}

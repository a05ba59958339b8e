package provider

import (
	"errors"
	"testing"
	"time"

	"meshnode-go/errcode"
	"meshnode-go/services/hal/internal/core"
)

func testPlan() ResourcePlan {
	return ResourcePlan{
		SoC:  "rp2040",
		I2C:  []I2CPlan{{ID: "i2c0", SDA: 4, SCL: 5, Hz: 400_000}},
		SPI:  []SPIPlan{{ID: "spi1", SCK: -1, MOSI: 11, MISO: 12, Hz: 8_000_000}},
		UART: []UARTPlan{{ID: "uart0", TX: 0, RX: 1, Baud: 9600}},
	}
}

func TestHost_ClaimGPIO(t *testing.T) {
	h := NewHost(testPlan())
	defer h.Close()

	cases := []struct {
		name string
		dev  string
		pin  int
		want errcode.Code
	}{
		{"nc", "a", -1, errcode.NotConnected},
		{"out of range", "a", 30, errcode.UnknownPin},
		{"ok", "a", 25, ""},
		{"same owner again", "a", 25, ""},
		{"other owner", "b", 25, errcode.PinInUse},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := h.ClaimGPIO(tc.dev, tc.pin)
			if tc.want == "" {
				if err != nil {
					t.Fatalf("ClaimGPIO(%d): %v", tc.pin, err)
				}
				return
			}
			if errcode.Of(err) != tc.want {
				t.Fatalf("ClaimGPIO(%d) = %v, want %s", tc.pin, err, tc.want)
			}
		})
	}

	h.ReleaseGPIO("b", 25) // not the owner: no effect
	if _, err := h.ClaimGPIO("b", 25); errcode.Of(err) != errcode.PinInUse {
		t.Fatalf("release by non-owner freed the pin: %v", err)
	}
	h.ReleaseGPIO("a", 25)
	if _, err := h.ClaimGPIO("b", 25); err != nil {
		t.Fatalf("claim after release: %v", err)
	}
}

func TestHost_ClaimBuses(t *testing.T) {
	h := NewHost(testPlan())
	defer h.Close()

	if _, err := h.ClaimI2C("a", "i2c0"); err != nil {
		t.Fatalf("i2c0: %v", err)
	}
	if _, err := h.ClaimI2C("b", "i2c0"); err != nil {
		t.Fatalf("i2c0 is shared: %v", err)
	}
	if _, err := h.ClaimI2C("a", "i2c1"); errcode.Of(err) != errcode.UnknownBus {
		t.Fatalf("i2c1 = %v, want unknown_bus", err)
	}
	if _, err := h.ClaimSPI("a", "spi1"); errcode.Of(err) != errcode.NotConnected {
		t.Fatalf("spi1 with NC sck = %v, want not_connected", err)
	}

	if _, err := h.ClaimSerial("gps", "uart0"); err != nil {
		t.Fatalf("uart0: %v", err)
	}
	if _, err := h.ClaimSerial("other", "uart0"); errcode.Of(err) != errcode.BusInUse {
		t.Fatalf("second uart0 claim = %v, want bus_in_use", err)
	}
	h.ReleaseSerial("gps", "uart0")
	if _, err := h.ClaimSerial("other", "uart0"); err != nil {
		t.Fatalf("uart0 after release: %v", err)
	}
}

func TestHost_AbsentI2CNotDetected(t *testing.T) {
	h := NewHost(testPlan())
	defer h.Close()
	bus, err := h.ClaimI2C("a", "i2c0")
	if err != nil {
		t.Fatal(err)
	}
	if err := bus.Tx(0x34, []byte{0x03}, make([]byte, 1)); !errors.Is(err, errcode.NotDetected) {
		t.Fatalf("Tx on empty bus = %v", err)
	}
}

func TestHost_Edges(t *testing.T) {
	h := NewHost(testPlan())
	defer h.Close()

	if _, err := h.SubscribeGPIOEdges("btn", 17, core.EdgeBoth, 0, 4); errcode.Of(err) != errcode.PinInUse {
		t.Fatalf("subscribe without claim = %v", err)
	}
	if _, err := h.ClaimGPIO("btn", 17); err != nil {
		t.Fatal(err)
	}
	es, err := h.SubscribeGPIOEdges("btn", 17, core.EdgeBoth, 0, 4)
	if err != nil {
		t.Fatal(err)
	}
	defer es.Close()

	h.Pin(17).Drive(true)
	select {
	case ev := <-es.Events():
		if ev.Pin != 17 || !ev.Level {
			t.Fatalf("event = %+v", ev)
		}
	case <-time.After(200 * time.Millisecond):
		t.Fatal("no edge event")
	}
}

func TestHostSerial_RoundTrip(t *testing.T) {
	s := NewHostSerial(9600)
	s.Feed([]byte("$GP"))
	buf := make([]byte, 8)
	n, err := s.RecvSomeContext(t.Context(), buf)
	if err != nil || string(buf[:n]) != "$GP" {
		t.Fatalf("recv = %q, %v", buf[:n], err)
	}
	_, _ = s.Write([]byte("x"))
	_ = s.SetBaudRate(115200)
	if string(s.Written()) != "x" || s.Baud() != 115200 {
		t.Fatalf("written %q baud %d", s.Written(), s.Baud())
	}
}

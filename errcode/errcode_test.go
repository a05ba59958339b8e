package errcode

import (
	"errors"
	"testing"
)

func TestOf(t *testing.T) {
	plain := errors.New("boom")
	cases := []struct {
		name string
		err  error
		want Code
	}{
		{"nil", nil, OK},
		{"code", NotConnected, NotConnected},
		{"wrapped", &E{C: PinInUse, Op: "claim"}, PinInUse},
		{"wrap helper", Wrap("radio", UnknownPin), UnknownPin},
		{"unwrap chain", Wrap("outer", Wrap("inner", Timeout)), Timeout},
		{"foreign", plain, Error},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Of(tc.err); got != tc.want {
				t.Fatalf("Of(%v) = %q, want %q", tc.err, got, tc.want)
			}
		})
	}
}

func TestE_Error(t *testing.T) {
	e := &E{C: NotConnected, Op: "lora.cs", Msg: "pin is NC"}
	if got, want := e.Error(), "lora.cs: not_connected: pin is NC"; got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(Wrap("x", NotConnected), NotConnected) {
		t.Fatal("errors.Is must see through Wrap")
	}
	if Wrap("x", nil) != nil {
		t.Fatal("Wrap(nil) must be nil")
	}
}

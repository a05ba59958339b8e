package mathx

import "testing"

func TestClamp(t *testing.T) {
	cases := []struct{ v, lo, hi, want int }{
		{-5, 0, 10, 0},
		{15, 0, 10, 10},
		{7, 0, 10, 7},
		{7, 10, 0, 7},
		{-30, 22, -9, -9},
	}
	for _, tc := range cases {
		if got := Clamp(tc.v, tc.lo, tc.hi); got != tc.want {
			t.Errorf("Clamp(%d, %d, %d) = %d, want %d", tc.v, tc.lo, tc.hi, got, tc.want)
		}
	}
}

func TestBetween(t *testing.T) {
	if !Between(9600, 4800, 115200) || Between(uint32(0), 4800, 115200) {
		t.Fatal("Between")
	}
}

func TestPrefix(t *testing.T) {
	if Prefix("hello", 3) != "hel" || Prefix("hi", 9) != "hi" || Prefix("x", -1) != "" {
		t.Fatal("string prefix")
	}
	if len(Prefix([]int{1, 2, 3}, 2)) != 2 {
		t.Fatal("slice prefix")
	}
}

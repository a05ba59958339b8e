package main

import (
	"bytes"
	"strings"
	"testing"

	"meshnode-go/variant"
	"meshnode-go/variants"
)

func TestPrintVariant(t *testing.T) {
	cases := []struct {
		name string
		want []string
	}{
		{"tbeam_1w", []string{"tbeam_1w (esp32s3)", "lora.sck", "NC", "gnss_baud=9600", "15 of 15 roles unconfigured"}},
		{"pico_lora", []string{"pico_lora (rp2040)", "GPIO10", "display=sh1106", "  ok\n"}},
		{"pi_bench", []string{"pi_bench (bcm283x)", "GPIO25", "  ok\n"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v, ok := variants.ByName(tc.name)
			if !ok {
				t.Fatalf("variant %q missing", tc.name)
			}
			var buf bytes.Buffer
			printVariant(&buf, v, variant.Validate(v))
			for _, w := range tc.want {
				if !strings.Contains(buf.String(), w) {
					t.Errorf("output lacks %q:\n%s", w, buf.String())
				}
			}
		})
	}
}

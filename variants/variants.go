// Package variants is the catalogue of board variants; Selected returns the
// one picked by build tag (-tags tbeam_1w, -tags pico_lora, -tags pi_bench).
package variants

import (
	"meshnode-go/variant"
	"meshnode-go/variants/pibench"
	"meshnode-go/variants/picolora"
	"meshnode-go/variants/tbeam1w"
)

// All lists every known variant, for host tools.
func All() []variant.Variant {
	return []variant.Variant{tbeam1w.Variant, picolora.Variant, pibench.Variant}
}

// ByName finds a variant in All.
func ByName(name string) (variant.Variant, bool) {
	for _, v := range All() {
		if v.Name == name {
			return v, true
		}
	}
	return variant.Variant{}, false
}

//go:build !(tbeam_1w || pico_lora || pi_bench)

package variants

import "meshnode-go/variant"

// Selected returns an empty variant when no board tag is given.
func Selected() variant.Variant { return variant.Variant{Name: "none"} }

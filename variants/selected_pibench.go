//go:build pi_bench && !(tbeam_1w || pico_lora)

package variants

import (
	"meshnode-go/variant"
	"meshnode-go/variants/pibench"
)

func Selected() variant.Variant { return pibench.Variant }

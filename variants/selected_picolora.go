//go:build pico_lora && !tbeam_1w

package variants

import (
	"meshnode-go/variant"
	"meshnode-go/variants/picolora"
)

func Selected() variant.Variant { return picolora.Variant }

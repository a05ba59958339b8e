//go:build tbeam_1w

package variants

import (
	"meshnode-go/variant"
	"meshnode-go/variants/tbeam1w"
)

func Selected() variant.Variant { return tbeam1w.Variant }

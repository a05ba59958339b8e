// Package hal boots the hardware abstraction layer for a board variant:
// resources are planned from the variant's pin table, devices are built from
// the config/hal message, and capabilities are served on hal/cap/...
package hal

import (
	"context"

	"meshnode-go/bus"
	"meshnode-go/services/hal/internal/core"
	"meshnode-go/services/hal/internal/platform"
	"meshnode-go/services/hal/internal/provider"
	"meshnode-go/types"
	"meshnode-go/variant"
)

// Config is the device list HAL expects on config/hal for v.
func Config(v variant.Variant) types.HALConfig {
	_, cfg := platform.FromVariant(v)
	return cfg
}

// Run plans resources for v and serves HAL on conn until ctx is done.
// The device list arrives separately on config/hal.
func Run(ctx context.Context, conn *bus.Connection, v variant.Variant) error {
	plan, _ := platform.FromVariant(v)
	reg, err := provider.New(plan)
	if err != nil {
		println("[hal] resource registry failed:", err.Error())
		return err
	}
	defer reg.Close()

	core.NewHAL(conn, reg).Run(ctx)
	return nil
}

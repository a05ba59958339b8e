//go:build !(rp2040 || esp32s3) && !(linux && periph)

package provider

// New returns an in-memory registry on hosts without a hardware provider.
func New(plan ResourcePlan) (Registry, error) { return NewHost(plan), nil }

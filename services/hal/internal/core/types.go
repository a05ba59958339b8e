package core

import (
	"context"

	"meshnode-go/errcode"
	"meshnode-go/types"
)

// CapAddr is the public address of a capability: hal/cap/<domain>/<kind>/<name>.
type CapAddr struct {
	Domain string
	Kind   types.Kind
	Name   string
}

// ---- Capability & device model ----

type CapabilitySpec struct {
	Domain string
	Kind   types.Kind
	Name   string
	Info   types.Info
}

// EnqueueResult is the immediate answer to a control. OK means the request
// was accepted; results arrive later as events or values.
type EnqueueResult struct {
	OK    bool
	Error errcode.Code
}

type Device interface {
	ID() string
	Capabilities() []CapabilitySpec
	Init(ctx context.Context) error
	// Control must not block the HAL loop.
	Control(cap CapAddr, verb string, payload any) (EnqueueResult, error)
	Close() error
}

// ---- HAL-injected resources ----

type Resources struct {
	Reg ResourceRegistry
	Pub EventEmitter // provided by HAL
}

// Builder input
type BuilderInput struct {
	ID, Type string
	Params   any
	Res      Resources
}

type Builder interface {
	Build(ctx context.Context, in BuilderInput) (Device, error)
}

// Package config publishes the device configuration as retained messages:
// one config/<key> per top-level key of the embedded JSON document, plus the
// typed HAL device list on config/hal.
package config

import (
	"bytes"
	"context"
	"encoding/json"
	"io"

	"meshnode-go/bus"
	"meshnode-go/errcode"
	"meshnode-go/types"
)

const (
	serviceName  = "config"
	configPrefix = "config"
	keyHAL       = "hal"
)

type ctxKey struct{}

// CtxDeviceKey is the context key carrying the device (variant) name whose
// embedded config is published.
var CtxDeviceKey = ctxKey{}

// WithDevice returns ctx carrying the device name.
func WithDevice(ctx context.Context, device string) context.Context {
	return context.WithValue(ctx, CtxDeviceKey, device)
}

// EmbeddedConfigLookup allows overriding how configs are resolved.
var EmbeddedConfigLookup = func(device string) ([]byte, bool) {
	b, ok := embeddedConfigs[device]
	return b, ok
}

type ConfigService struct {
	Name string
	hal  types.HALConfig
}

// NewConfigService publishes hal on config/hal alongside the embedded keys.
// The embedded document may not carry its own "hal" key.
func NewConfigService(hal types.HALConfig) *ConfigService {
	return &ConfigService{Name: serviceName, hal: hal}
}

func (s *ConfigService) publishConfig(ctx context.Context, conn *bus.Connection) error {
	device, _ := ctx.Value(CtxDeviceKey).(string)
	if device == "" {
		return &errcode.E{C: errcode.InvalidParams, Op: "config", Msg: "missing device name in context"}
	}

	raw, ok := EmbeddedConfigLookup(device)
	if !ok || len(raw) == 0 {
		return &errcode.E{C: errcode.InvalidParams, Op: "config", Msg: "no embedded config for device: " + device}
	}
	m, err := decodeObject(raw)
	if err != nil {
		return &errcode.E{C: errcode.InvalidPayload, Op: "config", Msg: device, Err: err}
	}
	if _, clash := m[keyHAL]; clash {
		return &errcode.E{C: errcode.InvalidPayload, Op: "config", Msg: "embedded config may not set \"hal\""}
	}

	for k, v := range m {
		conn.Publish(conn.NewMessage(bus.T(configPrefix, k), v, true))
	}
	conn.Publish(conn.NewMessage(bus.T(configPrefix, keyHAL), s.hal, true))
	return nil
}

// decodeObject parses a single JSON object. Numbers decode as float64.
func decodeObject(raw []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, err
	}
	if m == nil {
		return nil, errcode.InvalidPayload
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, &errcode.E{C: errcode.InvalidPayload, Msg: "trailing data after object"}
	}
	return m, nil
}

// Start launches the config publisher in a goroutine.
func (s *ConfigService) Start(ctx context.Context, conn *bus.Connection) {
	go func() {
		if err := s.publishConfig(ctx, conn); err != nil {
			println("[config] publish failed:", err.Error())
		}
	}()
}

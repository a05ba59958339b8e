package config

import (
	"context"
	"testing"
	"time"

	"meshnode-go/bus"
	"meshnode-go/errcode"
	"meshnode-go/types"
)

func withLookup(t *testing.T, doc string) {
	t.Helper()
	old := EmbeddedConfigLookup
	EmbeddedConfigLookup = func(device string) ([]byte, bool) {
		if device != "pico_lora" {
			return nil, false
		}
		return []byte(doc), true
	}
	t.Cleanup(func() { EmbeddedConfigLookup = old })
}

func TestConfig_PublishEmbedded_RetainedPerKey(t *testing.T) {
	withLookup(t, `{
		"mode": "dev",
		"debug": true,
		"region": {"code": "eu"}
	}`)
	hal := types.HALConfig{Devices: []types.HALDevice{{ID: "led0", Type: "gpio_led"}}}

	b := bus.NewBus(16)
	conn := b.NewConnection("test-config")
	svc := NewConfigService(hal)
	svc.Start(WithDevice(context.Background(), "pico_lora"), conn)

	// Retained messages replay on subscribe.
	time.Sleep(20 * time.Millisecond)
	sub := conn.Subscribe(bus.T(configPrefix, "#"))

	got := map[string]any{}
	deadline := time.Now().Add(600 * time.Millisecond)
	for len(got) < 4 && time.Now().Before(deadline) {
		select {
		case m := <-sub.Channel():
			key, ok := m.Topic.At(1).(string)
			if !ok || m.Topic.At(0) != configPrefix {
				t.Fatalf("unexpected topic %#v", m.Topic)
			}
			got[key] = m.Payload
		case <-time.After(10 * time.Millisecond):
		}
	}

	if s, _ := got["mode"].(string); s != "dev" {
		t.Errorf("mode = %#v", got["mode"])
	}
	if v, _ := got["debug"].(bool); !v {
		t.Errorf("debug = %#v", got["debug"])
	}
	if m, ok := got["region"].(map[string]any); !ok || m["code"] != "eu" {
		t.Errorf("region = %#v", got["region"])
	}
	if h, ok := got["hal"].(types.HALConfig); !ok || len(h.Devices) != 1 || h.Devices[0].ID != "led0" {
		t.Errorf("hal = %#v", got["hal"])
	}
}

func TestConfig_PublishConfig_Errors(t *testing.T) {
	cases := []struct {
		name string
		doc  string
		dev  string
		want errcode.Code
	}{
		{"missing device", `{}`, "", errcode.InvalidParams},
		{"unknown device", `{}`, "esp32_other", errcode.InvalidParams},
		{"not an object", `[1, 2]`, "pico_lora", errcode.InvalidPayload},
		{"null", `null`, "pico_lora", errcode.InvalidPayload},
		{"trailing data", `{"a": 1} {"b": 2}`, "pico_lora", errcode.InvalidPayload},
		{"stray brace", `{"a": 1}}`, "pico_lora", errcode.InvalidPayload},
		{"stray bracket", `{"a": 1}]`, "pico_lora", errcode.InvalidPayload},
		{"trailing whitespace ok", "{\"a\": 1}\n  ", "pico_lora", errcode.OK},
		{"hal key", `{"hal": {}}`, "pico_lora", errcode.InvalidPayload},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			withLookup(t, tc.doc)
			conn := bus.NewBus(4).NewConnection("test")
			ctx := context.Background()
			if tc.dev != "" {
				ctx = WithDevice(ctx, tc.dev)
			}
			err := NewConfigService(types.HALConfig{}).publishConfig(ctx, conn)
			if errcode.Of(err) != tc.want {
				t.Fatalf("err = %v, want %s", err, tc.want)
			}
		})
	}
}

func TestEmbeddedConfigs_Decode(t *testing.T) {
	for dev, raw := range embeddedConfigs {
		m, err := decodeObject(raw)
		if err != nil {
			t.Fatalf("%s: %v", dev, err)
		}
		hb, ok := m["heartbeat"].(map[string]any)
		if !ok {
			t.Fatalf("%s: no heartbeat section", dev)
		}
		if iv, ok := hb["interval"].(float64); !ok || iv <= 0 {
			t.Fatalf("%s: heartbeat interval = %#v", dev, hb["interval"])
		}
	}
}

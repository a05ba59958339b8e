package core

import (
	"sort"
	"sync"
)

var (
	regMu    sync.RWMutex
	builders = map[string]Builder{}
)

// RegisterBuilder binds a device type name to its builder. Device packages
// call it from init; a duplicate or empty registration is a programming
// error and panics.
func RegisterBuilder(typ string, b Builder) {
	if typ == "" || b == nil {
		panic("device builder needs a type and a builder")
	}
	regMu.Lock()
	defer regMu.Unlock()
	if _, exists := builders[typ]; exists {
		panic("duplicate device builder: " + typ)
	}
	builders[typ] = b
}

// BuilderTypes lists the registered device types, sorted.
func BuilderTypes() []string {
	regMu.RLock()
	defer regMu.RUnlock()
	out := make([]string, 0, len(builders))
	for t := range builders {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

func lookupBuilder(typ string) (Builder, bool) {
	regMu.RLock()
	defer regMu.RUnlock()
	b, ok := builders[typ]
	return b, ok
}

package core

import (
	"sync"

	"meshnode-go/errcode"
)

// PinTable tracks GPIO ownership for a provider. Valid reports whether the
// SoC exposes a pin; pins it reserves must be reported invalid.
type PinTable struct {
	mu     sync.Mutex
	Valid  func(n int) bool
	owners map[int]string
}

// Claim records devID as the owner of pin n.
func (t *PinTable) Claim(devID string, n int) error {
	if n < 0 {
		return errcode.NotConnected
	}
	if t.Valid != nil && !t.Valid(n) {
		return errcode.UnknownPin
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.owners == nil {
		t.owners = map[int]string{}
	}
	if owner, ok := t.owners[n]; ok && owner != devID {
		return errcode.PinInUse
	}
	t.owners[n] = devID
	return nil
}

// Release drops the claim if devID holds it. It reports whether it did.
func (t *PinTable) Release(devID string, n int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if owner, ok := t.owners[n]; ok && owner == devID {
		delete(t.owners, n)
		return true
	}
	return false
}

func (t *PinTable) Owner(n int) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	o, ok := t.owners[n]
	return o, ok
}

// BusState is what a provider knows about a planned bus.
type BusState uint8

const (
	BusAbsent       BusState = iota // not in the plan
	BusReady                        // configured
	BusNotConnected                 // in the plan but a pin is NC
)

// BusTable tracks bus ownership. Shared buses (I2C, SPI with per-device
// chip select) accept any number of claimants; exclusive ones (UART) one.
type BusTable struct {
	mu     sync.Mutex
	state  map[ResourceID]BusState
	shared map[ResourceID]bool
	owners map[ResourceID]map[string]struct{}
}

func (t *BusTable) Add(id ResourceID, st BusState, shared bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state == nil {
		t.state = map[ResourceID]BusState{}
		t.shared = map[ResourceID]bool{}
		t.owners = map[ResourceID]map[string]struct{}{}
	}
	t.state[id] = st
	t.shared[id] = shared
}

func (t *BusTable) Claim(devID string, id ResourceID) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	switch t.state[id] {
	case BusAbsent:
		return errcode.UnknownBus
	case BusNotConnected:
		return errcode.NotConnected
	}
	set := t.owners[id]
	if set == nil {
		set = map[string]struct{}{}
		t.owners[id] = set
	}
	if _, mine := set[devID]; !mine && !t.shared[id] && len(set) > 0 {
		return errcode.BusInUse
	}
	set[devID] = struct{}{}
	return nil
}

func (t *BusTable) Release(devID string, id ResourceID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.owners[id], devID)
}

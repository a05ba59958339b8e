package core_test

import (
	"context"
	"testing"
	"time"

	"meshnode-go/services/hal/internal/core"
	"meshnode-go/types"
)

var battery = core.CapAddr{Domain: "power", Kind: types.KindBattery, Name: "pmu0"}

func TestPoller_FiresRepeatedly(t *testing.T) {
	out := make(chan core.PollReq, 8)
	p := core.NewPoller(out)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.Run(ctx)

	p.Upsert(battery, "read", 20*time.Millisecond, 0)
	for i := 0; i < 3; i++ {
		select {
		case pr := <-out:
			if pr.Addr != battery || pr.Verb != "read" || pr.Every != 20*time.Millisecond {
				t.Fatalf("req = %+v", pr)
			}
		case <-time.After(time.Second):
			t.Fatalf("poll %d never fired", i)
		}
	}
}

func TestPoller_UpsertAndStop(t *testing.T) {
	out := make(chan core.PollReq, 8)
	p := core.NewPoller(out)

	p.Upsert(battery, "read", time.Hour, 0)
	p.Upsert(battery, "read", time.Hour, time.Second)
	p.Upsert(battery, "", time.Second, 0)
	p.Upsert(battery, "read_now", 0, 0)
	if p.Len() != 1 {
		t.Fatalf("len = %d, want 1", p.Len())
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.Run(ctx)

	p.Upsert(battery, "read", 10*time.Millisecond, 0)
	p.Stop(battery, "read")
	if p.Len() != 0 {
		t.Fatalf("len after stop = %d", p.Len())
	}
	// Drain anything that raced the stop, then expect silence.
	time.Sleep(30 * time.Millisecond)
	for len(out) > 0 {
		<-out
	}
	select {
	case pr := <-out:
		t.Fatalf("stopped schedule fired: %+v", pr)
	case <-time.After(60 * time.Millisecond):
	}
}

func TestPoller_FullQueueSkips(t *testing.T) {
	out := make(chan core.PollReq) // nobody reads
	p := core.NewPoller(out)
	ctx, cancel := context.WithCancel(context.Background())
	go p.Run(ctx)
	p.Upsert(battery, "read", 5*time.Millisecond, 0)
	time.Sleep(30 * time.Millisecond)
	cancel()
	if p.Len() != 1 {
		t.Fatal("schedule dropped after skipped beats")
	}
}

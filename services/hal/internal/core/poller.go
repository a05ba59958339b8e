package core

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"meshnode-go/x/timex"
)

// PollReq asks HAL to invoke Verb on a capability.
type PollReq struct {
	Addr  CapAddr
	Verb  string
	Every time.Duration
}

type pollKey struct {
	a    CapAddr
	verb string
}

type schedule struct {
	due    time.Time
	every  time.Duration
	jitter time.Duration
}

// Poller fires PollReqs on per-capability schedules. A board has a handful
// of pollers, so the earliest due entry is found by a linear scan.
type Poller struct {
	mu    sync.Mutex
	wake  chan struct{}
	sched map[pollKey]*schedule
	rand  *rand.Rand
	out   chan<- PollReq
}

func NewPoller(out chan<- PollReq) *Poller {
	return &Poller{
		wake:  make(chan struct{}, 1),
		sched: map[pollKey]*schedule{},
		rand:  rand.New(rand.NewSource(time.Now().UnixNano())),
		out:   out,
	}
}

// Len reports the number of armed schedules.
func (p *Poller) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.sched)
}

// Upsert adds or replaces a schedule. Each fire, the first included, comes
// interval plus a random [0, jitter] after the previous one.
func (p *Poller) Upsert(a CapAddr, verb string, interval, jitter time.Duration) {
	if interval <= 0 || verb == "" {
		return
	}
	s := &schedule{every: interval, jitter: max(jitter, 0)}
	p.mu.Lock()
	s.due = time.Now().Add(p.period(s))
	p.sched[pollKey{a: a, verb: verb}] = s
	p.mu.Unlock()
	p.wakeup()
}

func (p *Poller) Stop(a CapAddr, verb string) {
	p.mu.Lock()
	delete(p.sched, pollKey{a: a, verb: verb})
	p.mu.Unlock()
	p.wakeup()
}

func (p *Poller) Run(ctx context.Context) {
	timer := time.NewTimer(time.Hour)
	defer timer.Stop()

	for {
		for _, req := range p.collectDue() {
			// A full queue skips this beat; the schedule is already re-armed.
			select {
			case p.out <- req:
			default:
			}
		}

		var tc <-chan time.Time
		if wait, ok := p.nextWait(); ok {
			timex.Rearm(timer, wait)
			tc = timer.C
		}
		select {
		case <-ctx.Done():
			return
		case <-p.wake:
		case <-tc:
		}
	}
}

// collectDue re-arms and returns every schedule whose time has come.
func (p *Poller) collectDue() []PollReq {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := time.Now()
	var due []PollReq
	for k, s := range p.sched {
		if s.due.After(now) {
			continue
		}
		s.due = now.Add(p.period(s))
		due = append(due, PollReq{Addr: k.a, Verb: k.verb, Every: s.every})
	}
	return due
}

func (p *Poller) nextWait() (time.Duration, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	var next time.Time
	for _, s := range p.sched {
		if next.IsZero() || s.due.Before(next) {
			next = s.due
		}
	}
	if next.IsZero() {
		return 0, false
	}
	return time.Until(next), true
}

func (p *Poller) wakeup() {
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// period is called with p.mu held.
func (p *Poller) period(s *schedule) time.Duration {
	if s.jitter == 0 {
		return s.every
	}
	return s.every + time.Duration(p.rand.Int63n(int64(s.jitter)+1))
}

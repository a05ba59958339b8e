// Package heartbeat blinks the status LED and refreshes the status screen
// on a fixed tick, so a board that is alive is visibly alive.
package heartbeat

import (
	"context"
	"math"
	"time"

	"meshnode-go/bus"
	"meshnode-go/types"
	"meshnode-go/x/conv"
)

var (
	topicConfigHeartbeat = bus.T("config", "heartbeat")
	topicConfigStatus    = bus.T("config", "status")

	topicLEDToggle   = bus.T("hal", "cap", "io", string(types.KindLED), "status", "control", "toggle")
	topicDisplayShow = bus.T("hal", "cap", "ui", string(types.KindDisplay), "main", "control", "show_lines")
)

const defaultInterval = time.Second

// Intervals at or above this many seconds overflow a Duration.
const maxIntervalSec = float64(math.MaxInt64 / int64(time.Second))

type Service struct {
	title string
	beats int
}

func (s *Service) serviceLoop(ctx context.Context, conn *bus.Connection) {
	cfgSub := conn.Subscribe(topicConfigHeartbeat)
	statusSub := conn.Subscribe(topicConfigStatus)
	defer conn.Unsubscribe(cfgSub)
	defer conn.Unsubscribe(statusSub)

	start := time.Now()
	tick := time.NewTicker(defaultInterval)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			println("[heartbeat] stopping")
			return
		case now := <-tick.C:
			s.beat(conn, now.Sub(start))
		case msg := <-cfgSub.Channel():
			if d, ok := interval(msg.Payload); ok {
				tick.Reset(d)
				println("[heartbeat] interval set to", d.String())
			}
		case msg := <-statusSub.Channel():
			if m, ok := msg.Payload.(map[string]any); ok {
				if t, ok := m["title"].(string); ok {
					s.title = t
				}
			}
		}
	}
}

// interval reads {"interval": <seconds>} as decoded from JSON.
func interval(payload any) (time.Duration, bool) {
	m, ok := payload.(map[string]any)
	if !ok {
		return 0, false
	}
	sec, ok := m["interval"].(float64)
	if !ok || !(sec > 0) {
		return 0, false
	}
	if sec >= maxIntervalSec {
		return time.Duration(math.MaxInt64), true
	}
	d := time.Duration(sec * float64(time.Second))
	if d <= 0 {
		return 0, false
	}
	return d, true
}

func (s *Service) beat(conn *bus.Connection, up time.Duration) {
	s.beats++
	conn.Publish(conn.NewMessage(topicLEDToggle, nil, false))
	if s.title != "" {
		var nb [20]byte
		conn.Publish(conn.NewMessage(topicDisplayShow, types.DisplayLines{Lines: []string{
			s.title,
			"up " + string(conv.Itoa(nb[:], int64(up/time.Second))) + "s",
		}}, false))
	}
}

// Start the heartbeat service.
func (s *Service) Start(ctx context.Context, conn *bus.Connection) error {
	go s.serviceLoop(ctx, conn)
	return nil
}

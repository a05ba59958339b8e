// Package timex stamps bus events and re-arms timers.
package timex

import "time"

// Now is the clock behind event stamps. Tests may swap it.
var Now = time.Now

// NowMs returns Now as Unix milliseconds.
func NowMs() int64 { return Now().UnixMilli() }

// Rearm stops t, discards a pending fire and resets it to d. Negative d
// fires at once.
func Rearm(t *time.Timer, d time.Duration) {
	Disarm(t)
	t.Reset(max(d, 0))
}

// Disarm stops t and discards a pending fire.
func Disarm(t *time.Timer) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
}

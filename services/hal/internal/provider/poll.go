package provider

import (
	"context"
	"time"

	"meshnode-go/x/timex"
)

// pollRecv calls read until it returns data or an error, waiting every
// between empty reads. It returns ctx.Err() once ctx is done.
func pollRecv(ctx context.Context, buf []byte, read func([]byte) (int, error), every time.Duration) (int, error) {
	var t *time.Timer
	for {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		n, err := read(buf)
		if n > 0 || err != nil {
			return n, err
		}
		if t == nil {
			t = time.NewTimer(every)
			defer t.Stop()
		} else {
			timex.Rearm(t, every)
		}
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-t.C:
		}
	}
}

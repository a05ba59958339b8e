package sh1106dev

import (
	"context"
	"image/color"
	"sync/atomic"
	"unicode/utf8"

	"meshnode-go/errcode"
	"meshnode-go/services/hal/internal/core"
	"meshnode-go/types"
	"meshnode-go/x/mathx"

	"tinygo.org/x/tinyfont"
	"tinygo.org/x/tinyfont/proggy"
)

var white = color.RGBA{R: 255, G: 255, B: 255, A: 255}

// Device is a character-cell status screen. Frames are drawn and flushed by
// one worker so controls never wait on the bus.
type Device struct {
	id      string
	a       core.CapAddr
	pub     core.EventEmitter
	cv      Canvas
	params  Params
	release func()

	frames chan []string
	shown  atomic.Value // []string
	alive  atomic.Bool
	cancel context.CancelFunc
	done   chan struct{}
}

func (d *Device) ID() string { return d.id }

func (d *Device) Capabilities() []core.CapabilitySpec {
	w, h := d.cv.Size()
	return []core.CapabilitySpec{{
		Domain: d.a.Domain,
		Kind:   types.KindDisplay,
		Name:   d.a.Name,
		Info: types.Info{SchemaVersion: 1, Driver: "sh1106", Detail: types.DisplayInfo{
			Controller: "sh1106", Bus: d.params.Bus, Addr: d.params.Addr, Width: w, Height: h,
		}},
	}}
}

func (d *Device) Init(ctx context.Context) error {
	d.frames = make(chan []string, 2)
	d.done = make(chan struct{})
	wctx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel
	d.alive.Store(true)
	go d.worker(wctx)

	if d.params.Title != "" {
		d.enqueue([]string{d.params.Title})
	}
	return nil
}

func (d *Device) Close() error {
	if d.alive.Swap(false) {
		d.cancel()
		<-d.done
	}
	d.cv.ClearBuffer()
	_ = d.cv.Display()
	d.release()
	return nil
}

func (d *Device) Control(_ core.CapAddr, verb string, payload any) (core.EnqueueResult, error) {
	switch verb {
	case "show_lines":
		req, code := core.As[types.DisplayLines](payload)
		if code != "" {
			return core.EnqueueResult{Error: code}, nil
		}
		return d.enqueue(req.Lines), nil
	case "clear":
		return d.enqueue(nil), nil
	case "read":
		lines, _ := d.shown.Load().([]string)
		d.pub.Emit(core.Event{Addr: d.a, Payload: types.DisplayLines{Lines: lines}})
		return core.EnqueueResult{OK: true}, nil
	default:
		return core.EnqueueResult{Error: errcode.Unsupported}, nil
	}
}

func (d *Device) enqueue(lines []string) core.EnqueueResult {
	if !d.alive.Load() {
		return core.EnqueueResult{Error: errcode.HALNotReady}
	}
	select {
	case d.frames <- append([]string(nil), lines...):
		return core.EnqueueResult{OK: true}
	default:
		return core.EnqueueResult{Error: errcode.Busy}
	}
}

func (d *Device) worker(ctx context.Context) {
	defer close(d.done)
	for {
		select {
		case <-ctx.Done():
			return
		case lines := <-d.frames:
			shown := d.draw(lines)
			if err := d.cv.Display(); err != nil {
				d.pub.Emit(core.Event{Addr: d.a, Err: string(errcode.Of(err))})
				continue
			}
			d.shown.Store(shown)
			d.pub.Emit(core.Event{Addr: d.a, Payload: types.DisplayLines{Lines: shown}})
		}
	}
}

// face is the status font: ProggyTiny, 6 px wide, so a 128 px panel fits
// 21 columns.
var face = &proggy.TinySZ8pt7b

// draw renders lines into the frame buffer and returns them as shown:
// clipped to the rows and columns that fit.
func (d *Device) draw(lines []string) []string {
	d.cv.ClearBuffer()
	w, h := d.cv.Size()
	lh := int16(face.YAdvance)
	lines = mathx.Prefix(lines, int(h/lh))
	shown := make([]string, len(lines))
	for r, s := range lines {
		s = fit(s, uint32(w))
		shown[r] = s
		tinyfont.WriteLine(d.cv, face, 0, lh*int16(r+1)-lh/4, s, white)
	}
	return shown
}

// fit drops trailing runes until s renders within w pixels.
func fit(s string, w uint32) string {
	for s != "" {
		if _, outbox := tinyfont.LineWidth(face, s); outbox <= w {
			break
		}
		_, n := utf8.DecodeLastRuneInString(s)
		s = s[:len(s)-n]
	}
	return s
}

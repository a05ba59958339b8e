package l76kdev

import (
	"context"
	"sync"
	"time"

	"meshnode-go/drivers/l76k"
	"meshnode-go/errcode"
	"meshnode-go/services/hal/internal/core"
	"meshnode-go/types"
	"meshnode-go/x/timex"

	"tinygo.org/x/drivers/gps"
)

// Device reads NMEA from the receiver on one goroutine and publishes each
// parsed fix as the capability value. Controls write PCAS commands.
type Device struct {
	id   string
	a    core.CapAddr
	res  core.Resources
	port core.SerialPort
	cfgB core.SerialConfigurator

	params Params

	wmu sync.Mutex // serialises writes from controls and Init

	mu      sync.Mutex
	last    types.GNSSFix
	haveFix bool
	bad     uint32 // sentences failing checksum or parse

	cancel context.CancelFunc
	done   chan struct{}
}

func (d *Device) ID() string { return d.id }

func (d *Device) Capabilities() []core.CapabilitySpec {
	return []core.CapabilitySpec{{
		Domain: d.a.Domain,
		Kind:   types.KindGNSS,
		Name:   d.a.Name,
		Info: types.Info{SchemaVersion: 1, Driver: "l76k", Detail: types.GNSSInfo{
			Module: "l76k", Bus: d.params.Bus, Baud: d.params.Baud,
		}},
	}}
}

func (d *Device) Init(ctx context.Context) error {
	if d.cfgB != nil {
		_ = d.cfgB.SetBaudRate(d.params.Baud)
	}
	cmds := []string{
		l76k.SetOutput(l76k.DefaultOutput),
		l76k.SetConstellation(l76k.Constellation(d.params.Constellation)),
	}
	if d.params.FixIntervalMs != 0 {
		s, _ := l76k.SetFixInterval(d.params.FixIntervalMs)
		cmds = append(cmds, s)
	}
	for _, c := range cmds {
		if err := d.write(c); err != nil {
			return errcode.Wrap("l76k.configure", err)
		}
	}

	// No fix yet.
	d.res.Pub.Emit(core.Event{Addr: d.a, Err: "no_fix"})

	rctx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel
	d.done = make(chan struct{})
	go d.reader(rctx)
	return nil
}

func (d *Device) Close() error {
	if d.cancel != nil {
		d.cancel()
		<-d.done
		d.cancel = nil
	}
	d.res.Reg.ReleaseSerial(d.id, core.ResourceID(d.params.Bus))
	return nil
}

func (d *Device) Control(_ core.CapAddr, verb string, payload any) (core.EnqueueResult, error) {
	switch verb {
	case "read":
		d.mu.Lock()
		fix, ok := d.last, d.haveFix
		d.mu.Unlock()
		if !ok {
			return core.EnqueueResult{Error: errcode.Busy}, nil
		}
		d.res.Pub.Emit(core.Event{Addr: d.a, Payload: fix})
		return core.EnqueueResult{OK: true}, nil

	case "set_rate":
		req, code := core.As[types.GNSSSetRate](payload)
		if code != "" {
			return core.EnqueueResult{Error: code}, nil
		}
		s, err := l76k.SetFixInterval(req.IntervalMs)
		if err != nil {
			return core.EnqueueResult{Error: errcode.InvalidPayload}, nil
		}
		return d.send(s), nil

	case "cold_start":
		d.mu.Lock()
		d.haveFix = false
		d.mu.Unlock()
		return d.send(l76k.Restart(l76k.ColdStart)), nil

	default:
		return core.EnqueueResult{Error: errcode.Unsupported}, nil
	}
}

func (d *Device) send(s string) core.EnqueueResult {
	if err := d.write(s); err != nil {
		return core.EnqueueResult{Error: errcode.Of(err)}
	}
	return core.EnqueueResult{OK: true}
}

func (d *Device) write(s string) error {
	d.wmu.Lock()
	defer d.wmu.Unlock()
	_, err := d.port.Write([]byte(s))
	return err
}

// ---- Reader (single goroutine) ----

const (
	readRetryMin = 10 * time.Millisecond
	readRetryMax = time.Second
)

func (d *Device) reader(ctx context.Context) {
	defer close(d.done)

	var lr l76k.LineReader
	parser := gps.NewParser()
	buf := make([]byte, 64)
	var retry *time.Timer
	var backoff time.Duration
	for {
		n, err := d.port.RecvSomeContext(ctx, buf)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			// Report once per run of failures, then back off.
			if backoff == 0 {
				d.res.Pub.Emit(core.Event{Addr: d.a, Err: string(errcode.Of(err))})
				backoff = readRetryMin
			} else {
				backoff = min(2*backoff, readRetryMax)
			}
			if retry == nil {
				retry = time.NewTimer(backoff)
				defer retry.Stop()
			} else {
				timex.Rearm(retry, backoff)
			}
			select {
			case <-ctx.Done():
				return
			case <-retry.C:
			}
			continue
		}
		backoff = 0
		lr.Feed(buf[:n], func(line []byte) { d.handleLine(&parser, string(line)) })
	}
}

func (d *Device) handleLine(p *gps.Parser, s string) {
	if err := l76k.Verify(s); err != nil {
		d.countBad()
		return
	}
	typ, s, ok := l76k.Positional(s)
	if !ok {
		return
	}
	f, err := p.Parse(s)
	if err != nil {
		d.countBad()
		return
	}
	fix := toFix(f, typ)

	d.mu.Lock()
	d.last, d.haveFix = fix, true
	d.mu.Unlock()
	d.res.Pub.Emit(core.Event{Addr: d.a, Payload: fix, TSms: timex.NowMs()})
}

func (d *Device) countBad() {
	d.mu.Lock()
	d.bad++
	d.mu.Unlock()
}

func toFix(f gps.Fix, typ string) types.GNSSFix {
	out := types.GNSSFix{
		Valid:      f.Valid,
		LatE7:      int32(float64(f.Latitude) * 1e7),
		LonE7:      int32(float64(f.Longitude) * 1e7),
		AltM:       f.Altitude,
		Satellites: f.Satellites,
		Sentence:   typ,
	}
	// GGA and GLL carry time of day only.
	if f.Time.Year() > 2000 {
		out.UnixS = f.Time.Unix()
	}
	if !f.Valid {
		out.LatE7, out.LonE7 = 0, 0
	}
	return out
}

// BadSentences counts lines dropped for checksum or parse errors.
func (d *Device) BadSentences() uint32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.bad
}

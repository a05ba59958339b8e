package variant

import (
	"sync"
	"sync/atomic"

	"meshnode-go/errcode"
)

// Runner invokes a variant's init hook at most once.
type Runner struct {
	once sync.Once
	ran  atomic.Bool
	err  error
}

// Run calls v.Init the first time it is called and returns the same result on
// every later call. A panic inside the hook is recovered and reported as an
// error so bring-up can continue and log it.
func (r *Runner) Run(v Variant) error {
	r.once.Do(func() {
		r.ran.Store(true)
		r.err = callHook(v)
	})
	return r.err
}

// Ran reports whether the hook has been invoked.
func (r *Runner) Ran() bool { return r.ran.Load() }

func callHook(v Variant) (err error) {
	if v.Init == nil {
		return nil
	}
	defer func() {
		if p := recover(); p != nil {
			println("[variant]", v.Name, "init hook panicked")
			msg := "panic"
			if s, ok := p.(string); ok {
				msg = s
			} else if e, ok := p.(error); ok {
				msg = e.Error()
			}
			err = &errcode.E{C: errcode.Error, Op: "variant.init", Msg: msg}
		}
	}()
	v.Init()
	return nil
}

var boot Runner

// RunInit is the process-wide bring-up call made by firmware mains.
func RunInit(v Variant) error { return boot.Run(v) }

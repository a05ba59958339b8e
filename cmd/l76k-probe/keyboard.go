package main

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/pkg/term"

	"meshnode-go/drivers/l76k"
)

const inputSigInt = byte(3) // ctrl+c

type keyboardMonitor struct {
	t     *term.Term
	isRaw bool
	mu    sync.Mutex
}

func (km *keyboardMonitor) Open() error {
	km.mu.Lock()
	defer km.mu.Unlock()
	if km.t == nil {
		t, err := term.Open("/dev/tty")
		if err != nil {
			return err
		}
		km.t = t
	}
	if err := km.t.SetRaw(); err != nil {
		return err
	}
	km.isRaw = true
	return nil
}

func (km *keyboardMonitor) Close() error {
	km.mu.Lock()
	defer km.mu.Unlock()
	if km.t != nil && km.isRaw {
		if err := km.t.Restore(); err != nil {
			return err
		}
		km.isRaw = false
	}
	return nil
}

func (km *keyboardMonitor) Get() (byte, error) {
	km.mu.Lock()
	t, isRaw := km.t, km.isRaw
	km.mu.Unlock()
	if t == nil || !isRaw {
		return 0, io.EOF
	}
	buf := make([]byte, 1)
	if _, err := t.Read(buf); err != nil {
		return 0, err
	}
	return buf[0], nil
}

// Write restores cooked mode around each write so newlines render.
func (km *keyboardMonitor) Write(p []byte) (int, error) {
	km.mu.Lock()
	defer km.mu.Unlock()
	if km.t != nil && km.isRaw {
		_ = km.t.Restore()
		defer km.t.SetRaw()
	}
	return os.Stdout.Write(p)
}

func (km *keyboardMonitor) run(port io.Writer, out io.Writer, quit chan<- struct{}) {
	defer close(quit)
	for {
		k, err := km.Get()
		if err != nil {
			return
		}
		cmd, stop := keyCommand(k)
		switch {
		case stop:
			return
		case k == 'h':
			printHelp(out)
		case cmd != "":
			if _, err := io.WriteString(port, cmd); err != nil {
				fmt.Fprintf(out, "write: %v\n", err)
			}
		}
	}
}

// keyCommand maps a key to the sentence it sends, or to quitting.
func keyCommand(k byte) (cmd string, stop bool) {
	switch k {
	case 'q', inputSigInt:
		return "", true
	case 'o':
		return l76k.Restart(l76k.HotStart), false
	case 'w':
		return l76k.Restart(l76k.WarmStart), false
	case 'c':
		return l76k.Restart(l76k.ColdStart), false
	case '1':
		s, _ := l76k.SetFixInterval(1000)
		return s, false
	case '5':
		s, _ := l76k.SetFixInterval(200)
		return s, false
	}
	return "", false
}

func printHelp(w io.Writer) {
	help := `
Available commands:
h	Print this help
o	Hot start
w	Warm start
c	Cold start
1	1 Hz fixes
5	5 Hz fixes
q	Quit

`
	fmt.Fprint(w, help)
}

// Command l76k-probe configures an L76K receiver over a USB serial adapter
// and prints the fixes it reports. Useful for checking a module before it is
// wired to a board.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/tarm/serial"

	"meshnode-go/drivers/l76k"

	"tinygo.org/x/drivers/gps"
)

var (
	portName      = flag.String("p", "", "Serial port")
	baudRate      = flag.Int("b", l76k.DefaultBaud, "Baud rate")
	rateMs        = flag.Uint("rate", 0, "Fix interval in ms, 100..1000. 0 keeps the receiver default")
	constellation = flag.Uint("c", uint(l76k.GPS|l76k.BeiDou), "Constellation mask: 1 GPS, 2 BeiDou, 4 GLONASS")
	rawOutput     = flag.Bool("raw", false, "Echo every sentence")
	interactive   = flag.Bool("i", false, "Read single-key commands from the terminal")
)

func main() {
	flag.Parse()

	if *portName == "" {
		fmt.Fprintf(os.Stderr, "Missing port\n")
		os.Exit(2)
	}

	port, err := serial.OpenPort(&serial.Config{
		Name:        *portName,
		Baud:        *baudRate,
		ReadTimeout: 500 * time.Millisecond,
	})
	if err != nil {
		log.Fatal(err)
	}
	defer port.Close()

	cmds, err := setupCommands(uint16(*rateMs), l76k.Constellation(*constellation))
	if err != nil {
		log.Fatal(err)
	}
	for _, c := range cmds {
		if _, err := io.WriteString(port, c); err != nil {
			log.Fatal(err)
		}
	}

	var out io.Writer = os.Stdout
	quit := make(chan struct{})
	if *interactive {
		km := &keyboardMonitor{}
		if err := km.Open(); err != nil {
			log.Fatal(err)
		}
		defer km.Close()
		out = km
		go km.run(port, out, quit)
		printHelp(out)
	}

	fmt.Fprintf(out, "Listening on %s @ %dbps\n", *portName, *baudRate)
	var p probe
	p.parser = gps.NewParser()
	p.raw = *rawOutput
	if err := p.loop(port, out, quit); err != nil {
		log.Fatal(err)
	}
}

// setupCommands returns the PCAS sentences written before listening.
func setupCommands(rate uint16, c l76k.Constellation) ([]string, error) {
	cmds := []string{
		l76k.SetOutput(l76k.DefaultOutput),
		l76k.SetConstellation(c),
	}
	if rate != 0 {
		s, err := l76k.SetFixInterval(rate)
		if err != nil {
			return nil, err
		}
		cmds = append(cmds, s)
	}
	return cmds, nil
}

type probe struct {
	lr     l76k.LineReader
	parser gps.Parser
	raw    bool
	bad    int
}

// loop reads until quit is closed. The port is opened with a read timeout,
// and tarm/serial reports an idle timeout as (0, io.EOF), so EOF means "no
// data yet" rather than the end of the stream.
func (p *probe) loop(r io.Reader, out io.Writer, quit <-chan struct{}) error {
	buf := make([]byte, 128)
	for {
		select {
		case <-quit:
			return nil
		default:
		}
		n, err := r.Read(buf)
		if n > 0 {
			p.lr.Feed(buf[:n], func(line []byte) { p.handle(out, string(line)) })
		}
		if err != nil && err != io.EOF {
			return err
		}
	}
}

func (p *probe) handle(out io.Writer, s string) {
	if p.raw {
		fmt.Fprintln(out, s)
	}
	if err := l76k.Verify(s); err != nil {
		p.bad++
		fmt.Fprintf(out, "drop %q: %v (%d dropped)\n", s, err, p.bad)
		return
	}
	typ, s, ok := l76k.Positional(s)
	if !ok {
		return
	}
	f, err := p.parser.Parse(s)
	if err != nil {
		p.bad++
		fmt.Fprintf(out, "drop %s: %v (%d dropped)\n", typ, err, p.bad)
		return
	}
	fmt.Fprintln(out, formatFix(typ, f))
}

func formatFix(typ string, f gps.Fix) string {
	if !f.Valid {
		return fmt.Sprintf("%s no fix, %d satellites", typ, f.Satellites)
	}
	return fmt.Sprintf("%s %.6f,%.6f alt=%dm sats=%d %s",
		typ, f.Latitude, f.Longitude, f.Altitude, f.Satellites, f.Time.Format("15:04:05"))
}

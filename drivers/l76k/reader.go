package l76k

import "strings"

// MaxSentence bounds a line; NMEA allows 82 bytes, the L76K stays within it.
const MaxSentence = 96

// LineReader reassembles sentences from arbitrary UART chunks.
// Not safe for concurrent use.
type LineReader struct {
	buf  [MaxSentence]byte
	n    int
	skip bool // discarding an overlong line
}

// Feed consumes p and calls emit for each complete line starting with '$'.
// The line passed to emit is only valid during the call.
func (r *LineReader) Feed(p []byte, emit func(line []byte)) {
	for _, c := range p {
		switch c {
		case '$':
			r.n = 0
			r.skip = false
			r.buf[r.n] = c
			r.n++
		case '\r':
		case '\n':
			if !r.skip && r.n > 0 {
				emit(r.buf[:r.n])
			}
			r.n = 0
			r.skip = false
		default:
			if r.skip || r.n == 0 {
				continue
			}
			if r.n == len(r.buf) {
				r.skip = true
				r.n = 0
				continue
			}
			r.buf[r.n] = c
			r.n++
		}
	}
}

// Positional reports the sentence type of a verified GGA, GLL or RMC line and
// returns it in the shape a 13-field NMEA parser accepts. Other sentences
// report ok=false.
func Positional(s string) (typ, out string, ok bool) {
	if len(s) < 6 {
		return "", s, false
	}
	typ = s[3:6]
	switch typ {
	case "GGA", "GLL":
		return typ, s, true
	case "RMC":
		return typ, trimRMC(s), true
	}
	return typ, s, false
}

// trimRMC drops the NMEA 4.1 navigational-status field the receiver appends.
func trimRMC(s string) string {
	if strings.Count(s, ",") != 13 {
		return s
	}
	i := strings.LastIndexByte(s, ',')
	j := strings.LastIndexByte(s, '*')
	if i < 0 || j < i {
		return s
	}
	return s[:i] + s[j:]
}

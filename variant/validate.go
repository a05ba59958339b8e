package variant

import (
	"meshnode-go/variant/boards"
)

// Severity of a validation finding.
type Severity uint8

const (
	SevWarning Severity = iota
	SevError
)

func (s Severity) String() string {
	if s == SevError {
		return "error"
	}
	return "warning"
}

// IssueCode is a short, stable identifier for a finding.
type IssueCode string

const (
	IssueUnconfigured IssueCode = "unconfigured"
	IssueNoSuchPin    IssueCode = "no_such_pin"
	IssueReserved     IssueCode = "reserved"
	IssueConflict     IssueCode = "conflict"
	IssueStrapping    IssueCode = "strapping"
	IssueUSB          IssueCode = "usb"
	IssueConsole      IssueCode = "console"
	IssueFeature      IssueCode = "feature"
	IssueBaud         IssueCode = "baud"
	IssueUnknownSoC   IssueCode = "unknown_soc"
)

type Issue struct {
	Code     IssueCode
	Severity Severity
	Role     Role
	Pin      Pin
	With     Role // other role, for conflicts
	Msg      string
}

func (i Issue) String() string {
	s := i.Severity.String() + " " + string(i.Code)
	if i.Role != "" {
		s += " " + string(i.Role)
	}
	if i.Pin != NC || i.Code == IssueUnconfigured {
		s += " " + i.Pin.String()
	}
	if i.With != "" {
		s += " (with " + string(i.With) + ")"
	}
	if i.Msg != "" {
		s += ": " + i.Msg
	}
	return s
}

// Report is the outcome of Validate.
type Report struct {
	Variant string
	SoC     string
	Issues  []Issue
}

// OK is true when there are no errors; warnings are allowed.
func (r Report) OK() bool { return len(r.Errors()) == 0 }

func (r Report) Errors() []Issue   { return r.filter(SevError) }
func (r Report) Warnings() []Issue { return r.filter(SevWarning) }

func (r Report) filter(s Severity) []Issue {
	var out []Issue
	for _, i := range r.Issues {
		if i.Severity == s {
			out = append(out, i)
		}
	}
	return out
}

// Unconfigured lists the required roles still at NC.
func (r Report) Unconfigured() []Role {
	var out []Role
	for _, i := range r.Issues {
		if i.Code == IssueUnconfigured {
			out = append(out, i.Role)
		}
	}
	return out
}

// Has reports whether any finding carries code c.
func (r Report) Has(c IssueCode) bool {
	for _, i := range r.Issues {
		if i.Code == c {
			return true
		}
	}
	return false
}

// Validate checks a variant against the SoC it names.
//
// Every required role must be assigned a pin the SoC exposes and does not
// reserve, and no two roles may share a pin unless they are listed together
// in v.Shared. Enabled features must have their bus pins assigned.
func Validate(v Variant) Report {
	rep := Report{Variant: v.Name, SoC: v.SoC}
	b, ok := boards.ByName(v.SoC)
	if !ok {
		rep.add(Issue{Code: IssueUnknownSoC, Severity: SevError, Pin: NC, Msg: "unknown SoC " + v.SoC})
		return rep
	}
	return validateOn(v, b, rep)
}

// ValidateOn is Validate against an explicit board descriptor.
func ValidateOn(v Variant, b boards.Board) Report {
	return validateOn(v, b, Report{Variant: v.Name, SoC: b.Name})
}

func validateOn(v Variant, b boards.Board, rep Report) Report {
	owner := map[Pin]Role{}

	for _, a := range v.Pins() {
		if !a.Pin.Connected() {
			if !a.Optional {
				rep.add(Issue{Code: IssueUnconfigured, Severity: SevError, Role: a.Role, Pin: NC})
			}
			continue
		}
		n := int(a.Pin)
		if !b.Has(n) {
			rep.add(Issue{Code: IssueNoSuchPin, Severity: SevError, Role: a.Role, Pin: a.Pin, Msg: "not a " + b.Name + " GPIO"})
			continue
		}
		if b.IsReserved(n) {
			rep.add(Issue{Code: IssueReserved, Severity: SevError, Role: a.Role, Pin: a.Pin})
			continue
		}
		if b.IsStrapping(n) {
			rep.add(Issue{Code: IssueStrapping, Severity: SevWarning, Role: a.Role, Pin: a.Pin})
		}
		if b.IsUSB(n) {
			rep.add(Issue{Code: IssueUSB, Severity: SevWarning, Role: a.Role, Pin: a.Pin})
		}
		if b.IsConsole(n) {
			rep.add(Issue{Code: IssueConsole, Severity: SevWarning, Role: a.Role, Pin: a.Pin})
		}
		if prev, taken := owner[a.Pin]; taken {
			if !v.mayShare(prev, a.Role) {
				rep.add(Issue{Code: IssueConflict, Severity: SevError, Role: a.Role, Pin: a.Pin, With: prev})
			}
			continue
		}
		owner[a.Pin] = a.Role
	}

	if v.GNSS.Baud == 0 {
		rep.add(Issue{Code: IssueBaud, Severity: SevError, Role: RoleGNSSRX, Pin: NC, Msg: "GNSS baud must be set"})
	}

	needI2C := func(feature string) {
		if !v.I2C.SDA.Connected() || !v.I2C.SCL.Connected() {
			rep.add(Issue{Code: IssueFeature, Severity: SevError, Pin: NC, Msg: feature + " enabled without I2C pins"})
		}
	}
	if v.Display != DisplayNone {
		needI2C(v.Display.String())
	}
	if v.PMU != PMUNone {
		needI2C(v.PMU.String())
	}
	return rep
}

func (r *Report) add(i Issue) { r.Issues = append(r.Issues, i) }

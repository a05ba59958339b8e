package core

import "meshnode-go/bus"

// Opaque-topic helpers

func T(tokens ...bus.Token) bus.Topic { return bus.T(tokens...) }

func TopicConfigHAL() bus.Topic { return T("config", "hal") }
func TopicHALState() bus.Topic  { return T("hal", "state") }

// hal/cap/<domain>/<kind>/<name>/...
func capBase(a CapAddr) bus.Topic { return T("hal", "cap", a.Domain, string(a.Kind), a.Name) }

func CapInfo(a CapAddr) bus.Topic   { return capBase(a).Append("info") }
func CapStatus(a CapAddr) bus.Topic { return capBase(a).Append("status") }
func CapValue(a CapAddr) bus.Topic  { return capBase(a).Append("value") }
func CapEvent(a CapAddr) bus.Topic  { return capBase(a).Append("event") }
func CapEventTagged(a CapAddr, tag string) bus.Topic {
	return CapEvent(a).Append(tag)
}

// hal/cap/<domain>/<kind>/<name>/control/<verb>
func CapCtrl(a CapAddr, verb string) bus.Topic {
	return capBase(a).Append("control", verb)
}

// hal/dev/<id>/status carries build failures, before any capability exists.
func DevStatus(id string) bus.Topic { return T("hal", "dev", id, "status") }

// hal/cap/+/+/+/control/+
func ctrlWildcard() bus.Topic {
	return T("hal", "cap", "+", "+", "+", "control", "+")
}

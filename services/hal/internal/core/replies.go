package core

import (
	"meshnode-go/bus"
	"meshnode-go/errcode"
	"meshnode-go/types"
)

// reply answers a control request. An empty code or OK is success; requests
// published without a reply topic get nothing.
func (h *HAL) reply(m *bus.Message, code errcode.Code) {
	if !m.CanReply() {
		return
	}
	var payload any = types.OKReply{OK: true}
	if code != "" && code != errcode.OK {
		payload = types.ErrorReply{Error: string(code)}
	}
	h.conn.Reply(m, payload, false)
}

package core

import (
	"encoding/json"

	"meshnode-go/errcode"
)

// As converts a control payload to T. It accepts T itself, a non-nil *T, and
// a map[string]any or raw JSON as decoded off a text transport. A nil payload
// is the zero value of T.
func As[T any](v any) (T, errcode.Code) {
	var out T
	switch x := v.(type) {
	case nil:
		return out, ""
	case T:
		return x, ""
	case *T:
		if x == nil {
			return out, errcode.InvalidPayload
		}
		return *x, ""
	case map[string]any:
		b, err := json.Marshal(x)
		if err != nil || json.Unmarshal(b, &out) != nil {
			return out, errcode.InvalidPayload
		}
		return out, ""
	case []byte:
		if json.Unmarshal(x, &out) != nil {
			return out, errcode.InvalidPayload
		}
		return out, ""
	}
	return out, errcode.InvalidPayload
}

package middleware

import (
	"encoding/json"
	"fmt"
)

// maxStateAttr bounds the length of the recorded state attribute.
const maxStateAttr = 256

// formatState renders navigation state for a span attribute.
func formatState(state any) string {
	var s string
	if data, err := json.Marshal(state); err == nil {
		s = string(data)
	} else {
		s = fmt.Sprintf("%v", state)
	}
	if len(s) > maxStateAttr {
		s = s[:maxStateAttr] + "…"
	}
	return s
}

package utils

import (
	"encoding/json"
	"fmt"
)

// JSONString renders v for a tool result or a log line. Strings are returned
// as is, anything else as compact JSON; a marshal failure yields a JSON error
// object instead of an error.
func JSONString(v any) string {
	switch value := v.(type) {
	case nil:
		return ""
	case string:
		return value
	case json.RawMessage:
		return string(value)
	}

	encoded, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf(`{"error":%q}`, err.Error())
	}
	return string(encoded)
}

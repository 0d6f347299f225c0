package apiclient

import (
	"encoding/json"
)

// UnwrapEnvelope strips the backend's {"data": ..., "timestamp": "..."}
// wrapper. Only an object with exactly those two keys and a string timestamp
// counts as an envelope; any other body is returned unchanged, so unwrapping
// an already unwrapped payload is a no-op.
func UnwrapEnvelope(body []byte) []byte {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil || len(fields) != 2 {
		return body
	}
	data, hasData := fields["data"]
	timestamp, hasTimestamp := fields["timestamp"]
	if !hasData || !hasTimestamp {
		return body
	}
	var ts string
	if err := json.Unmarshal(timestamp, &ts); err != nil {
		return body
	}
	return data
}

package bridge

import (
	"encoding/json"

	"github.com/bindkit-dev/bindkit/pkg/value"
)

// Frame ops. Clients send "set"; the server sends "change" and "error".
const (
	OpChange = "change"
	OpSet    = "set"
	OpError  = "error"
)

// Frame is one JSON message on the bridge socket.
type Frame struct {
	Op       string      `json:"op"`
	Object   string      `json:"object,omitempty"`
	Property string      `json:"property,omitempty"`
	Value    value.Value `json:"value,omitempty"`
	Error    string      `json:"error,omitempty"`
}

// encodeFrame marshals a frame for the wire.
func encodeFrame(f Frame) ([]byte, error) {
	return json.Marshal(f)
}

// decodeFrame parses an inbound client frame.
func decodeFrame(data []byte) (Frame, error) {
	var f Frame
	err := json.Unmarshal(data, &f)
	return f, err
}

// changeFrame builds the broadcast frame for one property change.
func changeFrame(object, property string, v value.Value) Frame {
	return Frame{Op: OpChange, Object: object, Property: property, Value: v}
}

// errorFrame builds the reply frame for a rejected set.
func errorFrame(object, property string, err error) Frame {
	return Frame{Op: OpError, Object: object, Property: property, Error: err.Error()}
}

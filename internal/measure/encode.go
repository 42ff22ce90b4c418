// internal/measure/encode.go
package measure

import "encoding/json"

// EncodeFrame serializes a Measurement into one event-stream frame:
//
//	data: <json>\n\n
//
// The JSON object carries exactly the keys activity, hazard, time.
// No IO. No side effects.
func EncodeFrame(m Measurement) ([]byte, error) {
	body, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, len(body)+8)
	out = append(out, "data: "...)
	out = append(out, body...)
	out = append(out, '\n', '\n')
	return out, nil
}

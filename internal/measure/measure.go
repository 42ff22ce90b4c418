// internal/measure/measure.go
package measure

// Measurement is one tick's snapshot of the session.
// It contains no logic and no memory of the past beyond current state:
// one instance is built per tick, pushed to subscribers, and dropped.
type Measurement struct {
	// Activity is the normalized editing-intensity score in [0,1].
	Activity float64 `json:"activity"`

	// Hazard is the severity-derived risk score.
	Hazard float64 `json:"hazard"`

	// Time is the configured reporting interval in seconds. It is
	// constant across all frames in a session and matches the
	// broadcast cadence.
	Time int `json:"time"`
}

// internal/config/normalize.go
package config

// Defaults applied by Normalize.
const (
	DefaultPort            = 44100
	DefaultIntervalSeconds = 5
)

// Normalize applies post-validation normalization.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	p := &cfg.Pulse

	if p.Port == 0 {
		p.Port = DefaultPort
	}
	if p.IntervalSeconds == 0 {
		p.IntervalSeconds = DefaultIntervalSeconds
	}
}

// internal/source/source.go
package source

// DiagnosticsSource lists the current diagnostic severities for the
// active document. The scheduler calls it fresh on every tick and
// never caches the result; a failure degrades to the default hazard
// score instead of aborting the tick.
type DiagnosticsSource interface {
	Severities() ([]string, error)
}

// Registrar installs a callback to run whenever an event of the given
// kind occurs and returns a cancel function that removes it.
// Registering a kind the registrar cannot produce is a configuration
// error and fails at startup.
type Registrar interface {
	Register(kind string, fn func()) (cancel func(), err error)
}

// NoDiagnostics is a DiagnosticsSource that never reports anything.
type NoDiagnostics struct{}

func (NoDiagnostics) Severities() ([]string, error) { return nil, nil }

// NullRegistrar accepts every kind and never fires. Used when no
// event source is configured: the service still measures hazard and
// broadcasts, activity just stays at zero.
type NullRegistrar struct{}

func (NullRegistrar) Register(kind string, fn func()) (func(), error) {
	return func() {}, nil
}

// internal/source/filediag.go
package source

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// FileDiagnostics reads severities from a JSON drop-file on every
// call: a flat array of severity labels, the shape a language-server
// export typically produces. Nothing is cached between calls, so an
// updated file is picked up on the next tick.
type FileDiagnostics struct {
	path string
}

func NewFileDiagnostics(path string) (*FileDiagnostics, error) {
	if path == "" {
		return nil, errors.New("diagnostics: path required")
	}
	return &FileDiagnostics{path: path}, nil
}

func (f *FileDiagnostics) Severities() ([]string, error) {
	raw, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("diagnostics: read %s: %w", f.path, err)
	}

	var severities []string
	if err := json.Unmarshal(raw, &severities); err != nil {
		return nil, fmt.Errorf("diagnostics: parse %s: %w", f.path, err)
	}
	return severities, nil
}

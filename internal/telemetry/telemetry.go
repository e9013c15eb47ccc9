// Package telemetry writes structured run events as JSON lines.
package telemetry

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Emitter appends events to <dir>/events.jsonl. A nil or disabled Emitter drops events.
type Emitter struct {
	enabled bool
	dir     string
	stderr  io.Writer

	mu sync.Mutex
}

// New returns an Emitter writing under dir when enabled is true.
func New(enabled bool, dir string) *Emitter {
	if dir == "" {
		dir = ".agent"
	}
	return &Emitter{enabled: enabled, dir: dir, stderr: os.Stderr}
}

// Enabled reports whether events are written.
func (e *Emitter) Enabled() bool { return e != nil && e.enabled }

// Path returns the JSONL file events are appended to.
func (e *Emitter) Path() string { return filepath.Join(e.dir, "events.jsonl") }

// Emit writes a single JSON line with the event name and an RFC3339Nano time.
// Failures are reported on stderr and never returned.
func (e *Emitter) Emit(name string, fields map[string]any) {
	if !e.Enabled() {
		return
	}

	// Copy so callers' maps aren't mutated.
	m := make(map[string]any, len(fields)+2)
	for k, v := range fields {
		m[k] = v
	}
	m["time"] = time.Now().UTC().Format(time.RFC3339Nano)
	m["event"] = name

	b, err := json.Marshal(m)
	if err != nil {
		fmt.Fprintf(e.stderr, "telemetry: marshal: %v\n", err)
		return
	}

	// Tool calls may run on a worker pool; keep lines whole.
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		fmt.Fprintf(e.stderr, "telemetry: mkdir %s: %v\n", e.dir, err)
		return
	}

	path := e.Path()
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		fmt.Fprintf(e.stderr, "telemetry: open %s: %v\n", path, err)
		return
	}
	defer f.Close()

	if _, err := f.Write(append(b, '\n')); err != nil {
		fmt.Fprintf(e.stderr, "telemetry: write %s: %v\n", path, err)
	}
}

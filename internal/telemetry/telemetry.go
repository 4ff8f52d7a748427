// Package telemetry writes privacy-preserving JSONL events for chat turns.
//
// Events carry sizes, durations and states only; raw user or model text is
// never written.
package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/petasbytes/streamchat/internal/metrics"
)

var writeMu sync.Mutex

// Emit writes a single JSON line to <ArtifactsDir>/events.jsonl when
// CHAT_OBSERVE_JSON=1. It augments fields with RFC3339Nano time and the
// event name. Failures are reported on stderr and never returned.
func Emit(name string, fields map[string]any) {
	if !ObserveEnabled() {
		return
	}

	// Make a shallow copy so callers' maps aren't mutated.
	m := make(map[string]any, len(fields)+2)
	for k, v := range fields {
		m[k] = v
	}
	m["time"] = time.Now().UTC().Format(time.RFC3339Nano)
	m["event"] = name

	b, err := json.Marshal(m)
	if err != nil {
		fmt.Fprintf(os.Stderr, "telemetry: marshal: %v\n", err)
		return
	}

	writeMu.Lock()
	defer writeMu.Unlock()

	dir := ArtifactsDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "telemetry: mkdir %s: %v\n", dir, err)
		return
	}

	path := filepath.Join(dir, "events.jsonl")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "telemetry: open %s: %v\n", path, err)
		return
	}
	defer f.Close()

	if _, err := f.Write(append(b, '\n')); err != nil {
		fmt.Fprintf(os.Stderr, "telemetry: write %s: %v\n", path, err)
	}
}

// Features converts text into a count-only map suitable for event fields.
func Features(s string) map[string]any {
	return FeatureFields(metrics.CountFeatures(s))
}

// FeatureFields converts counted features into event fields.
func FeatureFields(f metrics.Features) map[string]any {
	return map[string]any{
		"bytes": f.Bytes,
		"runes": f.Runes,
		"words": f.Words,
		"lines": f.Lines,
	}
}

package telemetry

import (
	"os"
)

const defaultArtifactsDir = ".chat"

var observeEnabled bool

func init() {
	// Read once at process start; ObserveEnabled still honours an explicit override.
	observeEnabled = os.Getenv("CHAT_OBSERVE_JSON") == "1"
}

// ObserveEnabled reports whether JSONL emission is enabled.
func ObserveEnabled() bool {
	// Preserve startup-evaluated default, but allow tests to toggle mid-run via env.
	if v, ok := os.LookupEnv("CHAT_OBSERVE_JSON"); ok {
		return v == "1"
	}
	return observeEnabled
}

// ArtifactsDir is where events.jsonl is written (CHAT_ARTIFACTS_DIR, default .chat).
func ArtifactsDir() string {
	if v := os.Getenv("CHAT_ARTIFACTS_DIR"); v != "" {
		return v
	}
	return defaultArtifactsDir
}

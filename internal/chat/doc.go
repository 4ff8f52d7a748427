// Package chat is the streaming orchestration core: the Reconciler folds a
// provider stream (and at most a bounded number of tool follow-ups) into the
// open assistant turn, and the Coordinator owns the per-send lifecycle.
//
// Invariant:
//   - Within one turn the assistant content is append-only: deltas in arrival
//     order, each tool result after the deltas that preceded its call, and
//     follow-up deltas after every tool result.
//
// Flow:
//
//	STREAMING -> (tool_call) AWAITING_TOOL -> STREAMING -> ... -> FOLLOW_UP -> STREAMING -> DONE
//	any stream error -> FAILED (partial content kept, error appended)
package chat

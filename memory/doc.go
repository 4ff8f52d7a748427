// Package memory persists the transcript between runs.
//
// Persistence model:
//   - Only closed turns are stored (role, content, created_at, model_id).
//   - Tool calls and results are not stored; their text is already part of
//     the assistant content.
//   - A JSON file is the default; paths ending in .db or .sqlite use SQLite.
package memory

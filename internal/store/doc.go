// Package store provides SQLite-backed read access to persisted taint traces.
//
// The store holds four write-once tables produced by the analysis pipeline:
//   - runs: one row per analysis execution, with its status
//   - shared_texts: interned leaf strings tagged SOURCE, SINK or FEATURE
//   - trace_frames: directed propagation steps, scoped to a run
//   - trace_frame_leaf_assoc: which leaves a frame can reach, and how far
//
// # Deterministic Query Results
//
// Every multi-row query ends in ORDER BY ... id ASC so repeated reads over
// the same snapshot return identical sequences. Empty results are empty
// slices, never nil.
//
// # Read Handles
//
// Store and ReadTx both satisfy the navigator's reader contract. ReadTx
// wraps a read-only transaction and gives one consistent view for the
// lifetime of a navigation call; callers own its Rollback.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// The write functions in write.go exist for the loader and test fixtures.
// The navigator never writes.
package store

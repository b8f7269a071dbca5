// Package navigate reconstructs taint-flow paths from persisted trace frames.
//
// Navigation walks a directed graph that may contain cycles. Frames are
// addressed by ID in an external store and never held as a pointer graph:
// each step is one bounded adjacency query plus a visited-ID set owned by
// the call.
//
// # Components
//
//   - LeafMappings: immutable id -> name snapshot per leaf category, loaded
//     once per session and passed to every call
//   - FindNextFrames: candidate continuations of one frame, filtered by the
//     visited set and by reachability of a target leaf
//   - AssemblePath: repeated FindNextFrames from a seed, taking the first
//     candidate each step and keeping the rest as branches
//
// # Reentrancy
//
// There is no package-level mutable state. Concurrent calls over the same
// store cannot interfere because each receives its own visited set, and
// LeafMappings is read-only after construction.
//
// # Trace Length
//
// The pipeline's trace_length is ambiguous at zero. Relevance filtering is
// existential (some association names a target leaf); the numeric value is
// used only to order candidates.
package navigate

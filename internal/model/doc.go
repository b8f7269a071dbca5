// Package model provides the record types persisted by the taint analysis
// pipeline and read by the trace navigator.
//
// This package contains type definitions only. All other internal packages
// import model; model imports nothing internal.
//
// Key constraints:
//   - Records are write-once artifacts of the pipeline; nothing in this
//     module mutates them after they are stored
//   - Identifiers are int64 and start at 1; zero means "absent"
//   - All JSON and YAML tags use snake_case
package model

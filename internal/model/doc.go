// Package model provides the foundational types for the powersim sequencer.
//
// This package contains type definitions and canonical serialization only.
// All other internal packages import model; model imports nothing internal.
// This keeps the type layer foundational with no circular dependencies.
//
// Key design constraints:
//   - NO float types in canonical payloads - use int64 for numbers
//   - Chronology, feedforward, and cache kinds are closed tagged variants,
//     dispatched by switching on the kind field, never by open hierarchies
//   - Problem names are NFC normalized before hashing or comparison
//   - Ordering uses logical sequence numbers, never wall-clock timestamps
package model

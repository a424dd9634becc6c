// Package core provides the deterministic item-collection operations used
// between build steps.
//
// # Design Principles
//
// All operations in this package adhere to the following constraints:
//
//  1. Pure: outputs depend only on explicit inputs; nothing is read from the
//     process environment or the filesystem (IncludeResolver is the single,
//     explicitly filesystem-facing exception).
//  2. Non-mutating: inputs are never modified; outputs are freshly built.
//  3. Identity-only matching: metadata is carried, never compared.
//
// # Core Types
//
// Item: an identity-bearing record with auxiliary metadata.
// Collection: an ordered sequence of Items; a nil *Collection is "absent".
//
// # Operations
//
// Sort, GetItem, GetLastItem, GetCommonItems, GetDistinctItems,
// RemoveDuplicateFiles, StringToItemCollection, GetItemCount, Escape and
// GetCurrentDirectory. Each is available as a package-level function and as a
// method on Operations. The methods of the collection-producing operations
// additionally report per-item decisions to a trace.Sink; GetItemCount,
// Escape and GetCurrentDirectory make no per-item decisions and record
// nothing.
package core

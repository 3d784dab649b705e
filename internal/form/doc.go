// Package form holds the observable state for a product detail page.
//
// Store is the single shared mutable resource between the controller and the
// presentation layer. The controller is the only writer (through Apply);
// observers take defensive-copy Snapshots and may register a coalescing
// notification channel with Watch. This keeps every update atomic from an
// observer's point of view: a reader sees either the state before an Apply or
// the state after it, never a half-merged record.
//
// Snapshot invariants:
//   - Images always contains an entry for every photo slot; an empty slice is
//     the "no photo" sentinel.
//   - Selected only holds ids that exist in the page's nutrient catalog.
//   - State transitions are controller-driven and only move along
//     loading → completed → productDetails, or loading → error.
package form

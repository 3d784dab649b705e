// Package controller owns the product detail page workflow.
//
// The load pipeline fetches the nutrient taxonomy, the product record, and
// nutrient metadata concurrently, joins all three, reconciles an existing
// record into the form, and advances loading → completed → productDetails
// (the last edge after a cosmetic display delay). The save pipeline uploads
// populated photos concurrently (failures logged, never fatal), composes the
// flat product payload, and submits it as one request.
//
// All form mutations flow through the controller's mutex into form.Store, so
// observers see each pipeline step as one atomic update. Overlapping
// invocations are resolved by generation stamping: the newest Load/Save wins
// and stale pipelines are discarded when they try to write.
package controller

// Package pantry implements the HTTP client for the pantry product-database
// API: product records, the nutrient taxonomy, nutrient metadata, image
// downloads, and product/image submissions. The controller consumes it
// through the API interface so tests can substitute fakes.
package pantry

// Package fsvalue converts between Firestore's native value types and a
// transport-safe plain representation.
//
// The plain form is a JSON-compatible tree: nil, bool, numbers, strings,
// []any, map[string]any, plus the tagged Reference and untagged GeoPoint
// leaf shapes. Native types (time.Time, *latlng.LatLng,
// *firestore.DocumentRef) never cross the tool boundary.
//
// Both directions degrade gracefully: the forward direction substitutes
// marker strings for cycles and excessive depth, the reverse direction
// returns its input unchanged when a requested conversion cannot be
// satisfied. Neither direction returns errors under normal input.
package fsvalue

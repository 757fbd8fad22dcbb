package fsvalue

import "strings"

// Markers substituted by ToPlain when it refuses to descend further.
const (
	// MarkerCircular replaces a composite value whose identity was already
	// visited on the current path from the root.
	MarkerCircular = "[circular reference]"

	// MarkerMaxDepth replaces any value nested deeper than the configured
	// maximum depth.
	MarkerMaxDepth = "[maximum depth reached]"
)

// DefaultMaxDepth is the recursion bound applied by New.
const DefaultMaxDepth = 20

// Reference is the plain form of a document reference.
// Path is the store-relative slash-delimited path ("users/u1"), ID the final
// segment and CollectionID the immediate parent segment.
type Reference struct {
	Type         string `json:"type"`
	Path         string `json:"path"`
	ID           string `json:"id"`
	CollectionID string `json:"collectionId"`
}

// ReferenceType tags a plain Reference.
const ReferenceType = "reference"

// NewReference builds a Reference from a store-relative document path.
func NewReference(path string) Reference {
	segments := strings.Split(path, "/")
	ref := Reference{Type: ReferenceType, Path: path}
	if len(segments) >= 1 {
		ref.ID = segments[len(segments)-1]
	}
	if len(segments) >= 2 {
		ref.CollectionID = segments[len(segments)-2]
	}
	return ref
}

// GeoPoint is the plain form of a geographic point. The untagged shape is
// canonical; ToNative also accepts a legacy tagged variant.
type GeoPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// TargetType selects the native type requested from ToNative.
type TargetType int

const (
	// TypeUnspecified requests best-effort type sniffing.
	TypeUnspecified TargetType = iota
	TypeTimestamp
	TypeGeoPoint
	TypeReference
	TypeArray
	TypeMap
	TypeBoolean
	TypeNumber
	TypeString
	TypeNull
)

// ParseTargetType maps a field-type name from tool arguments to a
// TargetType. Unknown names map to TypeUnspecified.
func ParseTargetType(s string) TargetType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "timestamp", "date":
		return TypeTimestamp
	case "geopoint":
		return TypeGeoPoint
	case "reference":
		return TypeReference
	case "array":
		return TypeArray
	case "map", "object":
		return TypeMap
	case "boolean", "bool":
		return TypeBoolean
	case "number":
		return TypeNumber
	case "string":
		return TypeString
	case "null":
		return TypeNull
	default:
		return TypeUnspecified
	}
}

func (t TargetType) String() string {
	switch t {
	case TypeTimestamp:
		return "timestamp"
	case TypeGeoPoint:
		return "geopoint"
	case TypeReference:
		return "reference"
	case TypeArray:
		return "array"
	case TypeMap:
		return "map"
	case TypeBoolean:
		return "boolean"
	case TypeNumber:
		return "number"
	case TypeString:
		return "string"
	case TypeNull:
		return "null"
	default:
		return "unspecified"
	}
}

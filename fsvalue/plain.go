package fsvalue

import (
	"encoding/base64"
	"reflect"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/genproto/googleapis/type/latlng"
)

// Normalizer converts Firestore values in both directions. The zero value is
// not usable; construct with New.
//
// Contract:
// - Concurrency: safe for concurrent use; all per-call state is call-scoped.
// - Errors: neither direction returns errors under normal input.
type Normalizer struct {
	maxDepth int
	resolver RefResolver
}

// RefResolver mints native document references against the store root.
// Implemented by the Firestore adapter; may be nil, in which case reference
// conversions fall through to passthrough.
type RefResolver interface {
	// ResolveRef resolves a store-relative document path ("users/u1").
	// ok is false when the path cannot name a document.
	ResolveRef(path string) (*firestore.DocumentRef, bool)
}

// New creates a Normalizer with DefaultMaxDepth. resolver may be nil.
func New(resolver RefResolver) *Normalizer {
	return &Normalizer{maxDepth: DefaultMaxDepth, resolver: resolver}
}

// NewWithMaxDepth creates a Normalizer with an explicit recursion bound.
// maxDepth must be positive.
func NewWithMaxDepth(resolver RefResolver, maxDepth int) *Normalizer {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &Normalizer{maxDepth: maxDepth, resolver: resolver}
}

// ToPlain converts a native Firestore value into the plain representation.
// Cycles yield MarkerCircular, nesting beyond the depth bound yields
// MarkerMaxDepth. The result is always JSON-serializable.
func (n *Normalizer) ToPlain(v any) any {
	return n.toPlain(v, make(map[uintptr]struct{}), 1)
}

func (n *Normalizer) toPlain(v any, visited map[uintptr]struct{}, depth int) any {
	if depth > n.maxDepth {
		return MarkerMaxDepth
	}

	switch val := v.(type) {
	case nil:
		return nil
	case bool, string,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return val
	case time.Time:
		return val.UTC().Format(time.RFC3339Nano)
	case *latlng.LatLng:
		if val == nil {
			return nil
		}
		return GeoPoint{Latitude: val.Latitude, Longitude: val.Longitude}
	case *firestore.DocumentRef:
		if val == nil {
			return nil
		}
		return NewReference(StoreRelativePath(val.Path))
	case Reference:
		// Already normalized; re-tagging would double-process.
		return val
	case GeoPoint:
		return val
	case []byte:
		return base64.StdEncoding.EncodeToString(val)
	case []any:
		if marked := mark(visited, val); marked != "" {
			return marked
		}
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = n.toPlain(elem, visited, depth+1)
		}
		return out
	case map[string]any:
		if ref, ok := reinterpretReference(val); ok {
			return ref
		}
		if marked := mark(visited, val); marked != "" {
			return marked
		}
		out := make(map[string]any, len(val))
		for k, elem := range val {
			out[k] = n.toPlain(elem, visited, depth+1)
		}
		return out
	}

	// Uncommon shapes (typed slices and maps from user-provided handlers).
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice {
			if marked := mark(visited, v); marked != "" {
				return marked
			}
		}
		out := make([]any, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			out[i] = n.toPlain(rv.Index(i).Interface(), visited, depth+1)
		}
		return out
	case reflect.Map:
		if marked := mark(visited, v); marked != "" {
			return marked
		}
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			key, ok := iter.Key().Interface().(string)
			if !ok {
				continue
			}
			out[key] = n.toPlain(iter.Value().Interface(), visited, depth+1)
		}
		return out
	}

	return v
}

// mark records the identity of a composite value in the visited set.
// Returns MarkerCircular when the identity was already present.
func mark(visited map[uintptr]struct{}, v any) string {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map, reflect.Slice:
	default:
		return ""
	}
	if rv.IsNil() {
		return ""
	}
	ptr := rv.Pointer()
	if _, seen := visited[ptr]; seen {
		return MarkerCircular
	}
	visited[ptr] = struct{}{}
	return ""
}

// reinterpretReference applies the pre-serialized-reference heuristic to a
// record. A record already tagged as a reference is returned verbatim; a
// record whose "path" field looks like a document path is re-tagged.
func reinterpretReference(m map[string]any) (any, bool) {
	path, hasPath := m["path"].(string)
	if !hasPath {
		return nil, false
	}
	if tag, ok := m["type"].(string); ok && tag == ReferenceType {
		return m, true
	}
	if !LooksLikeReferencePath(path) {
		return nil, false
	}
	return NewReference(path), true
}

// LooksLikeReferencePath reports whether s is plausibly a slash-delimited
// document path: at least two non-empty segments. Best-effort; a plain
// string field holding "a/b" will be misidentified, which the original
// system accepts as the cost of recovering pre-serialized references.
func LooksLikeReferencePath(s string) bool {
	if !strings.Contains(s, "/") {
		return false
	}
	segments := strings.Split(s, "/")
	if len(segments) < 2 {
		return false
	}
	for _, seg := range segments {
		if seg == "" {
			return false
		}
	}
	return true
}

// StoreRelativePath strips the resource prefix from a full Firestore
// document name ("projects/p/databases/d/documents/users/u1" -> "users/u1").
// Paths without the prefix pass through unchanged.
func StoreRelativePath(p string) string {
	const marker = "/documents/"
	if i := strings.Index(p, marker); i >= 0 {
		return p[i+len(marker):]
	}
	return p
}

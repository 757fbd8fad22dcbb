package fsvalue

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/genproto/googleapis/type/latlng"
)

// ToNative converts a plain value coming in from tool arguments into the
// native Firestore type requested by target.
//
// Failure policy: a value whose shape cannot satisfy the requested type is
// returned unchanged. Malformed per-field conversion degrades to storing the
// raw value instead of aborting the surrounding write.
func (n *Normalizer) ToNative(raw any, target TargetType) any {
	switch target {
	case TypeTimestamp:
		return toTimestamp(raw)
	case TypeGeoPoint:
		return toGeoPoint(raw)
	case TypeReference:
		return n.toReference(raw)
	case TypeArray:
		return toArray(raw)
	case TypeMap:
		return toMap(raw)
	case TypeBoolean:
		return toBoolean(raw)
	case TypeNumber:
		return toNumber(raw)
	case TypeString:
		return toString(raw)
	case TypeNull:
		return nil
	case TypeUnspecified:
		return n.sniff(raw)
	}
	return raw
}

func toTimestamp(raw any) any {
	switch v := raw.(type) {
	case time.Time:
		return v
	case string:
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			return t
		}
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			return t
		}
	case float64:
		return time.UnixMilli(int64(v)).UTC()
	case int64:
		return time.UnixMilli(v).UTC()
	case int:
		return time.UnixMilli(int64(v)).UTC()
	}
	return raw
}

func toGeoPoint(raw any) any {
	switch v := raw.(type) {
	case *latlng.LatLng:
		return v
	case GeoPoint:
		return &latlng.LatLng{Latitude: v.Latitude, Longitude: v.Longitude}
	case map[string]any:
		lat, okLat := numeric(v["latitude"])
		lng, okLng := numeric(v["longitude"])
		if okLat && okLng {
			return &latlng.LatLng{Latitude: lat, Longitude: lng}
		}
	}
	return raw
}

func (n *Normalizer) toReference(raw any) any {
	if n.resolver == nil {
		return raw
	}
	var path string
	switch v := raw.(type) {
	case *firestore.DocumentRef:
		return v
	case Reference:
		path = v.Path
	case string:
		path = v
	case map[string]any:
		p, ok := v["path"].(string)
		if !ok {
			return raw
		}
		path = p
	default:
		return raw
	}
	if ref, ok := n.resolver.ResolveRef(path); ok {
		return ref
	}
	return raw
}

func toArray(raw any) any {
	switch v := raw.(type) {
	case []any:
		return v
	case string:
		var arr []any
		if err := json.Unmarshal([]byte(v), &arr); err == nil {
			return arr
		}
		return []any{v}
	}
	return raw
}

func toMap(raw any) any {
	switch v := raw.(type) {
	case map[string]any:
		return v
	case string:
		var m map[string]any
		if err := json.Unmarshal([]byte(v), &m); err == nil {
			return m
		}
		return map[string]any{"value": v}
	}
	return raw
}

func toBoolean(raw any) any {
	switch v := raw.(type) {
	case bool:
		return v
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true":
			return true
		case "false":
			return false
		}
		return v != ""
	case nil:
		return false
	}
	if f, ok := numeric(raw); ok {
		return f != 0
	}
	return true
}

func toNumber(raw any) any {
	switch v := raw.(type) {
	case int, int32, int64, float32, float64:
		return v
	case string:
		s := strings.TrimSpace(v)
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return i
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	}
	return raw
}

func toString(raw any) any {
	switch v := raw.(type) {
	case string:
		return v
	case nil:
		return ""
	case time.Time:
		return v.UTC().Format(time.RFC3339Nano)
	case map[string]any, []any:
		if data, err := json.Marshal(v); err == nil {
			return string(data)
		}
	}
	return fmt.Sprint(raw)
}

// sniff applies best-effort type detection for fields without a declared
// target type.
func (n *Normalizer) sniff(raw any) any {
	switch v := raw.(type) {
	case time.Time, *latlng.LatLng, *firestore.DocumentRef:
		return v
	case Reference:
		return n.toReference(v)
	case map[string]any:
		if tag, ok := v["type"].(string); ok && tag == ReferenceType {
			return n.toReference(v)
		}
		if _, hasPath := v["path"].(string); hasPath && len(v) == 1 {
			return n.toReference(v)
		}
		lat, okLat := numeric(v["latitude"])
		lng, okLng := numeric(v["longitude"])
		if okLat && okLng && len(v) == 2 {
			return &latlng.LatLng{Latitude: lat, Longitude: lng}
		}
	case string:
		if LooksLikeReferencePath(v) && n.resolver != nil {
			if ref, ok := n.resolver.ResolveRef(v); ok {
				return ref
			}
		}
	}
	return raw
}

func numeric(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

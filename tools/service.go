package tools

import (
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/jonwraymond/firemcp/doccache"
	"github.com/jonwraymond/firemcp/fsvalue"
	"github.com/jonwraymond/firemcp/observe"
	"github.com/jonwraymond/firemcp/store"
)

// Service holds the dependencies shared by all tool handlers.
type Service struct {
	store  store.Store
	cache  *doccache.Cache
	norm   *fsvalue.Normalizer
	logger observe.Logger
	group  singleflight.Group
}

// NewService creates the handler service. logger may be nil for a silent
// service; cache may be nil to disable caching entirely.
func NewService(st store.Store, cache *doccache.Cache, norm *fsvalue.Normalizer, logger observe.Logger) *Service {
	if logger == nil {
		logger = observe.NopLogger()
	}
	return &Service{
		store:  st,
		cache:  cache,
		norm:   norm,
		logger: logger,
	}
}

// docResponse converts a store document into the transport shape. All field
// values pass through the normalizer so native store types never cross the
// boundary.
func (s *Service) docResponse(doc *store.Document) map[string]any {
	resp := map[string]any{
		"collection": doc.Collection,
		"id":         doc.ID,
		"path":       doc.Path,
		"data":       s.norm.ToPlain(doc.Data),
	}
	if !doc.CreateTime.IsZero() {
		resp["createTime"] = doc.CreateTime.UTC().Format(time.RFC3339Nano)
	}
	if !doc.UpdateTime.IsZero() {
		resp["updateTime"] = doc.UpdateTime.UTC().Format(time.RFC3339Nano)
	}
	return resp
}

// convertFields applies the optional fieldTypes argument: each named field
// is converted toward the requested target type. Conversion is best-effort;
// a field that cannot match its requested type keeps its raw value.
func (s *Service) convertFields(data map[string]any, fieldTypes map[string]any) map[string]any {
	if len(fieldTypes) == 0 {
		return data
	}
	out := make(map[string]any, len(data))
	for k, v := range data {
		out[k] = v
	}
	for field, typeName := range fieldTypes {
		name, ok := typeName.(string)
		if !ok {
			continue
		}
		if raw, present := out[field]; present {
			out[field] = s.norm.ToNative(raw, fsvalue.ParseTargetType(name))
		}
	}
	return out
}

// stringArg extracts a required string argument.
func stringArg(args map[string]any, key string) (string, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return "", fmt.Errorf("%w: %s", ErrMissingArgument, key)
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", fmt.Errorf("%w: %s must be a non-empty string", ErrBadArgument, key)
	}
	return s, nil
}

// optionalStringArg extracts an optional string argument, empty if absent.
func optionalStringArg(args map[string]any, key string) (string, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s must be a string", ErrBadArgument, key)
	}
	return s, nil
}

// mapArg extracts a required object argument.
func mapArg(args map[string]any, key string) (map[string]any, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return nil, fmt.Errorf("%w: %s", ErrMissingArgument, key)
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s must be an object", ErrBadArgument, key)
	}
	return m, nil
}

// optionalMapArg extracts an optional object argument, nil if absent.
func optionalMapArg(args map[string]any, key string) (map[string]any, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return nil, nil
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s must be an object", ErrBadArgument, key)
	}
	return m, nil
}

// sliceArg extracts a required array argument.
func sliceArg(args map[string]any, key string) ([]any, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return nil, fmt.Errorf("%w: %s", ErrMissingArgument, key)
	}
	arr, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s must be an array", ErrBadArgument, key)
	}
	return arr, nil
}

// optionalSliceArg extracts an optional array argument, nil if absent.
func optionalSliceArg(args map[string]any, key string) ([]any, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return nil, nil
	}
	arr, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s must be an array", ErrBadArgument, key)
	}
	return arr, nil
}

// boolArg extracts an optional boolean argument with a default.
func boolArg(args map[string]any, key string, def bool) bool {
	if v, ok := args[key].(bool); ok {
		return v
	}
	return def
}

// intArg extracts an optional integer argument with a default. JSON numbers
// arrive as float64.
func intArg(args map[string]any, key string, def int) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return def
	}
}

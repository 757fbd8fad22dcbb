package tools

import (
	"context"

	"github.com/jonwraymond/firemcp/doccache"
	"github.com/jonwraymond/firemcp/fsvalue"
	"github.com/jonwraymond/firemcp/observe"
	"github.com/jonwraymond/firemcp/store"
)

// GetDocument fetches a single document. Cache first; concurrent misses for
// the same document collapse into a single store read.
func (s *Service) GetDocument(ctx context.Context, args map[string]any) (any, error) {
	collection, err := stringArg(args, "collection")
	if err != nil {
		return nil, err
	}
	id, err := stringArg(args, "id")
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if doc, ok := s.cache.Get(collection, id); ok {
			s.logger.Debug(ctx, "cache hit",
				observe.Field{Key: "collection", Value: collection},
				observe.Field{Key: "id", Value: id},
			)
			resp := make(map[string]any, len(doc)+1)
			for k, v := range doc {
				resp[k] = v
			}
			resp["cached"] = true
			return resp, nil
		}
	}

	v, err, _ := s.group.Do(doccache.Key(collection, id), func() (any, error) {
		doc, err := s.store.Get(ctx, collection, id)
		if err != nil {
			return nil, err
		}
		return s.docResponse(doc), nil
	})
	if err != nil {
		return nil, err
	}

	resp := v.(map[string]any)
	if s.cache != nil {
		s.cache.Set(collection, id, resp)
	}
	return resp, nil
}

// QueryCollection runs a filtered, ordered, limited query. Filter values
// with a declared valueType are converted to native form first.
func (s *Service) QueryCollection(ctx context.Context, args map[string]any) (any, error) {
	collection, err := stringArg(args, "collection")
	if err != nil {
		return nil, err
	}

	q := store.Query{
		Collection: collection,
		Group:      boolArg(args, "collectionGroup", false),
		Limit:      intArg(args, "limit", 0),
	}

	filters, err := optionalSliceArg(args, "filters")
	if err != nil {
		return nil, err
	}
	for _, raw := range filters {
		f, ok := raw.(map[string]any)
		if !ok {
			return nil, errBadShape("filters", "objects with field, op, value")
		}
		field, err := stringArg(f, "field")
		if err != nil {
			return nil, err
		}
		op, err := stringArg(f, "op")
		if err != nil {
			return nil, err
		}
		value := f["value"]
		if typeName, ok := f["valueType"].(string); ok {
			value = s.norm.ToNative(value, fsvalue.ParseTargetType(typeName))
		}
		q.Filters = append(q.Filters, store.Filter{Field: field, Op: op, Value: value})
	}

	orders, err := optionalSliceArg(args, "orderBy")
	if err != nil {
		return nil, err
	}
	for _, raw := range orders {
		o, ok := raw.(map[string]any)
		if !ok {
			return nil, errBadShape("orderBy", "objects with field, direction")
		}
		field, err := stringArg(o, "field")
		if err != nil {
			return nil, err
		}
		dir, err := optionalStringArg(o, "direction")
		if err != nil {
			return nil, err
		}
		q.Orders = append(q.Orders, store.Order{Field: field, Desc: dir == "desc"})
	}

	docs, err := s.store.Query(ctx, q)
	if err != nil {
		return nil, err
	}

	out := make([]map[string]any, 0, len(docs))
	for i := range docs {
		out = append(out, s.docResponse(&docs[i]))
	}
	return map[string]any{
		"count":     len(out),
		"documents": out,
	}, nil
}

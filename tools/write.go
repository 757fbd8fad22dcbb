package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/jonwraymond/firemcp/fsvalue"
	"github.com/jonwraymond/firemcp/store"
)

// DefaultTTLField is the document field written by SetTTL. A Firestore TTL
// policy on this field makes the service delete the document after expiry.
const DefaultTTLField = "expireAt"

// CreateDocument creates a document. An empty or absent id lets the store
// assign one. fieldTypes drives per-field native conversion.
func (s *Service) CreateDocument(ctx context.Context, args map[string]any) (any, error) {
	collection, err := stringArg(args, "collection")
	if err != nil {
		return nil, err
	}
	id, err := optionalStringArg(args, "id")
	if err != nil {
		return nil, err
	}
	data, err := mapArg(args, "data")
	if err != nil {
		return nil, err
	}
	fieldTypes, err := optionalMapArg(args, "fieldTypes")
	if err != nil {
		return nil, err
	}

	doc, err := s.store.Create(ctx, collection, id, s.convertFields(data, fieldTypes))
	if err != nil {
		return nil, err
	}

	// Invalidate after the write completes, never before.
	if s.cache != nil {
		s.cache.Invalidate(collection, doc.ID)
	}
	return s.docResponse(doc), nil
}

// UpdateDocument writes to an existing document. With "updates" present it
// performs field-level updates (including transforms); otherwise it sets
// "data", merging by default.
func (s *Service) UpdateDocument(ctx context.Context, args map[string]any) (any, error) {
	collection, err := stringArg(args, "collection")
	if err != nil {
		return nil, err
	}
	id, err := stringArg(args, "id")
	if err != nil {
		return nil, err
	}

	updates, err := optionalSliceArg(args, "updates")
	if err != nil {
		return nil, err
	}

	if len(updates) > 0 {
		fieldUpdates, err := s.parseUpdates(updates)
		if err != nil {
			return nil, err
		}
		if err := s.store.Update(ctx, collection, id, fieldUpdates); err != nil {
			return nil, err
		}
	} else {
		data, err := mapArg(args, "data")
		if err != nil {
			return nil, err
		}
		fieldTypes, err := optionalMapArg(args, "fieldTypes")
		if err != nil {
			return nil, err
		}
		merge := boolArg(args, "merge", true)
		if err := s.store.Set(ctx, collection, id, s.convertFields(data, fieldTypes), merge); err != nil {
			return nil, err
		}
	}

	if s.cache != nil {
		s.cache.Invalidate(collection, id)
	}

	doc, err := s.store.Get(ctx, collection, id)
	if err != nil {
		return nil, err
	}
	return s.docResponse(doc), nil
}

// DeleteDocument removes a document.
func (s *Service) DeleteDocument(ctx context.Context, args map[string]any) (any, error) {
	collection, err := stringArg(args, "collection")
	if err != nil {
		return nil, err
	}
	id, err := stringArg(args, "id")
	if err != nil {
		return nil, err
	}

	if err := s.store.Delete(ctx, collection, id); err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Invalidate(collection, id)
	}
	return map[string]any{
		"collection": collection,
		"id":         id,
		"deleted":    true,
	}, nil
}

// SetTTL writes an expiry timestamp onto a document. The store's TTL policy
// (configured out of band) deletes the document once the field passes.
func (s *Service) SetTTL(ctx context.Context, args map[string]any) (any, error) {
	collection, err := stringArg(args, "collection")
	if err != nil {
		return nil, err
	}
	id, err := stringArg(args, "id")
	if err != nil {
		return nil, err
	}

	field, err := optionalStringArg(args, "field")
	if err != nil {
		return nil, err
	}
	if field == "" {
		field = DefaultTTLField
	}

	raw, ok := args["expireAt"]
	if !ok || raw == nil {
		return nil, fmt.Errorf("%w: expireAt", ErrMissingArgument)
	}
	converted := s.norm.ToNative(raw, fsvalue.TypeTimestamp)
	expireAt, ok := converted.(time.Time)
	if !ok {
		return nil, fmt.Errorf("%w: expireAt must be an ISO timestamp or epoch millis", ErrBadArgument)
	}

	err = s.store.Update(ctx, collection, id, []store.FieldUpdate{
		{Field: field, Value: expireAt},
	})
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Invalidate(collection, id)
	}

	return map[string]any{
		"collection": collection,
		"id":         id,
		"field":      field,
		"expireAt":   expireAt.UTC().Format(time.RFC3339Nano),
	}, nil
}

// parseUpdates converts the wire "updates" array into store field updates.
// Transform names follow the store's vocabulary: serverTimestamp, increment,
// arrayUnion, arrayRemove, delete.
func (s *Service) parseUpdates(raw []any) ([]store.FieldUpdate, error) {
	out := make([]store.FieldUpdate, 0, len(raw))
	for _, r := range raw {
		u, ok := r.(map[string]any)
		if !ok {
			return nil, errBadShape("updates", "objects with field and value or transform")
		}
		field, err := stringArg(u, "field")
		if err != nil {
			return nil, err
		}

		fu := store.FieldUpdate{Field: field}
		transform, err := optionalStringArg(u, "transform")
		if err != nil {
			return nil, err
		}
		switch transform {
		case "":
			fu.Transform = store.TransformNone
			value := u["value"]
			if typeName, ok := u["valueType"].(string); ok {
				value = s.norm.ToNative(value, fsvalue.ParseTargetType(typeName))
			}
			fu.Value = value
		case "serverTimestamp":
			fu.Transform = store.TransformServerTimestamp
		case "increment":
			fu.Transform = store.TransformIncrement
			fu.Value = u["value"]
		case "arrayUnion":
			fu.Transform = store.TransformArrayUnion
			fu.Value = u["value"]
		case "arrayRemove":
			fu.Transform = store.TransformArrayRemove
			fu.Value = u["value"]
		case "delete":
			fu.Transform = store.TransformDelete
		default:
			return nil, fmt.Errorf("%w: unknown transform %q", ErrBadArgument, transform)
		}
		out = append(out, fu)
	}
	return out, nil
}

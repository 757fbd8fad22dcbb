package tools

import (
	"context"
	"fmt"

	"github.com/jonwraymond/firemcp/store"
)

// RunTransaction executes a sequence of operations atomically. Reads return
// their documents in the response; writes commit together or not at all.
// The store requires all reads to precede writes inside a transaction.
func (s *Service) RunTransaction(ctx context.Context, args map[string]any) (any, error) {
	operations, err := sliceArg(args, "operations")
	if err != nil {
		return nil, err
	}

	type op struct {
		kind       string
		collection string
		id         string
		data       map[string]any
		merge      bool
		updates    []store.FieldUpdate
	}

	ops := make([]op, 0, len(operations))
	for _, raw := range operations {
		m, ok := raw.(map[string]any)
		if !ok {
			return nil, errBadShape("operations", "objects with type, collection, id")
		}
		kind, err := stringArg(m, "type")
		if err != nil {
			return nil, err
		}
		collection, err := stringArg(m, "collection")
		if err != nil {
			return nil, err
		}
		id, err := stringArg(m, "id")
		if err != nil {
			return nil, err
		}

		o := op{kind: kind, collection: collection, id: id, merge: boolArg(m, "merge", true)}
		switch kind {
		case "get", "delete":
		case "set":
			data, err := mapArg(m, "data")
			if err != nil {
				return nil, err
			}
			fieldTypes, err := optionalMapArg(m, "fieldTypes")
			if err != nil {
				return nil, err
			}
			o.data = s.convertFields(data, fieldTypes)
		case "update":
			updates, err := sliceArg(m, "updates")
			if err != nil {
				return nil, err
			}
			o.updates, err = s.parseUpdates(updates)
			if err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("%w: unknown operation type %q", ErrBadArgument, kind)
		}
		ops = append(ops, o)
	}

	var reads []map[string]any
	err = s.store.RunTransaction(ctx, func(ctx context.Context, tx store.Tx) error {
		reads = reads[:0] // the store may retry the whole function
		for _, o := range ops {
			switch o.kind {
			case "get":
				doc, err := tx.Get(o.collection, o.id)
				if err != nil {
					return err
				}
				reads = append(reads, s.docResponse(doc))
			case "set":
				if err := tx.Set(o.collection, o.id, o.data, o.merge); err != nil {
					return err
				}
			case "update":
				if err := tx.Update(o.collection, o.id, o.updates); err != nil {
					return err
				}
			case "delete":
				if err := tx.Delete(o.collection, o.id); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Invalidate written keys only after the transaction commits.
	if s.cache != nil {
		for _, o := range ops {
			if o.kind != "get" {
				s.cache.Invalidate(o.collection, o.id)
			}
		}
	}

	if reads == nil {
		reads = []map[string]any{}
	}
	return map[string]any{
		"committed": true,
		"reads":     reads,
	}, nil
}

// BatchWrite applies a set of writes atomically without reads.
func (s *Service) BatchWrite(ctx context.Context, args map[string]any) (any, error) {
	rawWrites, err := sliceArg(args, "writes")
	if err != nil {
		return nil, err
	}

	writes := make([]store.Write, 0, len(rawWrites))
	for _, raw := range rawWrites {
		m, ok := raw.(map[string]any)
		if !ok {
			return nil, errBadShape("writes", "objects with type, collection, id")
		}
		kind, err := stringArg(m, "type")
		if err != nil {
			return nil, err
		}
		collection, err := stringArg(m, "collection")
		if err != nil {
			return nil, err
		}
		id, err := stringArg(m, "id")
		if err != nil {
			return nil, err
		}

		w := store.Write{Collection: collection, ID: id, Merge: boolArg(m, "merge", false)}
		switch kind {
		case "create":
			w.Kind = store.WriteCreate
		case "set":
			w.Kind = store.WriteSet
		case "update":
			w.Kind = store.WriteUpdate
		case "delete":
			w.Kind = store.WriteDelete
		default:
			return nil, fmt.Errorf("%w: unknown write type %q", ErrBadArgument, kind)
		}

		if kind == "create" || kind == "set" {
			data, err := mapArg(m, "data")
			if err != nil {
				return nil, err
			}
			fieldTypes, err := optionalMapArg(m, "fieldTypes")
			if err != nil {
				return nil, err
			}
			w.Data = s.convertFields(data, fieldTypes)
		}
		if kind == "update" {
			updates, err := sliceArg(m, "updates")
			if err != nil {
				return nil, err
			}
			w.Updates, err = s.parseUpdates(updates)
			if err != nil {
				return nil, err
			}
		}
		writes = append(writes, w)
	}

	if err := s.store.Batch(ctx, writes); err != nil {
		return nil, err
	}

	if s.cache != nil {
		for _, w := range writes {
			s.cache.Invalidate(w.Collection, w.ID)
		}
	}

	return map[string]any{
		"committed": true,
		"count":     len(writes),
	}, nil
}

package store

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-process Store used by tests and local runs. Documents
// are deep-copied on every read and write, so callers can never alias
// internal state.
type MemoryStore struct {
	mu          sync.Mutex
	collections map[string]map[string]*memDoc
	closed      bool

	now func() time.Time
}

type memDoc struct {
	data       map[string]any
	createTime time.Time
	updateTime time.Time
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		collections: make(map[string]map[string]*memDoc),
		now:         time.Now,
	}
}

func (s *MemoryStore) Get(ctx context.Context, collection, id string) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	return s.getLocked(collection, id)
}

func (s *MemoryStore) getLocked(collection, id string) (*Document, error) {
	if err := validatePath(collection, id); err != nil {
		return nil, err
	}
	d, ok := s.collections[collection][id]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, collection, id)
	}
	return &Document{
		Collection: collection,
		ID:         id,
		Path:       collection + "/" + id,
		Data:       cloneMap(d.data),
		CreateTime: d.createTime,
		UpdateTime: d.updateTime,
	}, nil
}

func (s *MemoryStore) Create(ctx context.Context, collection, id string, data map[string]any) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if id == "" {
		id = uuid.NewString()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	if err := validatePath(collection, id); err != nil {
		return nil, err
	}
	if _, ok := s.collections[collection][id]; ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrAlreadyExists, collection, id)
	}

	s.putLocked(collection, id, cloneMap(data), true)
	return s.getLocked(collection, id)
}

func (s *MemoryStore) Set(ctx context.Context, collection, id string, data map[string]any, merge bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	return s.setLocked(collection, id, data, merge)
}

func (s *MemoryStore) setLocked(collection, id string, data map[string]any, merge bool) error {
	if err := validatePath(collection, id); err != nil {
		return err
	}
	if existing, ok := s.collections[collection][id]; ok && merge {
		mergeMaps(existing.data, data)
		existing.updateTime = s.now()
		return nil
	}
	s.putLocked(collection, id, cloneMap(data), false)
	return nil
}

func (s *MemoryStore) Update(ctx context.Context, collection, id string, updates []FieldUpdate) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	return s.updateLocked(collection, id, updates)
}

func (s *MemoryStore) updateLocked(collection, id string, updates []FieldUpdate) error {
	if err := validatePath(collection, id); err != nil {
		return err
	}
	d, ok := s.collections[collection][id]
	if !ok {
		return fmt.Errorf("%w: %s/%s", ErrNotFound, collection, id)
	}

	now := s.now()
	for _, u := range updates {
		if u.Field == "" {
			return fmt.Errorf("%w: empty field path", ErrInvalidArgument)
		}
		applyTransform(d.data, u, now)
	}
	d.updateTime = now
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, collection, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	return s.deleteLocked(collection, id)
}

func (s *MemoryStore) deleteLocked(collection, id string) error {
	if err := validatePath(collection, id); err != nil {
		return err
	}
	delete(s.collections[collection], id)
	return nil
}

func (s *MemoryStore) Query(ctx context.Context, q Query) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	if q.Collection == "" {
		return nil, fmt.Errorf("%w: empty collection", ErrInvalidArgument)
	}

	var out []Document
	for path, docs := range s.collections {
		if !q.matchesCollection(path) {
			continue
		}
		for id, d := range docs {
			if matchesFilters(d.data, q.Filters) {
				out = append(out, Document{
					Collection: path,
					ID:         id,
					Path:       path + "/" + id,
					Data:       cloneMap(d.data),
					CreateTime: d.createTime,
					UpdateTime: d.updateTime,
				})
			}
		}
	}

	sortDocuments(out, q.Orders)
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (q Query) matchesCollection(path string) bool {
	if !q.Group {
		return path == q.Collection
	}
	segments := strings.Split(path, "/")
	return segments[len(segments)-1] == q.Collection
}

func (s *MemoryStore) RunTransaction(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	// Serializable by construction: the store lock is held for the whole
	// transaction and a snapshot restores pre-transaction state on abort.
	snapshot := s.snapshotLocked()
	if err := fn(ctx, &memTx{s: s}); err != nil {
		s.collections = snapshot
		return err
	}
	return nil
}

func (s *MemoryStore) Batch(ctx context.Context, writes []Write) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	snapshot := s.snapshotLocked()
	for _, w := range writes {
		var err error
		switch w.Kind {
		case WriteCreate:
			if _, ok := s.collections[w.Collection][w.ID]; ok {
				err = fmt.Errorf("%w: %s/%s", ErrAlreadyExists, w.Collection, w.ID)
			} else if err = validatePath(w.Collection, w.ID); err == nil {
				s.putLocked(w.Collection, w.ID, cloneMap(w.Data), true)
			}
		case WriteSet:
			err = s.setLocked(w.Collection, w.ID, w.Data, w.Merge)
		case WriteUpdate:
			err = s.updateLocked(w.Collection, w.ID, w.Updates)
		case WriteDelete:
			err = s.deleteLocked(w.Collection, w.ID)
		default:
			err = fmt.Errorf("%w: unknown write kind %d", ErrInvalidArgument, w.Kind)
		}
		if err != nil {
			s.collections = snapshot
			return err
		}
	}
	return nil
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	return nil
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// memTx applies operations directly; RunTransaction's snapshot provides
// rollback.
type memTx struct {
	s *MemoryStore
}

func (t *memTx) Get(collection, id string) (*Document, error) {
	return t.s.getLocked(collection, id)
}

func (t *memTx) Set(collection, id string, data map[string]any, merge bool) error {
	return t.s.setLocked(collection, id, data, merge)
}

func (t *memTx) Update(collection, id string, updates []FieldUpdate) error {
	return t.s.updateLocked(collection, id, updates)
}

func (t *memTx) Delete(collection, id string) error {
	return t.s.deleteLocked(collection, id)
}

func (s *MemoryStore) putLocked(collection, id string, data map[string]any, fresh bool) {
	col, ok := s.collections[collection]
	if !ok {
		col = make(map[string]*memDoc)
		s.collections[collection] = col
	}
	now := s.now()
	created := now
	if !fresh {
		if prev, ok := col[id]; ok {
			created = prev.createTime
		}
	}
	col[id] = &memDoc{data: data, createTime: created, updateTime: now}
}

func (s *MemoryStore) snapshotLocked() map[string]map[string]*memDoc {
	snap := make(map[string]map[string]*memDoc, len(s.collections))
	for path, docs := range s.collections {
		col := make(map[string]*memDoc, len(docs))
		for id, d := range docs {
			col[id] = &memDoc{
				data:       cloneMap(d.data),
				createTime: d.createTime,
				updateTime: d.updateTime,
			}
		}
		snap[path] = col
	}
	return snap
}

func validatePath(collection, id string) error {
	if collection == "" || id == "" {
		return fmt.Errorf("%w: empty collection or id", ErrInvalidArgument)
	}
	if strings.Contains(id, "/") {
		return fmt.Errorf("%w: document id contains '/'", ErrInvalidArgument)
	}
	if len(strings.Split(collection, "/"))%2 != 1 {
		return fmt.Errorf("%w: collection path %q has even segment count", ErrInvalidArgument, collection)
	}
	return nil
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return cloneMap(val)
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = cloneValue(elem)
		}
		return out
	default:
		return v
	}
}

// mergeMaps merges src into dst recursively; map fields merge, everything
// else overwrites.
func mergeMaps(dst, src map[string]any) {
	for k, v := range src {
		if sub, ok := v.(map[string]any); ok {
			if existing, ok := dst[k].(map[string]any); ok {
				mergeMaps(existing, sub)
				continue
			}
		}
		dst[k] = cloneValue(v)
	}
}

func applyTransform(data map[string]any, u FieldUpdate, now time.Time) {
	switch u.Transform {
	case TransformNone:
		setFieldPath(data, u.Field, cloneValue(u.Value))
	case TransformServerTimestamp:
		setFieldPath(data, u.Field, now)
	case TransformIncrement:
		cur, _ := getFieldPath(data, u.Field)
		setFieldPath(data, u.Field, addNumbers(cur, u.Value))
	case TransformArrayUnion:
		cur, _ := getFieldPath(data, u.Field)
		arr, _ := cur.([]any)
		for _, elem := range operands(u.Value) {
			if !containsValue(arr, elem) {
				arr = append(arr, cloneValue(elem))
			}
		}
		setFieldPath(data, u.Field, arr)
	case TransformArrayRemove:
		cur, _ := getFieldPath(data, u.Field)
		arr, _ := cur.([]any)
		var kept []any
		for _, elem := range arr {
			if !containsValue(operands(u.Value), elem) {
				kept = append(kept, elem)
			}
		}
		if kept == nil {
			kept = []any{}
		}
		setFieldPath(data, u.Field, kept)
	case TransformDelete:
		deleteFieldPath(data, u.Field)
	}
}

func operands(v any) []any {
	if arr, ok := v.([]any); ok {
		return arr
	}
	if v == nil {
		return nil
	}
	return []any{v}
}

func containsValue(arr []any, v any) bool {
	for _, elem := range arr {
		if reflect.DeepEqual(elem, v) {
			return true
		}
	}
	return false
}

func addNumbers(cur, delta any) any {
	ci, curIsInt := asInt64(cur)
	di, deltaIsInt := asInt64(delta)
	if curIsInt && deltaIsInt {
		return ci + di
	}
	cf, _ := asFloat64(cur)
	df, _ := asFloat64(delta)
	return cf + df
}

func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case nil:
		return 0, true
	}
	return 0, false
}

func asFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case nil:
		return 0, true
	}
	return 0, false
}

func setFieldPath(data map[string]any, path string, v any) {
	parts := strings.Split(path, ".")
	for _, part := range parts[:len(parts)-1] {
		next, ok := data[part].(map[string]any)
		if !ok {
			next = make(map[string]any)
			data[part] = next
		}
		data = next
	}
	data[parts[len(parts)-1]] = v
}

func getFieldPath(data map[string]any, path string) (any, bool) {
	parts := strings.Split(path, ".")
	for _, part := range parts[:len(parts)-1] {
		next, ok := data[part].(map[string]any)
		if !ok {
			return nil, false
		}
		data = next
	}
	v, ok := data[parts[len(parts)-1]]
	return v, ok
}

func deleteFieldPath(data map[string]any, path string) {
	parts := strings.Split(path, ".")
	for _, part := range parts[:len(parts)-1] {
		next, ok := data[part].(map[string]any)
		if !ok {
			return
		}
		data = next
	}
	delete(data, parts[len(parts)-1])
}

func matchesFilters(data map[string]any, filters []Filter) bool {
	for _, f := range filters {
		if !matchesFilter(data, f) {
			return false
		}
	}
	return true
}

func matchesFilter(data map[string]any, f Filter) bool {
	field, ok := getFieldPath(data, f.Field)
	if !ok {
		return false
	}

	switch f.Op {
	case "==":
		return equalValues(field, f.Value)
	case "!=":
		return !equalValues(field, f.Value)
	case "<", "<=", ">", ">=":
		cmp, ok := compareValues(field, f.Value)
		if !ok {
			return false
		}
		switch f.Op {
		case "<":
			return cmp < 0
		case "<=":
			return cmp <= 0
		case ">":
			return cmp > 0
		default:
			return cmp >= 0
		}
	case "array-contains":
		arr, ok := field.([]any)
		if !ok {
			return false
		}
		for _, elem := range arr {
			if equalValues(elem, f.Value) {
				return true
			}
		}
		return false
	case "array-contains-any":
		arr, ok := field.([]any)
		if !ok {
			return false
		}
		for _, want := range operands(f.Value) {
			for _, elem := range arr {
				if equalValues(elem, want) {
					return true
				}
			}
		}
		return false
	case "in":
		for _, want := range operands(f.Value) {
			if equalValues(field, want) {
				return true
			}
		}
		return false
	case "not-in":
		for _, want := range operands(f.Value) {
			if equalValues(field, want) {
				return false
			}
		}
		return true
	}
	return false
}

func equalValues(a, b any) bool {
	if cmp, ok := compareValues(a, b); ok {
		return cmp == 0
	}
	return reflect.DeepEqual(a, b)
}

// compareValues orders two values of compatible type. ok is false for
// mixed-type or non-orderable pairs.
func compareValues(a, b any) (int, bool) {
	if af, aok := asFloat64(a); aok {
		bf, bok := asFloat64(b)
		if !bok {
			return 0, false
		}
		switch {
		case af < bf:
			return -1, true
		case af > bf:
			return 1, true
		default:
			return 0, true
		}
	}
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(av, bv), true
	case bool:
		bv, ok := b.(bool)
		if !ok {
			return 0, false
		}
		switch {
		case av == bv:
			return 0, true
		case !av:
			return -1, true
		default:
			return 1, true
		}
	case time.Time:
		bv, ok := b.(time.Time)
		if !ok {
			return 0, false
		}
		return av.Compare(bv), true
	}
	return 0, false
}

func sortDocuments(docs []Document, orders []Order) {
	if len(orders) == 0 {
		sort.SliceStable(docs, func(i, j int) bool {
			return docs[i].Path < docs[j].Path
		})
		return
	}
	sort.SliceStable(docs, func(i, j int) bool {
		for _, o := range orders {
			a, _ := getFieldPath(docs[i].Data, o.Field)
			b, _ := getFieldPath(docs[j].Data, o.Field)
			cmp, ok := compareValues(a, b)
			if !ok || cmp == 0 {
				continue
			}
			if o.Desc {
				return cmp > 0
			}
			return cmp < 0
		}
		return false
	})
}

// Ensure MemoryStore implements Store.
var _ Store = (*MemoryStore)(nil)

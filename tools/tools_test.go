package tools

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonwraymond/firemcp/doccache"
	"github.com/jonwraymond/firemcp/fsvalue"
	"github.com/jonwraymond/firemcp/store"
)

func testService(t *testing.T) (*Service, *store.MemoryStore, *doccache.Cache) {
	t.Helper()
	st := store.NewMemoryStore()
	cache := doccache.New(doccache.Config{TTL: time.Minute, MaxSize: 100})
	return NewService(st, cache, fsvalue.New(nil), nil), st, cache
}

func mustCall(t *testing.T, fn func(context.Context, map[string]any) (any, error), args map[string]any) map[string]any {
	t.Helper()
	v, err := fn(context.Background(), args)
	if err != nil {
		t.Fatalf("call failed: %v", err)
	}
	return v.(map[string]any)
}

func TestCreateAndGetDocument(t *testing.T) {
	s, _, _ := testService(t)

	created := mustCall(t, s.CreateDocument, map[string]any{
		"collection": "users",
		"id":         "alice",
		"data":       map[string]any{"name": "Alice", "age": float64(30)},
	})
	if created["id"] != "alice" || created["path"] != "users/alice" {
		t.Errorf("created = %v", created)
	}

	got := mustCall(t, s.GetDocument, map[string]any{"collection": "users", "id": "alice"})
	data := got["data"].(map[string]any)
	if data["name"] != "Alice" {
		t.Errorf("data = %v", data)
	}
	if got["cached"] == true {
		t.Error("first read marked cached")
	}

	// Second read comes from the cache.
	got = mustCall(t, s.GetDocument, map[string]any{"collection": "users", "id": "alice"})
	if got["cached"] != true {
		t.Error("second read not cached")
	}
}

func TestCreateAutoID(t *testing.T) {
	s, _, _ := testService(t)
	a := mustCall(t, s.CreateDocument, map[string]any{
		"collection": "logs", "data": map[string]any{"n": float64(1)},
	})
	b := mustCall(t, s.CreateDocument, map[string]any{
		"collection": "logs", "data": map[string]any{"n": float64(2)},
	})
	if a["id"] == "" || a["id"] == b["id"] {
		t.Errorf("auto IDs: %v, %v", a["id"], b["id"])
	}
}

func TestCreateWithFieldTypes(t *testing.T) {
	s, st, _ := testService(t)

	mustCall(t, s.CreateDocument, map[string]any{
		"collection": "events",
		"id":         "e1",
		"data": map[string]any{
			"at":    "2024-06-01T10:00:00Z",
			"where": map[string]any{"latitude": float64(1), "longitude": float64(2)},
			"plain": "unchanged",
		},
		"fieldTypes": map[string]any{"at": "timestamp", "where": "geopoint"},
	})

	doc, err := st.Get(context.Background(), "events", "e1")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := doc.Data["at"].(time.Time); !ok {
		t.Errorf("at stored as %T, want time.Time", doc.Data["at"])
	}
	if doc.Data["plain"] != "unchanged" {
		t.Errorf("plain = %v", doc.Data["plain"])
	}
}

func TestGetDocumentNotFound(t *testing.T) {
	s, _, _ := testService(t)
	_, err := s.GetDocument(context.Background(), map[string]any{"collection": "users", "id": "ghost"})
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestMissingArguments(t *testing.T) {
	s, _, _ := testService(t)
	_, err := s.GetDocument(context.Background(), map[string]any{"collection": "users"})
	if !errors.Is(err, ErrMissingArgument) {
		t.Errorf("err = %v, want ErrMissingArgument", err)
	}
	_, err = s.CreateDocument(context.Background(), map[string]any{"collection": "users", "id": "x"})
	if !errors.Is(err, ErrMissingArgument) {
		t.Errorf("err = %v, want ErrMissingArgument", err)
	}
}

func TestUpdateInvalidatesCache(t *testing.T) {
	s, _, _ := testService(t)

	mustCall(t, s.CreateDocument, map[string]any{
		"collection": "users", "id": "bob", "data": map[string]any{"age": float64(1)},
	})
	mustCall(t, s.GetDocument, map[string]any{"collection": "users", "id": "bob"})

	mustCall(t, s.UpdateDocument, map[string]any{
		"collection": "users", "id": "bob",
		"data": map[string]any{"age": float64(2)},
	})

	got := mustCall(t, s.GetDocument, map[string]any{"collection": "users", "id": "bob"})
	if got["cached"] == true {
		t.Error("stale entry served after write")
	}
	if got["data"].(map[string]any)["age"] != float64(2) {
		t.Errorf("age = %v, want 2", got["data"].(map[string]any)["age"])
	}
}

func TestUpdateMergeSemantics(t *testing.T) {
	s, _, _ := testService(t)
	mustCall(t, s.CreateDocument, map[string]any{
		"collection": "users", "id": "c", "data": map[string]any{"a": float64(1), "b": float64(2)},
	})

	// Default merge keeps untouched fields.
	mustCall(t, s.UpdateDocument, map[string]any{
		"collection": "users", "id": "c", "data": map[string]any{"b": float64(3)},
	})
	got := mustCall(t, s.GetDocument, map[string]any{"collection": "users", "id": "c"})
	data := got["data"].(map[string]any)
	if data["a"] != float64(1) || data["b"] != float64(3) {
		t.Errorf("merged data = %v", data)
	}

	// merge=false replaces the document.
	mustCall(t, s.UpdateDocument, map[string]any{
		"collection": "users", "id": "c", "data": map[string]any{"only": true}, "merge": false,
	})
	got = mustCall(t, s.GetDocument, map[string]any{"collection": "users", "id": "c"})
	data = got["data"].(map[string]any)
	if _, ok := data["a"]; ok {
		t.Errorf("replace kept old field: %v", data)
	}
}

func TestUpdateTransforms(t *testing.T) {
	s, _, _ := testService(t)
	mustCall(t, s.CreateDocument, map[string]any{
		"collection": "counters", "id": "c1",
		"data": map[string]any{"n": float64(1), "tags": []any{"a"}},
	})

	mustCall(t, s.UpdateDocument, map[string]any{
		"collection": "counters", "id": "c1",
		"updates": []any{
			map[string]any{"field": "n", "transform": "increment", "value": float64(4)},
			map[string]any{"field": "tags", "transform": "arrayUnion", "value": []any{"b"}},
			map[string]any{"field": "touched", "transform": "serverTimestamp"},
		},
	})

	got := mustCall(t, s.GetDocument, map[string]any{"collection": "counters", "id": "c1"})
	data := got["data"].(map[string]any)
	if data["n"] != float64(5) {
		t.Errorf("n = %v, want 5", data["n"])
	}
	tags := data["tags"].([]any)
	if len(tags) != 2 {
		t.Errorf("tags = %v", tags)
	}
	if _, ok := data["touched"].(string); !ok {
		t.Errorf("touched = %T, want normalized timestamp string", data["touched"])
	}
}

func TestUnknownTransformRejected(t *testing.T) {
	s, _, _ := testService(t)
	_, err := s.UpdateDocument(context.Background(), map[string]any{
		"collection": "users", "id": "x",
		"updates": []any{map[string]any{"field": "f", "transform": "bogus"}},
	})
	if !errors.Is(err, ErrBadArgument) {
		t.Errorf("err = %v, want ErrBadArgument", err)
	}
}

func TestDeleteDocument(t *testing.T) {
	s, _, _ := testService(t)
	mustCall(t, s.CreateDocument, map[string]any{
		"collection": "users", "id": "d", "data": map[string]any{},
	})
	mustCall(t, s.GetDocument, map[string]any{"collection": "users", "id": "d"})

	resp := mustCall(t, s.DeleteDocument, map[string]any{"collection": "users", "id": "d"})
	if resp["deleted"] != true {
		t.Errorf("resp = %v", resp)
	}

	if _, err := s.GetDocument(context.Background(), map[string]any{"collection": "users", "id": "d"}); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound after delete", err)
	}
}

func TestQueryCollection(t *testing.T) {
	s, _, _ := testService(t)
	for _, u := range []struct {
		id  string
		age float64
	}{{"a", 20}, {"b", 30}, {"c", 40}} {
		mustCall(t, s.CreateDocument, map[string]any{
			"collection": "users", "id": u.id, "data": map[string]any{"age": u.age},
		})
	}

	resp := mustCall(t, s.QueryCollection, map[string]any{
		"collection": "users",
		"filters":    []any{map[string]any{"field": "age", "op": ">", "value": float64(20)}},
		"orderBy":    []any{map[string]any{"field": "age", "direction": "desc"}},
		"limit":      float64(1),
	})
	if resp["count"] != 1 {
		t.Fatalf("count = %v", resp["count"])
	}
	docs := resp["documents"].([]map[string]any)
	if docs[0]["id"] != "c" {
		t.Errorf("top doc = %v, want c", docs[0]["id"])
	}
}

func TestRunTransactionTransfer(t *testing.T) {
	s, _, _ := testService(t)
	mustCall(t, s.CreateDocument, map[string]any{
		"collection": "accounts", "id": "a", "data": map[string]any{"balance": float64(100)},
	})
	mustCall(t, s.CreateDocument, map[string]any{
		"collection": "accounts", "id": "b", "data": map[string]any{"balance": float64(0)},
	})

	resp := mustCall(t, s.RunTransaction, map[string]any{
		"operations": []any{
			map[string]any{"type": "get", "collection": "accounts", "id": "a"},
			map[string]any{"type": "update", "collection": "accounts", "id": "a",
				"updates": []any{map[string]any{"field": "balance", "transform": "increment", "value": float64(-40)}}},
			map[string]any{"type": "update", "collection": "accounts", "id": "b",
				"updates": []any{map[string]any{"field": "balance", "transform": "increment", "value": float64(40)}}},
		},
	})
	if resp["committed"] != true {
		t.Fatalf("resp = %v", resp)
	}
	reads := resp["reads"].([]map[string]any)
	if len(reads) != 1 {
		t.Fatalf("reads = %v", reads)
	}

	a := mustCall(t, s.GetDocument, map[string]any{"collection": "accounts", "id": "a"})
	b := mustCall(t, s.GetDocument, map[string]any{"collection": "accounts", "id": "b"})
	if a["data"].(map[string]any)["balance"] != float64(60) {
		t.Errorf("a.balance = %v", a["data"].(map[string]any)["balance"])
	}
	if b["data"].(map[string]any)["balance"] != float64(40) {
		t.Errorf("b.balance = %v", b["data"].(map[string]any)["balance"])
	}
}

func TestRunTransactionRollback(t *testing.T) {
	s, _, _ := testService(t)
	mustCall(t, s.CreateDocument, map[string]any{
		"collection": "accounts", "id": "a", "data": map[string]any{"balance": float64(100)},
	})

	_, err := s.RunTransaction(context.Background(), map[string]any{
		"operations": []any{
			map[string]any{"type": "update", "collection": "accounts", "id": "a",
				"updates": []any{map[string]any{"field": "balance", "value": float64(0)}}},
			map[string]any{"type": "get", "collection": "accounts", "id": "missing"},
		},
	})
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}

	got := mustCall(t, s.GetDocument, map[string]any{"collection": "accounts", "id": "a"})
	if got["data"].(map[string]any)["balance"] != float64(100) {
		t.Error("failed transaction left a partial write")
	}
}

func TestBatchWrite(t *testing.T) {
	s, _, _ := testService(t)

	resp := mustCall(t, s.BatchWrite, map[string]any{
		"writes": []any{
			map[string]any{"type": "create", "collection": "users", "id": "x", "data": map[string]any{"n": float64(1)}},
			map[string]any{"type": "set", "collection": "users", "id": "y", "data": map[string]any{"n": float64(2)}},
		},
	})
	if resp["committed"] != true || resp["count"] != 2 {
		t.Fatalf("resp = %v", resp)
	}

	got := mustCall(t, s.GetDocument, map[string]any{"collection": "users", "id": "y"})
	if got["data"].(map[string]any)["n"] != float64(2) {
		t.Errorf("y = %v", got["data"])
	}
}

func TestBatchWriteAtomic(t *testing.T) {
	s, _, _ := testService(t)
	mustCall(t, s.CreateDocument, map[string]any{
		"collection": "users", "id": "exists", "data": map[string]any{},
	})

	_, err := s.BatchWrite(context.Background(), map[string]any{
		"writes": []any{
			map[string]any{"type": "set", "collection": "users", "id": "new", "data": map[string]any{}},
			map[string]any{"type": "create", "collection": "users", "id": "exists", "data": map[string]any{}},
		},
	})
	if !errors.Is(err, store.ErrAlreadyExists) {
		t.Fatalf("err = %v, want ErrAlreadyExists", err)
	}

	if _, err := s.GetDocument(context.Background(), map[string]any{"collection": "users", "id": "new"}); !errors.Is(err, store.ErrNotFound) {
		t.Error("failed batch left a partial write")
	}
}

func TestSetTTL(t *testing.T) {
	s, st, _ := testService(t)
	mustCall(t, s.CreateDocument, map[string]any{
		"collection": "sessions", "id": "s1", "data": map[string]any{},
	})

	resp := mustCall(t, s.SetTTL, map[string]any{
		"collection": "sessions", "id": "s1", "expireAt": "2030-01-01T00:00:00Z",
	})
	if resp["field"] != DefaultTTLField {
		t.Errorf("field = %v", resp["field"])
	}

	doc, err := st.Get(context.Background(), "sessions", "s1")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := doc.Data[DefaultTTLField].(time.Time); !ok {
		t.Errorf("expireAt stored as %T, want time.Time", doc.Data[DefaultTTLField])
	}

	_, err = s.SetTTL(context.Background(), map[string]any{
		"collection": "sessions", "id": "s1", "expireAt": map[string]any{"foo": float64(1)},
	})
	if !errors.Is(err, ErrBadArgument) {
		t.Errorf("bad expireAt err = %v, want ErrBadArgument", err)
	}
}

func TestCacheTools(t *testing.T) {
	s, _, _ := testService(t)
	mustCall(t, s.CreateDocument, map[string]any{
		"collection": "users", "id": "u", "data": map[string]any{},
	})
	mustCall(t, s.GetDocument, map[string]any{"collection": "users", "id": "u"}) // miss
	mustCall(t, s.GetDocument, map[string]any{"collection": "users", "id": "u"}) // hit

	stats := mustCall(t, s.CacheStats, nil)
	if stats["enabled"] != true {
		t.Fatalf("stats = %v", stats)
	}
	if stats["hitCount"] != int64(1) || stats["missCount"] != int64(1) {
		t.Errorf("counts = %v / %v", stats["hitCount"], stats["missCount"])
	}

	cleared := mustCall(t, s.ClearCache, nil)
	if cleared["cleared"] != true {
		t.Errorf("cleared = %v", cleared)
	}
	stats = mustCall(t, s.CacheStats, nil)
	if stats["size"] != 0 || stats["hitCount"] != int64(0) {
		t.Errorf("stats after clear = %v", stats)
	}
}

func TestNilCacheDisablesCaching(t *testing.T) {
	st := store.NewMemoryStore()
	s := NewService(st, nil, fsvalue.New(nil), nil)

	mustCall(t, s.CreateDocument, map[string]any{
		"collection": "users", "id": "u", "data": map[string]any{"n": float64(1)},
	})
	got := mustCall(t, s.GetDocument, map[string]any{"collection": "users", "id": "u"})
	if got["cached"] == true {
		t.Error("nil cache produced a cache hit")
	}
	if got["data"].(map[string]any)["n"] != float64(1) {
		t.Error("results differ with cache disabled")
	}

	stats := mustCall(t, s.CacheStats, nil)
	if stats["enabled"] != false {
		t.Errorf("stats = %v", stats)
	}
}

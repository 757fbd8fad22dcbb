package fstore

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/jonwraymond/firemcp/fsvalue"
	"github.com/jonwraymond/firemcp/store"
)

// Client implements store.Store over a Cloud Firestore database.
type Client struct {
	c *firestore.Client
}

// New connects to the project's default database. credentialsFile may be
// empty, in which case Application Default Credentials apply.
func New(ctx context.Context, projectID, credentialsFile string) (*Client, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	c, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("fstore: connect: %w", err)
	}
	return &Client{c: c}, nil
}

// ResolveRef implements fsvalue.RefResolver.
func (cl *Client) ResolveRef(path string) (*firestore.DocumentRef, bool) {
	ref := cl.c.Doc(path)
	return ref, ref != nil
}

func (cl *Client) Get(ctx context.Context, collection, id string) (*store.Document, error) {
	snap, err := cl.c.Collection(collection).Doc(id).Get(ctx)
	if err != nil {
		return nil, translate(err)
	}
	return snapshotDocument(collection, snap), nil
}

func (cl *Client) Create(ctx context.Context, collection, id string, data map[string]any) (*store.Document, error) {
	col := cl.c.Collection(collection)

	var ref *firestore.DocumentRef
	var err error
	if id == "" {
		ref, _, err = col.Add(ctx, data)
	} else {
		ref = col.Doc(id)
		_, err = ref.Create(ctx, data)
	}
	if err != nil {
		return nil, translate(err)
	}

	snap, err := ref.Get(ctx)
	if err != nil {
		return nil, translate(err)
	}
	return snapshotDocument(collection, snap), nil
}

func (cl *Client) Set(ctx context.Context, collection, id string, data map[string]any, merge bool) error {
	ref := cl.c.Collection(collection).Doc(id)

	var err error
	if merge {
		_, err = ref.Set(ctx, data, firestore.MergeAll)
	} else {
		_, err = ref.Set(ctx, data)
	}
	return translate(err)
}

func (cl *Client) Update(ctx context.Context, collection, id string, updates []store.FieldUpdate) error {
	ups, err := fieldUpdates(updates)
	if err != nil {
		return err
	}
	_, err = cl.c.Collection(collection).Doc(id).Update(ctx, ups)
	return translate(err)
}

func (cl *Client) Delete(ctx context.Context, collection, id string) error {
	_, err := cl.c.Collection(collection).Doc(id).Delete(ctx)
	return translate(err)
}

func (cl *Client) Query(ctx context.Context, q store.Query) ([]store.Document, error) {
	var fq firestore.Query
	if q.Group {
		fq = cl.c.CollectionGroup(q.Collection).Query
	} else {
		fq = cl.c.Collection(q.Collection).Query
	}

	for _, f := range q.Filters {
		fq = fq.Where(f.Field, f.Op, f.Value)
	}
	for _, o := range q.Orders {
		dir := firestore.Asc
		if o.Desc {
			dir = firestore.Desc
		}
		fq = fq.OrderBy(o.Field, dir)
	}
	if q.Limit > 0 {
		fq = fq.Limit(q.Limit)
	}

	iter := fq.Documents(ctx)
	defer iter.Stop()

	var out []store.Document
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, translate(err)
		}
		out = append(out, *snapshotDocument(parentPath(snap), snap))
	}
	return out, nil
}

func (cl *Client) RunTransaction(ctx context.Context, fn func(ctx context.Context, tx store.Tx) error) error {
	err := cl.c.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		return fn(ctx, &fsTx{cl: cl, tx: tx})
	})
	return translate(err)
}

func (cl *Client) Batch(ctx context.Context, writes []store.Write) error {
	batch := cl.c.Batch()
	for _, w := range writes {
		ref := cl.c.Collection(w.Collection).Doc(w.ID)
		switch w.Kind {
		case store.WriteCreate:
			batch.Create(ref, w.Data)
		case store.WriteSet:
			if w.Merge {
				batch.Set(ref, w.Data, firestore.MergeAll)
			} else {
				batch.Set(ref, w.Data)
			}
		case store.WriteUpdate:
			ups, err := fieldUpdates(w.Updates)
			if err != nil {
				return err
			}
			batch.Update(ref, ups)
		case store.WriteDelete:
			batch.Delete(ref)
		default:
			return fmt.Errorf("%w: unknown write kind %d", store.ErrInvalidArgument, w.Kind)
		}
	}
	_, err := batch.Commit(ctx)
	return translate(err)
}

func (cl *Client) Ping(ctx context.Context) error {
	iter := cl.c.Collections(ctx)
	if _, err := iter.Next(); err != nil && err != iterator.Done {
		return translate(err)
	}
	return nil
}

func (cl *Client) Close() error {
	return cl.c.Close()
}

// fsTx adapts a live transaction to store.Tx.
type fsTx struct {
	cl *Client
	tx *firestore.Transaction
}

func (t *fsTx) Get(collection, id string) (*store.Document, error) {
	snap, err := t.tx.Get(t.cl.c.Collection(collection).Doc(id))
	if err != nil {
		return nil, translate(err)
	}
	return snapshotDocument(collection, snap), nil
}

func (t *fsTx) Set(collection, id string, data map[string]any, merge bool) error {
	ref := t.cl.c.Collection(collection).Doc(id)
	if merge {
		return translate(t.tx.Set(ref, data, firestore.MergeAll))
	}
	return translate(t.tx.Set(ref, data))
}

func (t *fsTx) Update(collection, id string, updates []store.FieldUpdate) error {
	ups, err := fieldUpdates(updates)
	if err != nil {
		return err
	}
	return translate(t.tx.Update(t.cl.c.Collection(collection).Doc(id), ups))
}

func (t *fsTx) Delete(collection, id string) error {
	return translate(t.tx.Delete(t.cl.c.Collection(collection).Doc(id)))
}

func snapshotDocument(collection string, snap *firestore.DocumentSnapshot) *store.Document {
	return &store.Document{
		Collection: collection,
		ID:         snap.Ref.ID,
		Path:       fsvalue.StoreRelativePath(snap.Ref.Path),
		Data:       snap.Data(),
		CreateTime: snap.CreateTime,
		UpdateTime: snap.UpdateTime,
	}
}

func parentPath(snap *firestore.DocumentSnapshot) string {
	if snap.Ref.Parent == nil {
		return ""
	}
	return fsvalue.StoreRelativePath(snap.Ref.Parent.Path)
}

// fieldUpdates maps the store's typed updates onto the SDK's update and
// transform values.
func fieldUpdates(updates []store.FieldUpdate) ([]firestore.Update, error) {
	out := make([]firestore.Update, 0, len(updates))
	for _, u := range updates {
		if u.Field == "" {
			return nil, fmt.Errorf("%w: empty field path", store.ErrInvalidArgument)
		}
		fu := firestore.Update{Path: u.Field}
		switch u.Transform {
		case store.TransformNone:
			fu.Value = u.Value
		case store.TransformServerTimestamp:
			fu.Value = firestore.ServerTimestamp
		case store.TransformIncrement:
			fu.Value = firestore.Increment(u.Value)
		case store.TransformArrayUnion:
			fu.Value = firestore.ArrayUnion(elements(u.Value)...)
		case store.TransformArrayRemove:
			fu.Value = firestore.ArrayRemove(elements(u.Value)...)
		case store.TransformDelete:
			fu.Value = firestore.Delete
		default:
			return nil, fmt.Errorf("%w: unknown transform %d", store.ErrInvalidArgument, u.Transform)
		}
		out = append(out, fu)
	}
	return out, nil
}

func elements(v any) []any {
	if arr, ok := v.([]any); ok {
		return arr
	}
	if v == nil {
		return nil
	}
	return []any{v}
}

// translate maps gRPC status codes onto the store's sentinels, keeping the
// original error for context.
func translate(err error) error {
	if err == nil {
		return nil
	}
	switch status.Code(err) {
	case codes.NotFound:
		return fmt.Errorf("%w: %s", store.ErrNotFound, err)
	case codes.AlreadyExists:
		return fmt.Errorf("%w: %s", store.ErrAlreadyExists, err)
	case codes.InvalidArgument:
		return fmt.Errorf("%w: %s", store.ErrInvalidArgument, err)
	case codes.Unavailable, codes.DeadlineExceeded:
		return fmt.Errorf("%w: %s", store.ErrUnavailable, err)
	default:
		return err
	}
}

// Ensure Client satisfies both contracts.
var _ store.Store = (*Client)(nil)
var _ fsvalue.RefResolver = (*Client)(nil)

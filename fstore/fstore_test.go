package fstore

import (
	"errors"
	"testing"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/jonwraymond/firemcp/store"
)

func TestTranslate(t *testing.T) {
	cases := []struct {
		code codes.Code
		want error
	}{
		{codes.NotFound, store.ErrNotFound},
		{codes.AlreadyExists, store.ErrAlreadyExists},
		{codes.InvalidArgument, store.ErrInvalidArgument},
		{codes.Unavailable, store.ErrUnavailable},
		{codes.DeadlineExceeded, store.ErrUnavailable},
	}
	for _, c := range cases {
		got := translate(status.Error(c.code, "boom"))
		if !errors.Is(got, c.want) {
			t.Errorf("translate(%v) = %v, want %v", c.code, got, c.want)
		}
	}

	if translate(nil) != nil {
		t.Error("translate(nil) should be nil")
	}

	// Unrecognized codes pass through unchanged.
	plain := status.Error(codes.Internal, "boom")
	if got := translate(plain); !errors.Is(got, plain) {
		t.Errorf("translate(internal) = %v, want passthrough", got)
	}
}

func TestFieldUpdates(t *testing.T) {
	ups, err := fieldUpdates([]store.FieldUpdate{
		{Field: "a", Value: 1},
		{Field: "b", Transform: store.TransformServerTimestamp},
		{Field: "c", Transform: store.TransformIncrement, Value: int64(2)},
		{Field: "d", Transform: store.TransformArrayUnion, Value: []any{"x"}},
		{Field: "e", Transform: store.TransformDelete},
	})
	if err != nil {
		t.Fatalf("fieldUpdates failed: %v", err)
	}
	if len(ups) != 5 {
		t.Fatalf("len = %d, want 5", len(ups))
	}
	for i, want := range []string{"a", "b", "c", "d", "e"} {
		if ups[i].Path != want {
			t.Errorf("ups[%d].Path = %q, want %q", i, ups[i].Path, want)
		}
	}

	if _, err := fieldUpdates([]store.FieldUpdate{{Field: ""}}); !errors.Is(err, store.ErrInvalidArgument) {
		t.Errorf("empty field = %v, want ErrInvalidArgument", err)
	}
}

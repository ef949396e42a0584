package firestore

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
)

// The catalog is a three-level tree of subcollections, so the typed helpers
// here operate on references rather than binding to a single collection.

// GetDoc fetches and decodes a single document.
func GetDoc[T any](ctx context.Context, ref *firestore.DocumentRef, op string) (T, error) {
	var value T
	if ref == nil {
		return value, WrapError(op, errors.New("firestore: document ref is nil"))
	}
	snap, err := ref.Get(ctx)
	if err != nil {
		return value, WrapError(op, err)
	}
	if err := snap.DataTo(&value); err != nil {
		return value, fmt.Errorf("firestore: decode document %s: %w", ref.ID, err)
	}
	return value, nil
}

// ScanQuery runs the query to completion and decodes every document.
// Ordering is whatever the store returns; callers must not rely on it.
func ScanQuery[T any](ctx context.Context, query firestore.Query, op string) ([]T, error) {
	iter := query.Documents(ctx)
	defer iter.Stop()

	var out []T
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, WrapError(op, err)
		}
		var value T
		if err := snap.DataTo(&value); err != nil {
			return nil, fmt.Errorf("firestore: decode document %s: %w", snap.Ref.ID, err)
		}
		out = append(out, value)
	}
	return out, nil
}

// ScanRefs collects the document references matched by the query without
// decoding payloads. Used by the recursive delete passes.
func ScanRefs(ctx context.Context, query firestore.Query, op string) ([]*firestore.DocumentRef, error) {
	iter := query.Documents(ctx)
	defer iter.Stop()

	var refs []*firestore.DocumentRef
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, WrapError(op, err)
		}
		refs = append(refs, snap.Ref)
	}
	return refs, nil
}

// CreateDoc writes a new document, failing with a conflict when the id is
// already occupied. This is the create-vs-upsert distinction: plain Set is
// reserved for paths that deliberately overwrite.
func CreateDoc(ctx context.Context, ref *firestore.DocumentRef, value any, op string) error {
	if ref == nil {
		return WrapError(op, errors.New("firestore: document ref is nil"))
	}
	if _, err := ref.Create(ctx, value); err != nil {
		return WrapError(op, err)
	}
	return nil
}

// UpdateDoc applies a partial update, failing NotFound when absent.
func UpdateDoc(ctx context.Context, ref *firestore.DocumentRef, updates []firestore.Update, op string) error {
	if ref == nil {
		return WrapError(op, errors.New("firestore: document ref is nil"))
	}
	if _, err := ref.Update(ctx, updates); err != nil {
		return WrapError(op, err)
	}
	return nil
}

// DeleteDoc removes a single document. Deleting a missing document is not an
// error, mirroring the store's semantics.
func DeleteDoc(ctx context.Context, ref *firestore.DocumentRef, op string) error {
	if ref == nil {
		return WrapError(op, errors.New("firestore: document ref is nil"))
	}
	if _, err := ref.Delete(ctx); err != nil {
		return WrapError(op, err)
	}
	return nil
}

// DocExists reports whether the document currently exists.
func DocExists(ctx context.Context, ref *firestore.DocumentRef, op string) (bool, error) {
	if ref == nil {
		return false, WrapError(op, errors.New("firestore: document ref is nil"))
	}
	snap, err := ref.Get(ctx)
	if err != nil {
		wrapped := WrapError(op, err)
		var repoErr *Error
		if errors.As(wrapped, &repoErr) && repoErr.IsNotFound() {
			return false, nil
		}
		return false, wrapped
	}
	return snap.Exists(), nil
}

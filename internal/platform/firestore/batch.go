package firestore

import (
	"context"
	"errors"

	"cloud.google.com/go/firestore"
)

// MaxBatchWrites is the store's atomic batch ceiling. A logical operation
// touching more documents than this must be committed in multiple batches.
const MaxBatchWrites = 500

type batchOp struct {
	ref    *firestore.DocumentRef
	value  any
	delete bool
}

// BatchWriter accumulates writes and commits them in batches of at most the
// configured ceiling. Each flushed batch is atomic; the whole accumulation is
// not. Callers order ops so that partial failure duplicates rather than
// loses data (creates first, deletes second).
type BatchWriter struct {
	client *firestore.Client
	limit  int
	ops    []batchOp
}

// NewBatchWriter constructs a BatchWriter with the default ceiling.
func NewBatchWriter(client *firestore.Client) *BatchWriter {
	return &BatchWriter{client: client, limit: MaxBatchWrites}
}

// WithLimit lowers the per-batch ceiling, used by tests to force chunking.
func (b *BatchWriter) WithLimit(limit int) *BatchWriter {
	if limit > 0 {
		b.limit = limit
	}
	return b
}

// Set queues an upsert of value at ref.
func (b *BatchWriter) Set(ref *firestore.DocumentRef, value any) {
	b.ops = append(b.ops, batchOp{ref: ref, value: value})
}

// Delete queues removal of ref.
func (b *BatchWriter) Delete(ref *firestore.DocumentRef) {
	b.ops = append(b.ops, batchOp{ref: ref, delete: true})
}

// Len reports the number of queued operations.
func (b *BatchWriter) Len() int { return len(b.ops) }

// Commit flushes the queued operations in ceiling-sized batches and reports
// how many were committed. On error, every batch before the failing one has
// durably committed; the rest have not been attempted.
func (b *BatchWriter) Commit(ctx context.Context) (int, error) {
	if b.client == nil {
		return 0, WrapError("batch", errors.New("firestore: client is nil"))
	}

	committed := 0
	for start := 0; start < len(b.ops); start += b.limit {
		end := start + b.limit
		if end > len(b.ops) {
			end = len(b.ops)
		}

		batch := b.client.Batch()
		for _, op := range b.ops[start:end] {
			if op.delete {
				batch.Delete(op.ref)
				continue
			}
			batch.Set(op.ref, op.value)
		}
		if _, err := batch.Commit(ctx); err != nil {
			return committed, WrapError("batch", err)
		}
		committed += end - start
	}

	b.ops = b.ops[:0]
	return committed, nil
}

package storage

import (
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "intent-hub.db"), nil)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestOpenRunsMigrationsIdempotently(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "intent-hub.db")

	store, err := Open(path, nil)
	if err != nil {
		t.Fatalf("first open failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	// Reopening must not rerun migration 001.
	store, err = Open(path, nil)
	if err != nil {
		t.Fatalf("second open failed: %v", err)
	}
	store.Close()
}

func TestAttentionStateRoundTrip(t *testing.T) {
	store := openTestStore(t)

	blob, version, err := store.LoadAttention("p1")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if blob != nil || version != 0 {
		t.Errorf("expected empty load, got %q v%d", blob, version)
	}

	if err := store.SaveAttention("p1", []byte(`{"thresholds":{}}`), 1, 0); err != nil {
		t.Fatalf("initial save failed: %v", err)
	}

	blob, version, err = store.LoadAttention("p1")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if string(blob) != `{"thresholds":{}}` || version != 1 {
		t.Errorf("round trip mismatch: %q v%d", blob, version)
	}
}

func TestAttentionVersionCheck(t *testing.T) {
	store := openTestStore(t)

	if err := store.SaveAttention("p1", []byte(`{}`), 1, 0); err != nil {
		t.Fatalf("initial save failed: %v", err)
	}

	// A second zero-expected insert loses.
	if err := store.SaveAttention("p1", []byte(`{}`), 1, 0); !errors.Is(err, ErrVersionConflict) {
		t.Errorf("expected conflict on duplicate insert, got %v", err)
	}

	// A stale update loses.
	if err := store.SaveAttention("p1", []byte(`{}`), 3, 2); !errors.Is(err, ErrVersionConflict) {
		t.Errorf("expected conflict on stale update, got %v", err)
	}

	// The matching update wins.
	if err := store.SaveAttention("p1", []byte(`{"v":2}`), 2, 1); err != nil {
		t.Fatalf("matching update failed: %v", err)
	}

	blob, version, err := store.LoadAttention("p1")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if string(blob) != `{"v":2}` || version != 2 {
		t.Errorf("unexpected state after update: %q v%d", blob, version)
	}
}

func TestInvocationsAreInsertOnly(t *testing.T) {
	store := openTestStore(t)
	now := time.Now()

	if err := store.SaveInvocation("inv-1", "corr-1", "p1", "", []byte(`{"id":"inv-1"}`), now); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if err := store.SaveInvocation("inv-1", "corr-1", "p1", "", []byte(`{}`), now); !errors.Is(err, ErrDuplicate) {
		t.Errorf("expected ErrDuplicate, got %v", err)
	}

	blob, err := store.GetInvocation("inv-1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if string(blob) != `{"id":"inv-1"}` {
		t.Errorf("unexpected record: %q", blob)
	}

	missing, err := store.GetInvocation("ghost")
	if err != nil || missing != nil {
		t.Errorf("expected nil for missing record, got %q (%v)", missing, err)
	}
}

func TestListInvocationsByCorrelationOrder(t *testing.T) {
	store := openTestStore(t)
	base := time.Now()

	for i, id := range []string{"a", "b", "c"} {
		err := store.SaveInvocation(id, "corr-1", "p1", "", []byte(`{"id":"`+id+`"}`), base.Add(time.Duration(i)*time.Millisecond))
		if err != nil {
			t.Fatalf("save failed: %v", err)
		}
	}
	if err := store.SaveInvocation("x", "corr-2", "p1", "", []byte(`{}`), base); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	blobs, err := store.ListInvocationsByCorrelation("corr-1")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(blobs) != 3 {
		t.Fatalf("expected 3 records, got %d", len(blobs))
	}
	if string(blobs[0]) != `{"id":"a"}` || string(blobs[2]) != `{"id":"c"}` {
		t.Errorf("records out of order: %q ... %q", blobs[0], blobs[2])
	}
}

func TestFeedbackRoundTrip(t *testing.T) {
	store := openTestStore(t)
	base := time.Now()

	rows := []struct {
		id, turn, component string
	}{
		{"f1", "turn-1", "dispatcher"},
		{"f2", "turn-1", "dispatcher"},
		{"f3", "turn-1", "other"},
		{"f4", "turn-2", "dispatcher"},
	}
	for i, row := range rows {
		err := store.SaveFeedback(row.id, "inv-1", row.turn, row.component, "confirm",
			[]byte(`{"id":"`+row.id+`"}`), base.Add(time.Duration(i)*time.Millisecond))
		if err != nil {
			t.Fatalf("save failed: %v", err)
		}
	}

	blobs, err := store.ListFeedbackByTurn("turn-1", "dispatcher")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(blobs) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(blobs))
	}
	if string(blobs[0]) != `{"id":"f1"}` {
		t.Errorf("rows out of order: %q", blobs[0])
	}
}

func TestEmbeddingCacheRoundTrip(t *testing.T) {
	store := openTestStore(t)

	vec, version, err := store.GetEmbedding("owner-1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if vec != nil || version != "" {
		t.Errorf("expected cache miss, got %v %q", vec, version)
	}

	want := []float32{0.1, 0.2, 0.3}
	if err := store.SaveEmbedding("owner-1", want, "hash-v1"); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	vec, version, err = store.GetEmbedding("owner-1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if version != "hash-v1" || len(vec) != 3 || vec[1] != want[1] {
		t.Errorf("round trip mismatch: %v %q", vec, version)
	}

	// Overwriting the same owner replaces the vector.
	if err := store.SaveEmbedding("owner-1", []float32{1}, "hash-v2"); err != nil {
		t.Fatalf("overwrite failed: %v", err)
	}
	vec, version, _ = store.GetEmbedding("owner-1")
	if version != "hash-v2" || len(vec) != 1 {
		t.Errorf("overwrite not applied: %v %q", vec, version)
	}
}

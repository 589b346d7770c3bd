package wal

import (
	"path/filepath"
	"testing"
)

// Test_Iterator_EarlyClose verifies that closing an iterator before
// exhaustion still returns the engine to Idle mode, allowing a subsequent
// Read() rather than an AlreadyInWriteMode error (which would only apply
// once a write has happened).
func Test_Iterator_EarlyClose(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a")
	w, err := Open[[]byte](rawCodec{}, WithLocation(dir))
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		if err := w.Write([]byte{byte(i)}); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Flush(); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	w2, err := Open[[]byte](rawCodec{}, WithLocation(dir))
	if err != nil {
		t.Fatal(err)
	}
	it, err := w2.Read()
	if err != nil {
		t.Fatal(err)
	}
	if _, ok, err := it.Next(); err != nil || !ok {
		t.Fatalf("expected at least one record, ok=%v err=%v", ok, err)
	}
	if err := it.Close(); err != nil {
		t.Fatal(err)
	}

	// a second Read() must succeed now that the engine is back to Idle.
	it2, err := w2.Read()
	if err != nil {
		t.Fatal(err)
	}
	got := readAll(t, it2)
	if len(got) != 5 {
		t.Fatalf("got %d records on second read, want 5", len(got))
	}
}

// Test_Iterator_EmptyDirectory: reading a freshly-created, never-written
// WAL yields zero records, not an error.
func Test_Iterator_EmptyDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a")
	w, err := Open[[]byte](rawCodec{}, WithLocation(dir))
	if err != nil {
		t.Fatal(err)
	}
	it, err := w.Read()
	if err != nil {
		t.Fatal(err)
	}
	if got := readAll(t, it); len(got) != 0 {
		t.Fatalf("got %d records, want 0", len(got))
	}
}

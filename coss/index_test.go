package coss

import "testing"

func TestIndexInsertGet(t *testing.T) {
	ix := NewIndex()
	ix.Insert(1, IndexEntry{StripeNumber: 0, Pos: 5, Length: 64})

	entry, ok := ix.Get(1)
	if !ok {
		t.Fatalf("expected entry to be found")
	}
	if entry.Pos != 5 {
		t.Fatalf("got pos %d, want 5", entry.Pos)
	}
	if ix.Size() != 1 {
		t.Fatalf("got size %d, want 1", ix.Size())
	}
}

func TestIndexDeleteStripeDropsOwnedEntries(t *testing.T) {
	ix := NewIndex()
	ix.Insert(1, IndexEntry{StripeNumber: 0, Pos: 0, Length: 64})
	ix.Insert(2, IndexEntry{StripeNumber: 0, Pos: 1, Length: 64})
	ix.Insert(3, IndexEntry{StripeNumber: 1, Pos: 0, Length: 64})

	ix.DeleteStripe(0)

	if _, ok := ix.Get(1); ok {
		t.Fatalf("expected hash 1 to be dropped")
	}
	if _, ok := ix.Get(2); ok {
		t.Fatalf("expected hash 2 to be dropped")
	}
	if _, ok := ix.Get(3); !ok {
		t.Fatalf("expected hash 3 (stripe 1) to survive")
	}
}

func TestIndexDeleteStripeIgnoresRelocatedEntries(t *testing.T) {
	ix := NewIndex()
	ix.Insert(1, IndexEntry{StripeNumber: 0, Pos: 0, Length: 64})
	// Relocated into stripe 2 by a later lookup.
	ix.Insert(1, IndexEntry{StripeNumber: 2, Pos: 0, Length: 64})

	ix.DeleteStripe(0)

	entry, ok := ix.Get(1)
	if !ok {
		t.Fatalf("expected relocated entry to survive stripe 0 eviction")
	}
	if entry.StripeNumber != 2 {
		t.Fatalf("got stripe %d, want 2", entry.StripeNumber)
	}
}

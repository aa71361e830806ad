package database_test

import (
	"errors"
	"testing"

	"github.com/kozaktomas/face-attendance/internal/database"
)

func TestSignatureIndexSearch(t *testing.T) {
	idx := database.NewSignatureIndex()
	if _, err := idx.Search(sampleSignature(0), 1); !errors.Is(err, database.ErrIndexEmpty) {
		t.Fatalf("empty Search error = %v, want ErrIndexEmpty", err)
	}

	identities := []database.EnrolledIdentity{
		{ID: "a", Signature: sampleSignature(0)},
		{ID: "b", Signature: sampleSignature(1)},
		{ID: "c", Signature: sampleSignature(-1)},
		{ID: "bad", Signature: []float32{1, 2, 3}},
	}
	idx.Build(identities)

	if idx.Count() != 3 {
		t.Errorf("Count() = %d, want 3", idx.Count())
	}

	ids, err := idx.Search(sampleSignature(0.95), 1)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(ids) != 1 || ids[0] != "b" {
		t.Errorf("Search() = %v, want [b]", ids)
	}

	idx.Build(nil)
	if idx.Count() != 0 {
		t.Errorf("Count() after reset = %d", idx.Count())
	}
}

func TestSignatureIndexBuildSkipsCorruptFirstIdentity(t *testing.T) {
	idx := database.NewSignatureIndex()
	idx.Build([]database.EnrolledIdentity{
		{ID: "bad", Signature: []float32{1, 2, 3}},
		{ID: "a", Signature: sampleSignature(0)},
		{ID: "b", Signature: sampleSignature(1)},
	})

	if idx.Count() != 2 {
		t.Fatalf("Count() = %d, want 2", idx.Count())
	}
	ids, err := idx.Search(sampleSignature(0.95), 1)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(ids) != 1 || ids[0] != "b" {
		t.Errorf("Search() = %v, want [b]", ids)
	}
}

package vectorstore

import (
	"testing"

	"github.com/google/uuid"
)

func TestPointIDStable(t *testing.T) {
	a := PointID("report.pdf", 3)
	b := PointID("report.pdf", 3)
	if a != b {
		t.Errorf("PointID not stable: %s != %s", a, b)
	}
	if _, err := uuid.Parse(a); err != nil {
		t.Errorf("PointID %q is not a UUID: %v", a, err)
	}
}

func TestPointIDDistinguishesFileAndIndex(t *testing.T) {
	base := PointID("report.pdf", 0)
	if PointID("report.pdf", 1) == base {
		t.Error("same file, different chunk index collided")
	}
	if PointID("other.pdf", 0) == base {
		t.Error("different file, same chunk index collided")
	}
}

func TestPointIDsCoverChunkRange(t *testing.T) {
	ids := PointIDs("report.pdf", 4)
	if len(ids) != 4 {
		t.Fatalf("PointIDs() = %d ids, want 4", len(ids))
	}
	seen := make(map[string]bool)
	for i, id := range ids {
		if id != PointID("report.pdf", i) {
			t.Errorf("ids[%d] = %s, want %s", i, id, PointID("report.pdf", i))
		}
		if seen[id] {
			t.Errorf("duplicate id %s", id)
		}
		seen[id] = true
	}
}

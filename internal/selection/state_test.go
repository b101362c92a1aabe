package selection

import (
	"testing"

	"campus-paths/internal/models"
)

func TestSetters_OverwriteSlots(t *testing.T) {
	s := New()

	s.SetOrigin("CSE")
	s.SetDestination("MGH")
	s.SetOrigin("BAG")

	got := s.Snapshot()
	if got.Origin != "BAG" {
		t.Errorf("expected origin BAG, got %s", got.Origin)
	}
	if got.Destination != "MGH" {
		t.Errorf("expected destination MGH, got %s", got.Destination)
	}
}

func TestSetters_AcceptUnknownAndIdenticalCodes(t *testing.T) {
	s := New()

	s.SetOrigin("NOPE")
	s.SetDestination("NOPE")

	got := s.Snapshot()
	if got != (models.Selection{Origin: "NOPE", Destination: "NOPE"}) {
		t.Errorf("unexpected selection %+v", got)
	}
}

func TestClear_EmptiesBothSlotsIdempotently(t *testing.T) {
	s := New()
	s.SetOrigin("CSE")
	s.SetDestination("MGH")

	s.Clear()
	if !s.Snapshot().IsEmpty() {
		t.Fatalf("expected empty selection, got %+v", s.Snapshot())
	}

	s.Clear()
	if !s.Snapshot().IsEmpty() {
		t.Fatalf("expected empty selection after second clear, got %+v", s.Snapshot())
	}
}

func TestSnapshot_IsIndependent(t *testing.T) {
	s := New()
	s.SetOrigin("CSE")

	snap := s.Snapshot()
	s.SetOrigin("MGH")

	if snap.Origin != "CSE" {
		t.Errorf("snapshot changed after later mutation: %s", snap.Origin)
	}
}

package mentor

import (
	"testing"
	"time"
)

func TestAuditRingRecordsMostRecentFirst(t *testing.T) {
	r := newAuditRing(3)
	r.record(AuditEntry{Timestamp: time.Now(), CallerID: "a", Kind: ErrThrottled, Reason: "r1"})
	r.record(AuditEntry{Timestamp: time.Now(), CallerID: "b", Kind: ErrBadInput, Reason: "r2"})
	r.record(AuditEntry{Timestamp: time.Now(), CallerID: "c", Kind: ErrBadInput, Reason: "r3"})

	recent := r.Recent(2)
	if len(recent) != 2 {
		t.Fatalf("Recent(2) returned %d entries, want 2", len(recent))
	}
	if recent[0].Reason != "r3" || recent[1].Reason != "r2" {
		t.Errorf("Recent(2) = %+v, want r3 then r2", recent)
	}
}

func TestAuditRingOverwritesOldest(t *testing.T) {
	r := newAuditRing(2)
	r.record(AuditEntry{CallerID: "a", Reason: "r1"})
	r.record(AuditEntry{CallerID: "b", Reason: "r2"})
	r.record(AuditEntry{CallerID: "c", Reason: "r3"})

	all := r.Recent(10)
	if len(all) != 2 {
		t.Fatalf("Recent(10) on a capacity-2 ring returned %d entries, want 2", len(all))
	}
	for _, e := range all {
		if e.Reason == "r1" {
			t.Error("oldest entry should have been overwritten")
		}
	}
}

package progress

import "testing"

func TestTryStart_SecondCallFailsWhileRunning(t *testing.T) {
	r := NewRegistry()
	if !r.TryStart("lib-1") {
		t.Fatal("expected first TryStart to succeed")
	}
	if r.TryStart("lib-1") {
		t.Fatal("expected second TryStart to fail while scan is in progress")
	}
}

func TestTryStart_SucceedsAgainAfterComplete(t *testing.T) {
	r := NewRegistry()
	r.TryStart("lib-1")
	r.Complete("lib-1")
	if !r.TryStart("lib-1") {
		t.Fatal("expected TryStart to succeed after completion")
	}
}

func TestSnapshot_Percent(t *testing.T) {
	r := NewRegistry()
	r.TryStart("lib-1")
	r.SetTotal("lib-1", 100)
	r.Advance("lib-1", PhaseProbe, 50)

	snap := r.Snapshot("lib-1")
	if snap.Percent() != 50 {
		t.Fatalf("expected 50%%, got %v", snap.Percent())
	}
}

func TestSnapshot_FailRecordsError(t *testing.T) {
	r := NewRegistry()
	r.TryStart("lib-1")
	r.Fail("lib-1", errBoom)

	snap := r.Snapshot("lib-1")
	if snap.Phase != PhaseFailed || snap.Error == "" {
		t.Fatalf("expected failed phase with error, got %+v", snap)
	}
}

var errBoom = simpleErr("boom")

type simpleErr string

func (e simpleErr) Error() string { return string(e) }

package gate

import "testing"

func TestEnforcement_Transitions(t *testing.T) {
	fs := &fakeStore{}
	e := NewEnforcement(false, fs)

	if e.Armed() {
		t.Fatal("expected disarmed start")
	}
	if err := e.Arm(); err != nil {
		t.Fatalf("Arm() error = %v", err)
	}
	if !e.Armed() || !fs.locked {
		t.Fatal("expected armed state persisted write-through")
	}
	if err := e.Disarm(); err != nil {
		t.Fatalf("Disarm() error = %v", err)
	}
	if e.Armed() || fs.locked {
		t.Fatal("expected disarmed state persisted write-through")
	}
}

func TestEnforcement_PersistFailureKeepsFlag(t *testing.T) {
	fs := &fakeStore{fail: true}
	e := NewEnforcement(false, fs)

	if err := e.Arm(); err == nil {
		t.Fatal("expected persistence error to surface")
	}
	if !e.Armed() {
		t.Fatal("expected arming to apply in memory despite failed persist")
	}
}

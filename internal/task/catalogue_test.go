package task

import "testing"

func TestAddTaskRejectsDuplicateName(t *testing.T) {
	c := New(200)
	if _, err := c.AddTask("X", Fz, 5, "A", "B"); err != nil {
		t.Fatalf("first AddTask failed: %v", err)
	}
	if _, err := c.AddTask("X", Fz, 5, "A", "B"); err == nil {
		t.Fatalf("expected ErrDuplicateTask")
	}
}

func TestAddTaskRejectsNonPositiveDuration(t *testing.T) {
	c := New(200)
	if _, err := c.AddTask("X", Fz, 0, "A", "B"); err == nil {
		t.Fatalf("expected error for zero duration")
	}
}

func TestSerialDurationExcludesSyncDuplicates(t *testing.T) {
	c := New(200)
	c.AddTask("Primary", Fz, 10, "A", "B")
	c.AddTask("Shadow", Pr, 10, "A", "B", SyncDuplicate())
	if got := c.SerialDuration(); got != 10 {
		t.Fatalf("SerialDuration = %d, want 10 (shadow excluded)", got)
	}
}

func TestAddSynchronizationRejectsMismatchedDurations(t *testing.T) {
	c := New(200)
	c.AddTask("U", Fz, 5, "A", "B")
	c.AddTask("V", Pr, 7, "A", "B")
	if err := c.AddSynchronization("U", "V"); err == nil {
		t.Fatalf("expected ErrDurationMismatch")
	}
}

func TestAddPrecedenceIsNoOpOnMissingNames(t *testing.T) {
	c := New(200)
	c.AddTask("U", Fz, 5, "A", "B")
	c.AddPrecedence("U", "does-not-exist") // must not panic
}

func TestByDOFGroupsByAxis(t *testing.T) {
	c := New(200)
	c.AddTask("F1", Fz, 5, "A", "B")
	c.AddTask("F2", Fz, 5, "B", "C")
	c.AddTask("S1", Sr, 5, "0", "1")
	if len(c.ByDOF(Fz)) != 2 {
		t.Fatalf("expected 2 Fz tasks, got %d", len(c.ByDOF(Fz)))
	}
	if len(c.ByDOF(Sr)) != 1 {
		t.Fatalf("expected 1 Sr task, got %d", len(c.ByDOF(Sr)))
	}
}

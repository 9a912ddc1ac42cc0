package gdbstub

import "testing"

func TestTidSelectorKinds(t *testing.T) {
	if !AnyTid().IsAny() {
		t.Fatal("AnyTid().IsAny() should be true")
	}

	if !AllTids().IsAll() {
		t.Fatal("AllTids().IsAll() should be true")
	}

	sel, err := WithID(7)
	if err != nil {
		t.Fatal(err)
	}

	id, ok := sel.ID()
	if !ok || id != 7 {
		t.Fatalf("sel.ID() = (%d, %v), want (7, true)", id, ok)
	}
}

func TestWithIDRejectsNonPositive(t *testing.T) {
	if _, err := WithID(0); err == nil {
		t.Fatal("WithID(0) should fail, 0 is reserved")
	}

	if _, err := WithID(-1); err == nil {
		t.Fatal("WithID(-1) should fail")
	}
}

func TestThreadIdString(t *testing.T) {
	tid := NewThreadId(Pid(3), MustWithID(9))
	if got, want := tid.String(), "p3.9"; got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}

	noPid := NewThreadIdNoPid(AllTids())
	if got, want := noPid.String(), "all"; got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
}

func TestSingleThreadSentinel(t *testing.T) {
	tid := SingleThread()

	id, ok := tid.Sel.ID()
	if !ok || id != SingleThreadTid {
		t.Fatalf("SingleThread() selector = (%d, %v), want (%d, true)", id, ok, SingleThreadTid)
	}

	if tid.HasPid {
		t.Fatal("SingleThread() must not carry a pid")
	}
}

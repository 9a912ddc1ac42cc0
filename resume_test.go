package gdbstub

import "testing"

func TestStopReasonLiftAttachesSingleThreadTid(t *testing.T) {
	lifted := SwBreakReason().Lift()

	tid, ok := lifted.Thread()
	if !ok {
		t.Fatal("lifted SwBreak stop should carry a thread id")
	}

	id, _ := tid.Sel.ID()
	if id != SingleThreadTid {
		t.Fatalf("tid = %d, want %d", id, SingleThreadTid)
	}

	if !lifted.IsBreakOrWatch() {
		t.Fatal("SwBreak should be IsBreakOrWatch")
	}
}

func TestStopReasonLiftDoneStepHasNoTid(t *testing.T) {
	lifted := DoneStepReason().Lift()

	if _, ok := lifted.Thread(); ok {
		t.Fatal("DoneStep should not carry a thread id")
	}
}

func TestHaltedThreadIsHalted(t *testing.T) {
	if !HaltedThread().IsHalted() {
		t.Fatal("HaltedThread().IsHalted() should be true")
	}

	if DoneStepThread().IsHalted() {
		t.Fatal("DoneStepThread().IsHalted() should be false")
	}
}

func TestWatchThreadAddr(t *testing.T) {
	r := WatchThread(SingleThread(), WatchWrite, 0x4000)

	addr, kind, ok := r.WatchAddr()
	if !ok || addr != 0x4000 || kind != WatchWrite {
		t.Fatalf("WatchAddr() = (%x, %v, %v)", addr, kind, ok)
	}
}

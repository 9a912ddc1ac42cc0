package gdbstub

import "testing"

func TestParseCommandSimple(t *testing.T) {
	cases := []struct {
		body string
		kind CommandKind
	}{
		{"?", CmdStopReasonQuery},
		{"g", CmdReadAllRegisters},
		{"k", CmdKill},
		{"vCont?", CmdVContQuery},
		{"qfThreadInfo", CmdQfThreadInfo},
		{"qsThreadInfo", CmdQsThreadInfo},
		{"!", CmdExtendedModeEnable},
		{"QEnvironmentReset", CmdQEnvironmentReset},
		{"nonsense-packet", CmdUnknown},
	}

	for _, tc := range cases {
		cmd, err := ParseCommand([]byte(tc.body))
		if err != nil {
			t.Fatalf("ParseCommand(%q): %v", tc.body, err)
		}

		if cmd.Kind != tc.kind {
			t.Fatalf("ParseCommand(%q).Kind = %v, want %v", tc.body, cmd.Kind, tc.kind)
		}
	}
}

func TestParseCommandReadMemory(t *testing.T) {
	cmd, err := ParseCommand([]byte("m1000,4"))
	if err != nil {
		t.Fatal(err)
	}

	if cmd.Kind != CmdReadMemory || cmd.Addr != 0x1000 || cmd.Size != 4 {
		t.Fatalf("got %+v", cmd)
	}
}

func TestParseCommandWriteMemory(t *testing.T) {
	cmd, err := ParseCommand([]byte("M1000,2:abcd"))
	if err != nil {
		t.Fatal(err)
	}

	if cmd.Kind != CmdWriteMemory || cmd.Addr != 0x1000 || cmd.Size != 2 {
		t.Fatalf("got %+v", cmd)
	}

	if string(cmd.Data) != "\xab\xcd" {
		t.Fatalf("Data = %x, want abcd", cmd.Data)
	}
}

func TestParseCommandWriteMemoryLengthMismatch(t *testing.T) {
	if _, err := ParseCommand([]byte("M1000,4:abcd")); err == nil {
		t.Fatal("expected error: declared length 4 but only 2 bytes of hex data given")
	}
}

func TestParseCommandQXferFeatures(t *testing.T) {
	cmd, err := ParseCommand([]byte("qXfer:features:read:target.xml:0,3fc"))
	if err != nil {
		t.Fatal(err)
	}

	if cmd.Kind != CmdQXferFeaturesRead || cmd.Object != "features" || cmd.Annex != "target.xml" {
		t.Fatalf("got %+v", cmd)
	}

	if cmd.Offset != 0 || cmd.Length != 0x3fc {
		t.Fatalf("got offset=%d length=%d", cmd.Offset, cmd.Length)
	}
}

func TestParseCommandBreakpoint(t *testing.T) {
	cmd, err := ParseCommand([]byte("Z0,1000,4"))
	if err != nil {
		t.Fatal(err)
	}

	if cmd.Kind != CmdInsertBreakpoint || cmd.BPKind != BreakpointSoftware || cmd.BPAddr != 0x1000 || cmd.BPLenHint != 4 {
		t.Fatalf("got %+v", cmd)
	}

	cmd, err = ParseCommand([]byte("z1,2000,4"))
	if err != nil {
		t.Fatal(err)
	}

	if cmd.Kind != CmdRemoveBreakpoint || cmd.BPKind != BreakpointHardware {
		t.Fatalf("got %+v", cmd)
	}
}

func TestParseCommandBreakpointWithCondition(t *testing.T) {
	cmd, err := ParseCommand([]byte("Z0,1000,4;cond:deadbeef"))
	if err != nil {
		t.Fatal(err)
	}

	if len(cmd.Bytecodes) != 1 || cmd.Bytecodes[0].Kind != BytecodeCondition {
		t.Fatalf("got %+v", cmd.Bytecodes)
	}
}

func TestParseCommandVCont(t *testing.T) {
	cmd, err := ParseCommand([]byte("vCont;c:2;s"))
	if err != nil {
		t.Fatal(err)
	}

	if cmd.Kind != CmdVCont || len(cmd.Actions) != 2 {
		t.Fatalf("got %+v", cmd)
	}

	if id, ok := cmd.Actions[0].Thread.ID(); !ok || id != 2 {
		t.Fatalf("first action thread = %+v", cmd.Actions[0].Thread)
	}

	if !cmd.Actions[1].Thread.IsAll() {
		t.Fatalf("second action (no :tid) should default to AllTids, got %+v", cmd.Actions[1].Thread)
	}
}

func TestParseThreadIdMultiprocess(t *testing.T) {
	tid, err := ParseThreadId("p3.-1")
	if err != nil {
		t.Fatal(err)
	}

	if !tid.HasPid || tid.Pid != 3 || !tid.Sel.IsAll() {
		t.Fatalf("got %+v", tid)
	}
}

func TestParseCommandSetThread(t *testing.T) {
	cmd, err := ParseCommand([]byte("Hg5"))
	if err != nil {
		t.Fatal(err)
	}

	if cmd.Kind != CmdSetThread || cmd.HKind != 'g' {
		t.Fatalf("got %+v", cmd)
	}

	id, ok := cmd.Thread.Sel.ID()
	if !ok || id != 5 {
		t.Fatalf("thread selector = %+v", cmd.Thread.Sel)
	}
}

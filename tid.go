package gdbstub

import "fmt"

// Pid is a target process id as seen over the wire.
type Pid uint32

// FakePid is used to satisfy multiprocess-syntax clients when the target
// has no real pid of its own.
const FakePid Pid = 1

// SingleThreadTid is the sentinel thread id used whenever the target only
// exposes single-thread operations.
const SingleThreadTid int32 = 1

type tidKind int

const (
	tidAny tidKind = iota
	tidAll
	tidWithID
)

// TidSelector is the thread-id selector half of a ThreadId: "reuse the
// previous thread", "all threads", or a specific (positive) thread id.
// The zero value equals AnyTid(); use AnyTid, AllTids or WithID to build one.
type TidSelector struct {
	kind tidKind
	id   int32
}

// AnyTid selects "reuse the previous thread" (wire form: 0).
func AnyTid() TidSelector { return TidSelector{kind: tidAny} }

// AllTids selects "all threads" (wire form: -1).
func AllTids() TidSelector { return TidSelector{kind: tidAll} }

// WithID selects a specific thread. n must be >= 1; 0 is reserved and never valid.
func WithID(n int32) (TidSelector, error) {
	if n < 1 {
		return TidSelector{}, fmt.Errorf("gdbstub: thread id %d is not valid (ids are signed positive, 0 is reserved)", n)
	}

	return TidSelector{kind: tidWithID, id: n}, nil
}

// MustWithID is WithID but panics on an invalid id; for use with compile-time constants.
func MustWithID(n int32) TidSelector {
	sel, err := WithID(n)
	if err != nil {
		panic(err)
	}

	return sel
}

func (s TidSelector) IsAny() bool { return s.kind == tidAny }
func (s TidSelector) IsAll() bool { return s.kind == tidAll }

// ID returns the selected thread id and ok=true iff the selector names a
// specific thread (as opposed to Any or All).
func (s TidSelector) ID() (int32, bool) {
	if s.kind != tidWithID {
		return 0, false
	}

	return s.id, true
}

func (s TidSelector) String() string {
	switch s.kind {
	case tidAny:
		return "any"
	case tidAll:
		return "all"
	default:
		return fmt.Sprintf("%d", s.id)
	}
}

// ThreadId pairs an optional process id with a thread selector, mirroring
// the multiprocess "p<pid>.<tid>" wire form.
type ThreadId struct {
	Pid    Pid
	HasPid bool
	Sel    TidSelector
}

// NewThreadId builds a ThreadId carrying an explicit process id.
func NewThreadId(pid Pid, sel TidSelector) ThreadId {
	return ThreadId{Pid: pid, HasPid: true, Sel: sel}
}

// NewThreadIdNoPid builds a ThreadId for a single-process target (no
// multiprocess prefix on the wire).
func NewThreadIdNoPid(sel TidSelector) ThreadId {
	return ThreadId{Sel: sel}
}

// SingleThread returns the ThreadId used to lift single-thread stop/resume
// data into the multi-thread shape: SINGLE_THREAD_TID, no pid.
func SingleThread() ThreadId {
	return NewThreadIdNoPid(MustWithID(SingleThreadTid))
}

func (t ThreadId) String() string {
	if t.HasPid {
		return fmt.Sprintf("p%x.%s", uint32(t.Pid), t.Sel.String())
	}

	return t.Sel.String()
}

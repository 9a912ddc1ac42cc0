package gdbstub

import (
	"errors"
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// EngineAPIVersion is this engine's own capability-surface version. A
// target declaring VersionedTarget is checked against EngineAPIConstraint
// at session construction, so a target built against an incompatible
// engine revision fails fast instead of misbehaving mid-session.
const EngineAPIVersion = "1.0.0"

// EngineAPIConstraint accepts any 1.x target, since the capability
// interfaces in target.go are additive within a major version.
var EngineAPIConstraint = mustConstraint("^1.0.0")

func mustConstraint(s string) *semver.Constraints {
	c, err := semver.NewConstraint(s)
	if err != nil {
		panic(err)
	}

	return c
}

// ErrIncompatibleTargetVersion reports a VersionedTarget whose declared
// APIVersion does not satisfy EngineAPIConstraint.
var ErrIncompatibleTargetVersion = errors.New("gdbstub: target API version is incompatible with this engine")

// NewSessionWithVersion is NewSession plus a version gate: if target
// implements VersionedTarget, its declared APIVersion must satisfy
// EngineAPIConstraint or construction fails outright.
func NewSessionWithVersion(target Target, conn ByteConn) (*Session, error) {
	if vt, ok := target.(VersionedTarget); ok {
		v, err := semver.NewVersion(vt.APIVersion())
		if err != nil {
			return nil, fmt.Errorf("gdbstub: target reported an invalid API version %q: %w", vt.APIVersion(), err)
		}

		if !EngineAPIConstraint.Check(v) {
			return nil, fmt.Errorf("%w: target version %s does not satisfy %s", ErrIncompatibleTargetVersion, v, EngineAPIConstraint)
		}
	}

	return NewSession(target, conn), nil
}

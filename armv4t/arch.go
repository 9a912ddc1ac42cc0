package armv4t

// Register ids follow gdb's built-in arm-core.xml ordering: r0-r15 are
// 0-15, cpsr is 16 (this demo core has no FPU/VFP registers to offer).
const (
	regPC   = 15
	regCPSR = 16
)

const targetXML = `<?xml version="1.0"?>
<!DOCTYPE target SYSTEM "gdb-target.dtd">
<target>
  <architecture>arm</architecture>
  <feature name="org.gnu.gdb.arm.core">
    <reg name="r0" bitsize="32"/>
    <reg name="r1" bitsize="32"/>
    <reg name="r2" bitsize="32"/>
    <reg name="r3" bitsize="32"/>
    <reg name="r4" bitsize="32"/>
    <reg name="r5" bitsize="32"/>
    <reg name="r6" bitsize="32"/>
    <reg name="r7" bitsize="32"/>
    <reg name="r8" bitsize="32"/>
    <reg name="r9" bitsize="32"/>
    <reg name="r10" bitsize="32"/>
    <reg name="r11" bitsize="32"/>
    <reg name="r12" bitsize="32"/>
    <reg name="sp" bitsize="32" type="data_ptr"/>
    <reg name="lr" bitsize="32"/>
    <reg name="pc" bitsize="32" type="code_ptr"/>
    <reg name="cpsr" bitsize="32"/>
  </feature>
</target>
`

// Arch implements gdbstub.Arch for the armv4t demo core.
type Arch struct{}

func (Arch) RegisterBytes() int { return 17 * 4 }
func (Arch) PointerBytes() int  { return 4 }

func (Arch) DecodeRegisterID(id uint32) (int, bool) {
	if id <= regCPSR {
		return 4, true
	}

	return 0, false
}

func (Arch) ProgramCounterRegister() (uint32, bool) { return regPC, true }

func (Arch) TargetDescriptionXML() ([]byte, bool) { return []byte(targetXML), true }

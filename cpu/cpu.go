package cpu

import (
	"github.com/redplanet-sim/redplanet/bus"
	"github.com/redplanet-sim/redplanet/journal"
)

// Cpu is a single RV32I + Zicsr hart: 32 integer registers, the program
// counter, the CSR file, and the bus it fetches and accesses memory
// through.
type Cpu struct {
	X   [32]uint32
	PC  uint32
	Csr csrFile
	Bus *bus.Bus

	Halted bool
}

// NewCpu creates a Cpu wired to bus. Call Reset to establish the initial
// PC before stepping.
func NewCpu(b *bus.Bus) *Cpu {
	return &Cpu{
		Csr: newCsrFile(),
		Bus: b,
	}
}

// Reset clears registers and CSRs and sets PC to entry. It does not open
// a journal frame: the reset/load state is the pristine step-0 state.
func (c *Cpu) Reset(entry uint32) {
	clear(c.X[:])
	c.Csr = newCsrFile()
	c.PC = entry
	c.Halted = false
}

// SetHalted lets the driver latch a halt observed on the power device; a
// halted Cpu refuses further Step calls until Reset.
func (c *Cpu) SetHalted(v bool) { c.Halted = v }

// Step fetches, decodes and executes one instruction, appending every
// mutation it makes as an undo record to j's currently-open frame, which
// the caller (the driver) must have begun with BeginFrame and will close
// with Commit, passing back the *journal.Trap Step returns. Step never
// reports an architectural exception as a Go error: traps are handled
// internally and routed through mtvec, and bus faults become traps. The
// only error Step returns is ErrHalted; the results of j.Record are not
// checked.
func (c *Cpu) Step(j *journal.Journal) (*journal.Trap, error) {
	if c.Halted {
		return nil, ErrHalted
	}

	pc := c.PC

	trap := c.fetchDecodeExecute(j)
	if trap != nil {
		c.dispatchTrap(j, *trap, pc)
	}

	c.incrementCounters(j)

	if trap == nil {
		return nil, nil
	}
	return &journal.Trap{Cause: trap.Cause, Tval: trap.Tval}, nil
}

// fetchDecodeExecute performs one instruction attempt. On success it
// advances c.PC itself; on a trap it returns the pending trapRequest and
// leaves c.PC at the faulting instruction, for Step's dispatchTrap to
// redirect to mtvec.
func (c *Cpu) fetchDecodeExecute(j *journal.Journal) *trapRequest {
	pc := c.PC

	if pc%4 != 0 {
		return &trapRequest{Cause: CauseInstructionAddressMisaligned, Tval: pc}
	}

	word, _, err := c.Bus.Read(pc, 4)
	if err != nil {
		return &trapRequest{Cause: CauseInstructionAccessFault, Tval: pc}
	}

	ins, err := Decode(word)
	if err != nil {
		return &trapRequest{Cause: CauseIllegalInstruction, Tval: word}
	}

	return c.execute(j, ins)
}

// setReg journals and applies a write to register i. Writes to x0 are
// silently discarded and never journaled, per the zero-register
// invariant.
func (c *Cpu) setReg(j *journal.Journal, i uint32, v uint32) {
	if i == 0 {
		return
	}
	old := c.X[i]
	c.X[i] = v
	j.Record(journal.NewReg(func() { c.X[i] = old }))
}

// setCsr journals and applies a write to a CSR address already known to
// exist and be writable.
func (c *Cpu) setCsr(j *journal.Journal, addr uint16, v uint32) {
	old := c.Csr[addr]
	c.Csr.set(addr, v)
	j.Record(journal.NewCsr(func() { c.Csr[addr] = old }))
}

func (c *Cpu) incrementCounters(j *journal.Journal) {
	for _, addr := range [...]uint16{CsrCycle, CsrTime, CsrInstret} {
		old := c.Csr[addr]
		c.Csr[addr] = old + 1
		j.Record(journal.NewCsr(func(addr uint16, old uint32) func() {
			return func() { c.Csr[addr] = old }
		}(addr, old)))
	}
}

// execute dispatches on the decoded opcode. It returns a non-nil
// trapRequest if the instruction faults; otherwise it has already
// advanced c.PC.
func (c *Cpu) execute(j *journal.Journal, ins Instruction) *trapRequest {
	nextPC := c.PC + 4

	switch ins.Op {
	case OpLui:
		c.setReg(j, ins.Rd, uint32(ins.Imm))
	case OpAuipc:
		c.setReg(j, ins.Rd, c.PC+uint32(ins.Imm))
	case OpJal:
		c.setReg(j, ins.Rd, nextPC)
		nextPC = c.PC + uint32(ins.Imm)
	case OpJalr:
		if ins.Funct3 != 0 {
			return &trapRequest{Cause: CauseIllegalInstruction, Tval: ins.Word}
		}
		target := (c.X[ins.Rs1] + uint32(ins.Imm)) &^ 1
		c.setReg(j, ins.Rd, nextPC)
		nextPC = target
	case OpBranch:
		if ins.Funct3 == 0x2 || ins.Funct3 == 0x3 {
			return &trapRequest{Cause: CauseIllegalInstruction, Tval: ins.Word}
		}
		if branchTaken(ins, c.X[ins.Rs1], c.X[ins.Rs2]) {
			nextPC = c.PC + uint32(ins.Imm)
		}
	case OpImm:
		if (ins.Funct3 == fSLL && ins.Funct7 != 0) || (ins.Funct3 == fSRx && ins.Funct7&^0x20 != 0) {
			return &trapRequest{Cause: CauseIllegalInstruction, Tval: ins.Word}
		}
		c.setReg(j, ins.Rd, aluImm(ins, c.X[ins.Rs1]))
	case OpReg:
		if ins.Funct7&^0x20 != 0 || (ins.Funct7 != 0 && ins.Funct3 != fADDSUB && ins.Funct3 != fSRx) {
			return &trapRequest{Cause: CauseIllegalInstruction, Tval: ins.Word}
		}
		c.setReg(j, ins.Rd, aluReg(ins, c.X[ins.Rs1], c.X[ins.Rs2]))
	case OpLoad:
		value, trap := c.doLoad(j, ins)
		if trap != nil {
			return trap
		}
		c.setReg(j, ins.Rd, value)
	case OpStore:
		if trap := c.doStore(j, ins); trap != nil {
			return trap
		}
	case OpSystem:
		if trap := c.doSystem(j, ins); trap != nil {
			return trap
		}
	case OpFence:
		// no-op: this core models no pipeline to fence against.
	default:
		return &trapRequest{Cause: CauseIllegalInstruction, Tval: ins.Word}
	}

	c.PC = nextPC
	return nil
}

func branchTaken(ins Instruction, rs1, rs2 uint32) bool {
	switch ins.Funct3 {
	case fBEQ:
		return rs1 == rs2
	case fBNE:
		return rs1 != rs2
	case fBLT:
		return int32(rs1) < int32(rs2)
	case fBGE:
		return int32(rs1) >= int32(rs2)
	case fBLTU:
		return rs1 < rs2
	case fBGEU:
		return rs1 >= rs2
	default:
		return false
	}
}

func aluImm(ins Instruction, rs1 uint32) uint32 {
	imm := uint32(ins.Imm)
	switch ins.Funct3 {
	case fADDSUB:
		return rs1 + imm
	case fSLT:
		if int32(rs1) < ins.Imm {
			return 1
		}
		return 0
	case fSLTU:
		if rs1 < imm {
			return 1
		}
		return 0
	case fXOR:
		return rs1 ^ imm
	case fOR:
		return rs1 | imm
	case fAND:
		return rs1 & imm
	case fSLL:
		return rs1 << (imm & 0x1f)
	case fSRx:
		if ins.Funct7&0x20 != 0 {
			return uint32(int32(rs1) >> (imm & 0x1f))
		}
		return rs1 >> (imm & 0x1f)
	default:
		return 0
	}
}

func aluReg(ins Instruction, rs1, rs2 uint32) uint32 {
	switch ins.Funct3 {
	case fADDSUB:
		if ins.Funct7&0x20 != 0 {
			return rs1 - rs2
		}
		return rs1 + rs2
	case fSLT:
		if int32(rs1) < int32(rs2) {
			return 1
		}
		return 0
	case fSLTU:
		if rs1 < rs2 {
			return 1
		}
		return 0
	case fXOR:
		return rs1 ^ rs2
	case fOR:
		return rs1 | rs2
	case fAND:
		return rs1 & rs2
	case fSLL:
		return rs1 << (rs2 & 0x1f)
	case fSRx:
		if ins.Funct7&0x20 != 0 {
			return uint32(int32(rs1) >> (rs2 & 0x1f))
		}
		return rs1 >> (rs2 & 0x1f)
	default:
		return 0
	}
}

func (c *Cpu) doLoad(j *journal.Journal, ins Instruction) (uint32, *trapRequest) {
	addr := c.X[ins.Rs1] + uint32(ins.Imm)

	var width int
	switch ins.Funct3 {
	case fB, fBU:
		width = 1
	case fH, fHU:
		width = 2
	case fW:
		width = 4
	default:
		return 0, &trapRequest{Cause: CauseIllegalInstruction, Tval: ins.Word}
	}

	raw, undo, err := c.Bus.Read(addr, width)
	if err != nil {
		return 0, &trapRequest{Cause: CauseLoadAccessFault, Tval: addr}
	}
	if undo != nil {
		j.Record(undo)
	}

	switch ins.Funct3 {
	case fB:
		return uint32(int32(int8(raw))), nil
	case fH:
		return uint32(int32(int16(raw))), nil
	default:
		return raw, nil
	}
}

func (c *Cpu) doStore(j *journal.Journal, ins Instruction) *trapRequest {
	addr := c.X[ins.Rs1] + uint32(ins.Imm)
	value := c.X[ins.Rs2]

	var width int
	switch ins.Funct3 {
	case fB:
		width = 1
	case fH:
		width = 2
	case fW:
		width = 4
	default:
		return &trapRequest{Cause: CauseIllegalInstruction, Tval: ins.Word}
	}

	undo, err := c.Bus.Write(addr, width, value)
	if err != nil {
		return &trapRequest{Cause: CauseStoreAccessFault, Tval: addr}
	}
	if undo != nil {
		j.Record(undo)
	}
	return nil
}

func (c *Cpu) doSystem(j *journal.Journal, ins Instruction) *trapRequest {
	switch ins.Funct3 {
	case fPRIV:
		switch uint32(ins.Imm) & 0xfff {
		case privECALL:
			return &trapRequest{Cause: CauseEcallM, Tval: 0}
		case privEBREAK:
			return &trapRequest{Cause: CauseBreakpoint, Tval: 0}
		default:
			return &trapRequest{Cause: CauseIllegalInstruction, Tval: ins.Word}
		}
	case fCSRRW, fCSRRS, fCSRRC, fCSRRWI, fCSRRSI, fCSRRCI:
		return c.doCsr(j, ins)
	default:
		return &trapRequest{Cause: CauseIllegalInstruction, Tval: ins.Word}
	}
}

func (c *Cpu) doCsr(j *journal.Journal, ins Instruction) *trapRequest {
	old, ok := c.Csr.get(ins.CsrAddr)
	if !ok {
		return &trapRequest{Cause: CauseIllegalInstruction, Tval: ins.Word}
	}

	isImm := ins.Funct3 == fCSRRWI || ins.Funct3 == fCSRRSI || ins.Funct3 == fCSRRCI
	var operand uint32
	if isImm {
		operand = ins.Rs1 // rs1 field doubles as a 5-bit unsigned immediate
	} else {
		operand = c.X[ins.Rs1]
	}

	writes := ins.Funct3 == fCSRRW || ins.Funct3 == fCSRRWI || ins.Rs1 != 0

	if writes && readOnlyCsrs[ins.CsrAddr] {
		return &trapRequest{Cause: CauseIllegalInstruction, Tval: ins.Word}
	}

	c.setReg(j, ins.Rd, old)

	if writes {
		var next uint32
		switch ins.Funct3 {
		case fCSRRW, fCSRRWI:
			next = operand
		case fCSRRS, fCSRRSI:
			next = old | operand
		case fCSRRC, fCSRRCI:
			next = old &^ operand
		}
		c.setCsr(j, ins.CsrAddr, next)
	}

	return nil
}

// dispatchTrap writes mcause/mtval/mepc, clears mepc's low bit, and sets
// PC to mtvec (direct mode only; a non-zero mode field in mtvec is
// treated as direct too, since vectored mode is permitted to be
// unimplemented).
func (c *Cpu) dispatchTrap(j *journal.Journal, trap trapRequest, faultingPC uint32) {
	c.setCsr(j, CsrMcause, trap.Cause)
	c.setCsr(j, CsrMtval, trap.Tval)
	c.setCsr(j, CsrMepc, faultingPC&^uint32(1))

	mtvec := c.Csr[CsrMtvec]
	base := mtvec &^ uint32(0x3)
	c.PC = base
}

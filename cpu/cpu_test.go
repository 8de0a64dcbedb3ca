package cpu

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/redplanet-sim/redplanet/bus"
	"github.com/redplanet-sim/redplanet/device/ram"
	"github.com/redplanet-sim/redplanet/journal"
)

func newTestCpu(image []uint32) (*Cpu, *bus.Bus) {
	r := ram.New(4096)
	for i, w := range image {
		binary.LittleEndian.PutUint32(r.Data[i*4:], w)
	}
	b, err := bus.NewBuilder().Map(0, 4096, r).Build()
	if err != nil {
		panic(err)
	}
	c := NewCpu(b)
	c.Reset(0)
	return c, b
}

// step runs one committed instruction through a fresh frame, the way the
// driver does it, and returns the trap (if any).
func step(t *testing.T, c *Cpu, j *journal.Journal) *journal.Trap {
	t.Helper()
	assert.NoError(t, j.BeginFrame(c.PC))
	trap, err := c.Step(j)
	assert.NoError(t, err)
	assert.NoError(t, j.Commit(c.PC, trap))
	return trap
}

func TestCpu_AddiChain(t *testing.T) {
	assert := assert.New(t)

	// addi x1, x0, 5 ; addi x1, x1, 3
	c, _ := newTestCpu([]uint32{
		encodeI(uint32(OpImm), 1, fADDSUB, 0, 5),
		encodeI(uint32(OpImm), 1, fADDSUB, 1, 3),
	})
	j := journal.New(0)

	step(t, c, j)
	assert.Equal(uint32(5), c.X[1])
	assert.Equal(uint32(4), c.PC)

	step(t, c, j)
	assert.Equal(uint32(8), c.X[1])
	assert.Equal(uint32(8), c.PC)
}

func TestCpu_X0NeverChanges(t *testing.T) {
	assert := assert.New(t)

	c, _ := newTestCpu([]uint32{
		encodeI(uint32(OpImm), 0, fADDSUB, 0, 5),
	})
	j := journal.New(0)
	step(t, c, j)
	assert.Zero(c.X[0])
}

func TestCpu_LoadStoreRoundTrip(t *testing.T) {
	assert := assert.New(t)

	c, _ := newTestCpu([]uint32{
		encodeI(uint32(OpImm), 1, fADDSUB, 0, 0x55), // x1 = 0x55
		encodeI(uint32(OpImm), 2, fADDSUB, 0, 256),  // x2 = 256 (scratch addr)
		encodeStore(fW, 2, 1, 0),                    // sw x1, 0(x2)
		encodeILoad(3, fW, 2, 0),                    // lw x3, 0(x2)
	})

	j := journal.New(0)
	step(t, c, j)
	step(t, c, j)
	step(t, c, j)
	step(t, c, j)

	assert.Equal(uint32(0x55), c.X[3])
}

func TestCpu_StepUndoRestoresRegisterAndPC(t *testing.T) {
	assert := assert.New(t)

	c, _ := newTestCpu([]uint32{
		encodeI(uint32(OpImm), 1, fADDSUB, 0, 5),
	})
	j := journal.New(0)
	step(t, c, j)
	assert.Equal(uint32(5), c.X[1])

	pcBefore, err := j.RevertOne()
	assert.NoError(err)
	assert.Zero(pcBefore)

	// RevertOne has already run the undo records, restoring x1; restoring
	// pc from the returned pcBefore is the driver's job.
	assert.Zero(c.X[1])
}

func TestCpu_BranchTaken(t *testing.T) {
	assert := assert.New(t)

	c, _ := newTestCpu([]uint32{
		encodeBranch(fBEQ, 0, 0, 8), // beq x0, x0, +8
	})
	j := journal.New(0)
	step(t, c, j)
	assert.Equal(uint32(8), c.PC)
}

func TestCpu_BranchNotTaken(t *testing.T) {
	assert := assert.New(t)

	c, _ := newTestCpu([]uint32{
		encodeBranch(fBNE, 0, 0, 8), // bne x0, x0 never taken
	})
	j := journal.New(0)
	step(t, c, j)
	assert.Equal(uint32(4), c.PC)
}

func TestCpu_JalSavesReturnAddress(t *testing.T) {
	assert := assert.New(t)

	c, _ := newTestCpu([]uint32{
		encodeJal(1, 0x100),
	})
	j := journal.New(0)
	step(t, c, j)
	assert.Equal(uint32(4), c.X[1])
	assert.Equal(uint32(0x100), c.PC)
}

func TestCpu_IllegalInstructionTraps(t *testing.T) {
	assert := assert.New(t)

	c, _ := newTestCpu([]uint32{0x7f}) // unknown opcode bits
	j := journal.New(0)
	trap := step(t, c, j)
	assert.NotNil(trap)
	assert.Equal(uint32(CauseIllegalInstruction), trap.Cause)
}

func TestCpu_EcallTrapsToMtvec(t *testing.T) {
	assert := assert.New(t)

	c, _ := newTestCpu([]uint32{
		encodeI(uint32(OpSystem), 0, fPRIV, 0, privECALL),
	})
	c.Csr[CsrMtvec] = 0x200
	j := journal.New(0)
	trap := step(t, c, j)
	assert.NotNil(trap)
	assert.Equal(uint32(CauseEcallM), trap.Cause)
	assert.Equal(uint32(0x200), c.PC)
	assert.Equal(uint32(0), c.Csr[CsrMepc])
}

func TestCpu_CsrrwWritesAndReturnsOld(t *testing.T) {
	assert := assert.New(t)

	c, _ := newTestCpu([]uint32{
		encodeI(uint32(OpImm), 1, fADDSUB, 0, 0x42),                    // x1 = 0x42
		encodeCsr(fCSRRW, 2, CsrMscratch, 1),                            // x2 = old mscratch, mscratch = x1
	})
	j := journal.New(0)
	step(t, c, j)
	step(t, c, j)
	assert.Zero(c.X[2])
	assert.Equal(uint32(0x42), c.Csr[CsrMscratch])
}

func TestCpu_CsrrsReadOnlyZeroRs1DoesNotWrite(t *testing.T) {
	assert := assert.New(t)

	c, _ := newTestCpu([]uint32{
		encodeCsr(fCSRRS, 1, CsrCycle, 0), // rs1 = x0: read-only probe, no write attempted
	})
	j := journal.New(0)
	trap := step(t, c, j)
	assert.Nil(trap)
}

func encodeStore(funct3, rs1, rs2 uint32, imm int32) uint32 {
	u := uint32(imm)
	var w uint32
	w |= uint32(OpStore)
	w |= funct3 << 12
	w |= rs1 << 15
	w |= rs2 << 20
	w |= (u & 0x1f) << 7
	w |= ((u >> 5) & 0x7f) << 25
	return w
}

func encodeILoad(rd, funct3, rs1 uint32, imm int32) uint32 {
	return (uint32(imm)&0xfff)<<20 | rs1<<15 | funct3<<12 | rd<<7 | uint32(OpLoad)
}

func encodeJal(rd uint32, imm int32) uint32 {
	u := uint32(imm)
	var w uint32
	w |= uint32(OpJal)
	w |= rd << 7
	w |= ((u >> 12) & 0xff) << 12
	w |= ((u >> 11) & 0x1) << 20
	w |= ((u >> 1) & 0x3ff) << 21
	w |= ((u >> 20) & 0x1) << 31
	return w
}

func encodeCsr(funct3, rd uint32, csr uint16, rs1 uint32) uint32 {
	return uint32(csr)<<20 | rs1<<15 | funct3<<12 | rd<<7 | uint32(OpSystem)
}

package cpu

// Cause codes for mcause, machine-mode synchronous exceptions only (no
// interrupts are modeled).
const (
	CauseInstructionAddressMisaligned = 0
	CauseInstructionAccessFault       = 1
	CauseIllegalInstruction           = 2
	CauseBreakpoint                   = 3
	CauseLoadAccessFault              = 5
	CauseStoreAccessFault             = 7
	CauseEcallM                       = 11
)

// trapRequest describes a pending synchronous exception, produced by
// fetchDecodeExecute and consumed by Step's trap-dispatch path.
type trapRequest struct {
	Cause uint32
	Tval  uint32
}

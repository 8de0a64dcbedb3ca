package cpu

// CSR addresses implemented by this core: the minimum Zicsr + RV32I
// machine-mode set needed to pass RISCOF's base suite.
const (
	CsrMstatus  = 0x300
	CsrMisa     = 0x301
	CsrMie      = 0x304
	CsrMtvec    = 0x305
	CsrMscratch = 0x340
	CsrMepc     = 0x341
	CsrMcause   = 0x342
	CsrMtval    = 0x343
	CsrMip      = 0x344

	CsrCycle    = 0xc00
	CsrTime     = 0xc01
	CsrInstret  = 0xc02
	CsrCycleh   = 0xc80
	CsrTimeh    = 0xc81
	CsrInstreth = 0xc82

	CsrMvendorid = 0xf11
	CsrMarchid   = 0xf12
	CsrMimpid    = 0xf13
	CsrMhartid   = 0xf14
)

// mstatusMask keeps only MIE (bit 3) and MPIE (bit 7); every other bit of
// mstatus reads and writes as zero, since this core never leaves machine
// mode and implements none of the features the other bits govern.
const mstatusMask = (1 << 3) | (1 << 7)

// misaValue is fixed: RV32 ("I" extension only, MXL = 1).
const misaValue = 0x40000100

// readOnlyCsrs cannot be written; attempting to do so is an illegal
// instruction.
var readOnlyCsrs = map[uint16]bool{
	CsrMisa:      true,
	CsrMvendorid: true,
	CsrMarchid:   true,
	CsrMimpid:    true,
	CsrMhartid:   true,
	CsrCycle:     true,
	CsrCycleh:    true,
	CsrTime:      true,
	CsrTimeh:     true,
	CsrInstret:   true,
	CsrInstreth:  true,
}

// csrFile is the sparse CSR register set. Reading an address not present
// in the map is the "unimplemented CSR" case and raises an
// illegal-instruction trap (CauseIllegalInstruction).
type csrFile map[uint16]uint32

func newCsrFile() csrFile {
	return csrFile{
		CsrMstatus:  0,
		CsrMisa:     misaValue,
		CsrMie:      0,
		CsrMtvec:    0,
		CsrMscratch: 0,
		CsrMepc:     0,
		CsrMcause:   0,
		CsrMtval:    0,
		CsrMip:      0,

		CsrCycle:    0,
		CsrCycleh:   0,
		CsrTime:     0,
		CsrTimeh:    0,
		CsrInstret:  0,
		CsrInstreth: 0,

		CsrMvendorid: 0,
		CsrMarchid:   0,
		CsrMimpid:    0,
		CsrMhartid:   0,
	}
}

func (f csrFile) get(addr uint16) (uint32, bool) {
	v, ok := f[addr]
	return v, ok
}

// set applies the WARL mask for addr and stores the result; it assumes
// the caller has already rejected unimplemented and read-only addresses.
func (f csrFile) set(addr uint16, value uint32) {
	if addr == CsrMstatus {
		value &= mstatusMask
	}
	f[addr] = value
}

// Package loader establishes the initial memory image from an RV32
// little-endian ELF binary: PT_LOAD segments copied verbatim through the
// bus's non-journaled bulk-write path, with the entry point and an
// optional RISCOF signature region resolved from the symbol table.
package loader

import (
	"debug/elf"
	"io"

	"github.com/redplanet-sim/redplanet/bus"
)

// SignatureRegion is the [Start, End) byte range a RISCOF compliance test
// fills before halting, bounded by the begin_signature/end_signature
// symbols.
type SignatureRegion struct {
	Start, End uint32
}

// Load reads an ELF from r, copies every PT_LOAD segment into b at its
// physical address, and returns the entry point and, if both symbols are
// present, the signature region. It creates no journal frame: the
// loaded image is the pristine step-0 state.
func Load(r io.ReaderAt, b *bus.Bus) (entry uint32, sig *SignatureRegion, err error) {
	f, err := elf.NewFile(r)
	if err != nil {
		return 0, nil, err
	}
	defer f.Close()

	if f.Class != elf.ELFCLASS32 || f.Data != elf.ELFDATA2LSB {
		return 0, nil, ErrUnsupportedElf
	}

	for _, prog := range f.Progs {
		if prog.Type != elf.PT_LOAD {
			continue
		}
		data := make([]byte, prog.Filesz)
		if _, err := prog.ReadAt(data, 0); err != nil && err != io.EOF {
			return 0, nil, err
		}
		if err := b.LoadBulk(uint32(prog.Paddr), data); err != nil {
			return 0, nil, err
		}
	}

	sig, err = resolveSignature(f)
	if err != nil {
		return 0, nil, err
	}

	return uint32(f.Entry), sig, nil
}

func resolveSignature(f *elf.File) (*SignatureRegion, error) {
	syms, err := f.Symbols()
	if err != nil {
		// No symbol table at all is fine: RISCOF signature support is
		// optional for ordinary firmware images.
		return nil, nil
	}

	var start, end uint32
	var haveStart, haveEnd bool
	for _, sym := range syms {
		switch sym.Name {
		case "begin_signature":
			start = uint32(sym.Value)
			haveStart = true
		case "end_signature":
			end = uint32(sym.Value)
			haveEnd = true
		}
	}

	if !haveStart || !haveEnd {
		return nil, nil
	}
	if start > end {
		return nil, ErrBadSignatureRegion
	}

	return &SignatureRegion{Start: start, End: end}, nil
}

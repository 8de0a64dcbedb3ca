// Package cpu implements the RV32I + Zicsr instruction decoder and
// execution engine: 32 integer registers, the program counter, the CSR
// file, and the trap dispatch that backs ECALL/EBREAK/illegal-instruction
// handling. Every architectural mutation a Step performs is appended as an
// undo record to the journal frame the driver has open, so the journal can
// make it reversible.
package cpu

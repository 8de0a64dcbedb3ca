// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"bufio"
	"encoding/binary"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/redplanet-sim/redplanet/bus"
	"github.com/redplanet-sim/redplanet/cpu"
	"github.com/redplanet-sim/redplanet/device/power"
	"github.com/redplanet-sim/redplanet/device/ram"
	"github.com/redplanet-sim/redplanet/device/uart"
	"github.com/redplanet-sim/redplanet/driver"
	"github.com/redplanet-sim/redplanet/journal"
	"github.com/redplanet-sim/redplanet/loader"
)

const (
	ramBase = 0x80000000
	ramSize = 16 * 1024 * 1024

	uartBase = 0x10000000
	uartEnd  = 0x10000008

	powerBase = 0x00100000
	powerEnd  = 0x00100004

	maxSteps = 1 << 24 // step-count cap; RISCOF enforces wall-clock timeouts externally
)

func main() {
	var sigPath string
	flag.StringVar(&sigPath, "signature", "", "signature file to output signature to")
	flag.Parse()

	if flag.NArg() != 1 {
		log.Fatalf("usage: %v [--signature FILE] ELF", os.Args[0])
	}
	elfPath := flag.Arg(0)

	r := ram.New(ramSize)
	u := uart.New()
	pw := power.New()
	b, err := bus.NewBuilder().
		Map(ramBase, ramBase+ramSize, r).
		Map(uartBase, uartEnd, u).
		Map(powerBase, powerEnd, pw).
		Build()
	if err != nil {
		log.Fatalf("bus: %v", err)
	}

	f, err := os.Open(elfPath)
	if err != nil {
		log.Fatalf("%v: %v", elfPath, err)
	}
	defer f.Close()

	entry, sig, err := loader.Load(f, b)
	if err != nil {
		log.Fatalf("%v: %v", elfPath, err)
	}

	c := cpu.NewCpu(b)
	j := journal.New(0)
	d := driver.New(c, j, pw)
	d.Reset(entry)

	for i := 0; i < maxSteps && d.State != driver.Halted; i++ {
		if err := d.Step(); err != nil {
			log.Fatal(err)
		}
	}
	if d.State != driver.Halted {
		log.Fatalf("%v: did not power down within %d steps", elfPath, maxSteps)
	}

	if sigPath == "" {
		return
	}
	if sig == nil {
		log.Fatalf("%v: missing begin_signature/end_signature symbols", elfPath)
	}

	out, err := os.Create(sigPath)
	if err != nil {
		log.Fatal(err)
	}
	defer out.Close()

	w := bufio.NewWriter(out)
	defer w.Flush()

	for addr := sig.Start; addr < sig.End; addr += 4 {
		word, err := d.Dump(addr, addr+4)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Fprintf(w, "%08x\n", binary.LittleEndian.Uint32(word))
	}
}

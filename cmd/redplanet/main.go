// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

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
)

func main() {
	var gdb string
	var maxFrames int

	flag.StringVar(&gdb, "g", "", "GDB PORT (accepted and logged; no listener is opened)")
	flag.StringVar(&gdb, "gdb", "", "GDB PORT (accepted and logged; no listener is opened)")
	flag.IntVar(&maxFrames, "max-frames", 0, "bound journal history (0 = unbounded)")
	flag.Parse()

	if flag.NArg() != 1 {
		log.Fatalf("usage: %v [-g PORT] ELF", os.Args[0])
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
	j := journal.New(maxFrames)
	d := driver.New(c, j, pw)
	d.Reset(entry)

	if gdb != "" {
		log.Printf("GDB listener on localhost:%v not wired in this build; continuing headless", gdb)
	}

	if sig != nil {
		log.Printf("signature region: [0x%08x, 0x%08x)", sig.Start, sig.End)
	}

	repl(d)

	if d.State == driver.Halted {
		os.Exit(0)
	}
}

// repl drives the interactive command set from stdin: c/continue,
// rc/reverse-continue, s/step, rs/reverse-step, df/delete-future,
// g N/goto N, p/pause, regs, q/quit.
func repl(d *driver.Driver) {
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Printf("(%v) pc=0x%08x > ", d.State, d.Cpu.PC)
		if !scanner.Scan() {
			return
		}

		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "c", "continue":
			runAndReport(d.Continue)
		case "rc", "reverse-continue":
			runAndReport(d.ReverseContinue)
		case "s", "step":
			runAndReport(d.Step)
		case "rs", "reverse-step":
			runAndReport(d.ReverseStep)
		case "df", "delete-future":
			d.DeleteFuture()
		case "g", "goto":
			if len(fields) != 2 {
				fmt.Println("usage: g N")
				continue
			}
			n, err := strconv.Atoi(fields[1])
			if err != nil {
				fmt.Println(err)
				continue
			}
			runAndReport(func() error { return d.Goto(n) })
		case "p", "pause":
			d.Pause()
		case "regs":
			printRegs(d)
		case "q", "quit":
			return
		default:
			fmt.Printf("unknown command: %v\n", fields[0])
		}
	}
}

func runAndReport(fn func() error) {
	if err := fn(); err != nil {
		fmt.Println(err)
	}
}

func printRegs(d *driver.Driver) {
	for i := 0; i < 32; i += 4 {
		fmt.Printf("x%-2d=%08x x%-2d=%08x x%-2d=%08x x%-2d=%08x\n",
			i, d.Cpu.X[i], i+1, d.Cpu.X[i+1], i+2, d.Cpu.X[i+2], i+3, d.Cpu.X[i+3])
	}
	fmt.Printf("pc=%08x\n", d.Cpu.PC)
}

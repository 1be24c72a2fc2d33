// Package bus implements the Game Boy's 64 KiB address space as a plain
// backing array overlaid with ordered interceptor chains, the model spec'd
// in the core's design notes in place of a single monolithic switch: each
// component registers its own read/write handlers against an address range
// during reset, and the chain walk lets an earlier handler fully own a byte
// (stop=true) or merely annotate it before passing to the next (stop=false).
package bus

import (
	"fmt"

	"github.com/dmgcore/gbcore/internal/addr"
	"github.com/dmgcore/gbcore/internal/bit"
)

// ReadInterceptor observes or rewrites a byte read at address. It returns
// the (possibly unchanged) value and whether the chain walk should stop.
type ReadInterceptor func(address uint16, current byte) (value byte, stop bool)

// WriteInterceptor observes a byte write at address. Returning stop=true
// aborts the default backing-store write (the handler is responsible for
// storing the value itself, or for discarding it).
type WriteInterceptor func(address uint16, value byte) (stop bool)

// StepSubscriber receives the number of T-cycles consumed by the CPU after
// each instruction. MBC3's RTC is the canonical subscriber.
type StepSubscriber func(cycles int)

type readEntry struct {
	lo, hi uint16
	fn     ReadInterceptor
}

type writeEntry struct {
	lo, hi uint16
	fn     WriteInterceptor
}

// Bus is the 64 KiB address space shared by every component.
type Bus struct {
	mem [0x10000]byte

	reads  []readEntry
	writes []writeEntry

	subscribers []StepSubscriber

	pendingDMAStall int
}

// New returns a Bus with only the fixed default interceptors installed.
// Components attach their own handlers via Register* during their Reset.
func New() *Bus {
	b := &Bus{}
	b.Reset()
	return b
}

// Reset clears the backing store and every registered interceptor, then
// reinstalls the fixed-order defaults: DMA-start, DIV-reset, echo-RAM,
// unused-RAM mask, IF upper-bit mask. Components re-register their own
// handlers afterward.
func (b *Bus) Reset() {
	for i := range b.mem {
		b.mem[i] = 0
	}
	b.reads = b.reads[:0]
	b.writes = b.writes[:0]
	b.subscribers = b.subscribers[:0]
	b.pendingDMAStall = 0

	b.RegisterWrite(addr.DMA, addr.DMA, b.handleDMAWrite)
	b.RegisterWrite(addr.DIV, addr.DIV, b.handleDivWrite)
	b.registerEchoRAM()
	b.registerUnusedRAM()
	b.registerInterruptFlagMask()
}

// RegisterRead appends a read interceptor scoped to [lo, hi] to the chain.
func (b *Bus) RegisterRead(lo, hi uint16, h ReadInterceptor) {
	b.reads = append(b.reads, readEntry{lo, hi, h})
}

// RegisterWrite appends a write interceptor scoped to [lo, hi] to the chain.
func (b *Bus) RegisterWrite(lo, hi uint16, h WriteInterceptor) {
	b.writes = append(b.writes, writeEntry{lo, hi, h})
}

// Subscribe registers a callback invoked with the cycle count consumed by
// every CPU step, after PPU/APU/timer have been ticked. Used by MBC3's RTC.
func (b *Bus) Subscribe(fn StepSubscriber) {
	b.subscribers = append(b.subscribers, fn)
}

// NotifyStep fans the consumed cycle count out to every subscriber.
func (b *Bus) NotifyStep(cycles int) {
	for _, fn := range b.subscribers {
		fn(cycles)
	}
}

// TakePendingDMAStall returns and clears the number of cycles the PPU
// should be stalled for, set by the most recent OAM DMA kickoff.
func (b *Bus) TakePendingDMAStall() int {
	c := b.pendingDMAStall
	b.pendingDMAStall = 0
	return c
}

// Read walks the read-interceptor chain in registration order, starting
// from the raw backing byte. The first handler to return stop=true ends
// the walk.
func (b *Bus) Read(address uint16) byte {
	value := b.mem[address]
	for _, e := range b.reads {
		if address < e.lo || address > e.hi {
			continue
		}
		v, stop := e.fn(address, value)
		value = v
		if stop {
			break
		}
	}
	return value
}

// Write walks the write-interceptor chain in registration order. The first
// handler to return stop=true aborts the default backing-store write.
func (b *Bus) Write(address uint16, value byte) {
	for _, e := range b.writes {
		if address < e.lo || address > e.hi {
			continue
		}
		if e.fn(address, value) {
			return
		}
	}
	b.mem[address] = value
}

// WriteRaw stores directly into the backing array, bypassing every
// interceptor. Used by handlers that need to seed state the chain would
// otherwise reject (e.g. OAM DMA's byte-for-byte copy).
func (b *Bus) WriteRaw(address uint16, value byte) {
	b.mem[address] = value
}

// ReadBit reports whether the given bit of the byte at address is set.
func (b *Bus) ReadBit(index uint8, address uint16) bool {
	return bit.IsSet(index, b.Read(address))
}

// RequestInterrupt sets the IF bit for the given interrupt source.
func (b *Bus) RequestInterrupt(i addr.Interrupt) {
	flags := b.Read(addr.IF)
	flags = bit.Set(addr.BitForInterrupt(i), flags)
	b.Write(addr.IF, flags)
}

func (b *Bus) handleDivWrite(address uint16, value byte) bool {
	// The default DIV-reset handler passes the write on: the timer
	// component owns the actual divider counter and registers its own
	// handler after this one during its Reset, so the walk reaches it.
	// With no timer attached the write lands in the backing store.
	return false
}

func (b *Bus) handleDMAWrite(address uint16, value byte) bool {
	source := uint16(value) << 8
	for i := uint16(0); i < 160; i++ {
		b.WriteRaw(addr.OAMStart+i, b.Read(source+i))
	}
	b.WriteRaw(address, value)
	b.pendingDMAStall = 160
	return true
}

func (b *Bus) registerEchoRAM() {
	read := func(address uint16, current byte) (byte, bool) {
		return b.mem[address-0x2000], true
	}
	write := func(address uint16, value byte) bool {
		b.mem[address-0x2000] = value
		return true
	}
	b.RegisterRead(0xE000, 0xFDFF, read)
	b.RegisterWrite(0xE000, 0xFDFF, write)
}

func (b *Bus) registerUnusedRAM() {
	read := func(address uint16, current byte) (byte, bool) {
		return 0xFF, true
	}
	write := func(address uint16, value byte) bool {
		return true // discard
	}
	b.RegisterRead(0xFEA0, 0xFEFF, read)
	b.RegisterWrite(0xFEA0, 0xFEFF, write)
}

// registerInterruptFlagMask keeps IF's unused upper 3 bits reading as 1,
// which matters for halt-bug-sensitive code checking "IF != 0".
func (b *Bus) registerInterruptFlagMask() {
	read := func(address uint16, current byte) (byte, bool) {
		return current | 0xE0, true
	}
	write := func(address uint16, value byte) bool {
		b.mem[address] = value | 0xE0
		return true
	}
	b.RegisterRead(addr.IF, addr.IF, read)
	b.RegisterWrite(addr.IF, addr.IF, write)
}

// Dump returns a debug string of the byte at address, for panics raised by
// components encountering state they consider unreachable.
func Dump(address uint16, value byte) string {
	return fmt.Sprintf("0x%04X=0x%02X", address, value)
}

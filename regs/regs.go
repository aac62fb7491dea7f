// Package regs is the register access layer shared by every peripheral
// driver: width-correct loads, stores and read-modify-write at fixed offsets
// from a peripheral base address.
//
// Drivers never touch memory directly. They hold a Block (bus + base) and
// go through it, so the same driver runs against memory-mapped silicon, a
// simulated register file in tests, or a remote board behind the register
// bridge.
package regs

import (
	"math/bits"

	"golang.org/x/exp/constraints"
)

// Addr is an absolute address in the device's register space.
type Addr uint32

// Bus performs single register accesses. Memory-mapped implementations
// never fail; remote ones can.
type Bus interface {
	Read8(a Addr) (uint8, error)
	Write8(a Addr, v uint8) error
	Read16(a Addr) (uint16, error)
	Write16(a Addr, v uint16) error
}

// Block is one peripheral instance: a bus and the instance's base address.
// The zero value is unusable.
type Block struct {
	bus  Bus
	base Addr
}

func NewBlock(bus Bus, base Addr) Block { return Block{bus: bus, base: base} }

func (b Block) Base() Addr { return b.base }
func (b Block) Bus() Bus   { return b.bus }

// At returns the absolute address of a register offset.
func (b Block) At(off uint16) Addr { return b.base + Addr(off) }

func (b Block) Read16(off uint16) (uint16, error)  { return b.bus.Read16(b.At(off)) }
func (b Block) Write16(off uint16, v uint16) error { return b.bus.Write16(b.At(off), v) }
func (b Block) Read8(off uint16) (uint8, error)    { return b.bus.Read8(b.At(off)) }
func (b Block) Write8(off uint16, v uint8) error   { return b.bus.Write8(b.At(off), v) }

// Update16 replaces the bits selected by mask with the matching bits of v.
// Bits outside mask are written back unchanged.
func (b Block) Update16(off uint16, mask, v uint16) error {
	cur, err := b.Read16(off)
	if err != nil {
		return err
	}
	return b.Write16(off, Field(cur, mask, v))
}

func (b Block) Set16(off uint16, mask uint16) error   { return b.Update16(off, mask, mask) }
func (b Block) Clear16(off uint16, mask uint16) error { return b.Update16(off, mask, 0) }

// Test16 reports whether any bit of mask is set.
func (b Block) Test16(off uint16, mask uint16) (bool, error) {
	v, err := b.Read16(off)
	return v&mask != 0, err
}

func (b Block) Update8(off uint16, mask, v uint8) error {
	cur, err := b.Read8(off)
	if err != nil {
		return err
	}
	return b.Write8(off, Field(cur, mask, v))
}

func (b Block) Set8(off uint16, mask uint8) error   { return b.Update8(off, mask, mask) }
func (b Block) Clear8(off uint16, mask uint8) error { return b.Update8(off, mask, 0) }

func (b Block) Test8(off uint16, mask uint8) (bool, error) {
	v, err := b.Read8(off)
	return v&mask != 0, err
}

// ---------------- Bit-field helpers ----------------

// Field returns cur with the bits under mask replaced by those of v.
func Field[T constraints.Unsigned](cur, mask, v T) T {
	return cur&^mask | v&mask
}

// Place shifts a right-aligned value into the position of mask.
func Place[T constraints.Unsigned](v, mask T) T {
	if mask == 0 {
		return 0
	}
	return (v << shift(mask)) & mask
}

// FieldValue extracts the right-aligned value of the field under mask.
func FieldValue[T constraints.Unsigned](reg, mask T) T {
	if mask == 0 {
		return 0
	}
	return (reg & mask) >> shift(mask)
}

func shift[T constraints.Unsigned](mask T) int {
	return bits.TrailingZeros64(uint64(mask))
}

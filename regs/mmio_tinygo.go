//go:build tinygo

package regs

import (
	"runtime/volatile"
	"unsafe"
)

// MMIO accesses the peripheral registers of the running chip directly.
type MMIO struct{}

var _ Bus = MMIO{}

func (MMIO) Read8(a Addr) (uint8, error) {
	return volatile.LoadUint8((*uint8)(unsafe.Pointer(uintptr(a)))), nil
}

func (MMIO) Write8(a Addr, v uint8) error {
	volatile.StoreUint8((*uint8)(unsafe.Pointer(uintptr(a))), v)
	return nil
}

func (MMIO) Read16(a Addr) (uint16, error) {
	return volatile.LoadUint16((*uint16)(unsafe.Pointer(uintptr(a)))), nil
}

func (MMIO) Write16(a Addr, v uint16) error {
	volatile.StoreUint16((*uint16)(unsafe.Pointer(uintptr(a))), v)
	return nil
}

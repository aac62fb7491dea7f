package gpio

import "driverlib-go/regs"

// Port pair base addresses. Odd ports sit in the low byte of their pair,
// even ports in the high byte.
const (
	BasePA regs.Addr = 0x0200 // P1, P2
	BasePB regs.Addr = 0x0220 // P3, P4
	BasePJ regs.Addr = 0x0320
)

// Register offsets within a port pair (low-byte port).
const (
	regIN  = 0x00
	regOUT = 0x02
	regDIR = 0x04
	regREN = 0x06
	regDS  = 0x08
	regSEL = 0x0A
	regIES = 0x18
	regIE  = 0x1A
	regIFG = 0x1C
)

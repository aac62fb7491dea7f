package tec

import "driverlib-go/regs"

const (
	BaseAddressTEC0 regs.Addr = 0x0C00
	BaseAddressTEC1 regs.Addr = 0x0E00
)

// Register offsets.
const (
	regXCTL0 = 0x00
	regXCTL1 = 0x02
	regXCTL2 = 0x04
	regSTA   = 0x06
	regXINT  = 0x08
	regIV    = 0x0A
)

// XCTL0: per-fault hold (low byte) and enable (high byte).
const (
	xctl0XFLTHLD0 = 0x0001
	xctl0XFLTEN0  = 0x0100
)

// XCTL1: per-fault polarity (low byte) and level sensitivity (high byte).
const (
	xctl1XFLTPOL0 = 0x0001
	xctl1XFLTLVS0 = 0x0100
)

// XCTL2: clear input. Bits 0-1 select the Timer_D clock and are not
// touched here.
const (
	xctl2EXCLRLVS = 0x0004
	xctl2EXCLRPOL = 0x0008
	xctl2EXCLRHLD = 0x0010
	xctl2EXCLREN  = 0x0020
	xctl2AXCLREN  = 0x0040
)

// STA: per-fault status (low byte) and clear status.
const (
	staXFLTSTA = 0x007F
	staXCLRSTA = 0x0100
)

// XINT: flags in the low byte, matching enables in the high byte.
const xintIEShift = 8

const numFaults = 7

package usciuart

import "driverlib-go/regs"

const (
	BaseAddressA0 regs.Addr = 0x05C0
	BaseAddressA1 regs.Addr = 0x0600
)

// Register offsets. CTL1 and CTL0 are the low and high bytes of CTLW0.
const (
	regCTL1  = 0x00
	regCTL0  = 0x01
	regBRW   = 0x06
	regMCTL  = 0x08
	regSTAT  = 0x0A
	regRXBUF = 0x0C
	regTXBUF = 0x0E
	regABCTL = 0x10
	regIE    = 0x1C
	regIFG   = 0x1D
	regIV    = 0x1E
)

// CTL0
const (
	ctl0PEN  = 0x80
	ctl0PAR  = 0x40
	ctl0MSB  = 0x20
	ctl07BIT = 0x10
	ctl0SPB  = 0x08
	ctl0MODE = 0x06
	ctl0SYNC = 0x01
)

// CTL1
const (
	ctl1SSEL   = 0xC0
	ctl1RXEIE  = 0x20
	ctl1BRKIE  = 0x10
	ctl1DORM   = 0x08
	ctl1TXADDR = 0x04
	ctl1TXBRK  = 0x02
	ctl1SWRST  = 0x01
)

// MCTL
const (
	mctlBRF  = 0xF0
	mctlBRS  = 0x0E
	mctlOS16 = 0x01
)

// IE / IFG
const (
	intRX = 0x01
	intTX = 0x02
)

// Sync characters sent with a break.
const (
	syncDefault  = 0x00
	syncAutoBaud = 0x55
)

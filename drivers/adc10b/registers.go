// Package adc10b provides constants for register offsets and bitfields used
// in the operation of the ADC10_B converter.
package adc10b

const (
	// Base address of the ADC10_B module on MSP430FR57xx devices.
	BaseAddressDefault = 0x0700

	// --- Register offsets (16-bit unless noted) ---
	regCTL0  = 0x00 // conversion control
	regCTL1  = 0x02 // timing / sequencing
	regCTL2  = 0x04 // resolution / format / reference
	regLO    = 0x06 // window comparator low threshold
	regHI    = 0x08 // window comparator high threshold
	regMCTL0 = 0x0A // memory control (8-bit access)
	regMEM0  = 0x12 // conversion result, R
	regIE    = 0x1A // interrupt enables
	regIFG   = 0x1C // interrupt flags
	regIV    = 0x1E // interrupt vector, R

	// --- CTL0 bits ---
	ctl0SC  = 0x0001 // start conversion
	ctl0ENC = 0x0002 // enable conversion
	ctl0ON  = 0x0010 // core on
	ctl0MSC = 0x0080 // multiple sample-and-conversion
	ctl0SHT = 0x0F00 // sample-and-hold time (4 bits)

	// --- CTL1 bits ---
	ctl1BUSY   = 0x0001 // conversion in progress, R
	ctl1CONSEQ = 0x0006 // conversion sequence mode
	ctl1SSEL   = 0x0018 // clock source
	ctl1DIV    = 0x00E0 // clock divider (/1../8)
	ctl1ISSH   = 0x0100 // invert sample-and-hold signal
	ctl1SHP    = 0x0200 // sampling timer pulse mode
	ctl1SHS    = 0x0C00 // sample-and-hold source

	// --- CTL2 bits ---
	ctl2REFBURST = 0x0001 // reference buffer on only during sample-and-conversion
	ctl2SR       = 0x0004 // reference buffer sampling rate (1 = 50 ksps)
	ctl2DF       = 0x0008 // data format (1 = signed two's complement, left-justified)
	ctl2RES      = 0x0010 // resolution (1 = 10 bit)
	ctl2PDIV     = 0x0300 // clock pre-divider

	// --- MCTL0 bits ---
	mctlINCH = 0x0F // input channel
	mctlSREF = 0x70 // reference select
)

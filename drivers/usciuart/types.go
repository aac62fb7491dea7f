package usciuart

import "driverlib-go/regs"

type ClockSource uint8

const (
	ClockACLK ClockSource = iota + 1
	ClockSMCLK
)

func (c ClockSource) valid() bool  { return c == ClockACLK || c == ClockSMCLK }
func (c ClockSource) bits() uint8  { return regs.Place(uint8(c), ctl1SSEL) }
func (c ClockSource) String() string {
	if c == ClockACLK {
		return "aclk"
	}
	return "smclk"
}

type Parity uint8

const (
	NoParity Parity = iota
	OddParity
	EvenParity
)

func (p Parity) bits() uint8 {
	switch p {
	case OddParity:
		return ctl0PEN
	case EvenParity:
		return ctl0PEN | ctl0PAR
	}
	return 0
}

type BitOrder uint8

const (
	LSBFirst BitOrder = iota
	MSBFirst
)

type StopBits uint8

const (
	OneStopBit StopBits = iota
	TwoStopBits
)

// Mode is the USCI asynchronous mode.
type Mode uint8

const (
	ModeUART Mode = iota
	ModeIdleLineMultiprocessor
	ModeAddressBitMultiprocessor
	ModeAutoBaud
)

func (m Mode) bits() uint8 { return regs.Place(uint8(m), ctl0MODE) }

// Sampling selects the baud-rate generator.
type Sampling uint8

const (
	// SamplingAuto oversamples when the clock is more than 16x the baud rate.
	SamplingAuto Sampling = iota
	SamplingLowFrequency
	SamplingOversampled
)

// Interrupt is a bitmask over the UART interrupt enables. Receive and
// Transmit live in IE, the character interrupts in CTL1.
type Interrupt uint8

const (
	IntReceive              Interrupt = intRX
	IntTransmit             Interrupt = intTX
	IntReceiveErroneousChar Interrupt = ctl1RXEIE
	IntBreakChar            Interrupt = ctl1BRKIE

	ieMask   = IntReceive | IntTransmit
	ctl1Mask = IntReceiveErroneousChar | IntBreakChar
)

// Flag is a bitmask over IFG.
type Flag uint8

const (
	FlagReceive  Flag = intRX
	FlagTransmit Flag = intTX
)

func (f Flag) Has(x Flag) bool { return f&x != 0 }

// Status is a bitmask over STAT.
type Status uint8

const (
	StatusBusy Status = 1 << iota
	StatusAddressReceived
	StatusReceiveError
	StatusBreakDetect
	StatusParityError
	StatusOverrunError
	StatusFramingError
	StatusListen

	StatusIdleLine = StatusAddressReceived
	StatusErrors   = StatusFramingError | StatusOverrunError | StatusParityError | StatusBreakDetect
)

func (s Status) Has(x Status) bool { return s&x != 0 }

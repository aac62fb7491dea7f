package adc10b

import "driverlib-go/regs"

// SampleHoldSource selects the signal that triggers sample-and-hold.
// Sources 1..3 are device specific (see the datasheet).
type SampleHoldSource uint8

const (
	SampleHoldSC SampleHoldSource = iota // the SC bit [default]
	SampleHold1
	SampleHold2
	SampleHold3
)

func (s SampleHoldSource) valid() bool  { return s <= SampleHold3 }
func (s SampleHoldSource) bits() uint16 { return regs.Place(uint16(s), ctl1SHS) }

// ClockSource selects the converter clock.
type ClockSource uint8

const (
	ClockADC10OSC ClockSource = iota // MODOSC [default]
	ClockACLK
	ClockMCLK
	ClockSMCLK
)

func (c ClockSource) valid() bool  { return c <= ClockSMCLK }
func (c ClockSource) bits() uint16 { return regs.Place(uint16(c), ctl1SSEL) }

// ClockDivider is the combined divider (DIV in CTL1 times PDIV in CTL2).
type ClockDivider uint8

const (
	Div1 ClockDivider = iota // [default]
	Div2
	Div3
	Div4
	Div5
	Div6
	Div7
	Div8
	Div12
	Div16
	Div20
	Div24
	Div28
	Div32
	Div64
	Div128
	Div192
	Div256
	Div320
	Div384
	Div448
	Div512
	numClockDividers
)

// divTable holds {DIV field, PDIV field} per divider: PDIV 0 = /1, 1 = /4, 2 = /64.
var divTable = [numClockDividers][2]uint16{
	Div1: {0, 0}, Div2: {1, 0}, Div3: {2, 0}, Div4: {3, 0},
	Div5: {4, 0}, Div6: {5, 0}, Div7: {6, 0}, Div8: {7, 0},
	Div12: {2, 1}, Div16: {3, 1}, Div20: {4, 1}, Div24: {5, 1},
	Div28: {6, 1}, Div32: {7, 1},
	Div64: {0, 2}, Div128: {1, 2}, Div192: {2, 2}, Div256: {3, 2},
	Div320: {4, 2}, Div384: {5, 2}, Div448: {6, 2}, Div512: {7, 2},
}

func (d ClockDivider) valid() bool { return d < numClockDividers }

// bits returns the CTL1 and CTL2 field values.
func (d ClockDivider) bits() (ctl1, ctl2 uint16) {
	e := divTable[d]
	return regs.Place(e[0], ctl1DIV), regs.Place(e[1], ctl2PDIV)
}

// Ratio returns the total division factor.
func (d ClockDivider) Ratio() int {
	if !d.valid() {
		return 0
	}
	e := divTable[d]
	pre := [...]int{1, 4, 64}[e[1]]
	return int(e[0]+1) * pre
}

// HoldCycles is the sample-and-hold time in converter clock cycles.
type HoldCycles uint8

const (
	Hold4Cycles HoldCycles = iota // [default]
	Hold8Cycles
	Hold16Cycles
	Hold32Cycles
	Hold64Cycles
	Hold96Cycles
	Hold128Cycles
	Hold192Cycles
	Hold256Cycles
	Hold384Cycles
	Hold512Cycles
	Hold768Cycles
	Hold1024Cycles
)

func (h HoldCycles) valid() bool  { return h <= Hold1024Cycles }
func (h HoldCycles) bits() uint16 { return regs.Place(uint16(h), ctl0SHT) }

// InputChannel selects the analog input bound to the memory buffer.
type InputChannel uint8

const (
	InputA0 InputChannel = iota
	InputA1
	InputA2
	InputA3
	InputA4
	InputA5
	InputA6
	InputA7
	InputVeRefPos
	InputVeRefNeg
	InputTempSensor
	InputBatteryMonitor
	InputA12
	InputA13
	InputA14
	InputA15
)

func (c InputChannel) valid() bool { return c <= InputA15 }

// PositiveRef selects the upper conversion limit.
type PositiveRef uint8

const (
	RefPosAVCC PositiveRef = iota // [default]
	RefPosExternal
	RefPosInternal
)

func (r PositiveRef) valid() bool { return r <= RefPosInternal }

func (r PositiveRef) bits() uint8 {
	switch r {
	case RefPosExternal:
		return 0x20
	case RefPosInternal:
		return 0x10
	}
	return 0x00
}

// NegativeRef selects the lower conversion limit.
type NegativeRef uint8

const (
	RefNegAVSS NegativeRef = iota // [default]
	RefNegExternal
)

func (r NegativeRef) valid() bool { return r <= RefNegExternal }

func (r NegativeRef) bits() uint8 {
	if r == RefNegExternal {
		return 0x40
	}
	return 0x00
}

// SequenceMode is the conversion sequence (CONSEQ).
type SequenceMode uint8

const (
	SingleChannel         SequenceMode = iota // one conversion of one channel
	SequenceOfChannels                        // configured channel down to A0, once
	RepeatedSingleChannel                     // one channel, until stopped
	RepeatedSequence                          // channel down to A0, until stopped
)

func (m SequenceMode) valid() bool  { return m <= RepeatedSequence }
func (m SequenceMode) bits() uint16 { return regs.Place(uint16(m), ctl1CONSEQ) }

func (m SequenceMode) String() string {
	switch m {
	case SingleChannel:
		return "single"
	case SequenceOfChannels:
		return "sequence"
	case RepeatedSingleChannel:
		return "repeat-single"
	case RepeatedSequence:
		return "repeat-sequence"
	}
	return "unknown"
}

// StopPolicy selects how DisableConversions ends conversion activity.
type StopPolicy uint8

const (
	// Complete lets an in-flight single-channel conversion finish so its
	// result is valid.
	Complete StopPolicy = iota
	// Preempt stops at once; the in-flight result may be corrupt.
	Preempt
)

// Resolution of a conversion.
type Resolution uint8

const (
	Resolution8Bit Resolution = iota
	Resolution10Bit
)

func (r Resolution) valid() bool { return r <= Resolution10Bit }

// Bits is the conversion width.
func (r Resolution) Bits() int {
	if r == Resolution8Bit {
		return 8
	}
	return 10
}

// FullScale is the largest right-justified code at r.
func (r Resolution) FullScale() uint16 { return 1<<r.Bits() - 1 }

// DataFormat of the result register.
type DataFormat uint8

const (
	// FormatBinary is unsigned, right-justified.
	FormatBinary DataFormat = iota
	// FormatSigned is two's complement, left-justified.
	FormatSigned
)

func (f DataFormat) valid() bool { return f <= FormatSigned }

// Code undoes format f on a MEM0 word and returns the unsigned,
// right-justified code at resolution r. Signed results are offset from
// mid-scale, so 0x8000 maps to 0 and the signed maximum to FullScale.
func Code(mem uint16, r Resolution, f DataFormat) uint16 {
	if f != FormatSigned {
		return mem & r.FullScale()
	}
	bits := r.Bits()
	v := int16(mem)>>(16-bits) + int16(1)<<(bits-1)
	return uint16(v) & r.FullScale()
}

// SamplingRate is the maximum reference buffer sampling rate.
type SamplingRate uint8

const (
	Rate200ksps SamplingRate = iota
	Rate50ksps
)

func (r SamplingRate) valid() bool { return r <= Rate50ksps }

// Interrupt is a bitmask over the IE/IFG registers.
type Interrupt uint16

const (
	IntDataReady         Interrupt = 1 << iota // IFG0: new result in MEM0
	IntWindowIn                                // result between thresholds
	IntWindowLow                               // result below low threshold
	IntWindowHigh                              // result above high threshold
	IntOverflow                                // MEM0 overwritten before read
	IntConversionOverrun                       // conversion started before previous finished
)

const IntAll = IntDataReady | IntWindowIn | IntWindowLow | IntWindowHigh | IntOverflow | IntConversionOverrun

func (m Interrupt) Has(flag Interrupt) bool { return m&flag != 0 }

// State is the converter state as derived from ON, ENC and BUSY.
type State uint8

const (
	StateOff State = iota
	StateIdle
	StateArmed
	StateConverting
)

func (s State) String() string {
	switch s {
	case StateOff:
		return "off"
	case StateIdle:
		return "idle"
	case StateArmed:
		return "armed"
	case StateConverting:
		return "converting"
	}
	return "unknown"
}

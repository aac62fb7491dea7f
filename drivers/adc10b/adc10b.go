// Package adc10b drives the ADC10_B 10-bit successive-approximation
// converter.
//
// Reconfiguring sampling timing, the memory buffer, resolution, sample-hold
// inversion or data format is only legal while ENC is clear. Those setters
// check ENC and return ErrConversionEnabled rather than touching the
// hardware; stop an armed converter with DisableConversions first.
//
// The driver does not interpret results: whether MEM0 holds an unsigned
// right-justified or a signed left-justified value is fixed by the data
// format the caller configured.
package adc10b

import (
	"context"

	"driverlib-go/regs"
)

type Device struct {
	regs regs.Block
	wait regs.WaitPolicy
}

func New(bus regs.Bus, base regs.Addr) *Device {
	if base == 0 {
		base = BaseAddressDefault
	}
	return &Device{regs: regs.NewBlock(bus, base)}
}

// SetWaitPolicy bounds the busy-wait in DisableConversions(Complete).
// The default waits indefinitely.
func (d *Device) SetWaitPolicy(p regs.WaitPolicy) { d.wait = p }

func (d *Device) Base() regs.Addr { return d.regs.Base() }

// ---------------- Lifecycle ----------------

// Init resets the conversion-control registers and powers the core on.
//
// Any pending conversion is abandoned, all interrupt enables and flags are
// cleared, and CTL1/CTL2 are written from the arguments with a 10-bit
// default resolution. MCTL0 and the REF module are left alone. On return
// the core is on and ENC is clear.
func (d *Device) Init(shs SampleHoldSource, clk ClockSource, div ClockDivider) error {
	if !shs.valid() || !clk.valid() || !div.valid() {
		return ErrInvalidParam
	}
	if err := d.regs.Clear16(regCTL0, ctl0ON|ctl0ENC|ctl0SC); err != nil {
		return err
	}
	if err := d.regs.Write16(regIE, 0); err != nil {
		return err
	}
	if err := d.regs.Write16(regIFG, 0); err != nil {
		return err
	}
	div1, div2 := div.bits()
	if err := d.regs.Write16(regCTL1, shs.bits()|div1|clk.bits()); err != nil {
		return err
	}
	if err := d.regs.Write16(regCTL2, div2|ctl2RES); err != nil {
		return err
	}
	return d.regs.Set16(regCTL0, ctl0ON)
}

func (d *Device) Enable() error  { return d.regs.Set16(regCTL0, ctl0ON) }
func (d *Device) Disable() error { return d.regs.Clear16(regCTL0, ctl0ON) }

// State derives the converter state from ON, ENC and BUSY.
func (d *Device) State() (State, error) {
	c0, err := d.regs.Read16(regCTL0)
	if err != nil {
		return StateOff, err
	}
	c1, err := d.regs.Read16(regCTL1)
	if err != nil {
		return StateOff, err
	}
	switch {
	case c0&ctl0ON == 0:
		return StateOff, nil
	case c1&ctl1BUSY != 0:
		return StateConverting, nil
	case c0&ctl0ENC != 0:
		return StateArmed, nil
	}
	return StateIdle, nil
}

// requireIdle returns ErrConversionEnabled while ENC is set.
func (d *Device) requireIdle() error {
	enc, err := d.regs.Test16(regCTL0, ctl0ENC)
	if err != nil {
		return err
	}
	if enc {
		return ErrConversionEnabled
	}
	return nil
}

// ---------------- Sampling timer ----------------

// SetupSamplingTimer enables sampling-timer pulse mode with the given hold
// time. With multipleSamples set, sequence and repeat modes convert
// back-to-back after the first trigger.
func (d *Device) SetupSamplingTimer(hold HoldCycles, multipleSamples bool) error {
	if !hold.valid() {
		return ErrInvalidParam
	}
	if err := d.requireIdle(); err != nil {
		return err
	}
	if err := d.regs.Set16(regCTL1, ctl1SHP); err != nil {
		return err
	}
	v := hold.bits()
	if multipleSamples {
		v |= ctl0MSC
	}
	return d.regs.Update16(regCTL0, ctl0SHT|ctl0MSC, v)
}

func (d *Device) DisableSamplingTimer() error {
	if err := d.requireIdle(); err != nil {
		return err
	}
	return d.regs.Clear16(regCTL1, ctl1SHP)
}

// ---------------- Memory buffer ----------------

// ConfigureMemory binds an input channel and its reference pair to MEM0.
// With RefPosInternal the REF module must supply the reference voltage.
func (d *Device) ConfigureMemory(ch InputChannel, pos PositiveRef, neg NegativeRef) error {
	if !ch.valid() || !pos.valid() || !neg.valid() {
		return ErrInvalidParam
	}
	if err := d.requireIdle(); err != nil {
		return err
	}
	return d.regs.Write8(regMCTL0, uint8(ch)|pos.bits()|neg.bits())
}

// MemoryChannel returns the channel currently bound to MEM0.
func (d *Device) MemoryChannel() (InputChannel, error) {
	v, err := d.regs.Read8(regMCTL0)
	return InputChannel(v & mctlINCH), err
}

// SequenceMode returns the CONSEQ selection in CTL1.
func (d *Device) SequenceMode() (SequenceMode, error) {
	v, err := d.regs.Read16(regCTL1)
	return SequenceMode(regs.FieldValue(v, ctl1CONSEQ)), err
}

// ---------------- Conversion control ----------------

// StartConversion selects the sequence mode and triggers. ENC is cleared
// while CONSEQ changes; ENC and SC are then set in a single write.
func (d *Device) StartConversion(mode SequenceMode) error {
	if !mode.valid() {
		return ErrInvalidParam
	}
	if err := d.regs.Clear16(regCTL0, ctl0ENC); err != nil {
		return err
	}
	if err := d.regs.Update16(regCTL1, ctl1CONSEQ, mode.bits()); err != nil {
		return err
	}
	return d.regs.Set16(regCTL0, ctl0ENC|ctl0SC)
}

// DisableConversions clears ENC.
//
// Preempt forces CONSEQ back to single-channel first, which stops at once
// and may corrupt an in-flight result. Complete, when in single-channel
// mode, waits for BUSY to clear so the in-flight result is valid; the wait
// is bounded only by the device's WaitPolicy.
func (d *Device) DisableConversions(p StopPolicy) error {
	return d.DisableConversionsContext(context.Background(), p)
}

// DisableConversionsContext is DisableConversions with a cancellable wait.
// If the wait ends early ENC is left set and the context error (or
// ErrBusyTimeout) is returned.
func (d *Device) DisableConversionsContext(ctx context.Context, p StopPolicy) error {
	switch p {
	case Preempt:
		if err := d.regs.Clear16(regCTL1, ctl1CONSEQ); err != nil {
			return err
		}
	case Complete:
		mode, err := d.SequenceMode()
		if err != nil {
			return err
		}
		if mode == SingleChannel {
			if err := d.waitIdle(ctx); err != nil {
				return err
			}
		}
	default:
		return ErrInvalidParam
	}
	return d.regs.Clear16(regCTL0, ctl0ENC)
}

func (d *Device) waitIdle(ctx context.Context) error {
	return regs.Poll(ctx, d.wait, ErrBusyTimeout, func() (bool, error) {
		busy, err := d.IsBusy()
		return !busy, err
	})
}

// IsBusy polls BUSY without blocking.
func (d *Device) IsBusy() (bool, error) {
	return d.regs.Test16(regCTL1, ctl1BUSY)
}

// Results returns MEM0 as stored by the hardware. Reading it clears the
// data-ready flag.
func (d *Device) Results() (uint16, error) {
	return d.regs.Read16(regMEM0)
}

// SequenceOrder lists the channels one pass of mode converts, in hardware
// order: sequence modes run from ch down to A0.
func SequenceOrder(ch InputChannel, mode SequenceMode) []InputChannel {
	if !ch.valid() {
		return nil
	}
	switch mode {
	case SequenceOfChannels, RepeatedSequence:
		out := make([]InputChannel, 0, int(ch)+1)
		for c := int(ch); c >= 0; c-- {
			out = append(out, InputChannel(c))
		}
		return out
	case SingleChannel, RepeatedSingleChannel:
		return []InputChannel{ch}
	}
	return nil
}

// MemoryAddressForDMA returns the absolute address of MEM0.
func (d *Device) MemoryAddressForDMA() regs.Addr { return d.regs.At(regMEM0) }

// ---------------- Interrupts ----------------

func (d *Device) EnableInterrupt(m Interrupt) error {
	return d.regs.Set16(regIE, uint16(m&IntAll))
}

func (d *Device) DisableInterrupt(m Interrupt) error {
	return d.regs.Clear16(regIE, uint16(m&IntAll))
}

// ClearInterrupt clears flags. IntDataReady is also cleared by reading MEM0.
func (d *Device) ClearInterrupt(m Interrupt) error {
	return d.regs.Clear16(regIFG, uint16(m&IntAll))
}

// InterruptStatus returns the pending flags within m.
func (d *Device) InterruptStatus(m Interrupt) (Interrupt, error) {
	v, err := d.regs.Read16(regIFG)
	return Interrupt(v) & m, err
}

// InterruptVector reads IV: 0 when nothing is pending, otherwise the
// highest-priority pending source. Reading it clears that flag.
func (d *Device) InterruptVector() (uint16, error) {
	return d.regs.Read16(regIV)
}

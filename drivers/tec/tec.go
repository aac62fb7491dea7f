// Package tec drives the timer event control block: external fault and
// external clear inputs feeding a Timer_D instance.
package tec

import (
	"driverlib-go/errcode"
	"driverlib-go/regs"
)

var ErrInvalidParam = &errcode.E{C: errcode.InvalidParams, Op: "tec", Msg: "parameter out of range"}

// SignalType selects edge or level sensitivity.
type SignalType uint8

const (
	EdgeSensitive SignalType = iota
	LevelSensitive
)

// Hold selects whether the input is latched until cleared.
type Hold uint8

const (
	NotHeld Hold = iota
	Held
)

// Polarity of the active edge or level.
type Polarity uint8

const (
	FallingEdgeOrLowLevel Polarity = iota
	RisingEdgeOrHighLevel
)

// Fault is an external fault input index, 0..6.
type Fault uint8

func (f Fault) valid() bool { return f < numFaults }

// Faults is a bitmask over the external fault status bits.
type Faults uint8

const AllFaults Faults = staXFLTSTA

// FaultMask returns the status bit for f.
func FaultMask(f Fault) Faults { return Faults(1) << f }

func (m Faults) Has(f Fault) bool { return m&FaultMask(f) != 0 }

// Interrupt is a bitmask over XINT flags.
type Interrupt uint8

const (
	IntAuxiliaryClear Interrupt = 1 << iota
	IntExternalClear
	IntExternalFault

	IntAll = IntAuxiliaryClear | IntExternalClear | IntExternalFault
)

func (m Interrupt) Has(i Interrupt) bool { return m&i != 0 }

func validInputs(t SignalType, h Hold, p Polarity) bool {
	return t <= LevelSensitive && h <= Held && p <= RisingEdgeOrHighLevel
}

func flag(on bool, mask uint16) uint16 {
	if on {
		return mask
	}
	return 0
}

type Device struct {
	regs regs.Block
}

func New(bus regs.Bus, base regs.Addr) *Device {
	if base == 0 {
		base = BaseAddressTEC0
	}
	return &Device{regs: regs.NewBlock(bus, base)}
}

// ---------------- Clear input ----------------

func (d *Device) ConfigureExternalClearInput(t SignalType, h Hold, p Polarity) error {
	if !validInputs(t, h, p) {
		return ErrInvalidParam
	}
	v := flag(t == LevelSensitive, xctl2EXCLRLVS) |
		flag(h == Held, xctl2EXCLRHLD) |
		flag(p == RisingEdgeOrHighLevel, xctl2EXCLRPOL)
	return d.regs.Update16(regXCTL2, xctl2EXCLRLVS|xctl2EXCLRHLD|xctl2EXCLRPOL, v)
}

func (d *Device) EnableExternalClearInput() error  { return d.regs.Set16(regXCTL2, xctl2EXCLREN) }
func (d *Device) DisableExternalClearInput() error { return d.regs.Clear16(regXCTL2, xctl2EXCLREN) }

func (d *Device) EnableAuxiliaryClearSignal() error  { return d.regs.Set16(regXCTL2, xctl2AXCLREN) }
func (d *Device) DisableAuxiliaryClearSignal() error { return d.regs.Clear16(regXCTL2, xctl2AXCLREN) }

// ---------------- Fault inputs ----------------

// ConfigureExternalFaultInput sets sensitivity, hold and polarity of one
// fault input. The other inputs keep their configuration.
func (d *Device) ConfigureExternalFaultInput(f Fault, t SignalType, h Hold, p Polarity) error {
	if !f.valid() || !validInputs(t, h, p) {
		return ErrInvalidParam
	}
	lvs, pol, hld := uint16(xctl1XFLTLVS0)<<f, uint16(xctl1XFLTPOL0)<<f, uint16(xctl0XFLTHLD0)<<f
	if err := d.regs.Update16(regXCTL1, lvs|pol,
		flag(t == LevelSensitive, lvs)|flag(p == RisingEdgeOrHighLevel, pol)); err != nil {
		return err
	}
	return d.regs.Update16(regXCTL0, hld, flag(h == Held, hld))
}

func (d *Device) EnableExternalFaultInput(f Fault) error {
	if !f.valid() {
		return ErrInvalidParam
	}
	return d.regs.Set16(regXCTL0, uint16(xctl0XFLTEN0)<<f)
}

func (d *Device) DisableExternalFaultInput(f Fault) error {
	if !f.valid() {
		return ErrInvalidParam
	}
	return d.regs.Clear16(regXCTL0, uint16(xctl0XFLTEN0)<<f)
}

// ExternalFaultStatus returns the latched fault bits within m.
func (d *Device) ExternalFaultStatus(m Faults) (Faults, error) {
	v, err := d.regs.Read16(regSTA)
	return Faults(v) & m & AllFaults, err
}

func (d *Device) ClearExternalFaultStatus(m Faults) error {
	return d.regs.Clear16(regSTA, uint16(m&AllFaults))
}

func (d *Device) ExternalClearStatus() (bool, error) { return d.regs.Test16(regSTA, staXCLRSTA) }
func (d *Device) ClearExternalClearStatus() error    { return d.regs.Clear16(regSTA, staXCLRSTA) }

// ---------------- Interrupts ----------------

func (d *Device) EnableInterrupt(m Interrupt) error {
	return d.regs.Set16(regXINT, uint16(m&IntAll)<<xintIEShift)
}

func (d *Device) DisableInterrupt(m Interrupt) error {
	return d.regs.Clear16(regXINT, uint16(m&IntAll)<<xintIEShift)
}

func (d *Device) InterruptStatus(m Interrupt) (Interrupt, error) {
	v, err := d.regs.Read16(regXINT)
	return Interrupt(v) & m & IntAll, err
}

func (d *Device) ClearInterrupt(m Interrupt) error {
	return d.regs.Clear16(regXINT, uint16(m&IntAll))
}

func (d *Device) InterruptVector() (uint16, error) { return d.regs.Read16(regIV) }

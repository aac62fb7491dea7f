// Package gpio drives the digital I/O ports. Every operation takes a port
// and a pin mask and touches only the masked bits.
package gpio

import (
	"driverlib-go/errcode"
	"driverlib-go/regs"
)

// Port identifies a digital I/O port.
type Port uint8

const (
	P1 Port = iota + 1
	P2
	P3
	P4
	PJ
)

func (p Port) String() string {
	switch p {
	case P1:
		return "P1"
	case P2:
		return "P2"
	case P3:
		return "P3"
	case P4:
		return "P4"
	case PJ:
		return "PJ"
	}
	return "P?"
}

// ParsePort accepts the names printed by String ("P1".."P4", "PJ").
func ParsePort(s string) (Port, error) {
	for p := P1; p <= PJ; p++ {
		if p.String() == s {
			return p, nil
		}
	}
	return 0, ErrInvalidPort
}

// PinNumber returns the mask for pin n (0..7).
func PinNumber(n int) (Pins, error) {
	if n < 0 || n > 7 {
		return 0, ErrInvalidArg
	}
	return Pins(1) << n, nil
}

// Pins is a bitmask of port pins.
type Pins uint8

const (
	Pin0 Pins = 1 << iota
	Pin1
	Pin2
	Pin3
	Pin4
	Pin5
	Pin6
	Pin7

	AllPins Pins = 0xFF
)

func (m Pins) Has(p Pins) bool { return m&p != 0 }

// Level of an input or output pin.
type Level uint8

const (
	Low Level = iota
	High
)

func (l Level) String() string {
	if l == High {
		return "high"
	}
	return "low"
}

// Edge selects the interrupt edge.
type Edge uint8

const (
	LowToHigh Edge = iota
	HighToLow
)

// DriveStrength of an output pin.
type DriveStrength uint8

const (
	ReducedDrive DriveStrength = iota
	FullDrive
)

var (
	ErrInvalidPort = &errcode.E{C: errcode.InvalidParams, Op: "gpio", Msg: "unknown port"}
	ErrNoInterrupt = &errcode.E{C: errcode.Unsupported, Op: "gpio", Msg: "port has no interrupt"}
	ErrInvalidArg  = &errcode.E{C: errcode.InvalidParams, Op: "gpio", Msg: "parameter out of range"}
)

// Device is the set of ports reachable on one bus.
type Device struct {
	bus regs.Bus
}

func New(bus regs.Bus) *Device { return &Device{bus: bus} }

func (d *Device) port(p Port) (regs.Block, error) {
	var base regs.Addr
	switch p {
	case P1:
		base = BasePA
	case P2:
		base = BasePA + 1
	case P3:
		base = BasePB
	case P4:
		base = BasePB + 1
	case PJ:
		base = BasePJ
	default:
		return regs.Block{}, ErrInvalidPort
	}
	return regs.NewBlock(d.bus, base), nil
}

func (d *Device) irqPort(p Port) (regs.Block, error) {
	if p == PJ {
		return regs.Block{}, ErrNoInterrupt
	}
	return d.port(p)
}

func (d *Device) set(p Port, off uint16, pins Pins) error {
	b, err := d.port(p)
	if err != nil {
		return err
	}
	return b.Set8(off, uint8(pins))
}

func (d *Device) clear(p Port, off uint16, pins Pins) error {
	b, err := d.port(p)
	if err != nil {
		return err
	}
	return b.Clear8(off, uint8(pins))
}

// ---------------- Direction and function ----------------

// SetAsOutputPin selects the I/O function and output direction.
func (d *Device) SetAsOutputPin(p Port, pins Pins) error {
	if err := d.clear(p, regSEL, pins); err != nil {
		return err
	}
	return d.set(p, regDIR, pins)
}

// SetAsInputPin selects the I/O function, input direction and no pull
// resistor.
func (d *Device) SetAsInputPin(p Port, pins Pins) error {
	if err := d.clear(p, regSEL, pins); err != nil {
		return err
	}
	if err := d.clear(p, regDIR, pins); err != nil {
		return err
	}
	return d.clear(p, regREN, pins)
}

// SetAsInputPinWithPullUp enables the pull resistor with OUT high.
func (d *Device) SetAsInputPinWithPullUp(p Port, pins Pins) error {
	return d.inputWithPull(p, pins, true)
}

// SetAsInputPinWithPullDown enables the pull resistor with OUT low.
func (d *Device) SetAsInputPinWithPullDown(p Port, pins Pins) error {
	return d.inputWithPull(p, pins, false)
}

func (d *Device) inputWithPull(p Port, pins Pins, up bool) error {
	if err := d.clear(p, regSEL, pins); err != nil {
		return err
	}
	if err := d.clear(p, regDIR, pins); err != nil {
		return err
	}
	if err := d.set(p, regREN, pins); err != nil {
		return err
	}
	if up {
		return d.set(p, regOUT, pins)
	}
	return d.clear(p, regOUT, pins)
}

// SetAsPeripheralModuleFunctionOutputPin hands the pins to a peripheral
// with output direction.
func (d *Device) SetAsPeripheralModuleFunctionOutputPin(p Port, pins Pins) error {
	if err := d.set(p, regDIR, pins); err != nil {
		return err
	}
	return d.set(p, regSEL, pins)
}

// SetAsPeripheralModuleFunctionInputPin hands the pins to a peripheral
// with input direction.
func (d *Device) SetAsPeripheralModuleFunctionInputPin(p Port, pins Pins) error {
	if err := d.clear(p, regDIR, pins); err != nil {
		return err
	}
	return d.set(p, regSEL, pins)
}

// ---------------- Levels ----------------

func (d *Device) SetOutputHighOnPin(p Port, pins Pins) error { return d.set(p, regOUT, pins) }
func (d *Device) SetOutputLowOnPin(p Port, pins Pins) error  { return d.clear(p, regOUT, pins) }

func (d *Device) ToggleOutputOnPin(p Port, pins Pins) error {
	b, err := d.port(p)
	if err != nil {
		return err
	}
	v, err := b.Read8(regOUT)
	if err != nil {
		return err
	}
	return b.Write8(regOUT, v^uint8(pins))
}

// InputPinValue reads PxIN: High if any pin in the mask reads high.
func (d *Device) InputPinValue(p Port, pins Pins) (Level, error) {
	return d.level(p, regIN, pins)
}

// OutputPinValue reads back the driven level from PxOUT.
func (d *Device) OutputPinValue(p Port, pins Pins) (Level, error) {
	return d.level(p, regOUT, pins)
}

func (d *Device) level(p Port, off uint16, pins Pins) (Level, error) {
	b, err := d.port(p)
	if err != nil {
		return Low, err
	}
	hi, err := b.Test8(off, uint8(pins))
	if err != nil || !hi {
		return Low, err
	}
	return High, nil
}

func (d *Device) SetDriveStrength(p Port, pins Pins, s DriveStrength) error {
	switch s {
	case FullDrive:
		return d.set(p, regDS, pins)
	case ReducedDrive:
		return d.clear(p, regDS, pins)
	}
	return ErrInvalidArg
}

// ---------------- Interrupts ----------------

func (d *Device) EnableInterrupt(p Port, pins Pins) error {
	b, err := d.irqPort(p)
	if err != nil {
		return err
	}
	return b.Set8(regIE, uint8(pins))
}

func (d *Device) DisableInterrupt(p Port, pins Pins) error {
	b, err := d.irqPort(p)
	if err != nil {
		return err
	}
	return b.Clear8(regIE, uint8(pins))
}

// InterruptStatus returns the pending flags within pins.
func (d *Device) InterruptStatus(p Port, pins Pins) (Pins, error) {
	b, err := d.irqPort(p)
	if err != nil {
		return 0, err
	}
	v, err := b.Read8(regIFG)
	return Pins(v) & pins, err
}

func (d *Device) ClearInterrupt(p Port, pins Pins) error {
	b, err := d.irqPort(p)
	if err != nil {
		return err
	}
	return b.Clear8(regIFG, uint8(pins))
}

// SelectInterruptEdge may set PxIFG on the hardware; clear it afterwards.
func (d *Device) SelectInterruptEdge(p Port, pins Pins, e Edge) error {
	b, err := d.irqPort(p)
	if err != nil {
		return err
	}
	switch e {
	case LowToHigh:
		return b.Clear8(regIES, uint8(pins))
	case HighToLow:
		return b.Set8(regIES, uint8(pins))
	}
	return ErrInvalidArg
}

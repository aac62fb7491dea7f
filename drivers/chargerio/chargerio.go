// Package chargerio is the FA5510 board glue for the charger front end: a
// 4-channel analog multiplexer (two address lines and an enable), a
// charger-ID sense input with a two-line ID level drive, and a three-way
// input-voltage range selector.
//
// Every operation maps a selector to a fixed set of pin writes. Levels
// persist until the next call; the package keeps no state of its own.
package chargerio

import (
	"driverlib-go/drivers/gpio"
	"driverlib-go/types"
)

// GPIO is the subset of the port driver the glue needs.
type GPIO interface {
	SetAsOutputPin(p gpio.Port, pins gpio.Pins) error
	SetAsInputPin(p gpio.Port, pins gpio.Pins) error
	SetOutputHighOnPin(p gpio.Port, pins gpio.Pins) error
	SetOutputLowOnPin(p gpio.Port, pins gpio.Pins) error
	InputPinValue(p gpio.Port, pins gpio.Pins) (gpio.Level, error)
	OutputPinValue(p gpio.Port, pins gpio.Pins) (gpio.Level, error)
}

var _ GPIO = (*gpio.Device)(nil)

// Pin is one port line.
type Pin struct {
	Port gpio.Port
	Pin  gpio.Pins
}

// Layout maps each glue signal to a pin.
type Layout struct {
	MuxEN, MuxA0, MuxA1 Pin
	IDSense             Pin
	IDLevel1, IDLevel2  Pin
	In24V, In36V, In48V Pin
}

// DefaultLayout is the FA5510 wiring.
func DefaultLayout() Layout {
	return Layout{
		MuxEN:    Pin{gpio.P1, gpio.Pin7},
		MuxA0:    Pin{gpio.P1, gpio.Pin6},
		MuxA1:    Pin{gpio.P2, gpio.Pin0},
		IDSense:  Pin{gpio.P2, gpio.Pin1},
		IDLevel1: Pin{gpio.P2, gpio.Pin2},
		IDLevel2: Pin{gpio.P2, gpio.Pin3},
		In24V:    Pin{gpio.P1, gpio.Pin3},
		In36V:    Pin{gpio.P1, gpio.Pin4},
		In48V:    Pin{gpio.P1, gpio.Pin5},
	}
}

type Controller struct {
	io GPIO
	l  Layout
}

func New(io GPIO, l Layout) *Controller { return &Controller{io: io, l: l} }

func (c *Controller) Layout() Layout { return c.l }

// Init drives every controlled line low as an output and makes the sense
// line an input. Repeating it yields the same pin state.
func (c *Controller) Init() error {
	l := c.l
	for _, grp := range [][]Pin{
		{l.MuxEN}, {l.MuxA0}, {l.MuxA1},
		{l.IDLevel1, l.IDLevel2},
	} {
		if err := c.output(grp...); err != nil {
			return err
		}
	}
	if err := c.io.SetAsInputPin(l.IDSense.Port, l.IDSense.Pin); err != nil {
		return err
	}
	return c.output(l.In24V, l.In36V, l.In48V)
}

func (c *Controller) output(pins ...Pin) error {
	for _, g := range merge(pins) {
		if err := c.io.SetAsOutputPin(g.Port, g.Pin); err != nil {
			return err
		}
		if err := c.io.SetOutputLowOnPin(g.Port, g.Pin); err != nil {
			return err
		}
	}
	return nil
}

func (c *Controller) drive(high bool, pins ...Pin) error {
	for _, g := range merge(pins) {
		var err error
		if high {
			err = c.io.SetOutputHighOnPin(g.Port, g.Pin)
		} else {
			err = c.io.SetOutputLowOnPin(g.Port, g.Pin)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// merge folds pins sharing a port into one mask, keeping first-seen order.
func merge(pins []Pin) []Pin {
	out := make([]Pin, 0, len(pins))
next:
	for _, p := range pins {
		for i := range out {
			if out[i].Port == p.Port {
				out[i].Pin |= p.Pin
				continue next
			}
		}
		out = append(out, p)
	}
	return out
}

// ---------------- Charger ID ----------------

// IDSense reads the sense line. The line is active low: high means no
// charger ID is present.
func (c *Controller) IDSense() (IDSenseStatus, error) {
	lv, err := c.io.InputPinValue(c.l.IDSense.Port, c.l.IDSense.Pin)
	if err != nil {
		return NoChargerID, err
	}
	if lv == gpio.High {
		return NoChargerID, nil
	}
	return ChargerIDPresent, nil
}

// SetIDLevel raises the selected ID line(s). Level1High and Level2High
// only raise their own line; anything other than the high selectors drives
// both lines low.
func (c *Controller) SetIDLevel(lv IDLevel) error {
	l := c.l
	switch lv {
	case IDLevelAllHigh:
		return c.drive(true, l.IDLevel1, l.IDLevel2)
	case IDLevel1High:
		return c.drive(true, l.IDLevel1)
	case IDLevel2High:
		return c.drive(true, l.IDLevel2)
	}
	return c.drive(false, l.IDLevel1, l.IDLevel2)
}

// ---------------- Multiplexer ----------------

func (c *Controller) EnableMux(on bool) error { return c.drive(on, c.l.MuxEN) }

// SetMuxChannel drives (A0,A1): Ch1=00, Ch2=10, Ch3=01, Ch4=11. Unknown
// channels leave the address lines alone.
func (c *Controller) SetMuxChannel(ch MuxChannel) error {
	a0, a1, ok := ch.lines()
	if !ok {
		return nil
	}
	if err := c.drive(a0, c.l.MuxA0); err != nil {
		return err
	}
	return c.drive(a1, c.l.MuxA1)
}

// ---------------- Input voltage ----------------

// SetInputVoltage raises the selected range line(s). Anything other than
// the high selectors drives all three lines low.
func (c *Controller) SetInputVoltage(v InputVoltage) error {
	l := c.l
	switch v {
	case InputVoltageAllHigh:
		return c.drive(true, l.In24V, l.In36V, l.In48V)
	case InputVoltage24V:
		return c.drive(true, l.In24V)
	case InputVoltage36V:
		return c.drive(true, l.In36V)
	case InputVoltage48V:
		return c.drive(true, l.In48V)
	}
	return c.drive(false, l.In24V, l.In36V, l.In48V)
}

// ---------------- Read-back ----------------

// Snapshot reads back the driven levels and the sense line.
func (c *Controller) Snapshot() (types.ChargerIOState, error) {
	var st types.ChargerIOState
	l := c.l
	outs := []struct {
		pin Pin
		dst *bool
	}{
		{l.MuxEN, &st.MuxEnabled},
		{l.IDLevel1, &st.IDLevel1},
		{l.IDLevel2, &st.IDLevel2},
		{l.In24V, &st.Input24V},
		{l.In36V, &st.Input36V},
		{l.In48V, &st.Input48V},
	}
	for _, o := range outs {
		lv, err := c.io.OutputPinValue(o.pin.Port, o.pin.Pin)
		if err != nil {
			return st, err
		}
		*o.dst = lv == gpio.High
	}
	a0, err := c.io.OutputPinValue(l.MuxA0.Port, l.MuxA0.Pin)
	if err != nil {
		return st, err
	}
	a1, err := c.io.OutputPinValue(l.MuxA1.Port, l.MuxA1.Pin)
	if err != nil {
		return st, err
	}
	st.MuxChannel = int(muxFromLines(a0 == gpio.High, a1 == gpio.High))

	s, err := c.IDSense()
	if err != nil {
		return st, err
	}
	st.IDSense = s.String()
	return st, nil
}

// Apply runs the groups set in ctrl in the order mux enable, mux channel,
// ID level, input voltage. A selector that fails to parse aborts before
// any pin is touched.
func (c *Controller) Apply(ctrl types.ChargerIOControl) error {
	var (
		ch  MuxChannel
		lv  IDLevel
		iv  InputVoltage
		err error
	)
	if ctrl.MuxChannel != "" {
		if ch, err = ParseMuxChannel(ctrl.MuxChannel); err != nil {
			return err
		}
	}
	if ctrl.IDLevel != "" {
		if lv, err = ParseIDLevel(ctrl.IDLevel); err != nil {
			return err
		}
	}
	if ctrl.InputVoltage != "" {
		if iv, err = ParseInputVoltage(ctrl.InputVoltage); err != nil {
			return err
		}
	}

	if ctrl.MuxEnable != nil {
		if err := c.EnableMux(*ctrl.MuxEnable); err != nil {
			return err
		}
	}
	if ctrl.MuxChannel != "" {
		if err := c.SetMuxChannel(ch); err != nil {
			return err
		}
	}
	if ctrl.IDLevel != "" {
		if err := c.SetIDLevel(lv); err != nil {
			return err
		}
	}
	if ctrl.InputVoltage != "" {
		return c.SetInputVoltage(iv)
	}
	return nil
}

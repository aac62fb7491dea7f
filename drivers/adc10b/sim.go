package adc10b

import (
	"sync"

	"driverlib-go/regs"
)

// SimModel attaches ADC10_B hardware behaviour to a regs.Sim so the driver
// can run without silicon (tests, adcprobe -sim):
//
//   - writing ENC+SC with ON set raises BUSY synchronously and self-clears SC;
//     a trigger while BUSY is already set raises IntConversionOverrun
//   - Finish completes the in-flight conversion, storing the sample in MEM0
//     and raising IntDataReady, IntOverflow and the window flags
//   - reading MEM0 clears IntDataReady
//
// IV is not modelled.
type SimModel struct {
	sim  *regs.Sim
	base regs.Addr

	mu      sync.Mutex
	current InputChannel
	// Input returns the raw 10-bit sample for a channel. Nil reads 0.
	Input func(ch InputChannel) uint16
	// AutoFinish completes each triggered conversion at once, as if the
	// converter were infinitely fast.
	AutoFinish bool
}

func Simulate(sim *regs.Sim, base regs.Addr) *SimModel {
	if base == 0 {
		base = BaseAddressDefault
	}
	m := &SimModel{sim: sim, base: base}
	sim.OnWrite16(base+regCTL0, m.onCTL0)
	sim.OnRead16(base+regMEM0, func(s *regs.Sim, _ uint16) {
		s.ClearBits16(base+regIFG, uint16(IntDataReady))
	})
	return m
}

func (m *SimModel) onCTL0(s *regs.Sim, _, w uint16) uint16 {
	const trigger = ctl0ON | ctl0ENC | ctl0SC
	if w&trigger != trigger {
		return w
	}
	if m.Busy() {
		s.SetBits16(m.base+regIFG, uint16(IntConversionOverrun))
	}
	m.mu.Lock()
	m.current = InputChannel(s.Peek8(m.base+regMCTL0) & mctlINCH)
	m.mu.Unlock()
	s.SetBits16(m.base+regCTL1, ctl1BUSY)
	if m.AutoFinish {
		m.Finish()
	}
	return w &^ ctl0SC
}

// Busy reports the simulated BUSY flag.
func (m *SimModel) Busy() bool {
	return m.sim.Peek16(m.base+regCTL1)&ctl1BUSY != 0
}

// SetBusy forces BUSY, e.g. to model a stuck converter.
func (m *SimModel) SetBusy(on bool) {
	if on {
		m.sim.SetBits16(m.base+regCTL1, ctl1BUSY)
		return
	}
	m.sim.ClearBits16(m.base+regCTL1, ctl1BUSY)
}

// Finish completes the in-flight conversion and returns the converted
// channel and the value stored in MEM0. Sequence modes step down towards
// A0 and repeat modes restart while ENC stays set; BUSY clears when the
// sequence ends. ok is false if nothing was converting.
func (m *SimModel) Finish() (ch InputChannel, result uint16, ok bool) {
	if !m.Busy() {
		return 0, 0, false
	}
	s := m.sim
	c0 := s.Peek16(m.base + regCTL0)
	c1 := s.Peek16(m.base + regCTL1)
	c2 := s.Peek16(m.base + regCTL2)

	m.mu.Lock()
	ch = m.current
	m.mu.Unlock()

	raw := uint16(0)
	if m.Input != nil {
		raw = m.Input(ch) & 0x03FF
	}
	result = encode(raw, c2)

	flags := IntDataReady
	if s.Peek16(m.base+regIFG)&uint16(IntDataReady) != 0 {
		flags |= IntOverflow
	}
	hi, lo := s.Peek16(m.base+regHI), s.Peek16(m.base+regLO)
	switch {
	case result > hi:
		flags |= IntWindowHigh
	case result < lo:
		flags |= IntWindowLow
	default:
		flags |= IntWindowIn
	}
	s.Poke16(m.base+regMEM0, result)
	s.SetBits16(m.base+regIFG, uint16(flags))

	mode := SequenceMode(regs.FieldValue(c1, ctl1CONSEQ))
	enc := c0&ctl0ENC != 0
	next, more := ch, false
	switch mode {
	case SequenceOfChannels:
		if ch > InputA0 {
			next, more = ch-1, true
		}
	case RepeatedSingleChannel:
		more = enc
	case RepeatedSequence:
		if ch > InputA0 {
			next, more = ch-1, true
		} else if enc {
			next, more = InputChannel(s.Peek8(m.base+regMCTL0)&mctlINCH), true
		}
	}
	m.mu.Lock()
	m.current = next
	m.mu.Unlock()
	if !more {
		m.SetBusy(false)
	}
	return ch, result, true
}

// encode applies resolution and data format to a 10-bit sample as the
// hardware lays it out in MEM0.
func encode(raw, ctl2 uint16) uint16 {
	bits := 10
	if ctl2&ctl2RES == 0 {
		raw >>= 2
		bits = 8
	}
	if ctl2&ctl2DF == 0 {
		return raw
	}
	signed := int16(raw) - int16(1<<(bits-1))
	return uint16(signed << (16 - bits))
}

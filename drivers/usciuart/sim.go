package usciuart

import (
	"sync"

	"driverlib-go/regs"
)

// SimLine attaches a UART wire model to a regs.Sim. Transmitted bytes are
// captured and TXIFG stays set; injected bytes are presented one at a time
// in RXBUF with RXIFG raised until the queue drains.
type SimLine struct {
	sim  *regs.Sim
	base regs.Addr

	mu sync.Mutex
	rx []rxChar
	tx []byte
}

type rxChar struct {
	b  byte
	st uint8
}

func Simulate(sim *regs.Sim, base regs.Addr) *SimLine {
	if base == 0 {
		base = BaseAddressA0
	}
	l := &SimLine{sim: sim, base: base}
	sim.SetBits8(base+regIFG, intTX)
	sim.OnWrite8(base+regTXBUF, l.onTX)
	sim.OnRead8(base+regRXBUF, l.onRX)
	return l
}

func (l *SimLine) onTX(s *regs.Sim, _, w uint8) uint8 {
	l.mu.Lock()
	l.tx = append(l.tx, w)
	l.mu.Unlock()
	s.Poke8(l.base+regCTL1, s.Peek8(l.base+regCTL1)&^(ctl1TXADDR|ctl1TXBRK))
	s.SetBits8(l.base+regIFG, intTX)
	return 0
}

func (l *SimLine) onRX(s *regs.Sim, _ uint8) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s.ClearBits8(l.base+regSTAT, uint8(StatusErrors|StatusReceiveError))
	s.ClearBits8(l.base+regIFG, intRX)
	l.loadLocked()
}

// loadLocked moves the next queued character into RXBUF.
func (l *SimLine) loadLocked() {
	if len(l.rx) == 0 {
		return
	}
	c := l.rx[0]
	l.rx = l.rx[1:]
	l.sim.Poke8(l.base+regRXBUF, c.b)
	if c.st != 0 {
		l.sim.SetBits8(l.base+regSTAT, c.st|uint8(StatusReceiveError))
	}
	l.sim.SetBits8(l.base+regIFG, intRX)
}

// Inject queues bytes for reception.
func (l *SimLine) Inject(p ...byte) {
	for _, b := range p {
		l.inject(rxChar{b: b})
	}
}

// InjectError queues one byte received with the given error flags.
func (l *SimLine) InjectError(b byte, st Status) {
	l.inject(rxChar{b: b, st: uint8(st & StatusErrors)})
}

func (l *SimLine) inject(c rxChar) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rx = append(l.rx, c)
	if l.sim.Peek8(l.base+regIFG)&intRX == 0 {
		l.loadLocked()
	}
}

// Transmitted returns the bytes written to TXBUF so far.
func (l *SimLine) Transmitted() []byte {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]byte(nil), l.tx...)
}

// Pending reports queued bytes not yet presented in RXBUF.
func (l *SimLine) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.rx)
}

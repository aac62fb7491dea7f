package regs

import "sync"

// Access is one recorded bus access.
type Access struct {
	Write bool
	Width uint8 // 8 or 16
	Addr  Addr
	Value uint16
}

// WriteHook models a hardware reaction to a 16-bit store: it receives the
// previous and the written value and returns what the register holds
// afterwards. It may Poke other registers.
type WriteHook func(s *Sim, old, written uint16) uint16

// ReadHook runs after a 16-bit bus read, e.g. to clear a flag the hardware
// clears on access.
type ReadHook func(s *Sim, value uint16)

// WriteHook8 and ReadHook8 are the byte-wide forms, for buffer and flag
// registers the drivers access as bytes.
type (
	WriteHook8 func(s *Sim, old, written uint8) uint8
	ReadHook8  func(s *Sim, value uint8)
)

// Sim is a simulated register file. Bytes are stored little-endian, so a
// 16-bit register at A is visible as 8-bit registers A (low) and A+1 (high).
//
// Sim is safe for concurrent use; hooks run without the lock held.
type Sim struct {
	mu      sync.Mutex
	mem     map[Addr]uint8
	onWrite map[Addr]WriteHook
	onRead  map[Addr]ReadHook
	onW8    map[Addr]WriteHook8
	onR8    map[Addr]ReadHook8
	trace   []Access
	tracing bool
}

func NewSim() *Sim {
	return &Sim{
		mem:     make(map[Addr]uint8),
		onWrite: make(map[Addr]WriteHook),
		onRead:  make(map[Addr]ReadHook),
		onW8:    make(map[Addr]WriteHook8),
		onR8:    make(map[Addr]ReadHook8),
	}
}

var _ Bus = (*Sim)(nil)

// ---------------- Bus ----------------

func (s *Sim) Read8(a Addr) (uint8, error) {
	s.mu.Lock()
	v := s.mem[a]
	s.record(Access{Width: 8, Addr: a, Value: uint16(v)})
	h := s.onR8[a]
	s.mu.Unlock()
	if h != nil {
		h(s, v)
	}
	return v, nil
}

func (s *Sim) Write8(a Addr, v uint8) error {
	s.mu.Lock()
	old := s.mem[a]
	s.mem[a] = v
	s.record(Access{Write: true, Width: 8, Addr: a, Value: uint16(v)})
	h := s.onW8[a]
	s.mu.Unlock()
	if h != nil {
		s.Poke8(a, h(s, old, v))
	}
	return nil
}

func (s *Sim) Read16(a Addr) (uint16, error) {
	s.mu.Lock()
	v := s.load16(a)
	s.record(Access{Width: 16, Addr: a, Value: v})
	h := s.onRead[a]
	s.mu.Unlock()
	if h != nil {
		h(s, v)
	}
	return v, nil
}

func (s *Sim) Write16(a Addr, v uint16) error {
	s.mu.Lock()
	old := s.load16(a)
	s.store16(a, v)
	s.record(Access{Write: true, Width: 16, Addr: a, Value: v})
	h := s.onWrite[a]
	s.mu.Unlock()
	if h != nil {
		nv := h(s, old, v)
		s.Poke16(a, nv)
	}
	return nil
}

// ---------------- Test-side access (no hooks, no trace) ----------------

func (s *Sim) Peek16(a Addr) uint16 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load16(a)
}

func (s *Sim) Poke16(a Addr, v uint16) {
	s.mu.Lock()
	s.store16(a, v)
	s.mu.Unlock()
}

func (s *Sim) Peek8(a Addr) uint8 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mem[a]
}

func (s *Sim) Poke8(a Addr, v uint8) {
	s.mu.Lock()
	s.mem[a] = v
	s.mu.Unlock()
}

// SetBits16 and ClearBits16 flip bits the way hardware does, bypassing hooks.
func (s *Sim) SetBits16(a Addr, mask uint16) {
	s.mu.Lock()
	s.store16(a, s.load16(a)|mask)
	s.mu.Unlock()
}

func (s *Sim) ClearBits16(a Addr, mask uint16) {
	s.mu.Lock()
	s.store16(a, s.load16(a)&^mask)
	s.mu.Unlock()
}

// OnWrite16 installs (or with nil removes) the write hook for a.
func (s *Sim) OnWrite16(a Addr, h WriteHook) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if h == nil {
		delete(s.onWrite, a)
		return
	}
	s.onWrite[a] = h
}

func (s *Sim) OnRead16(a Addr, h ReadHook) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if h == nil {
		delete(s.onRead, a)
		return
	}
	s.onRead[a] = h
}

func (s *Sim) OnWrite8(a Addr, h WriteHook8) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if h == nil {
		delete(s.onW8, a)
		return
	}
	s.onW8[a] = h
}

func (s *Sim) OnRead8(a Addr, h ReadHook8) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if h == nil {
		delete(s.onR8, a)
		return
	}
	s.onR8[a] = h
}

// SetBits8 and ClearBits8 are the byte-wide forms of SetBits16/ClearBits16.
func (s *Sim) SetBits8(a Addr, mask uint8) {
	s.mu.Lock()
	s.mem[a] |= mask
	s.mu.Unlock()
}

func (s *Sim) ClearBits8(a Addr, mask uint8) {
	s.mu.Lock()
	s.mem[a] &^= mask
	s.mu.Unlock()
}

// Trace starts recording bus accesses, discarding any earlier record.
func (s *Sim) Trace() {
	s.mu.Lock()
	s.tracing = true
	s.trace = s.trace[:0]
	s.mu.Unlock()
}

// Accesses returns a copy of the accesses recorded since Trace.
func (s *Sim) Accesses() []Access {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Access, len(s.trace))
	copy(out, s.trace)
	return out
}

// Writes returns only the recorded stores.
func (s *Sim) Writes() []Access {
	var out []Access
	for _, a := range s.Accesses() {
		if a.Write {
			out = append(out, a)
		}
	}
	return out
}

func (s *Sim) load16(a Addr) uint16 { return uint16(s.mem[a]) | uint16(s.mem[a+1])<<8 }

func (s *Sim) store16(a Addr, v uint16) {
	s.mem[a] = uint8(v)
	s.mem[a+1] = uint8(v >> 8)
}

func (s *Sim) record(ac Access) {
	if s.tracing {
		s.trace = append(s.trace, ac)
	}
}

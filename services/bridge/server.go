package bridge

import (
	"bufio"
	"context"
	"errors"
	"io"
	"sync/atomic"

	"driverlib-go/regs"
)

// Server executes bridge requests against a local register bus.
type Server struct {
	bus    regs.Bus
	lo, hi regs.Addr // permitted window [lo, hi); hi == 0 means any address

	served   atomic.Uint64
	rejected atomic.Uint64
}

func NewServer(bus regs.Bus) *Server { return &Server{bus: bus} }

// Restrict limits accesses to [lo, hi). Requests outside it get
// StatusBadAddress.
func (s *Server) Restrict(lo, hi regs.Addr) *Server {
	s.lo, s.hi = lo, hi
	return s
}

// Counts returns the number of requests answered OK and the number
// answered with an error status.
func (s *Server) Counts() (served, rejected uint64) {
	return s.served.Load(), s.rejected.Load()
}

func (s *Server) allowed(op Op, a regs.Addr) bool {
	if op.wide() && a&1 != 0 {
		return false
	}
	if s.hi == 0 {
		return true
	}
	end := a + 1
	if op.wide() {
		end = a + 2
	}
	return a >= s.lo && end <= s.hi
}

// Handle executes one decoded request.
func (s *Server) Handle(req Request) Reply {
	r := s.handle(req)
	r.Seq = req.Seq
	if r.Status == StatusOK {
		s.served.Add(1)
	} else {
		s.rejected.Add(1)
	}
	return r
}

func (s *Server) handle(req Request) Reply {
	if !req.Op.valid() {
		return Reply{Status: StatusBadOp}
	}
	if req.Op == OpPing {
		return Reply{Value: ProtocolVersion}
	}
	if !s.allowed(req.Op, req.Addr) {
		return Reply{Status: StatusBadAddress}
	}

	var (
		v   uint16
		err error
	)
	switch req.Op {
	case OpRead8:
		var b uint8
		b, err = s.bus.Read8(req.Addr)
		v = uint16(b)
	case OpWrite8:
		err = s.bus.Write8(req.Addr, uint8(req.Value))
	case OpRead16:
		v, err = s.bus.Read16(req.Addr)
	case OpWrite16:
		err = s.bus.Write16(req.Addr, req.Value)
	}
	if err != nil {
		return Reply{Status: StatusBusError}
	}
	return Reply{Value: v}
}

// Serve answers requests read from rw until ctx ends or the stream fails.
// If rw is also an io.Closer it is closed when ctx ends so a blocked read
// returns. A clean EOF returns nil.
func (s *Server) Serve(ctx context.Context, rw io.ReadWriter) error {
	if c, ok := rw.(io.Closer); ok {
		stop := context.AfterFunc(ctx, func() { _ = c.Close() })
		defer stop()
	}

	br := bufio.NewReader(rw)
	var in [RequestLen]byte
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := readFrame(br, requestStart, in[:]); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		var rep Reply
		req, err := DecodeRequest(in[:])
		if errors.Is(err, errChecksum) {
			rep = Reply{Seq: req.Seq, Status: StatusBadChecksum}
			s.rejected.Add(1)
		} else {
			rep = s.Handle(req)
		}

		out := rep.Encode()
		if _, err := rw.Write(out[:]); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
	}
}

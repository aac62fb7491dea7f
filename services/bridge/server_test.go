package bridge

import (
	"bytes"
	"context"
	"errors"
	"runtime"
	"testing"
	"time"

	"driverlib-go/drivers/usciuart"
	"driverlib-go/regs"
)

type failingBus struct{ regs.Bus }

var errBus = errors.New("bus fault")

func (failingBus) Read16(regs.Addr) (uint16, error) { return 0, errBus }

func TestServerHandle(t *testing.T) {
	sim := regs.NewSim()
	sim.Poke16(0x0700, 0x1234)
	sim.Poke8(0x0203, 0x5A)
	s := NewServer(sim)

	tests := []struct {
		name string
		req  Request
		want Reply
	}{
		{"read16", Request{Op: OpRead16, Addr: 0x0700}, Reply{Value: 0x1234}},
		{"read8 high byte", Request{Op: OpRead8, Addr: 0x0701}, Reply{Value: 0x12}},
		{"read8", Request{Op: OpRead8, Addr: 0x0203}, Reply{Value: 0x5A}},
		{"write16", Request{Op: OpWrite16, Addr: 0x0702, Value: 0x00FF}, Reply{}},
		{"write8", Request{Op: OpWrite8, Addr: 0x0202, Value: 0x1FF}, Reply{}},
		{"odd wide", Request{Op: OpRead16, Addr: 0x0701}, Reply{Status: StatusBadAddress}},
		{"bad op", Request{Op: 0x42}, Reply{Status: StatusBadOp}},
		{"ping", Request{Op: OpPing, Addr: 0xFFFF}, Reply{Value: ProtocolVersion}},
		{"seq echoed", Request{Seq: 0x42, Op: OpRead8, Addr: 0x0203}, Reply{Seq: 0x42, Value: 0x5A}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := s.Handle(tc.req); got != tc.want {
				t.Fatalf("Handle(%+v) = %+v, want %+v", tc.req, got, tc.want)
			}
		})
	}
	if sim.Peek16(0x0702) != 0x00FF || sim.Peek8(0x0202) != 0xFF {
		t.Fatalf("writes not applied: %04x %02x", sim.Peek16(0x0702), sim.Peek8(0x0202))
	}
	served, rejected := s.Counts()
	if served != 7 || rejected != 2 {
		t.Fatalf("counts = %d/%d", served, rejected)
	}
}

func TestServerWindow(t *testing.T) {
	s := NewServer(regs.NewSim()).Restrict(0x0700, 0x0720)
	tests := []struct {
		req  Request
		want Status
	}{
		{Request{Op: OpRead16, Addr: 0x0700}, StatusOK},
		{Request{Op: OpRead16, Addr: 0x071E}, StatusOK},
		{Request{Op: OpRead8, Addr: 0x071F}, StatusOK},
		{Request{Op: OpRead16, Addr: 0x0720}, StatusBadAddress},
		{Request{Op: OpWrite8, Addr: 0x06FF}, StatusBadAddress},
		{Request{Op: OpPing, Addr: 0x0000}, StatusOK},
	}
	for _, tc := range tests {
		if got := s.Handle(tc.req).Status; got != tc.want {
			t.Fatalf("Handle(%+v) status = %v, want %v", tc.req, got, tc.want)
		}
	}
}

func TestServerBusError(t *testing.T) {
	s := NewServer(failingBus{regs.NewSim()})
	if got := s.Handle(Request{Op: OpRead16, Addr: 0x10}); got.Status != StatusBusError {
		t.Fatalf("status = %v", got.Status)
	}
}

// pipe is an in-memory duplex for Serve: writes go to out, reads come
// from in.
type pipe struct {
	in  *bytes.Reader
	out bytes.Buffer
}

func (p *pipe) Read(b []byte) (int, error)  { return p.in.Read(b) }
func (p *pipe) Write(b []byte) (int, error) { return p.out.Write(b) }

func TestServeStream(t *testing.T) {
	sim := regs.NewSim()
	sim.Poke16(0x0712, 0x03FF)

	good := Request{Op: OpRead16, Addr: 0x0712}.Encode()
	bad := Request{Op: OpRead16, Addr: 0x0712}.Encode()
	bad[RequestLen-1] ^= 0xFF

	var in []byte
	in = append(in, 0xEE, 0x00) // line noise
	in = append(in, good[:]...)
	in = append(in, bad[:]...)
	p := &pipe{in: bytes.NewReader(in)}

	if err := NewServer(sim).Serve(context.Background(), p); err != nil {
		t.Fatalf("Serve: %v", err)
	}
	out := p.out.Bytes()
	if len(out) != 2*ReplyLen {
		t.Fatalf("replies = % x", out)
	}
	r1, err := DecodeReply(out[:ReplyLen])
	if err != nil || r1 != (Reply{Value: 0x03FF}) {
		t.Fatalf("reply 1 = %+v, %v", r1, err)
	}
	r2, err := DecodeReply(out[ReplyLen:])
	if err != nil || r2.Status != StatusBadChecksum {
		t.Fatalf("reply 2 = %+v, %v", r2, err)
	}
}

func TestServeCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := &pipe{in: bytes.NewReader(nil)}
	if err := NewServer(regs.NewSim()).Serve(ctx, p); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
}

// The board side: requests arrive on USCI_A0 and are executed against the
// same register file.
func TestServeOverUSCIUART(t *testing.T) {
	sim := regs.NewSim()
	line := usciuart.Simulate(sim, usciuart.BaseAddressA0)
	uart := usciuart.New(sim, usciuart.BaseAddressA0)
	uart.SetWaitPolicy(regs.WaitPolicy{Yield: runtime.Gosched})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- NewServer(sim).Serve(ctx, uart.Stream(ctx)) }()

	w := Request{Op: OpWrite16, Addr: 0x0202, Value: 0x00A0}.Encode()
	r := Request{Op: OpRead8, Addr: 0x0202}.Encode()
	line.Inject(w[:]...)
	line.Inject(r[:]...)

	deadline := time.Now().Add(2 * time.Second)
	for len(line.Transmitted()) < 2*ReplyLen {
		if time.Now().After(deadline) {
			t.Fatalf("only % x transmitted", line.Transmitted())
		}
		time.Sleep(time.Millisecond)
	}
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("Serve: %v", err)
	}

	tx := line.Transmitted()
	if rep, err := DecodeReply(tx[:ReplyLen]); err != nil || rep.Status != StatusOK {
		t.Fatalf("write reply = %+v, %v", rep, err)
	}
	if rep, err := DecodeReply(tx[ReplyLen : 2*ReplyLen]); err != nil || rep.Value != 0xA0 {
		t.Fatalf("read reply = %+v, %v", rep, err)
	}
}

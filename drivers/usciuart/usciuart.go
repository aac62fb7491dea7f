// Package usciuart drives a USCI_A instance in asynchronous (UART) mode.
//
// Init and InitAdvance leave the module held in reset; call Enable to
// start it. A Device is an io.ReadWriter over polled transfers, which is
// how the register bridge runs on the target.
package usciuart

import (
	"context"
	"io"

	"driverlib-go/errcode"
	"driverlib-go/regs"
	"driverlib-go/x/mathx"
)

var (
	ErrInvalidParam = &errcode.E{C: errcode.InvalidParams, Op: "usciuart", Msg: "parameter out of range"}
	ErrBaudRate     = &errcode.E{C: errcode.InvalidParams, Op: "usciuart", Msg: "baud rate not reachable from clock"}
	ErrTimeout      = &errcode.E{C: errcode.Timeout, Op: "usciuart", Msg: "transfer flag not raised"}
	ErrReceive      = &errcode.E{C: errcode.BadFrame, Op: "usciuart", Msg: "receive error"}
)

// Config describes an Init. Zero values select LSB first, one stop bit, no
// parity, plain UART mode and automatic generator selection.
type Config struct {
	Clock    ClockSource
	ClockHz  uint32
	Baud     uint32
	Parity   Parity
	BitOrder BitOrder
	StopBits StopBits
	Mode     Mode
	Sampling Sampling
}

// Divider is a baud-rate generator setting.
type Divider struct {
	Prescaler    uint16 // UCBRx
	FirstMod     uint8  // UCBRFx, oversampling only
	SecondMod    uint8  // UCBRSx
	Oversampling bool
}

// ComputeDivider derives the generator setting for a clock and baud rate.
// N = clock/baud; oversampling uses N/16 with a 4-bit first-stage
// modulation, low-frequency mode uses N with a 3-bit second stage.
func ComputeDivider(clockHz, baud uint32, s Sampling) (Divider, error) {
	if clockHz == 0 || baud == 0 || s > SamplingOversampled {
		return Divider{}, ErrInvalidParam
	}
	clk, b := uint64(clockHz), uint64(baud)
	n := clk / b
	over := s == SamplingOversampled || (s == SamplingAuto && n > 16)
	if over {
		if n < 16 {
			return Divider{}, ErrBaudRate
		}
		brw := clk / (16 * b)
		rem := clk - 16*brw*b
		if brw > 0xFFFF {
			return Divider{}, ErrBaudRate
		}
		brf := mathx.Clamp(mathx.RoundDiv(rem, b), 0, 15)
		return Divider{Prescaler: uint16(brw), FirstMod: uint8(brf), Oversampling: true}, nil
	}
	if n == 0 || n > 0xFFFF {
		return Divider{}, ErrBaudRate
	}
	rem := clk - n*b
	brs := mathx.Clamp(mathx.RoundDiv(8*rem, b), 0, 7)
	return Divider{Prescaler: uint16(n), SecondMod: uint8(brs)}, nil
}

// ActualBaud is the nominal rate a divider produces from clockHz.
func (d Divider) ActualBaud(clockHz uint32) uint32 {
	if d.Prescaler == 0 {
		return 0
	}
	// Per-bit clock count in sixteenths.
	var ticks16 uint64
	if d.Oversampling {
		ticks16 = 16*16*uint64(d.Prescaler) + 16*uint64(d.FirstMod)
	} else {
		ticks16 = 16*uint64(d.Prescaler) + 2*uint64(d.SecondMod)
	}
	return uint32(mathx.RoundDiv(16*uint64(clockHz), ticks16))
}

type Device struct {
	regs regs.Block
	wait regs.WaitPolicy
}

func New(bus regs.Bus, base regs.Addr) *Device {
	if base == 0 {
		base = BaseAddressA0
	}
	return &Device{regs: regs.NewBlock(bus, base)}
}

// SetWaitPolicy bounds the TX/RX flag waits. The default waits forever.
func (d *Device) SetWaitPolicy(p regs.WaitPolicy) { d.wait = p }

// ---------------- Initialization ----------------

// Init computes the divider for cfg and programs the module. The module is
// left in reset.
func (d *Device) Init(cfg Config) (Divider, error) {
	if !cfg.Clock.valid() {
		return Divider{}, ErrInvalidParam
	}
	div, err := ComputeDivider(cfg.ClockHz, cfg.Baud, cfg.Sampling)
	if err != nil {
		return Divider{}, err
	}
	return div, d.InitAdvance(cfg, div)
}

// InitAdvance programs an explicit divider. ClockHz, Baud and Sampling in
// cfg are ignored.
func (d *Device) InitAdvance(cfg Config, div Divider) error {
	if !cfg.Clock.valid() || cfg.Parity > EvenParity || cfg.BitOrder > MSBFirst ||
		cfg.StopBits > TwoStopBits || cfg.Mode > ModeAutoBaud ||
		div.FirstMod > 15 || div.SecondMod > 7 || div.Prescaler == 0 {
		return ErrInvalidParam
	}
	if err := d.regs.Set8(regCTL1, ctl1SWRST); err != nil {
		return err
	}
	if err := d.regs.Update8(regCTL1, ctl1SSEL, cfg.Clock.bits()); err != nil {
		return err
	}

	var c0 uint8
	if cfg.BitOrder == MSBFirst {
		c0 |= ctl0MSB
	}
	if cfg.StopBits == TwoStopBits {
		c0 |= ctl0SPB
	}
	c0 |= cfg.Parity.bits() | cfg.Mode.bits()
	// Asynchronous, 8-bit characters.
	const c0Mask = ctl0PEN | ctl0PAR | ctl0MSB | ctl07BIT | ctl0SPB | ctl0MODE | ctl0SYNC
	if err := d.regs.Update8(regCTL0, c0Mask, c0); err != nil {
		return err
	}

	if err := d.regs.Write16(regBRW, div.Prescaler); err != nil {
		return err
	}
	mctl := div.FirstMod<<4 | div.SecondMod<<1
	if div.Oversampling {
		mctl |= mctlOS16
	}
	if err := d.regs.Write8(regMCTL, mctl); err != nil {
		return err
	}
	return d.regs.Clear8(regCTL1, ctl1RXEIE|ctl1BRKIE|ctl1DORM|ctl1TXADDR|ctl1TXBRK)
}

// Enable releases the module from reset.
func (d *Device) Enable() error { return d.regs.Clear8(regCTL1, ctl1SWRST) }

// Disable holds the module in reset.
func (d *Device) Disable() error { return d.regs.Set8(regCTL1, ctl1SWRST) }

// ---------------- Transfers ----------------

func (d *Device) waitFlag(ctx context.Context, f uint8) error {
	return regs.Poll(ctx, d.wait, ErrTimeout, func() (bool, error) {
		return d.regs.Test8(regIFG, f)
	})
}

func (d *Device) interruptEnabled(f uint8) (bool, error) { return d.regs.Test8(regIE, f) }

// TransmitData writes one byte. With the TX interrupt disabled it first
// waits for TXIFG.
func (d *Device) TransmitData(b byte) error {
	return d.transmit(context.Background(), b)
}

func (d *Device) transmit(ctx context.Context, b byte) error {
	on, err := d.interruptEnabled(intTX)
	if err != nil {
		return err
	}
	if !on {
		if err := d.waitFlag(ctx, intTX); err != nil {
			return err
		}
	}
	return d.regs.Write8(regTXBUF, b)
}

// ReceiveData reads one byte. With the RX interrupt disabled it first
// waits for RXIFG.
func (d *Device) ReceiveData() (byte, error) {
	return d.receive(context.Background())
}

func (d *Device) receive(ctx context.Context) (byte, error) {
	on, err := d.interruptEnabled(intRX)
	if err != nil {
		return 0, err
	}
	if !on {
		if err := d.waitFlag(ctx, intRX); err != nil {
			return 0, err
		}
	}
	return d.regs.Read8(regRXBUF)
}

// TransmitAddress sends b as an address character in the multiprocessor
// modes.
func (d *Device) TransmitAddress(b byte) error {
	if err := d.regs.Set8(regCTL1, ctl1TXADDR); err != nil {
		return err
	}
	return d.regs.Write8(regTXBUF, b)
}

// TransmitBreak sends a break followed by the sync character the current
// mode expects, then waits for TXIFG unless the TX interrupt is enabled.
func (d *Device) TransmitBreak() error {
	if err := d.regs.Set8(regCTL1, ctl1TXBRK); err != nil {
		return err
	}
	c0, err := d.regs.Read8(regCTL0)
	if err != nil {
		return err
	}
	sync := uint8(syncDefault)
	if c0&ctl0MODE == ModeAutoBaud.bits() {
		sync = syncAutoBaud
	}
	if err := d.regs.Write8(regTXBUF, sync); err != nil {
		return err
	}
	on, err := d.interruptEnabled(intTX)
	if err != nil || on {
		return err
	}
	return d.waitFlag(context.Background(), intTX)
}

// SetDormant makes the receiver ignore characters other than addresses
// (or break/sync in auto-baud mode).
func (d *Device) SetDormant() error   { return d.regs.Set8(regCTL1, ctl1DORM) }
func (d *Device) ResetDormant() error { return d.regs.Clear8(regCTL1, ctl1DORM) }

// ---------------- Status and interrupts ----------------

func (d *Device) QueryStatusFlags(m Status) (Status, error) {
	v, err := d.regs.Read8(regSTAT)
	return Status(v) & m, err
}

func (d *Device) EnableInterrupt(m Interrupt) error {
	if m&ieMask != 0 {
		if err := d.regs.Set8(regIE, uint8(m&ieMask)); err != nil {
			return err
		}
	}
	if m&ctl1Mask != 0 {
		return d.regs.Set8(regCTL1, uint8(m&ctl1Mask))
	}
	return nil
}

func (d *Device) DisableInterrupt(m Interrupt) error {
	if m&ieMask != 0 {
		if err := d.regs.Clear8(regIE, uint8(m&ieMask)); err != nil {
			return err
		}
	}
	if m&ctl1Mask != 0 {
		return d.regs.Clear8(regCTL1, uint8(m&ctl1Mask))
	}
	return nil
}

func (d *Device) InterruptStatus(m Flag) (Flag, error) {
	v, err := d.regs.Read8(regIFG)
	return Flag(v) & m & (FlagReceive | FlagTransmit), err
}

func (d *Device) ClearInterrupt(m Flag) error {
	return d.regs.Clear8(regIFG, uint8(m&(FlagReceive|FlagTransmit)))
}

func (d *Device) InterruptVector() (uint16, error) { return d.regs.Read16(regIV) }

// ReceiveBufferAddressForDMA and TransmitBufferAddressForDMA return the
// absolute buffer addresses.
func (d *Device) ReceiveBufferAddressForDMA() regs.Addr  { return d.regs.At(regRXBUF) }
func (d *Device) TransmitBufferAddressForDMA() regs.Addr { return d.regs.At(regTXBUF) }

// ---------------- io.ReadWriter ----------------

var _ io.ReadWriter = (*Device)(nil)

func (d *Device) Write(p []byte) (int, error) { return d.Stream(context.Background()).Write(p) }
func (d *Device) Read(p []byte) (int, error)  { return d.Stream(context.Background()).Read(p) }

// Stream returns a reader/writer whose flag waits end with ctx.
func (d *Device) Stream(ctx context.Context) io.ReadWriter { return stream{d: d, ctx: ctx} }

type stream struct {
	d   *Device
	ctx context.Context
}

func (s stream) Write(p []byte) (int, error) {
	for i, b := range p {
		if err := s.d.waitFlag(s.ctx, intTX); err != nil {
			return i, err
		}
		if err := s.d.regs.Write8(regTXBUF, b); err != nil {
			return i, err
		}
	}
	return len(p), nil
}

// Read blocks for the first byte, then takes whatever else is already
// waiting. A character received with an error is dropped and reported as
// ErrReceive.
func (s stream) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	n := 0
	for n < len(p) {
		if n == 0 {
			if err := s.d.waitFlag(s.ctx, intRX); err != nil {
				return 0, err
			}
		} else if ready, err := s.d.regs.Test8(regIFG, intRX); err != nil || !ready {
			return n, err
		}
		st, err := s.d.regs.Read8(regSTAT)
		if err != nil {
			return n, err
		}
		b, err := s.d.regs.Read8(regRXBUF)
		if err != nil {
			return n, err
		}
		if Status(st).Has(StatusReceiveError) {
			return n, ErrReceive
		}
		p[n] = b
		n++
	}
	return n, nil
}

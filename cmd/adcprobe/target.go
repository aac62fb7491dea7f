package main

import (
	"context"
	"io"
	"runtime"
	"sync"
	"time"

	"driverlib-go/drivers/adc10b"
	"driverlib-go/drivers/chargerio"
	"driverlib-go/drivers/gpio"
	"driverlib-go/drivers/tec"
	"driverlib-go/regs"
	"driverlib-go/services/bridge"
	"driverlib-go/services/config"
)

// target is the board the console drives: local simulation or a remote
// board behind the register bridge.
type target struct {
	bus     regs.Bus
	board   config.Board
	adc     *adc10b.Device
	gpio    *gpio.Device
	charger *chargerio.Controller
	tec     *tec.Device

	client *bridge.Client // remote only
	link   io.Closer      // remote only
	sim    *simBoard      // sim only
}

func newTarget(bus regs.Bus, board config.Board) (*target, error) {
	layout, err := board.Charger.Layout()
	if err != nil {
		return nil, err
	}
	g := gpio.New(bus)
	adc := adc10b.New(bus, regs.Addr(board.Bases.ADC))
	adc.SetWaitPolicy(regs.WaitPolicy{Timeout: time.Second, Yield: runtime.Gosched})
	return &target{
		bus:     bus,
		board:   board,
		adc:     adc,
		gpio:    g,
		charger: chargerio.New(g, layout),
		tec:     tec.New(bus, regs.Addr(board.Bases.TEC)),
	}, nil
}

// simBoard is a register file with the converter model attached. Channel
// inputs are set from the console. The simulated board comes up with the
// converter powered and the charger pins configured, as the firmware
// leaves them.
type simBoard struct {
	*regs.Sim
	conv *adc10b.SimModel

	mu     sync.Mutex
	inputs map[adc10b.InputChannel]uint16
}

func newSimTarget(board config.Board) (*target, error) {
	sb := &simBoard{Sim: regs.NewSim(), inputs: map[adc10b.InputChannel]uint16{}}
	sb.conv = adc10b.Simulate(sb.Sim, regs.Addr(board.Bases.ADC))
	sb.conv.AutoFinish = true
	sb.conv.Input = sb.input

	t, err := newTarget(sb.Sim, board)
	if err != nil {
		return nil, err
	}
	if err := t.adc.Init(adc10b.SampleHoldSC, adc10b.ClockADC10OSC, adc10b.Div1); err != nil {
		return nil, err
	}
	if err := t.charger.Init(); err != nil {
		return nil, err
	}
	t.sim = sb
	return t, nil
}

func (s *simBoard) input(ch adc10b.InputChannel) uint16 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inputs[ch]
}

func (s *simBoard) setInput(ch adc10b.InputChannel, code uint16) {
	s.mu.Lock()
	s.inputs[ch] = code & 0x03FF
	s.mu.Unlock()
}

// newRemoteTarget opens the board's link and wraps it in a bridge client.
func newRemoteTarget(ctx context.Context, board config.Board, tc bridge.TransportConfig) (*target, error) {
	tr, err := bridge.NewTransport(tc)
	if err != nil {
		return nil, err
	}
	rwc, err := tr.Open(ctx)
	if err != nil {
		return nil, err
	}
	var cc bridge.ClientConfig
	if board.Bridge != nil {
		cc = board.Bridge.ClientConfig()
	}
	c := bridge.NewClient(rwc, cc)
	t, err := newTarget(c, board)
	if err != nil {
		_ = rwc.Close()
		return nil, err
	}
	t.client = c
	t.link = rwc
	logf("connected via %s", tr.String())
	return t, nil
}

func (t *target) Close() error {
	if t.link != nil {
		return t.link.Close()
	}
	return nil
}

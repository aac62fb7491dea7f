package monitor

import (
	"context"
	"errors"
	"runtime"
	"testing"
	"time"

	"driverlib-go/bus"
	"driverlib-go/drivers/adc10b"
	"driverlib-go/drivers/chargerio"
	"driverlib-go/drivers/gpio"
	"driverlib-go/errcode"
	"driverlib-go/regs"
	"driverlib-go/types"
)

type board struct {
	sim     *regs.Sim
	conv    *adc10b.SimModel
	adc     *adc10b.Device
	charger *chargerio.Controller
}

func newBoard(t *testing.T) *board {
	t.Helper()
	sim := regs.NewSim()
	conv := adc10b.Simulate(sim, adc10b.BaseAddressDefault)
	conv.AutoFinish = true
	adc := adc10b.New(sim, adc10b.BaseAddressDefault)
	adc.SetWaitPolicy(regs.WaitPolicy{Yield: runtime.Gosched})
	if err := adc.Init(adc10b.SampleHoldSC, adc10b.ClockADC10OSC, adc10b.Div1); err != nil {
		t.Fatal(err)
	}
	ch := chargerio.New(gpio.New(sim), chargerio.DefaultLayout())
	if err := ch.Init(); err != nil {
		t.Fatal(err)
	}
	return &board{sim: sim, conv: conv, adc: adc, charger: ch}
}

func TestSampleScalesAndAverages(t *testing.T) {
	b := newBoard(t)
	n := 0
	b.conv.Input = func(ch adc10b.InputChannel) uint16 {
		n++
		if ch != adc10b.InputA3 {
			return 0
		}
		if n%2 == 0 {
			return 102
		}
		return 100
	}

	s := New(b.adc, b.charger, types.MonitorConfig{Oversample: 4})
	smp := s.Sample(context.Background(), 3)
	if smp.Error != "" {
		t.Fatalf("error %q", smp.Error)
	}
	if smp.Channel != 3 || smp.Raw != 101 || smp.N != 4 {
		t.Fatalf("sample = %+v", smp)
	}
	if smp.StdDev < 1.15 || smp.StdDev > 1.16 {
		t.Fatalf("stddev = %v", smp.StdDev)
	}
	if want := int32((101*2500 + 511) / 1023); smp.MilliV != want {
		t.Fatalf("mV = %d, want %d", smp.MilliV, want)
	}
	if !adc10b.Interrupt(smp.Flags).Has(adc10b.IntDataReady) {
		t.Fatalf("flags = %#x", smp.Flags)
	}
}

func TestSampleSingleFullScale(t *testing.T) {
	b := newBoard(t)
	b.conv.Input = func(adc10b.InputChannel) uint16 { return 0x03FF }
	s := New(b.adc, nil, types.MonitorConfig{RefMilliV: 3300})
	smp := s.Sample(context.Background(), 0)
	if smp.Raw != 0x03FF || smp.MilliV != 3300 || smp.StdDev != 0 || smp.N != 1 {
		t.Fatalf("sample = %+v", smp)
	}
}

func TestSampleFollowsResolutionAndFormat(t *testing.T) {
	cases := []struct {
		name string
		res  adc10b.Resolution
		df   adc10b.DataFormat
		in   uint16
		raw  uint16
		bits int
		mV   int32
	}{
		{"10-bit binary", adc10b.Resolution10Bit, adc10b.FormatBinary, 0x3FF, 0x3FF, 10, 3300},
		{"8-bit binary full", adc10b.Resolution8Bit, adc10b.FormatBinary, 0x3FF, 0xFF, 8, 3300},
		{"8-bit binary mid", adc10b.Resolution8Bit, adc10b.FormatBinary, 0x200, 0x80, 8, (0x80*3300 + 127) / 255},
		{"10-bit signed zero", adc10b.Resolution10Bit, adc10b.FormatSigned, 0x000, 0x000, 10, 0},
		{"10-bit signed mid", adc10b.Resolution10Bit, adc10b.FormatSigned, 0x200, 0x200, 10, (0x200*3300 + 511) / 1023},
		{"10-bit signed full", adc10b.Resolution10Bit, adc10b.FormatSigned, 0x3FF, 0x3FF, 10, 3300},
		{"8-bit signed full", adc10b.Resolution8Bit, adc10b.FormatSigned, 0x3FF, 0xFF, 8, 3300},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			b := newBoard(t)
			b.conv.Input = func(adc10b.InputChannel) uint16 { return c.in }
			if err := b.adc.SetResolution(c.res); err != nil {
				t.Fatal(err)
			}
			if err := b.adc.SetDataReadBackFormat(c.df); err != nil {
				t.Fatal(err)
			}
			s := New(b.adc, nil, types.MonitorConfig{RefMilliV: 3300, Oversample: 2})
			smp := s.Sample(context.Background(), 0)
			if smp.Error != "" {
				t.Fatalf("error %q", smp.Error)
			}
			if smp.Raw != c.raw || smp.Bits != c.bits || smp.MilliV != c.mV {
				t.Fatalf("sample = %+v", smp)
			}
		})
	}
}

func TestSampleRejectsBadChannel(t *testing.T) {
	s := New(newBoard(t).adc, nil, types.MonitorConfig{})
	for _, ch := range []int{-1, 16} {
		if smp := s.Sample(context.Background(), ch); smp.Error != string(errcode.InvalidParams) {
			t.Fatalf("ch %d: error %q", ch, smp.Error)
		}
	}
}

func TestSampleTimesOutOnStuckConverter(t *testing.T) {
	b := newBoard(t)
	b.conv.AutoFinish = false
	s := New(b.adc, nil, types.MonitorConfig{})

	smp := s.Sample(context.Background(), 1)
	if smp.Error != string(errcode.Timeout) {
		t.Fatalf("error %q", smp.Error)
	}
	// The converter is disarmed so the next sample can reconfigure.
	b.conv.SetBusy(false)
	b.conv.AutoFinish = true
	if smp := s.Sample(context.Background(), 1); smp.Error != "" {
		t.Fatalf("after recovery: %q", smp.Error)
	}
}

// deadADC fails every access the way a dropped bridge link does.
type deadADC struct{}

var errLink = errcode.Wrap(errcode.LinkDown, "bridge.read16", errors.New("closed pipe"))

func (deadADC) ConfigureMemory(adc10b.InputChannel, adc10b.PositiveRef, adc10b.NegativeRef) error {
	return errLink
}
func (deadADC) StartConversion(adc10b.SequenceMode) error                         { return errLink }
func (deadADC) DisableConversionsContext(context.Context, adc10b.StopPolicy) error { return errLink }
func (deadADC) Results() (uint16, error)                                          { return 0, errLink }
func (deadADC) Resolution() (adc10b.Resolution, error)                            { return 0, errLink }
func (deadADC) DataReadBackFormat() (adc10b.DataFormat, error)                    { return 0, errLink }
func (deadADC) InterruptStatus(adc10b.Interrupt) (adc10b.Interrupt, error)        { return 0, errLink }
func (deadADC) ClearInterrupt(adc10b.Interrupt) error                             { return errLink }

func TestCyclePublishesRetained(t *testing.T) {
	b := newBoard(t)
	b.conv.Input = func(ch adc10b.InputChannel) uint16 { return 10 * uint16(ch) }
	bb := bus.NewBus(16)
	conn := bb.NewConnection("monitor_test")

	s := New(b.adc, b.charger, types.MonitorConfig{Channels: []int{1, 2}})
	st := s.Cycle(context.Background(), conn)
	if st.Link != types.LinkUp || st.Cycles != 1 || st.Error != "" {
		t.Fatalf("status = %+v", st)
	}

	sub := conn.Subscribe(bus.T("adc", "sample", "+"))
	got := map[int]uint16{}
	for i := 0; i < 2; i++ {
		m := next(t, sub)
		smp := m.Payload.(types.ADCSample)
		got[smp.Channel] = smp.Raw
	}
	if got[1] != 10 || got[2] != 20 {
		t.Fatalf("samples = %v", got)
	}

	cs := conn.Subscribe(TopicChargerState)
	if io := next(t, cs).Payload.(types.ChargerIOState); io.IDSense != "present" || io.MuxEnabled {
		t.Fatalf("charger = %+v", io)
	}
	ss := conn.Subscribe(TopicStatus)
	if got := next(t, ss).Payload.(types.MonitorStatus); got != st {
		t.Fatalf("retained status = %+v, want %+v", got, st)
	}
}

func TestCycleLinkStates(t *testing.T) {
	bb := bus.NewBus(16)
	conn := bb.NewConnection("monitor_link")

	down := New(deadADC{}, nil, types.MonitorConfig{Channels: []int{0, 1}})
	if st := down.Cycle(context.Background(), conn); st.Link != types.LinkDown || st.Error != string(errcode.LinkDown) {
		t.Fatalf("dead link: %+v", st)
	}

	b := newBoard(t)
	mixed := New(b.adc, nil, types.MonitorConfig{Channels: []int{0, 99}})
	if st := mixed.Cycle(context.Background(), conn); st.Link != types.LinkDegraded || st.Error != string(errcode.InvalidParams) {
		t.Fatalf("bad channel: %+v", st)
	}
}

func TestServiceLoop(t *testing.T) {
	b := newBoard(t)
	b.conv.Input = func(ch adc10b.InputChannel) uint16 { return 0x0200 + uint16(ch) }
	bb := bus.NewBus(32)
	conn := bb.NewConnection("monitor")
	client := bb.NewConnection("client")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s := New(b.adc, b.charger, types.MonitorConfig{IntervalMs: 20, Channels: []int{4}})
	if err := s.Start(ctx, conn); err != nil {
		t.Fatal(err)
	}

	status := client.Subscribe(TopicStatus)
	if st := next(t, status).Payload.(types.MonitorStatus); st.Link != types.LinkUp {
		t.Fatalf("status = %+v", st)
	}

	// On-demand read.
	rctx, rcancel := context.WithTimeout(ctx, time.Second)
	defer rcancel()
	rep, err := client.RequestWait(rctx, client.NewMessage(bus.T("adc", "read"), `{"channel":7}`, false))
	if err != nil {
		t.Fatal(err)
	}
	if smp := rep.Payload.(types.ADCSample); smp.Channel != 7 || smp.Raw != 0x0207 {
		t.Fatalf("read = %+v", smp)
	}

	// Charger control.
	on := true
	rep, err = client.RequestWait(rctx, client.NewMessage(bus.T("charger", "io", "control"),
		types.ChargerIOControl{MuxEnable: &on, MuxChannel: "ch4"}, false))
	if err != nil {
		t.Fatal(err)
	}
	if io, ok := rep.Payload.(types.ChargerIOState); !ok || !io.MuxEnabled || io.MuxChannel != 4 {
		t.Fatalf("control reply = %#v", rep.Payload)
	}
	rep, err = client.RequestWait(rctx, client.NewMessage(bus.T("charger", "io", "control"),
		map[string]any{"id_level": "nope"}, false))
	if err != nil {
		t.Fatal(err)
	}
	if m, ok := rep.Payload.(map[string]any); !ok || m["error"] != string(errcode.InvalidParams) {
		t.Fatalf("bad control reply = %#v", rep.Payload)
	}

	// Reconfigure the channel set.
	client.Publish(client.NewMessage(bus.T("config", "monitor"), map[string]any{"channels": []any{6}}, true))
	samples := client.Subscribe(bus.T("adc", "sample", 6))
	if smp := next(t, samples).Payload.(types.ADCSample); smp.Raw != 0x0206 {
		t.Fatalf("sample = %+v", smp)
	}
}

func TestMergeKeepsZeroFields(t *testing.T) {
	s := New(deadADC{}, nil, types.MonitorConfig{IntervalMs: 50, Channels: []int{2}})
	s.merge(types.MonitorConfig{RefMilliV: 1200})
	c := s.Config()
	if c.IntervalMs != 50 || len(c.Channels) != 1 || c.Channels[0] != 2 || c.RefMilliV != 1200 || c.Oversample != 1 {
		t.Fatalf("config = %+v", c)
	}
}

func next(t *testing.T, sub *bus.Subscription) *bus.Message {
	t.Helper()
	select {
	case m := <-sub.Channel():
		return m
	case <-time.After(2 * time.Second):
		t.Fatalf("timeout waiting on %v", sub.Topic())
		return nil
	}
}

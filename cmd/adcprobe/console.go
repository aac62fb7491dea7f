package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/shlex"
	"golang.org/x/sync/errgroup"

	"driverlib-go/bus"
	"driverlib-go/drivers/adc10b"
	"driverlib-go/drivers/tec"
	"driverlib-go/errcode"
	"driverlib-go/regs"
	"driverlib-go/services/monitor"
	"driverlib-go/types"
)

type handler func(ctx context.Context, c *console, args []string) (any, error)

type command struct {
	usage string
	run   handler
}

var commands map[string]command

func init() {
	commands = map[string]command{
		"help":             {"help", cmdHelp},
		"adc init":         {"adc init [shs clk div]", cmdADCInit},
		"adc start":        {"adc start [single|sequence|repeat-single|repeat-sequence]", cmdADCStart},
		"adc stop":         {"adc stop [complete|preempt]", cmdADCStop},
		"adc read":         {"adc read <channel> [oversample]", cmdADCRead},
		"adc state":        {"adc state", cmdADCState},
		"charger init":     {"charger init", cmdChargerInit},
		"charger mux":      {"charger mux on|off", cmdChargerMux},
		"charger ch":       {"charger ch ch1..ch4", cmdChargerChannel},
		"charger id":       {"charger id all_lo|level1_hi|level2_hi|all_hi", cmdChargerID},
		"charger vin":      {"charger vin all_lo|24v|36v|48v|all_hi", cmdChargerVin},
		"charger sense":    {"charger sense", cmdChargerSense},
		"charger snapshot": {"charger snapshot", cmdChargerSnapshot},
		"tec faults":       {"tec faults", cmdTECFaults},
		"tec clear":        {"tec clear", cmdTECClear},
		"peek":             {"peek <addr> [8|16]", cmdPeek},
		"poke":             {"poke <addr> <value> [8|16]", cmdPoke},
		"ping":             {"ping", cmdPing},
		"stats":            {"stats", cmdStats},
		"sim input":        {"sim input <channel> <code>", cmdSimInput},
		"watch":            {"watch [cycles] [interval_ms]", cmdWatch},
	}
}

type console struct {
	t   *target
	out io.Writer
	enc *json.Encoder
	mon *monitor.Service
}

func newConsole(t *target, out io.Writer) *console {
	var mc types.MonitorConfig
	if t.board.Monitor != nil {
		mc = *t.board.Monitor
	}
	return &console{t: t, out: out, enc: json.NewEncoder(out), mon: monitor.New(t.adc, t.charger, mc)}
}

// line splits a console line shell-style and runs it.
func (c *console) line(ctx context.Context, s string) error {
	args, err := shlex.Split(s)
	if err != nil {
		return c.fail(errcode.Wrap(errcode.InvalidParams, "parse", err))
	}
	if len(args) == 0 {
		return nil
	}
	return c.exec(ctx, args)
}

// exec resolves a one- or two-word command and prints its result as one
// JSON line. Failures print {"error": code, "detail": text}.
func (c *console) exec(ctx context.Context, args []string) error {
	cmd, rest, ok := lookup(args)
	if !ok {
		return c.fail(errcode.New(errcode.Unsupported, "console", "unknown command "+strconv.Quote(strings.Join(args, " "))))
	}
	res, err := cmd.run(ctx, c, rest)
	if err != nil {
		return c.fail(err)
	}
	if res != nil {
		return c.enc.Encode(res)
	}
	return nil
}

func lookup(args []string) (command, []string, bool) {
	if len(args) >= 2 {
		if cmd, ok := commands[args[0]+" "+args[1]]; ok {
			return cmd, args[2:], true
		}
	}
	cmd, ok := commands[args[0]]
	return cmd, args[1:], ok
}

func (c *console) fail(err error) error {
	_ = c.enc.Encode(map[string]string{"error": string(errcode.Of(err)), "detail": err.Error()})
	return err
}

type okResult struct {
	OK bool `json:"ok"`
}

var done = okResult{OK: true}

// ---------------- Argument helpers ----------------

func usageErr(cmd string) error {
	return errcode.New(errcode.InvalidParams, cmd, "usage: "+commands[cmd].usage)
}

func parseInt(s string, limit uint64) (uint64, error) {
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil || v > limit {
		return 0, errcode.New(errcode.InvalidParams, "console", "bad number "+strconv.Quote(s))
	}
	return v, nil
}

func argInt(args []string, i int, def, limit uint64) (uint64, error) {
	if i >= len(args) {
		return def, nil
	}
	return parseInt(args[i], limit)
}

// ---------------- Commands ----------------

func cmdHelp(context.Context, *console, []string) (any, error) {
	out := make([]string, 0, len(commands))
	for _, cmd := range commands {
		out = append(out, cmd.usage)
	}
	sort.Strings(out)
	return map[string]any{"commands": out}, nil
}

func cmdADCInit(_ context.Context, c *console, args []string) (any, error) {
	shs, err := argInt(args, 0, 0, 255)
	if err != nil {
		return nil, err
	}
	clk, err := argInt(args, 1, 0, 255)
	if err != nil {
		return nil, err
	}
	div, err := argInt(args, 2, 0, 255)
	if err != nil {
		return nil, err
	}
	err = c.t.adc.Init(adc10b.SampleHoldSource(shs), adc10b.ClockSource(clk), adc10b.ClockDivider(div))
	if err != nil {
		return nil, err
	}
	return cmdADCState(context.Background(), c, nil)
}

var modeNames = map[string]adc10b.SequenceMode{}

func init() {
	for m := adc10b.SingleChannel; m <= adc10b.RepeatedSequence; m++ {
		modeNames[m.String()] = m
	}
}

func cmdADCStart(_ context.Context, c *console, args []string) (any, error) {
	mode := adc10b.SingleChannel
	if len(args) > 0 {
		m, found := modeNames[args[0]]
		if !found {
			return nil, usageErr("adc start")
		}
		mode = m
	}
	if err := c.t.adc.StartConversion(mode); err != nil {
		return nil, err
	}
	return cmdADCState(context.Background(), c, nil)
}

func cmdADCStop(ctx context.Context, c *console, args []string) (any, error) {
	p := adc10b.Complete
	if len(args) > 0 {
		switch args[0] {
		case "complete":
		case "preempt":
			p = adc10b.Preempt
		default:
			return nil, usageErr("adc stop")
		}
	}
	wctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	if err := c.t.adc.DisableConversionsContext(wctx, p); err != nil {
		return nil, err
	}
	return cmdADCState(ctx, c, nil)
}

func cmdADCRead(ctx context.Context, c *console, args []string) (any, error) {
	if len(args) < 1 {
		return nil, usageErr("adc read")
	}
	ch, err := parseInt(args[0], uint64(adc10b.InputA15))
	if err != nil {
		return nil, err
	}
	n, err := argInt(args, 1, 1, 256)
	if err != nil {
		return nil, err
	}
	mon := monitor.New(c.t.adc, nil, types.MonitorConfig{
		RefMilliV:  c.mon.Config().RefMilliV,
		Oversample: int(n),
	})
	smp := mon.Sample(ctx, int(ch))
	if smp.Error != "" {
		return nil, errcode.New(errcode.Code(smp.Error), "adc read", "channel "+args[0])
	}
	return smp, nil
}

func cmdADCState(_ context.Context, c *console, _ []string) (any, error) {
	st, err := c.t.adc.State()
	if err != nil {
		return nil, err
	}
	ch, err := c.t.adc.MemoryChannel()
	if err != nil {
		return nil, err
	}
	mode, err := c.t.adc.SequenceMode()
	if err != nil {
		return nil, err
	}
	var ctl [3]uint16
	for i := range ctl {
		if ctl[i], err = c.t.bus.Read16(c.t.adc.Base() + regs.Addr(2*i)); err != nil {
			return nil, err
		}
	}
	return types.ADCState{
		State:   st.String(),
		Channel: int(ch),
		Mode:    mode.String(),
		CTL0:    ctl[0],
		CTL1:    ctl[1],
		CTL2:    ctl[2],
	}, nil
}

func cmdChargerInit(_ context.Context, c *console, _ []string) (any, error) {
	if err := c.t.charger.Init(); err != nil {
		return nil, err
	}
	return c.t.charger.Snapshot()
}

func cmdChargerMux(_ context.Context, c *console, args []string) (any, error) {
	if len(args) != 1 || (args[0] != "on" && args[0] != "off") {
		return nil, usageErr("charger mux")
	}
	on := args[0] == "on"
	return c.control(types.ChargerIOControl{MuxEnable: &on})
}

func cmdChargerChannel(_ context.Context, c *console, args []string) (any, error) {
	if len(args) != 1 {
		return nil, usageErr("charger ch")
	}
	return c.control(types.ChargerIOControl{MuxChannel: args[0]})
}

func cmdChargerID(_ context.Context, c *console, args []string) (any, error) {
	if len(args) != 1 {
		return nil, usageErr("charger id")
	}
	return c.control(types.ChargerIOControl{IDLevel: args[0]})
}

func cmdChargerVin(_ context.Context, c *console, args []string) (any, error) {
	if len(args) != 1 {
		return nil, usageErr("charger vin")
	}
	return c.control(types.ChargerIOControl{InputVoltage: args[0]})
}

func (c *console) control(ctrl types.ChargerIOControl) (any, error) {
	if err := c.t.charger.Apply(ctrl); err != nil {
		return nil, err
	}
	return c.t.charger.Snapshot()
}

func cmdChargerSense(_ context.Context, c *console, _ []string) (any, error) {
	s, err := c.t.charger.IDSense()
	if err != nil {
		return nil, err
	}
	return map[string]string{"id_sense": s.String()}, nil
}

func cmdChargerSnapshot(_ context.Context, c *console, _ []string) (any, error) {
	return c.t.charger.Snapshot()
}

func cmdTECFaults(_ context.Context, c *console, _ []string) (any, error) {
	f, err := c.t.tec.ExternalFaultStatus(tec.AllFaults)
	if err != nil {
		return nil, err
	}
	clr, err := c.t.tec.ExternalClearStatus()
	if err != nil {
		return nil, err
	}
	var active []int
	for i := tec.Fault(0); i <= 6; i++ {
		if f.Has(i) {
			active = append(active, int(i))
		}
	}
	return map[string]any{"faults": active, "external_clear": clr}, nil
}

func cmdTECClear(ctx context.Context, c *console, _ []string) (any, error) {
	if err := c.t.tec.ClearExternalFaultStatus(tec.AllFaults); err != nil {
		return nil, err
	}
	if err := c.t.tec.ClearExternalClearStatus(); err != nil {
		return nil, err
	}
	return cmdTECFaults(ctx, c, nil)
}

func width(args []string, i int) (int, error) {
	if i >= len(args) {
		return 16, nil
	}
	switch args[i] {
	case "8":
		return 8, nil
	case "16":
		return 16, nil
	}
	return 0, errcode.New(errcode.InvalidParams, "console", "width must be 8 or 16")
}

type regValue struct {
	Addr  string `json:"addr"`
	Width int    `json:"width"`
	Value uint16 `json:"value"`
}

func cmdPeek(_ context.Context, c *console, args []string) (any, error) {
	if len(args) < 1 {
		return nil, usageErr("peek")
	}
	a, err := parseInt(args[0], 0xFFFFF)
	if err != nil {
		return nil, err
	}
	w, err := width(args, 1)
	if err != nil {
		return nil, err
	}
	addr := regs.Addr(a)
	rv := regValue{Addr: fmt.Sprintf("0x%04x", a), Width: w}
	if w == 8 {
		v, err := c.t.bus.Read8(addr)
		if err != nil {
			return nil, err
		}
		rv.Value = uint16(v)
	} else if rv.Value, err = c.t.bus.Read16(addr); err != nil {
		return nil, err
	}
	return rv, nil
}

func cmdPoke(ctx context.Context, c *console, args []string) (any, error) {
	if len(args) < 2 {
		return nil, usageErr("poke")
	}
	a, err := parseInt(args[0], 0xFFFFF)
	if err != nil {
		return nil, err
	}
	w, err := width(args, 2)
	if err != nil {
		return nil, err
	}
	limit := uint64(0xFFFF)
	if w == 8 {
		limit = 0xFF
	}
	v, err := parseInt(args[1], limit)
	if err != nil {
		return nil, err
	}
	if w == 8 {
		err = c.t.bus.Write8(regs.Addr(a), uint8(v))
	} else {
		err = c.t.bus.Write16(regs.Addr(a), uint16(v))
	}
	if err != nil {
		return nil, err
	}
	return done, nil
}

func cmdPing(_ context.Context, c *console, _ []string) (any, error) {
	if c.t.client == nil {
		return map[string]any{"version": 0, "sim": true}, nil
	}
	start := time.Now()
	v, err := c.t.client.Ping()
	if err != nil {
		return nil, err
	}
	return map[string]any{"version": v, "rtt_us": time.Since(start).Microseconds()}, nil
}

func cmdStats(_ context.Context, c *console, _ []string) (any, error) {
	if c.t.client == nil {
		return nil, errcode.New(errcode.Unsupported, "stats", "no bridge link")
	}
	return c.t.client.Stats(), nil
}

func cmdSimInput(_ context.Context, c *console, args []string) (any, error) {
	if c.t.sim == nil {
		return nil, errcode.New(errcode.Unsupported, "sim input", "not a simulated board")
	}
	if len(args) != 2 {
		return nil, usageErr("sim input")
	}
	ch, err := parseInt(args[0], uint64(adc10b.InputA15))
	if err != nil {
		return nil, err
	}
	code, err := parseInt(args[1], 0x03FF)
	if err != nil {
		return nil, err
	}
	c.t.sim.setInput(adc10b.InputChannel(ch), uint16(code))
	return done, nil
}

type event struct {
	Topic   string `json:"topic"`
	Payload any    `json:"payload"`
}

// cmdWatch runs monitor cycles and prints every published sample and
// status as it arrives.
func cmdWatch(ctx context.Context, c *console, args []string) (any, error) {
	n, err := argInt(args, 0, 1, 1<<20)
	if err != nil {
		return nil, err
	}
	ivMs, err := argInt(args, 1, uint64(c.mon.Config().IntervalMs), 3600_000)
	if err != nil {
		return nil, err
	}
	if n == 0 || ivMs == 0 {
		return nil, usageErr("watch")
	}

	b := bus.NewBus(64)
	conn := b.NewConnection("adcprobe")
	samples := conn.Subscribe(bus.T("adc", "sample", "+"))
	status := conn.Subscribe(monitor.TopicStatus)
	charger := conn.Subscribe(monitor.TopicChargerState)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer conn.Disconnect()
		tick := time.NewTicker(time.Duration(ivMs) * time.Millisecond)
		defer tick.Stop()
		for i := uint64(0); i < n; i++ {
			c.mon.Cycle(gctx, conn)
			if i+1 == n {
				break
			}
			select {
			case <-gctx.Done():
				return gctx.Err()
			case <-tick.C:
			}
		}
		return nil
	})
	g.Go(func() error {
		sc, cc, st := samples.Channel(), charger.Channel(), status.Channel()
		for sc != nil || cc != nil || st != nil {
			var m *bus.Message
			var more bool
			select {
			case m, more = <-sc:
				if !more {
					sc = nil
				}
			case m, more = <-cc:
				if !more {
					cc = nil
				}
			case m, more = <-st:
				if !more {
					st = nil
				}
			}
			if m == nil {
				continue
			}
			if err := c.enc.Encode(event{Topic: m.Topic.String(), Payload: m.Payload}); err != nil {
				return err
			}
		}
		return nil
	})
	return nil, g.Wait()
}

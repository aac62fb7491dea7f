// Package monitor samples the board on a fixed interval and publishes the
// results on the bus: one retained sample per ADC channel, the charger
// glue read-back and a status summary. It also answers on-demand ADC reads
// and charger control requests.
package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"time"

	"driverlib-go/bus"
	"driverlib-go/drivers/adc10b"
	"driverlib-go/errcode"
	"driverlib-go/types"
	"driverlib-go/x/mathx"

	"gonum.org/v1/gonum/stat"
)

var (
	topicConfigMonitor = bus.T("config", "monitor")
	topicADCRead       = bus.T("adc", "read")
	topicChargerCtrl   = bus.T("charger", "io", "control")

	TopicStatus       = bus.T("monitor", "status")
	TopicChargerState = bus.T("charger", "io", "state")
)

// SampleTopic is where the retained sample of channel ch is published.
func SampleTopic(ch int) bus.Topic { return bus.T("adc", "sample", ch) }

const convTimeout = 100 * time.Millisecond

// Converter is the part of the ADC driver a sampling cycle uses.
type Converter interface {
	ConfigureMemory(ch adc10b.InputChannel, pos adc10b.PositiveRef, neg adc10b.NegativeRef) error
	StartConversion(mode adc10b.SequenceMode) error
	DisableConversionsContext(ctx context.Context, p adc10b.StopPolicy) error
	Results() (uint16, error)
	Resolution() (adc10b.Resolution, error)
	DataReadBackFormat() (adc10b.DataFormat, error)
	InterruptStatus(m adc10b.Interrupt) (adc10b.Interrupt, error)
	ClearInterrupt(m adc10b.Interrupt) error
}

// Charger is the part of the charger glue the monitor drives.
type Charger interface {
	Snapshot() (types.ChargerIOState, error)
	Apply(ctrl types.ChargerIOControl) error
}

var _ Converter = (*adc10b.Device)(nil)

type Service struct {
	adc     Converter
	charger Charger // optional
	cfg     types.MonitorConfig
	cycles  uint32
}

// DefaultConfig samples A0 once a second against a 2.5 V reference.
func DefaultConfig() types.MonitorConfig {
	return types.MonitorConfig{IntervalMs: 1000, Channels: []int{0}, RefMilliV: 2500, Oversample: 1}
}

// New builds a monitor. Zero fields of cfg take DefaultConfig values.
func New(adc Converter, charger Charger, cfg types.MonitorConfig) *Service {
	s := &Service{adc: adc, charger: charger, cfg: DefaultConfig()}
	s.merge(cfg)
	return s
}

func (s *Service) Config() types.MonitorConfig { return s.cfg }

func (s *Service) merge(c types.MonitorConfig) {
	if c.IntervalMs != 0 {
		s.cfg.IntervalMs = c.IntervalMs
	}
	if len(c.Channels) != 0 {
		s.cfg.Channels = append([]int(nil), c.Channels...)
	}
	if c.RefMilliV != 0 {
		s.cfg.RefMilliV = c.RefMilliV
	}
	if c.Oversample > 0 {
		s.cfg.Oversample = c.Oversample
	}
}

func (s *Service) interval() time.Duration {
	return time.Duration(s.cfg.IntervalMs) * time.Millisecond
}

// Start runs the monitor until ctx is cancelled.
func (s *Service) Start(ctx context.Context, conn *bus.Connection) error {
	go s.serviceLoop(ctx, conn)
	return nil
}

func (s *Service) serviceLoop(ctx context.Context, conn *bus.Connection) {
	cfgSub := conn.Subscribe(topicConfigMonitor)
	readSub := conn.Subscribe(topicADCRead)
	ctrlSub := conn.Subscribe(topicChargerCtrl)
	defer conn.Unsubscribe(cfgSub)
	defer conn.Unsubscribe(readSub)
	defer conn.Unsubscribe(ctrlSub)

	tick := time.NewTicker(s.interval())
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			println("[monitor] stopping")
			return
		case <-tick.C:
			s.Cycle(ctx, conn)
		case msg := <-cfgSub.Channel():
			var c types.MonitorConfig
			if err := decode(msg.Payload, &c); err != nil {
				println("[monitor] bad config:", err.Error())
				continue
			}
			s.merge(c)
			tick.Reset(s.interval())
			println("[monitor] interval", s.cfg.IntervalMs, "ms channels", len(s.cfg.Channels))
		case msg := <-readSub.Channel():
			var req struct {
				Channel int `json:"channel"`
			}
			if err := decode(msg.Payload, &req); err != nil {
				conn.Reply(msg, types.ADCSample{Error: string(errcode.InvalidParams)}, false)
				continue
			}
			conn.Reply(msg, s.Sample(ctx, req.Channel), false)
		case msg := <-ctrlSub.Channel():
			s.control(conn, msg)
		}
	}
}

func (s *Service) control(conn *bus.Connection, msg *bus.Message) {
	if s.charger == nil {
		conn.Reply(msg, map[string]any{"error": string(errcode.Unsupported)}, false)
		return
	}
	var ctrl types.ChargerIOControl
	if err := decode(msg.Payload, &ctrl); err != nil {
		conn.Reply(msg, map[string]any{"error": string(errcode.InvalidParams)}, false)
		return
	}
	if err := s.charger.Apply(ctrl); err != nil {
		conn.Reply(msg, map[string]any{"error": string(errcode.Of(err))}, false)
		return
	}
	st, err := s.charger.Snapshot()
	if err != nil {
		conn.Reply(msg, map[string]any{"error": string(errcode.Of(err))}, false)
		return
	}
	conn.Publish(conn.NewMessage(TopicChargerState, st, true))
	conn.Reply(msg, st, false)
}

// Cycle samples every configured channel and the charger glue once,
// publishes the results and returns the status it published.
func (s *Service) Cycle(ctx context.Context, conn *bus.Connection) types.MonitorStatus {
	s.cycles++
	var (
		failed  int
		total   int
		lastErr error
		allDown = true
	)
	note := func(err error) {
		total++
		if err == nil {
			allDown = false
			return
		}
		failed++
		lastErr = err
		if errcode.Of(err) != errcode.LinkDown {
			allDown = false
		}
	}

	for _, ch := range s.cfg.Channels {
		smp := s.Sample(ctx, ch)
		conn.Publish(conn.NewMessage(SampleTopic(ch), smp, true))
		if smp.Error != "" {
			note(errcode.Code(smp.Error))
		} else {
			note(nil)
		}
	}
	if s.charger != nil {
		st, err := s.charger.Snapshot()
		if err == nil {
			conn.Publish(conn.NewMessage(TopicChargerState, st, true))
		}
		note(err)
	}

	status := types.MonitorStatus{Link: types.LinkUp, Cycles: s.cycles, TS: time.Now().UnixNano()}
	switch {
	case failed == 0:
	case failed == total && allDown:
		status.Link = types.LinkDown
	default:
		status.Link = types.LinkDegraded
	}
	if lastErr != nil {
		status.Error = string(errcode.Of(lastErr))
	}
	conn.Publish(conn.NewMessage(TopicStatus, status, true))
	return status
}

// Sample converts channel ch Oversample times in single-channel mode and
// reports the rounded mean code. Each result is decoded to an unsigned
// code at the converter's current resolution and format before it is
// averaged and scaled. Errors are carried in the sample.
func (s *Service) Sample(ctx context.Context, ch int) types.ADCSample {
	smp := types.ADCSample{Channel: ch, TS: time.Now().UnixNano()}
	if ch < 0 || ch > int(adc10b.InputA15) {
		smp.Error = string(errcode.InvalidParams)
		return smp
	}

	res, err := s.adc.Resolution()
	if err != nil {
		smp.Error = string(errcode.Of(err))
		return smp
	}
	df, err := s.adc.DataReadBackFormat()
	if err != nil {
		smp.Error = string(errcode.Of(err))
		return smp
	}

	n := s.cfg.Oversample
	if n < 1 {
		n = 1
	}
	codes := make([]float64, 0, n)
	var flags adc10b.Interrupt
	for i := 0; i < n; i++ {
		v, f, err := s.convert(ctx, adc10b.InputChannel(ch))
		if err != nil {
			smp.Error = string(errcode.Of(err))
			return smp
		}
		codes = append(codes, float64(adc10b.Code(v, res, df)))
		flags |= f
	}

	mean, sd := stat.MeanStdDev(codes, nil)
	if n == 1 {
		sd = 0
	}
	smp.Raw = uint16(math.Round(mean))
	smp.Bits = res.Bits()
	smp.MilliV = mathx.Scale(uint32(smp.Raw), uint32(res.FullScale()), s.cfg.RefMilliV)
	smp.Flags = uint16(flags)
	smp.N = n
	smp.StdDev = sd
	return smp
}

func (s *Service) convert(ctx context.Context, ch adc10b.InputChannel) (uint16, adc10b.Interrupt, error) {
	if err := s.adc.ConfigureMemory(ch, adc10b.RefPosAVCC, adc10b.RefNegAVSS); err != nil {
		return 0, 0, err
	}
	if err := s.adc.StartConversion(adc10b.SingleChannel); err != nil {
		return 0, 0, err
	}
	wctx, cancel := context.WithTimeout(ctx, convTimeout)
	err := s.adc.DisableConversionsContext(wctx, adc10b.Complete)
	cancel()
	if err != nil {
		// Leave the converter disarmed for the next attempt.
		_ = s.adc.DisableConversionsContext(ctx, adc10b.Preempt)
		if errors.Is(err, context.DeadlineExceeded) {
			err = errcode.Wrap(errcode.Timeout, "monitor.convert", err)
		}
		return 0, 0, err
	}
	flags, err := s.adc.InterruptStatus(adc10b.IntAll)
	if err != nil {
		return 0, 0, err
	}
	v, err := s.adc.Results()
	if err != nil {
		return 0, 0, err
	}
	if err := s.adc.ClearInterrupt(adc10b.IntAll); err != nil {
		return 0, 0, err
	}
	return v, flags, nil
}

// decode fills dst from a bus payload: the value itself, JSON text, or a
// decoded JSON object.
func decode(p any, dst any) error {
	var raw []byte
	switch v := p.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	case nil:
		return errors.New("empty payload")
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return err
		}
		raw = b
	}
	return json.Unmarshal(raw, dst)
}

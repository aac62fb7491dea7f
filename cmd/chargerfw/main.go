//go:build tinygo

// Command chargerfw is the board firmware: it brings up the converter and
// the charger glue, publishes the board config on the bus, and runs the
// monitor and the register bridge on USCI_A.
package main

import (
	"context"
	"io"
	"time"

	"driverlib-go/bus"
	"driverlib-go/drivers/adc10b"
	"driverlib-go/drivers/chargerio"
	"driverlib-go/drivers/gpio"
	"driverlib-go/drivers/usciuart"
	"driverlib-go/regs"
	"driverlib-go/services/bridge"
	"driverlib-go/services/config"
	"driverlib-go/services/monitor"
	"driverlib-go/types"
)

const (
	boardID = "fa5510"
	smclkHz = 8_000_000
)

// uartLink is one opened bridge link. Closing it holds the module in reset.
type uartLink struct {
	io.ReadWriter
	dev    *usciuart.Device
	cancel context.CancelFunc
}

func (l uartLink) Close() error {
	l.cancel()
	return l.dev.Disable()
}

func dialUART(mmio regs.Bus, base regs.Addr) func(context.Context, bridge.UARTConfig) (io.ReadWriteCloser, error) {
	return func(ctx context.Context, u bridge.UARTConfig) (io.ReadWriteCloser, error) {
		at := base
		if u.Instance == 1 {
			at = usciuart.BaseAddressA1
		}
		baud := uint32(u.Baud)
		if baud == 0 {
			baud = 115200
		}
		dev := usciuart.New(mmio, at)
		if _, err := dev.Init(usciuart.Config{Clock: usciuart.ClockSMCLK, ClockHz: smclkHz, Baud: baud, Sampling: usciuart.SamplingOversampled}); err != nil {
			return nil, err
		}
		if err := dev.Enable(); err != nil {
			return nil, err
		}
		lctx, cancel := context.WithCancel(ctx)
		return uartLink{ReadWriter: dev.Stream(lctx), dev: dev, cancel: cancel}, nil
	}
}

func main() {
	// Allow the debug console to attach before we print.
	time.Sleep(2 * time.Second)
	println("[fw] boot", boardID)

	board, err := config.Lookup(boardID)
	if err != nil {
		println("[fw] board:", err.Error())
		return
	}
	mmio := regs.MMIO{}

	adc := adc10b.New(mmio, regs.Addr(board.Bases.ADC))
	adc.SetWaitPolicy(regs.WaitPolicy{Timeout: 10 * time.Millisecond})
	if err := adc.Init(adc10b.SampleHoldSC, adc10b.ClockADC10OSC, adc10b.Div1); err != nil {
		println("[fw] adc init:", err.Error())
	}
	if err := adc.SetupSamplingTimer(adc10b.Hold16Cycles, false); err != nil {
		println("[fw] adc timer:", err.Error())
	}

	layout, err := board.Charger.Layout()
	if err != nil {
		println("[fw] charger layout:", err.Error())
		layout = chargerio.DefaultLayout()
	}
	charger := chargerio.New(gpio.New(mmio), layout)
	if err := charger.Init(); err != nil {
		println("[fw] charger init:", err.Error())
	}

	bridge.UARTDial = dialUART(mmio, regs.Addr(board.Bases.UART))

	ctx := context.WithValue(context.Background(), config.CtxDeviceKey, boardID)
	b := bus.NewBus(4)

	go bridge.Start(ctx, b.NewConnection("bridge"), mmio)
	if err := monitor.New(adc, charger, monitor.DefaultConfig()).Start(ctx, b.NewConnection("monitor")); err != nil {
		println("[fw] monitor:", err.Error())
	}
	config.NewConfigService().Start(ctx, b.NewConnection("config"))

	status := b.NewConnection("fw").Subscribe(monitor.TopicStatus)
	for m := range status.Channel() {
		if st, ok := m.Payload.(types.MonitorStatus); ok && st.Link != types.LinkUp {
			println("[fw] monitor", string(st.Link), st.Error, "cycle", st.Cycles)
		}
	}
}

package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"
)

// Config is the JSON-encoded configuration expected on "config/bridge".
type Config struct {
	Transport TransportConfig `json:"transport"`
	// Window restricts served addresses to [lo, hi); empty serves all.
	Window *Window `json:"window,omitempty"`
	// Client-side tuning, ignored by the serving end.
	Retries   int `json:"retries,omitempty"`
	TimeoutMS int `json:"timeout_ms,omitempty"`
}

type Window struct {
	Lo uint32 `json:"lo"`
	Hi uint32 `json:"hi"`
}

func (c Config) ClientConfig() ClientConfig {
	return ClientConfig{Retries: c.Retries, Timeout: time.Duration(c.TimeoutMS) * time.Millisecond}
}

type TransportConfig struct {
	// "uart", "serial" or a name registered with RegisterTransport.
	Type   string        `json:"type"`
	UART   *UARTConfig   `json:"uart,omitempty"`
	Serial *SerialConfig `json:"serial,omitempty"`
}

// UARTConfig selects an on-chip USCI_A instance. The platform's UARTDial
// maps it to a stream.
type UARTConfig struct {
	Instance int `json:"instance"` // 0 = USCI_A0, 1 = USCI_A1
	Baud     int `json:"baud"`
}

// SerialConfig names a host serial device.
type SerialConfig struct {
	Port          string `json:"port"`
	Baud          int    `json:"baud"`
	ReadTimeoutMS int    `json:"read_timeout_ms,omitempty"`
}

// -----------------------------------------------------------------------------
// Transport registry
// -----------------------------------------------------------------------------

// Transport is a pluggable link dialler.
type Transport interface {
	Open(ctx context.Context) (io.ReadWriteCloser, error)
	String() string
}

type TransportFactory func(TransportConfig) (Transport, error)

var (
	regMu     sync.RWMutex
	registry  = map[string]TransportFactory{}
	errNoDial = errors.New("bridge: UARTDial not set")
)

// RegisterTransport adds or replaces a named transport.
func RegisterTransport(name string, f TransportFactory) {
	regMu.Lock()
	defer regMu.Unlock()
	registry[name] = f
}

func NewTransport(cfg TransportConfig) (Transport, error) {
	regMu.RLock()
	f, ok := registry[cfg.Type]
	regMu.RUnlock()
	if ok {
		return f(cfg)
	}
	if cfg.Type == "uart" {
		return newUARTTransport(cfg)
	}
	return nil, fmt.Errorf("bridge: unknown transport type %q", cfg.Type)
}

// UARTDial is installed by platform code and opens the configured UART.
var UARTDial func(ctx context.Context, u UARTConfig) (io.ReadWriteCloser, error)

type uartTransport struct {
	cfg UARTConfig
}

func newUARTTransport(cfg TransportConfig) (Transport, error) {
	if cfg.UART == nil {
		return nil, errors.New("bridge: uart transport requires uart config")
	}
	return &uartTransport{cfg: *cfg.UART}, nil
}

func (u *uartTransport) Open(ctx context.Context) (io.ReadWriteCloser, error) {
	if UARTDial == nil {
		return nil, errNoDial
	}
	return UARTDial(ctx, u.cfg)
}

func (u *uartTransport) String() string { return fmt.Sprintf("uart%d", u.cfg.Instance) }

// -----------------------------------------------------------------------------
// Utilities
// -----------------------------------------------------------------------------

// DecodeConfig accepts a JSON document as []byte or string, or an already
// decoded object.
func DecodeConfig(p any) (Config, error) {
	var cfg Config
	var raw []byte
	switch v := p.(type) {
	case Config:
		return v, nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	case map[string]any:
		b, err := json.Marshal(v)
		if err != nil {
			return cfg, err
		}
		raw = b
	default:
		return cfg, fmt.Errorf("bridge: unsupported config payload type %T", p)
	}
	err := json.Unmarshal(raw, &cfg)
	return cfg, err
}

func backoffSeq(min, max time.Duration) func() time.Duration {
	if min <= 0 {
		min = 100 * time.Millisecond
	}
	if max < min {
		max = min
	}
	cur := min
	return func() time.Duration {
		d := cur
		cur *= 2
		if cur > max {
			cur = max
		}
		return d
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

//go:build !tinygo

package bridge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/tarm/serial"
)

func init() {
	RegisterTransport("serial", newSerialTransport)
}

type serialTransport struct {
	cfg SerialConfig
}

func newSerialTransport(cfg TransportConfig) (Transport, error) {
	if cfg.Serial == nil || cfg.Serial.Port == "" {
		return nil, errors.New("bridge: serial transport requires a port")
	}
	sc := *cfg.Serial
	if sc.Baud == 0 {
		sc.Baud = 115200
	}
	return &serialTransport{cfg: sc}, nil
}

func (t *serialTransport) Open(context.Context) (io.ReadWriteCloser, error) {
	p, err := serial.OpenPort(&serial.Config{
		Name:        t.cfg.Port,
		Baud:        t.cfg.Baud,
		ReadTimeout: time.Duration(t.cfg.ReadTimeoutMS) * time.Millisecond,
	})
	if err != nil {
		return nil, fmt.Errorf("bridge: open serial port %s: %w", t.cfg.Port, err)
	}
	return p, nil
}

func (t *serialTransport) String() string { return "serial:" + t.cfg.Port }

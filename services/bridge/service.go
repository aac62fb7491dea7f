// Package bridge carries register accesses over a byte stream.
//
// A Server executes framed requests against a local regs.Bus; a Client is
// a regs.Bus that forwards every access to a remote Server. The Service
// supervises the serving end of a link on the board, driven by JSON config
// on the bus.
package bridge

import (
	"context"
	"fmt"
	"sync"
	"time"

	"driverlib-go/bus"
	"driverlib-go/regs"
)

var (
	topicConfigBridge = bus.T("config", "bridge")
	TopicState        = bus.T("bridge", "state")
)

// Start runs the bridge service until ctx is cancelled. Each config on
// "config/bridge" replaces the running link.
func Start(ctx context.Context, conn *bus.Connection, target regs.Bus) {
	s := &Service{conn: conn, target: target}
	s.run(ctx)
}

type Service struct {
	conn   *bus.Connection
	target regs.Bus

	mu     sync.Mutex
	curRun context.CancelFunc
}

func (s *Service) run(ctx context.Context) {
	cfgSub := s.conn.Subscribe(topicConfigBridge)
	defer s.conn.Unsubscribe(cfgSub)

	s.publishState("idle", "awaiting_config", nil)

	for {
		select {
		case <-ctx.Done():
			s.stopCurrent()
			println("[bridge] stopping")
			return
		case msg, ok := <-cfgSub.Channel():
			if !ok {
				s.publishState("error", "config_subscription_closed", nil)
				return
			}
			cfg, err := DecodeConfig(msg.Payload)
			if err != nil {
				s.publishState("error", "config_decode_failed", err)
				continue
			}
			s.reconfigure(ctx, cfg)
		}
	}
}

func (s *Service) stopCurrent() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.curRun != nil {
		s.curRun()
		s.curRun = nil
	}
}

func (s *Service) reconfigure(parent context.Context, cfg Config) {
	s.stopCurrent()
	ctx, cancel := context.WithCancel(parent)
	s.mu.Lock()
	s.curRun = cancel
	s.mu.Unlock()
	go s.runLink(ctx, cfg)
}

// runLink opens the transport and serves it, reopening with backoff
// whenever the link drops.
func (s *Service) runLink(ctx context.Context, cfg Config) {
	tr, err := NewTransport(cfg.Transport)
	if err != nil {
		s.publishState("error", "transport_init_failed", err)
		return
	}
	srv := NewServer(s.target)
	if w := cfg.Window; w != nil {
		srv.Restrict(regs.Addr(w.Lo), regs.Addr(w.Hi))
	}
	println("[bridge] serving on", tr.String())

	backoff := backoffSeq(250*time.Millisecond, 5*time.Second)
	for {
		rwc, err := tr.Open(ctx)
		if err != nil {
			delay := backoff()
			s.publishState("degraded", "dial_failed_retrying", fmt.Errorf("%v (retry in %s)", err, delay))
			if !sleep(ctx, delay) {
				return
			}
			continue
		}

		s.publishState("up", "link_established", nil)
		err = srv.Serve(ctx, rwc)
		_ = rwc.Close()
		if ctx.Err() != nil {
			return
		}
		if err == nil {
			err = fmt.Errorf("peer closed link")
		}
		delay := backoff()
		served, rejected := srv.Counts()
		println("[bridge] link lost:", err.Error(), "served", served, "rejected", rejected)
		s.publishState("degraded", "link_lost_retrying", fmt.Errorf("%v (retry in %s)", err, delay))
		if !sleep(ctx, delay) {
			return
		}
	}
}

func (s *Service) publishState(level, status string, err error) {
	payload := map[string]any{
		"level":  level, // "up", "degraded", "error", "idle"
		"status": status,
		"ts_ms":  time.Now().UnixMilli(),
	}
	if err != nil {
		payload["error"] = err.Error()
	}
	s.conn.Publish(s.conn.NewMessage(TopicState, payload, true))
}

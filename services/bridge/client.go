package bridge

import (
	"bufio"
	"errors"
	"io"
	"os"
	"sync"
	"time"

	"driverlib-go/errcode"
	"driverlib-go/regs"
)

// ClientConfig tunes a Client. Zero values pick the defaults.
type ClientConfig struct {
	// Retries is how many times a request is re-sent after a corrupted,
	// truncated or late reply. Default 2.
	Retries int
	// Timeout bounds each reply when the stream supports read deadlines.
	// Default 500ms.
	Timeout time.Duration
}

// Stats counts client traffic.
type Stats struct {
	Requests uint64
	Retries  uint64
	Failures uint64
	Stale    uint64 // replies dropped for answering an earlier request
}

// Client is a regs.Bus whose accesses travel over a bridge link. It is
// safe for concurrent use; requests are serialised on the link.
//
// A retried write, or a retried read of a register with read side effects
// (RXBUF, interrupt vectors), may take effect twice on the remote board.
type Client struct {
	mu    sync.Mutex
	rw    io.ReadWriter
	br    *bufio.Reader
	cfg   ClientConfig
	seq   uint8
	stats Stats
}

var _ regs.Bus = (*Client)(nil)

type readDeadliner interface{ SetReadDeadline(time.Time) error }
type writeDeadliner interface{ SetWriteDeadline(time.Time) error }

func NewClient(rw io.ReadWriter, cfg ClientConfig) *Client {
	if cfg.Retries <= 0 {
		cfg.Retries = 2
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 500 * time.Millisecond
	}
	return &Client{rw: rw, br: bufio.NewReader(rw), cfg: cfg}
}

func (c *Client) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

func (c *Client) Read8(a regs.Addr) (uint8, error) {
	v, err := c.do(Request{Op: OpRead8, Addr: a})
	return uint8(v), err
}

func (c *Client) Write8(a regs.Addr, v uint8) error {
	_, err := c.do(Request{Op: OpWrite8, Addr: a, Value: uint16(v)})
	return err
}

func (c *Client) Read16(a regs.Addr) (uint16, error) {
	return c.do(Request{Op: OpRead16, Addr: a})
}

func (c *Client) Write16(a regs.Addr, v uint16) error {
	_, err := c.do(Request{Op: OpWrite16, Addr: a, Value: v})
	return err
}

// Ping checks the link and returns the remote protocol version.
func (c *Client) Ping() (uint16, error) {
	return c.do(Request{Op: OpPing})
}

func retryable(err error) bool {
	return errors.Is(err, errChecksum) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, io.ErrNoProgress) ||
		errors.Is(err, os.ErrDeadlineExceeded)
}

func (c *Client) do(req Request) (uint16, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	op := "bridge." + req.Op.String()
	c.stats.Requests++

	var last error
	for attempt := 0; attempt <= c.cfg.Retries; attempt++ {
		if attempt > 0 {
			c.stats.Retries++
		}
		// Every attempt gets its own seq so a late reply to an earlier
		// attempt or request is never taken for this one.
		c.seq++
		req.Seq = c.seq
		frame := req.Encode()
		rep, err := c.exchange(frame[:], req.Seq)
		if err != nil {
			if !retryable(err) {
				c.stats.Failures++
				return 0, errcode.Wrap(errcode.LinkDown, op, err)
			}
			last = err
			continue
		}
		switch rep.Status {
		case StatusOK:
			return rep.Value, nil
		case StatusBadChecksum:
			last = errChecksum
			continue
		case StatusBadAddress:
			c.stats.Failures++
			return 0, errcode.New(errcode.BadAddress, op, "address rejected by remote")
		case StatusBadOp:
			c.stats.Failures++
			return 0, errcode.New(errcode.Unsupported, op, "operation rejected by remote")
		default:
			c.stats.Failures++
			return 0, errcode.New(errcode.Error, op, "remote "+rep.Status.String())
		}
	}

	c.stats.Failures++
	code := errcode.BadFrame
	if errors.Is(last, os.ErrDeadlineExceeded) || errors.Is(last, io.ErrNoProgress) {
		code = errcode.Timeout
	}
	return 0, errcode.Wrap(code, op, last)
}

// exchange sends frame and returns the first intact reply carrying seq.
// Replies to other requests are dropped until the read deadline.
func (c *Client) exchange(frame []byte, seq uint8) (Reply, error) {
	if d, ok := c.rw.(writeDeadliner); ok {
		_ = d.SetWriteDeadline(time.Now().Add(c.cfg.Timeout))
	}
	if _, err := c.rw.Write(frame); err != nil {
		return Reply{}, err
	}
	if d, ok := c.rw.(readDeadliner); ok {
		_ = d.SetReadDeadline(time.Now().Add(c.cfg.Timeout))
	}
	var in [ReplyLen]byte
	for {
		if err := readFrame(c.br, replyStart, in[:]); err != nil {
			return Reply{}, err
		}
		rep, err := DecodeReply(in[:])
		if err != nil || rep.Seq == seq {
			return rep, err
		}
		c.stats.Stale++
	}
}

// Package link is the host side of the serial protocol spoken by the L0
// firmware.
package link

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/golang/glog"

	fx "github.com/robotalks/l0bot/pkg/framework"
	"github.com/robotalks/l0bot/pkg/l0/proto"
)

// DefaultTimeout bounds the wait for a reply.
const DefaultTimeout = time.Second

const maxLineLen = 1024

// Result is the result of a command using Do.
type Result struct {
	Err      error
	Response proto.Response
}

// Future represents a pending command waiting for reply.
type Future struct {
	cmd      proto.Command
	expect   string
	resultCh chan Result
	next     *Future
	conn     *Conn
}

// Resolved creates a Future already resolved with res.
func Resolved(cmd proto.Command, res Result) *Future {
	f := &Future{cmd: cmd, resultCh: make(chan Result, 1), conn: &Conn{}}
	f.resultCh <- res
	return f
}

// Command returns the command sent.
func (f *Future) Command() proto.Command {
	return f.cmd
}

// ResultChan returns the chan to retrieve result.
func (f *Future) ResultChan() <-chan Result {
	return f.resultCh
}

// Wait waits for the reply, at most the Timeout of the Conn.
// An expired command is forgotten and fails with
// context.DeadlineExceeded.
func (f *Future) Wait(ctx context.Context) (proto.Response, error) {
	ctx, cancel := context.WithTimeout(ctx, f.conn.timeout())
	defer cancel()
	select {
	case res := <-f.resultCh:
		return res.Response, res.Err
	case <-ctx.Done():
		if f.conn.forget(f) {
			return nil, ctx.Err()
		}
		// resolved in the meantime.
		res := <-f.resultCh
		return res.Response, res.Err
	}
}

// Conn matches replies from the firmware to the commands sent.
//
// Acks are matched by name in order: a reply for a later command fails
// all earlier pending commands with ErrNoReply. An error reply resolves the
// oldest pending command. GET_SENSORS is resolved by the next telemetry
// frame, periodic or not.
type Conn struct {
	Writer  io.Writer
	Reader  io.Reader
	Timeout time.Duration

	// OnTelemetry is called from Run for every telemetry frame.
	OnTelemetry func(proto.Telemetry)
	// OnReady is called from Run when the firmware (re)starts.
	OnReady func(proto.Ready)

	writeLock sync.Mutex

	lock      sync.Mutex
	acksHead  *Future
	acksTail  *Future
	sensors   []*Future
	latest    proto.Telemetry
	hasLatest bool
	closed    error
}

// NewConn creates a Conn over rw.
func NewConn(rw io.ReadWriter) *Conn {
	return &Conn{Writer: rw, Reader: rw, Timeout: DefaultTimeout}
}

// Send writes a command without waiting for the reply.
func (c *Conn) Send(cmd proto.Command) error {
	line, err := proto.EncodeCommand(cmd)
	if err != nil {
		return err
	}
	c.writeLock.Lock()
	defer c.writeLock.Unlock()
	if _, err := c.Writer.Write(line); err != nil {
		return fmt.Errorf("write %s: %w", cmd.Name(), err)
	}
	glog.V(3).Infof("sent %s", bytes.TrimSpace(line))
	return nil
}

// Do sends a command and returns a Future for its reply.
func (c *Conn) Do(cmd proto.Command) *Future {
	f := &Future{
		cmd:      cmd,
		expect:   expectedAck(cmd),
		resultCh: make(chan Result, 1),
		conn:     c,
	}

	c.lock.Lock()
	if c.closed != nil {
		c.lock.Unlock()
		f.resultCh <- Result{Err: c.closed}
		return f
	}
	if f.expect == "" {
		c.sensors = append(c.sensors, f)
	} else if c.acksHead == nil {
		c.acksHead, c.acksTail = f, f
	} else {
		c.acksTail.next, c.acksTail = f, f
	}
	c.lock.Unlock()

	// written after queuing so a fast reply always finds the Future.
	if err := c.Send(cmd); err != nil {
		if c.forget(f) {
			f.resultCh <- Result{Err: err}
		}
	}
	return f
}

// Latest returns the most recent telemetry frame.
func (c *Conn) Latest() (proto.Telemetry, bool) {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.latest, c.hasLatest
}

// Run reads and dispatches lines until ctx is done or the reader fails.
// Pending commands fail when it returns. A Reader which is also an
// io.Closer is closed on the way out.
func (c *Conn) Run(ctx context.Context) error {
	read := func() error {
		return c.readLoop(ctx)
	}
	var err error
	if closer, ok := c.Reader.(io.Closer); ok {
		err = fx.RunWithContextCloser(ctx, closer, read)
	} else {
		err = fx.RunWithContextCancel(ctx, nil, read)
	}
	c.close(err)
	return err
}

func (c *Conn) readLoop(ctx context.Context) error {
	var pending []byte
	buf := make([]byte, 256)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		n, err := c.Reader.Read(buf)
		if n > 0 {
			pending = append(pending, buf[:n]...)
			for {
				pos := bytes.IndexByte(pending, '\n')
				if pos < 0 {
					break
				}
				c.HandleLine(pending[:pos])
				pending = pending[pos+1:]
			}
			if len(pending) > maxLineLen {
				glog.V(2).Infof("dropped %d bytes without line end", len(pending))
				pending = nil
			}
		}
		if err != nil && !os.IsTimeout(err) {
			return err
		}
	}
}

// HandleLine dispatches a single line received from the firmware.
func (c *Conn) HandleLine(line []byte) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return
	}
	msg, err := proto.DecodeMessage(line)
	if err != nil {
		glog.V(2).Infof("non-JSON line %q: %v", line, err)
		return
	}
	switch m := msg.(type) {
	case proto.Telemetry:
		c.lock.Lock()
		c.latest, c.hasLatest = m, true
		waiters := c.sensors
		c.sensors = nil
		c.lock.Unlock()
		for _, f := range waiters {
			f.resultCh <- Result{Response: m}
		}
		if c.OnTelemetry != nil {
			c.OnTelemetry(m)
		}
	case proto.Ready:
		glog.Infof("firmware ready: device=%s mode=%s", m.Device, m.Mode)
		if c.OnReady != nil {
			c.OnReady(m)
		}
	case proto.Ack:
		if !c.resolve(m.Cmd, Result{Response: m}) {
			glog.V(2).Infof("unexpected ack %s", m.Cmd)
		}
	case proto.ErrorReply:
		glog.Errorf("firmware error: %s", m.Message)
		c.resolve("", Result{Err: m})
	}
}

// resolve completes the first pending command expecting ack, or the
// oldest one when ack is empty. Skipped commands fail with ErrNoReply.
func (c *Conn) resolve(ack string, res Result) bool {
	c.lock.Lock()
	head := c.acksHead
	var curr *Future
	for curr = c.acksHead; curr != nil; curr = curr.next {
		if ack == "" || curr.expect == ack {
			break
		}
	}
	if curr == nil {
		c.lock.Unlock()
		return false
	}
	if c.acksHead = curr.next; c.acksHead == nil {
		c.acksTail = nil
	}
	c.lock.Unlock()

	for head != curr {
		next := head.next
		head.next = nil
		head.resultCh <- Result{Err: ErrNoReply}
		head = next
	}
	curr.next = nil
	curr.resultCh <- res
	return true
}

// forget removes a pending Future, it returns false if the Future is no
// longer pending.
func (c *Conn) forget(f *Future) bool {
	c.lock.Lock()
	defer c.lock.Unlock()
	if f.expect == "" {
		for n, s := range c.sensors {
			if s == f {
				c.sensors = append(c.sensors[:n], c.sensors[n+1:]...)
				return true
			}
		}
		return false
	}
	var prev *Future
	for curr := c.acksHead; curr != nil; prev, curr = curr, curr.next {
		if curr != f {
			continue
		}
		if prev == nil {
			c.acksHead = curr.next
		} else {
			prev.next = curr.next
		}
		if c.acksTail == curr {
			c.acksTail = prev
		}
		curr.next = nil
		return true
	}
	return false
}

func (c *Conn) close(err error) {
	if err == nil {
		err = ErrClosed
	}
	c.lock.Lock()
	if c.closed == nil {
		c.closed = fmt.Errorf("%w: %v", ErrClosed, err)
	}
	closed := c.closed
	head, sensors := c.acksHead, c.sensors
	c.acksHead, c.acksTail, c.sensors = nil, nil, nil
	c.lock.Unlock()

	for ; head != nil; head = head.next {
		head.resultCh <- Result{Err: closed}
	}
	for _, f := range sensors {
		f.resultCh <- Result{Err: closed}
	}
}

func (c *Conn) timeout() time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return DefaultTimeout
}

func expectedAck(cmd proto.Command) string {
	switch cmd.(type) {
	case proto.GetSensors:
		return ""
	case proto.Ping:
		return proto.AckPong
	}
	return cmd.Name()
}

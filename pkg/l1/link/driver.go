package link

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/l0bot/pkg/l0/proto"
)

// Driver keeps a Conn to the firmware on a serial port, reconnecting when
// the port fails.
type Driver struct {
	Config *Config
	Open   func(name string, baudRate int) (Port, error)

	// OnTelemetry is called for every telemetry frame.
	OnTelemetry func(proto.Telemetry)
	// OnReady is called when the firmware (re)starts.
	OnReady func(proto.Ready)
	// OnStateChanged is called with the Conn once connected, and with nil
	// once disconnected.
	OnStateChanged func(*Conn)

	lock sync.RWMutex
	conn *Conn
}

// Conn returns the current Conn, nil when not connected.
func (d *Driver) Conn() *Conn {
	d.lock.RLock()
	defer d.lock.RUnlock()
	return d.conn
}

// Do implements Commander.
func (d *Driver) Do(cmd proto.Command) *Future {
	if conn := d.Conn(); conn != nil {
		return conn.Do(cmd)
	}
	return Resolved(cmd, Result{Err: ErrNotConnected})
}

// Robot returns the drive operations over the Driver.
func (d *Driver) Robot() Robot {
	return Robot{Commander: d}
}

// Run connects and serves the port until ctx is done. With a positive
// ReconnectInterval failures are retried, otherwise the first one is
// returned.
func (d *Driver) Run(ctx context.Context) error {
	for {
		err := d.serve(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.Config.ReconnectInterval <= 0 {
			return err
		}
		glog.Errorf("link %s: %v, reconnect in %v", d.Config.Port, err, d.Config.ReconnectInterval)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(d.Config.ReconnectInterval):
		}
	}
}

func (d *Driver) serve(ctx context.Context) error {
	port, err := d.Open(d.Config.Port, d.Config.BaudRate)
	if err != nil {
		return err
	}
	defer port.Close()
	if d.Config.ReadTimeout > 0 {
		if err := port.SetReadTimeout(d.Config.ReadTimeout); err != nil {
			return fmt.Errorf("set read timeout: %w", err)
		}
	}
	if d.Config.BootDelay > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(d.Config.BootDelay):
		}
	}
	if err := port.ResetInputBuffer(); err != nil {
		return fmt.Errorf("flush: %w", err)
	}

	conn := NewConn(port)
	conn.Timeout = d.Config.ReplyTimeout
	conn.OnTelemetry = d.OnTelemetry
	conn.OnReady = d.OnReady
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	errCh := make(chan error, 1)
	go func() {
		errCh <- conn.Run(runCtx)
	}()

	rtt, err := Robot{Commander: conn}.Ping(ctx)
	if err != nil {
		cancel()
		<-errCh
		return fmt.Errorf("ping: %w", err)
	}
	glog.Infof("connected %s, ping %v", d.Config.Port, rtt)
	d.setConn(conn)
	defer d.setConn(nil)

	return <-errCh
}

func (d *Driver) setConn(conn *Conn) {
	d.lock.Lock()
	d.conn = conn
	d.lock.Unlock()
	if d.OnStateChanged != nil {
		d.OnStateChanged(conn)
	}
}

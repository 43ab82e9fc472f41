// Package joystick drives the robot from a gamepad: the left stick (or the
// D-pad) mixes throttle and turn into motor duties, any button stops.
package joystick

import (
	"context"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/l0bot/pkg/joystick/device"
	"github.com/robotalks/l0bot/pkg/l0/proto"
	"github.com/robotalks/l0bot/pkg/l1/link"
)

// Controller sends MOVE commands following the stick.
type Controller struct {
	Robot       link.Commander
	DeviceIndex int
	Verbose     bool
	MaxSpeed    int
	Deadzone    int
	// Open opens a device by index, negative index means detection.
	Open func(index int) (device.Device, error)
	// RetryInterval is the wait before opening the device again.
	RetryInterval time.Duration

	device   device.Device
	eventCh  chan device.Event
	throttle int
	turn     int
	last     proto.Move
}

// NewController creates a Controller.
func NewController(robot link.Commander) *Controller {
	return &Controller{
		Robot:         robot,
		DeviceIndex:   defaultConfig.DeviceIndex,
		Verbose:       defaultConfig.Verbose,
		MaxSpeed:      defaultConfig.MaxSpeed,
		Deadzone:      defaultConfig.Deadzone,
		Open:          openDevice,
		RetryInterval: time.Second,
	}
}

func openDevice(index int) (device.Device, error) {
	if index >= 0 {
		return device.Open(index)
	}
	return device.DetectAndOpen(0)
}

// Run implements Runnable.
func (c *Controller) Run(ctx context.Context) error {
	defer func() {
		if c.device != nil {
			c.device.Close()
		}
	}()
	deviceTimer := time.After(0)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deviceTimer:
			deviceTimer = nil
			js, err := c.Open(c.DeviceIndex)
			switch {
			case err != nil:
				glog.Errorf("open joystick %d: %v", c.DeviceIndex, err)
			case js == nil:
				glog.V(1).Info("no joystick detected")
			default:
				glog.Infof("joystick %d %q opened", js.Index(), js.Name())
				c.device, c.eventCh = js, make(chan device.Event, 1)
				go c.pollJoystick(c.device, c.eventCh)
			}
			if c.device == nil {
				deviceTimer = time.After(c.RetryInterval)
			}
		case ev, ok := <-c.eventCh:
			if ok {
				c.handleEvent(ctx, ev)
				continue
			}
			glog.Info("joystick lost, stopping")
			c.throttle, c.turn = 0, 0
			c.send(ctx, proto.Stop{})
			c.device.Close()
			c.device, c.eventCh = nil, nil
			deviceTimer = time.After(c.RetryInterval)
		}
	}
}

func (c *Controller) pollJoystick(dev device.Device, ch chan<- device.Event) {
	defer close(ch)
	for {
		ev, err := dev.ReadEvent()
		if err != nil {
			glog.Errorf("joystick read: %v", err)
			return
		}
		if c.Verbose {
			var prefix string
			if ev.IsInit() {
				prefix = "[INIT] "
			}
			switch evt := ev.(type) {
			case device.AxisEvent:
				glog.Infof(prefix+"Axis %d: %d", evt.Index(), evt.Value())
			case device.ButtonEvent:
				glog.Infof(prefix+"Button %d: %v", evt.Index(), evt.Pressed())
			}
		}
		ch <- ev
	}
}

func (c *Controller) handleEvent(ctx context.Context, ev device.Event) {
	switch evt := ev.(type) {
	case device.AxisEvent:
		switch evt.Index() {
		case device.AxisLeftX, device.AxisHatX:
			c.turn = c.filter(evt.Value())
		case device.AxisLeftY, device.AxisHatY:
			c.throttle = -c.filter(evt.Value())
		default:
			return
		}
		move := Mix(c.throttle, c.turn, c.MaxSpeed)
		if move == c.last {
			return
		}
		c.last = move
		c.send(ctx, move)
	case device.ButtonEvent:
		if evt.Pressed() && !evt.IsInit() {
			c.last = proto.Move{}
			c.send(ctx, proto.Stop{})
		}
	}
}

func (c *Controller) filter(val int) int {
	if val < c.Deadzone && val > -c.Deadzone {
		return 0
	}
	return val
}

func (c *Controller) send(ctx context.Context, cmd proto.Command) {
	f := c.Robot.Do(cmd)
	go func() {
		if _, err := f.Wait(ctx); err != nil {
			glog.V(1).Infof("%s: %v", cmd.Name(), err)
		}
	}()
}

// Mix converts throttle and turn axes into a MOVE, at most maxSpeed on
// either motor. Positive turn is clockwise.
func Mix(throttle, turn, maxSpeed int) proto.Move {
	scale := func(v int) int16 {
		return link.ClampSpeed(v * maxSpeed / device.AxisMax)
	}
	return proto.Move{Left: scale(throttle + turn), Right: scale(throttle - turn)}
}

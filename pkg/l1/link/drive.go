package link

import (
	"context"
	"fmt"
	"time"

	"github.com/robotalks/l0bot/pkg/l0/proto"
)

// Default speeds of the drive helpers.
const (
	DefaultDriveSpeed = 200
	DefaultTurnSpeed  = 150
)

// Commander sends commands and waits for the replies, Conn and Driver
// implement it.
type Commander interface {
	Do(proto.Command) *Future
}

// Robot provides the drive operations over a Commander.
type Robot struct {
	Commander
}

// ClampSpeed limits a motor duty to [-255, 255].
func ClampSpeed(v int) int16 {
	switch {
	case v > proto.MaxDuty:
		return proto.MaxDuty
	case v < -proto.MaxDuty:
		return -proto.MaxDuty
	}
	return int16(v)
}

// SetMotors sets both motor duties, clamped to [-255, 255].
func (r Robot) SetMotors(ctx context.Context, left, right int) error {
	_, err := r.Do(proto.Move{Left: ClampSpeed(left), Right: ClampSpeed(right)}).Wait(ctx)
	return err
}

// Forward drives both motors forward.
func (r Robot) Forward(ctx context.Context, speed int) error {
	return r.SetMotors(ctx, speed, speed)
}

// Backward drives both motors in reverse.
func (r Robot) Backward(ctx context.Context, speed int) error {
	return r.SetMotors(ctx, -speed, -speed)
}

// TurnLeft rotates in place counterclockwise.
func (r Robot) TurnLeft(ctx context.Context, speed int) error {
	return r.SetMotors(ctx, -speed, speed)
}

// TurnRight rotates in place clockwise.
func (r Robot) TurnRight(ctx context.Context, speed int) error {
	return r.SetMotors(ctx, speed, -speed)
}

// Stop brakes both motors.
func (r Robot) Stop(ctx context.Context) error {
	_, err := r.Do(proto.Stop{}).Wait(ctx)
	return err
}

// SetSpeed sends SET_SPEED, the firmware only acknowledges it.
func (r Robot) SetSpeed(ctx context.Context, value int) error {
	_, err := r.Do(proto.SetSpeed{Value: value}).Wait(ctx)
	return err
}

// Ping checks the firmware is alive and returns the round trip time.
func (r Robot) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if _, err := r.Do(proto.Ping{}).Wait(ctx); err != nil {
		return 0, err
	}
	return time.Since(start), nil
}

// Sensors requests a telemetry frame.
func (r Robot) Sensors(ctx context.Context) (proto.Telemetry, error) {
	resp, err := r.Do(proto.GetSensors{}).Wait(ctx)
	if err != nil {
		return proto.Telemetry{}, err
	}
	t, ok := resp.(proto.Telemetry)
	if !ok {
		return proto.Telemetry{}, fmt.Errorf("unexpected reply %T", resp)
	}
	return t, nil
}

package sim

import (
	"sync"
	"time"

	"github.com/robotalks/l0bot/pkg/l0/clock"
	"github.com/robotalks/l0bot/pkg/l0/motor"
)

// Defaults of the simulated robot.
const (
	DefaultMaxSpeed  float64 = 50
	DefaultWheelBase float64 = 15
	DefaultRadius    float64 = 10
)

const simStep = 10 * time.Millisecond

// Drive simulates a differential drive robot. Wheel speeds follow the
// motor duties immediately, linearly up to MaxSpeed at full duty. A move
// into a wall or an obstacle is blocked, rotation still happens.
type Drive struct {
	World     *World
	Clock     clock.Clock
	MaxSpeed  float64
	WheelBase float64
	Radius    float64

	lock  sync.Mutex
	pose  Pose2D
	last  time.Time
	left  float64
	right float64
	bumps int
	odo   float64
}

// NewDrive places a robot in world.
func NewDrive(world *World, clk clock.Clock, pose Pose2D) *Drive {
	return &Drive{
		World:     world,
		Clock:     clk,
		MaxSpeed:  DefaultMaxSpeed,
		WheelBase: DefaultWheelBase,
		Radius:    DefaultRadius,
		pose:      pose,
		last:      clk.Now(),
	}
}

// Apply implements the firmware actuator, it changes the wheel speeds from
// now on.
func (d *Drive) Apply(s motor.State) error {
	s = s.Clamp()
	d.lock.Lock()
	defer d.lock.Unlock()
	d.advance(d.Clock.Now())
	d.left = float64(s.Left) / float64(motor.MaxDuty) * d.MaxSpeed
	d.right = float64(s.Right) / float64(motor.MaxDuty) * d.MaxSpeed
	return nil
}

// Pose returns the current pose.
func (d *Drive) Pose() Pose2D {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.advance(d.Clock.Now())
	return d.pose
}

// Bumps counts the moves blocked so far.
func (d *Drive) Bumps() int {
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.bumps
}

// Odometer is the distance travelled so far, blocked moves excluded.
func (d *Drive) Odometer() float64 {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.advance(d.Clock.Now())
	return d.odo
}

// Range is the distance seen by a sonar mounted at the front of the robot.
func (d *Drive) Range() float64 {
	pose := d.Pose()
	nose := pose.Pos2D.Add(pose.Orientation.Project(d.Radius))
	return d.World.Range(nose, pose.Orientation)
}

func (d *Drive) advance(now time.Time) {
	for d.last.Before(now) {
		dt := now.Sub(d.last)
		if dt > simStep {
			dt = simStep
		}
		next := step(d.pose, d.left, d.right, d.WheelBase, dt)
		if next.Pos2D != d.pose.Pos2D && d.World.Blocked(next.Pos2D, d.Radius) {
			next.Pos2D = d.pose.Pos2D
			d.bumps++
		}
		d.odo += d.pose.DistanceTo(next.Pos2D)
		d.pose = next
		d.last = d.last.Add(dt)
	}
}

// step moves the pose along the arc given by the wheel speeds.
func step(pose Pose2D, left, right, base float64, dt time.Duration) Pose2D {
	secs := dt.Seconds()
	v, w := (left+right)/2, (right-left)/base
	if w == 0 {
		pose.Pos2D.OffsetBy(pose.Orientation.Project(v * secs))
		return pose
	}
	from := pose.Orientation
	to := from.AddRadians(w * secs)
	r := v / w
	pose.X += r * (to.Sin() - from.Sin())
	pose.Y -= r * (to.Cos() - from.Cos())
	pose.Orientation = to
	return pose
}

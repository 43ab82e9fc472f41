package sim

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/l0bot/pkg/l0/clock"
	"github.com/robotalks/l0bot/pkg/l0/motor"
)

func TestDriveEstimate(t *testing.T) {
	testCases := []struct {
		name   string
		state  motor.State
		after  time.Duration
		expect Pose2D
	}{
		{
			name:   "stopped",
			after:  time.Second,
			expect: Pose2D{},
		},
		{
			name:   "forward",
			state:  motor.State{Left: 255, Right: 255},
			after:  time.Second,
			expect: Pose2D{Pos2D: Pos2D{X: 50}},
		},
		{
			name:   "reverse",
			state:  motor.State{Left: -255, Right: -255},
			after:  500 * time.Millisecond,
			expect: Pose2D{Pos2D: Pos2D{X: -25}},
		},
		{
			name:   "rotate in place",
			state:  motor.State{Left: -255, Right: 255},
			after:  150 * time.Millisecond,
			expect: Pose2D{Orientation: 1},
		},
		{
			name:   "arc",
			state:  motor.State{Left: 0, Right: 255},
			after:  300 * time.Millisecond,
			expect: step(Pose2D{}, 0, 50, DefaultWheelBase, 300*time.Millisecond),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			clk := clock.NewManual(time.Unix(0, 0))
			d := NewDrive(&World{}, clk, Pose2D{})
			require.NoError(t, d.Apply(tc.state))
			clk.Advance(tc.after)
			pose := d.Pose()
			require.InDelta(t, tc.expect.X, pose.X, 1e-9)
			require.InDelta(t, tc.expect.Y, pose.Y, 1e-9)
			require.InDelta(t, tc.expect.Orientation.Radians(), pose.Orientation.Radians(), 1e-9)
		})
	}
}

func TestDriveArc(t *testing.T) {
	// a quarter circle of radius base/2 around the left wheel.
	quarter := math.Pi
	pose := step(Pose2D{}, 0, 10, 20, time.Duration(quarter*float64(time.Second)))
	require.InDelta(t, 10, pose.X, 1e-6)
	require.InDelta(t, 10, pose.Y, 1e-6)
	require.InDelta(t, math.Pi/2, pose.Orientation.Radians(), 1e-6)
}

func TestDriveBlocked(t *testing.T) {
	clk := clock.NewManual(time.Unix(0, 0))
	d := NewDrive(NewArena(100), clk, Pose2D{})
	require.InDelta(t, 40, d.Range(), 1e-9)

	require.NoError(t, d.Apply(motor.State{Left: 255, Right: 255}))
	clk.Advance(500 * time.Millisecond)
	require.InDelta(t, 25, d.Pose().X, 1e-9)
	require.InDelta(t, 15, d.Range(), 1e-9)
	require.Zero(t, d.Bumps())
	require.InDelta(t, 25, d.Odometer(), 1e-9)

	clk.Advance(time.Second)
	pose := d.Pose()
	require.True(t, pose.X <= 40 && pose.X > 39, "x=%v", pose.X)
	require.NotZero(t, d.Bumps())
	require.InDelta(t, pose.X, d.Odometer(), 1e-9)

	// turning around is still possible.
	require.NoError(t, d.Apply(motor.State{Left: -255, Right: 255}))
	halfTurn := math.Pi / (100.0 / DefaultWheelBase)
	clk.Advance(time.Duration(halfTurn * float64(time.Second)))
	require.NoError(t, d.Apply(motor.State{}))
	require.InDelta(t, math.Pi, math.Abs(d.Pose().Orientation.Radians()), 1e-6)
	require.InDelta(t, 40+pose.X, d.Range(), 1e-6)
}

func TestWorldRange(t *testing.T) {
	w := &World{Obstacles: []Rect{CenteredRect(Pos2D{X: 35}, 10, 10)}}
	require.InDelta(t, 30, w.Range(Pos2D{}, 0), 1e-9)
	require.True(t, math.IsInf(w.Range(Pos2D{}, AngleFromDegrees(180)), 1))
	require.True(t, math.IsInf(w.Range(Pos2D{}, AngleFromDegrees(90)), 1))
	require.Zero(t, w.Range(Pos2D{X: 35}, 0))
	require.True(t, w.Blocked(Pos2D{X: 25}, 6))
	require.False(t, w.Blocked(Pos2D{X: 25}, 4))
	require.InDelta(t, 5, Pos2D{X: 1, Y: 1}.DistanceTo(Pos2D{X: 4, Y: 5}), 1e-12)

	arena := NewArena(200)
	require.InDelta(t, 100, arena.Range(Pos2D{}, AngleFromDegrees(90)), 1e-9)
	require.InDelta(t, 100*math.Sqrt2, arena.Range(Pos2D{}, AngleFromDegrees(45)), 1e-9)
	require.Zero(t, arena.Range(Pos2D{X: 300}, 0))
}

func TestAngle(t *testing.T) {
	require.InDelta(t, math.Pi, AngleFromDegrees(180).Radians(), 1e-12)
	require.InDelta(t, math.Pi, AngleFromDegrees(-180).Radians(), 1e-12)
	require.InDelta(t, -math.Pi/2, AngleFromDegrees(270).Radians(), 1e-12)
	require.InDelta(t, 90, AngleFromRadians(5*math.Pi/2).Degrees(), 1e-9)
	require.InDelta(t, -170, AngleFromDegrees(170).AddRadians(AngleFromDegrees(20).Radians()).Degrees(), 1e-9)
}

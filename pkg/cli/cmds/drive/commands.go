package drive

import (
	"fmt"
	"strconv"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/l0bot/pkg/cli/sh"
	"github.com/robotalks/l0bot/pkg/l0/proto"
	"github.com/robotalks/l0bot/pkg/l1/link"
)

func parseInt(c *ishell.Context, index int, name string, def int) (int, bool) {
	if len(c.Args) <= index {
		if def < 0 {
			c.Err(fmt.Errorf("%s required", name))
			return 0, false
		}
		return def, true
	}
	val, err := strconv.Atoi(c.Args[index])
	if err != nil {
		c.Err(fmt.Errorf("Invalid %s: %v", name, err))
		return 0, false
	}
	return val, true
}

// moveCmd sends MOVE with duties derived from SPEED.
func moveCmd(name, alias, help string, def int, duties func(speed int) (int, int)) ishell.Cmd {
	return ishell.Cmd{
		Name:    name,
		Aliases: []string{alias},
		Help:    help,
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			speed, ok := parseInt(c, 0, "SPEED", def)
			if !ok {
				return
			}
			left, right := duties(speed)
			sh.DoCommand(c, proto.Move{Left: link.ClampSpeed(left), Right: link.ClampSpeed(right)})
		}),
	}
}

var (
	// PingCmd exposes PING.
	PingCmd = ishell.Cmd{
		Name:    "ping",
		Aliases: []string{"p"},
		Help:    "",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			s := sh.ShellFrom(c)
			rtt, err := s.Robot().Ping(s.Link.Ctx)
			if err != nil {
				c.Err(err)
				return
			}
			if s.OutputJSON {
				c.Printf("{\"rtt_ms\":%.3f}\n", float64(rtt.Microseconds())/1000)
				return
			}
			c.Printf("PONG %v\n", rtt)
		}),
	}

	// MoveCmd exposes MOVE.
	MoveCmd = ishell.Cmd{
		Name:    "move",
		Aliases: []string{"m"},
		Help:    "LEFT RIGHT (-255..255)",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			left, ok := parseInt(c, 0, "LEFT", -1)
			if !ok {
				return
			}
			right, ok := parseInt(c, 1, "RIGHT", -1)
			if !ok {
				return
			}
			sh.DoCommand(c, proto.Move{Left: link.ClampSpeed(left), Right: link.ClampSpeed(right)})
		}),
	}

	// StopCmd exposes STOP.
	StopCmd = ishell.Cmd{
		Name:    "stop",
		Aliases: []string{"s"},
		Help:    "",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			sh.DoCommand(c, proto.Stop{})
		}),
	}

	// SpeedCmd exposes SET_SPEED.
	SpeedCmd = ishell.Cmd{
		Name:    "speed",
		Aliases: []string{},
		Help:    "VALUE",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			val, ok := parseInt(c, 0, "VALUE", -1)
			if !ok {
				return
			}
			sh.DoCommand(c, proto.SetSpeed{Value: val})
		}),
	}

	// SensorsCmd exposes GET_SENSORS.
	SensorsCmd = ishell.Cmd{
		Name:    "sensors",
		Aliases: []string{"sn"},
		Help:    "",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			sh.DoCommand(c, proto.GetSensors{})
		}),
	}

	// ForwardCmd drives forward.
	ForwardCmd = moveCmd("forward", "f", "[SPEED]", link.DefaultDriveSpeed, func(v int) (int, int) { return v, v })
	// BackwardCmd drives backward.
	BackwardCmd = moveCmd("backward", "b", "[SPEED]", link.DefaultDriveSpeed, func(v int) (int, int) { return -v, -v })
	// LeftCmd rotates left in place.
	LeftCmd = moveCmd("left", "lt", "[SPEED]", link.DefaultTurnSpeed, func(v int) (int, int) { return -v, v })
	// RightCmd rotates right in place.
	RightCmd = moveCmd("right", "rt", "[SPEED]", link.DefaultTurnSpeed, func(v int) (int, int) { return v, -v })
)

func init() {
	sh.AddCmds(
		&PingCmd,
		&MoveCmd,
		&StopCmd,
		&SpeedCmd,
		&SensorsCmd,
		&ForwardCmd,
		&BackwardCmd,
		&LeftCmd,
		&RightCmd,
	)
}

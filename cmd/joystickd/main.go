package main

import (
	"flag"

	"github.com/golang/glog"

	fx "github.com/robotalks/l0bot/pkg/framework"
	"github.com/robotalks/l0bot/pkg/joystick"
	"github.com/robotalks/l0bot/pkg/l1/link"
)

func init() {
	link.SetupFlags()
	joystick.SetupFlags()
}

func main() {
	flag.Parse()

	drv := link.Default().NewDriver()
	drv.OnStateChanged = func(conn *link.Conn) {
		if conn != nil {
			glog.Infof("connected %s", drv.Config.Port)
		} else {
			glog.Warningf("disconnected %s", drv.Config.Port)
		}
	}
	ctl := joystick.Default().NewController(drv)

	fx.NewRunner().
		HandleSignals().
		Go(fx.NamedRun("link", drv), fx.NamedRun("joystick", ctl)).
		WaitOrExit()
}

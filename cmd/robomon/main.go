package main

import (
	"context"
	"flag"
	"log"
	"time"

	fx "github.com/robotalks/l0bot/pkg/framework"
	"github.com/robotalks/l0bot/pkg/l0/proto"
	"github.com/robotalks/l0bot/pkg/l1/link"
)

var (
	pollInterval time.Duration
)

func init() {
	link.SetupFlags()
	flag.DurationVar(&pollInterval, "poll", pollInterval, "Request sensors at this interval, 0 to only log periodic telemetry.")
}

func poll(drv *link.Driver) fx.RunFunc {
	return func(ctx context.Context) error {
		if pollInterval <= 0 {
			return nil
		}
		ticker := time.NewTicker(pollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
			}
			if drv.Conn() == nil {
				continue
			}
			if _, err := drv.Robot().Sensors(ctx); err != nil && ctx.Err() == nil {
				log.Printf("sensors: %v", err)
			}
		}
	}
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	drv := link.Default().NewDriver()
	drv.OnTelemetry = func(t proto.Telemetry) {
		log.Printf("distance=%.1f left=%d right=%d uptime=%d mode=%s",
			float64(t.Distance), t.LeftSpeed, t.RightSpeed, t.Uptime, t.Mode)
	}
	drv.OnReady = func(r proto.Ready) {
		log.Printf("ready device=%s mode=%s", r.Device, r.Mode)
	}
	drv.OnStateChanged = func(conn *link.Conn) {
		if conn != nil {
			log.Printf("connected %s", drv.Config.Port)
		} else {
			log.Printf("disconnected %s", drv.Config.Port)
		}
	}

	err := fx.NewRunner().
		HandleSignals().
		Go(fx.NamedRun("link", drv), fx.NamedRun("poll", poll(drv))).
		Wait()
	if err != nil {
		log.Fatalln(err)
	}
}

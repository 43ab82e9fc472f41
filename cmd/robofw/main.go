package main

import (
	"flag"
	"log"

	"github.com/golang/glog"

	fx "github.com/robotalks/l0bot/pkg/framework"
	"github.com/robotalks/l0bot/pkg/l0/board"
)

func init() {
	board.SetupFlags()
}

func main() {
	flag.Parse()
	defer glog.Flush()

	b, err := board.Default().Open()
	if err != nil {
		log.Fatalln(err)
	}
	defer b.Close()

	err = fx.NewRunner().
		HandleSignals().
		Go(fx.NamedRun("firmware", b.NewLoop())).
		Wait()
	if err != nil {
		glog.Errorf("firmware stopped: %v", err)
	}
}

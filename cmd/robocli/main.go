package main

import (
	"github.com/robotalks/l0bot/pkg/cli/sh"
	"github.com/robotalks/l0bot/pkg/l1/link"

	_ "github.com/robotalks/l0bot/pkg/cli/cmds/all"
)

//go-build: CGO_ENABLED=0

func init() {
	link.SetupFlags()
}

func main() {
	sh.Main()
}

// Package all registers all shell commands.
package all

import (
	_ "github.com/robotalks/l0bot/pkg/cli/cmds/drive"
)

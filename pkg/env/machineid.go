// Package env provides facts about the host the tools run on.
package env

import (
	"os"
	"sync"

	"github.com/denisbrodbeck/machineid"
	"github.com/golang/glog"
)

var (
	machineID     string
	machineIDOnce sync.Once
)

// MachineID retrieves the unique ID identifying the machine.
// It falls back to the host name, then "unknown", when the ID is not
// readable (e.g. inside minimal containers).
func MachineID() string {
	machineIDOnce.Do(func() {
		id, err := machineid.ID()
		if err == nil && id != "" {
			machineID = id
			return
		}
		glog.V(1).Infof("machine id unavailable: %v", err)
		if name, err := os.Hostname(); err == nil && name != "" {
			machineID = name
			return
		}
		machineID = "unknown"
	})
	return machineID
}

// ShortMachineID is the first 8 characters of MachineID, enough to tell
// boards apart in logs.
func ShortMachineID() string {
	id := MachineID()
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

package tunnel

import (
	"strconv"
	"strings"

	"github.com/treykane/tunnels/internal/model"
	"github.com/treykane/tunnels/internal/procscan"
	"github.com/treykane/tunnels/internal/util"
)

// StatusEntry is one row of a status snapshot: a configured tunnel joined
// against its tagged process, or sentinel values when none is running.
type StatusEntry struct {
	Name        string `json:"name" yaml:"name" toml:"name"`
	Group       string `json:"group" yaml:"group" toml:"group"`
	Hostname    string `json:"hostname" yaml:"hostname" toml:"hostname"`
	PID         string `json:"pid" yaml:"pid" toml:"pid"`
	Status      string `json:"status" yaml:"status" toml:"status"`
	Connections string `json:"connections" yaml:"connections" toml:"connections"`
}

// StatusColumns is the canonical column order for rendered snapshots.
var StatusColumns = []string{"name", "group", "hostname", "pid", "status", "connections"}

// Row returns the entry keyed by column name for the output encoders.
func (e StatusEntry) Row() map[string]string {
	return map[string]string{
		"name":        e.Name,
		"group":       e.Group,
		"hostname":    e.Hostname,
		"pid":         e.PID,
		"status":      e.Status,
		"connections": e.Connections,
	}
}

// Snapshot joins the configured tunnels against the current process table.
// The table is scanned once and reused across all tunnels; socket endpoints
// are queried per matching process only, filtered by connection family kind
// (empty means the inspector's default). Pure read, safe to call repeatedly.
func Snapshot(inspector Inspector, tunnels []model.Tunnel, kind string) []StatusEntry {
	if kind == "" {
		kind = procscan.DefaultKind
	}
	procs := inspector.SSHProcesses()
	out := make([]StatusEntry, 0, len(tunnels))
	for _, t := range tunnels {
		entry := StatusEntry{
			Name:     t.Name,
			Group:    t.Group,
			Hostname: t.Hostname,
			PID:      "-",
			Status:   "Inactive",
		}
		if proc, ok := Find(procs, Tag(t.Name)); ok {
			entry.PID = strconv.Itoa(int(proc.PID))
			entry.Status = util.TitleCase(util.DefaultString(proc.Status, "running"))
			entry.Connections = strings.Join(inspector.Connections(proc.PID, kind), "\n")
			if entry.Connections == "" {
				entry.Connections = "-"
			}
		}
		out = append(out, entry)
	}
	return out
}

// Package procscan inspects the live OS process table for SSH-family
// processes and their socket endpoints.
//
// Everything here is a point-in-time read: nothing is cached between calls,
// and individual-process races (a process exiting between enumeration and
// query, or permission denial on another user's process) degrade to "not
// observed" rather than errors. Tunnel identity is correlated elsewhere by
// matching a tag substring against Process.Cmdline; this package knows
// nothing about tags.
package procscan

import (
	"fmt"
	"log/slog"
	"sort"

	gopsnet "github.com/shirou/gopsutil/v4/net"
	"github.com/shirou/gopsutil/v4/process"
)

// Process is one SSH-family process observed at scan time. Ephemeral: valid
// only for the scan that produced it, never retained across calls.
type Process struct {
	PID     int32
	Name    string
	Cmdline string
	Status  string
}

// DefaultKind is the connection family used when the caller does not ask for
// a specific one.
const DefaultKind = "inet4"

// sshExecutables are the process names treated as SSH-family. autossh is
// listed even though it forks a child ssh, so its supervisor process is
// visible too.
var sshExecutables = map[string]bool{
	"ssh":     true,
	"autossh": true,
}

var connectionKinds = map[string]bool{
	"all":   true,
	"inet":  true,
	"inet4": true,
	"inet6": true,
	"tcp":   true,
	"tcp4":  true,
	"tcp6":  true,
	"udp":   true,
	"udp4":  true,
	"udp6":  true,
	"unix":  true,
}

// ValidKind reports whether kind is an accepted connection family filter.
func ValidKind(kind string) bool {
	return connectionKinds[kind]
}

// Scanner reads the live process table. It is stateless and safe for
// concurrent use; every method call is a fresh snapshot.
type Scanner struct{}

// New creates a new process table scanner.
func New() *Scanner { return &Scanner{} }

// SSHProcesses returns the SSH-family processes currently in the process
// table. Processes that disappear or deny access mid-scan are skipped.
func (s *Scanner) SSHProcesses() []Process {
	procs, err := process.Processes()
	if err != nil {
		slog.Debug("process table enumeration failed", "error", err)
		return nil
	}
	var out []Process
	for _, p := range procs {
		name, err := p.Name()
		if err != nil || !sshExecutables[name] {
			continue
		}
		cmdline, err := p.Cmdline()
		if err != nil {
			continue
		}
		status := ""
		if st, err := p.Status(); err == nil && len(st) > 0 {
			status = st[0]
		}
		out = append(out, Process{
			PID:     p.Pid,
			Name:    name,
			Cmdline: cmdline,
			Status:  status,
		})
	}
	return out
}

// Connections returns the deduplicated, sorted "ip:port" endpoints (local and
// remote sides unioned) of the process's open sockets, filtered by connection
// family. An exited process or denied access yields an empty result, never an
// error.
func (s *Scanner) Connections(pid int32, kind string) []string {
	if kind == "" {
		kind = DefaultKind
	}
	conns, err := gopsnet.ConnectionsPid(kind, pid)
	if err != nil {
		slog.Debug("socket enumeration failed", "pid", pid, "error", err)
		return nil
	}
	set := map[string]struct{}{}
	for _, c := range conns {
		if c.Laddr.IP != "" || c.Laddr.Port != 0 {
			set[fmt.Sprintf("%s:%d", c.Laddr.IP, c.Laddr.Port)] = struct{}{}
		}
		if c.Raddr.IP != "" || c.Raddr.Port != 0 {
			set[fmt.Sprintf("%s:%d", c.Raddr.IP, c.Raddr.Port)] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for endpoint := range set {
		out = append(out, endpoint)
	}
	sort.Strings(out)
	return out
}

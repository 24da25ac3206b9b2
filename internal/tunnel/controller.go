// Package tunnel implements the tunnel lifecycle: identity tagging, start
// command construction, idempotent start/stop against the live process table,
// and point-in-time status snapshots.
//
// There is no daemon, PID file, or persisted state. Whether a tunnel is
// running is re-derived on every call by matching its tag against the command
// lines of live SSH-family processes, so there is nothing to go stale — at
// the cost that two concurrent invocations racing on the same tunnel, or two
// configured names normalizing to the same tag, are not detected.
package tunnel

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/treykane/tunnels/internal/config"
	"github.com/treykane/tunnels/internal/events"
	"github.com/treykane/tunnels/internal/model"
	"github.com/treykane/tunnels/internal/procscan"
	"github.com/treykane/tunnels/internal/util"
)

// Inspector abstracts process-table reads for testing.
type Inspector interface {
	SSHProcesses() []procscan.Process
	Connections(pid int32, kind string) []string
}

// Spawner abstracts detached process creation for testing.
type Spawner interface {
	Spawn(argv []string) (int, error)
}

// Signaler abstracts process signalling for testing.
type Signaler interface {
	Terminate(pid int32) error
	Kill(pid int32) error
	Alive(pid int32) bool
}

type osSignaler struct{}

func (osSignaler) Terminate(pid int32) error { return syscall.Kill(int(pid), syscall.SIGTERM) }
func (osSignaler) Kill(pid int32) error      { return syscall.Kill(int(pid), syscall.SIGKILL) }
func (osSignaler) Alive(pid int32) bool      { return syscall.Kill(int(pid), syscall.Signal(0)) == nil }

// Outcome classifies what happened to one tunnel in a batch.
type Outcome string

const (
	OutcomeStarted        Outcome = "started"
	OutcomeAlreadyRunning Outcome = "already-running"
	OutcomeStartFailed    Outcome = "start-failed"
	OutcomeStopped        Outcome = "stopped"
	OutcomeForceStopped   Outcome = "force-stopped"
	OutcomeNotRunning     Outcome = "not-running"
	OutcomeAlreadyStopped Outcome = "already-stopped"
	OutcomeStopFailed     Outcome = "stop-failed"
)

// Success reports whether the outcome counts toward the batch success tally.
// Skips (already running, not running) are neither successes nor errors; a
// process that vanished between detection and signalling counts as stopped.
func (o Outcome) Success() bool {
	switch o {
	case OutcomeStarted, OutcomeStopped, OutcomeForceStopped, OutcomeAlreadyStopped:
		return true
	}
	return false
}

// Result is the per-tunnel record of a batch operation.
type Result struct {
	Tunnel  model.Tunnel
	Outcome Outcome
	PID     int
	Err     error
}

// BatchClass groups a batch result for summary reporting.
type BatchClass string

const (
	BatchFull    BatchClass = "full"
	BatchPartial BatchClass = "partial"
	BatchNone    BatchClass = "none"
)

// Batch aggregates the per-tunnel results of one start or stop invocation.
// Individual failures never abort the batch; they only degrade the class.
type Batch struct {
	Results []Result
}

func (b Batch) Total() int { return len(b.Results) }

func (b Batch) Succeeded() int {
	n := 0
	for _, r := range b.Results {
		if r.Outcome.Success() {
			n++
		}
	}
	return n
}

func (b Batch) Class() BatchClass {
	switch s := b.Succeeded(); {
	case s == b.Total():
		return BatchFull
	case s > 0:
		return BatchPartial
	default:
		return BatchNone
	}
}

// Controller owns start/stop decisions for selected tunnels, using the
// process table as the single source of truth.
type Controller struct {
	inspector Inspector
	spawner   Spawner
	signaler  Signaler
	journal   *events.Store

	stopTimeout time.Duration
	stopPoll    time.Duration
}

// NewController creates a controller over the given inspector and spawner.
// journal may be nil to disable lifecycle journaling.
func NewController(inspector Inspector, spawner Spawner, journal *events.Store) *Controller {
	return &Controller{
		inspector:   inspector,
		spawner:     spawner,
		signaler:    osSignaler{},
		journal:     journal,
		stopTimeout: util.StopTimeout,
		stopPoll:    util.StopPollInterval,
	}
}

// Find returns the first process whose command line contains tag.
func Find(procs []procscan.Process, tag string) (procscan.Process, bool) {
	for _, p := range procs {
		if strings.Contains(p.Cmdline, tag) {
			return p, true
		}
	}
	return procscan.Process{}, false
}

// Running re-reads the process table and returns t's tagged process, if any.
func (c *Controller) Running(t model.Tunnel) (procscan.Process, bool) {
	return Find(c.inspector.SSHProcesses(), Tag(t.Name))
}

// Select resolves a tunnel selection. Exactly one of names, group, or all
// must be supplied; an unknown name or group is an error. Name resolution
// fails fast on the first unresolved name.
func Select(cfg config.Config, names []string, group string, all bool) ([]model.Tunnel, error) {
	selectors := 0
	if len(names) > 0 {
		selectors++
	}
	if group != "" {
		selectors++
	}
	if all {
		selectors++
	}
	if selectors != 1 {
		return nil, fmt.Errorf("exactly one of --name, --group, or --all must be specified")
	}

	if all {
		return cfg.Tunnels, nil
	}
	if group != "" {
		tunnels := cfg.ByGroup(group)
		if len(tunnels) == 0 {
			return nil, fmt.Errorf("group not found: %s", group)
		}
		return tunnels, nil
	}
	out := make([]model.Tunnel, 0, len(names))
	for _, name := range names {
		t, ok := cfg.ByName(name)
		if !ok {
			return nil, fmt.Errorf("tunnel not found: %s", name)
		}
		out = append(out, t)
	}
	return out, nil
}

// Start starts every selected tunnel that is not already running. Each
// tunnel is handled independently; a spawn failure is recorded and the batch
// continues.
func (c *Controller) Start(tunnels []model.Tunnel, useAutossh bool) Batch {
	var b Batch
	for _, t := range tunnels {
		r := c.startOne(t, useAutossh)
		c.record(r)
		b.Results = append(b.Results, r)
	}
	return b
}

func (c *Controller) startOne(t model.Tunnel, useAutossh bool) Result {
	if proc, ok := c.Running(t); ok {
		return Result{Tunnel: t, Outcome: OutcomeAlreadyRunning, PID: int(proc.PID)}
	}
	argv := BuildStartCommand(t, useAutossh)
	pid, err := c.spawner.Spawn(argv)
	if err != nil {
		return Result{Tunnel: t, Outcome: OutcomeStartFailed, Err: err}
	}
	return Result{Tunnel: t, Outcome: OutcomeStarted, PID: pid}
}

// Stop stops every selected tunnel that is running: SIGTERM first, then
// SIGKILL if the process has not exited within the stop timeout. A process
// that disappears between detection and signalling counts as stopped.
func (c *Controller) Stop(tunnels []model.Tunnel) Batch {
	var b Batch
	for _, t := range tunnels {
		r := c.stopOne(t)
		c.record(r)
		b.Results = append(b.Results, r)
	}
	return b
}

func (c *Controller) stopOne(t model.Tunnel) Result {
	proc, ok := c.Running(t)
	if !ok {
		return Result{Tunnel: t, Outcome: OutcomeNotRunning}
	}
	res := Result{Tunnel: t, PID: int(proc.PID)}

	if err := c.signaler.Terminate(proc.PID); err != nil {
		if processGone(err) {
			res.Outcome = OutcomeAlreadyStopped
			return res
		}
		res.Outcome, res.Err = OutcomeStopFailed, err
		return res
	}

	deadline := time.Now().Add(c.stopTimeout)
	for time.Now().Before(deadline) {
		if !c.signaler.Alive(proc.PID) {
			res.Outcome = OutcomeStopped
			return res
		}
		time.Sleep(c.stopPoll)
	}

	if err := c.signaler.Kill(proc.PID); err != nil && !processGone(err) {
		res.Outcome, res.Err = OutcomeStopFailed, err
		return res
	}
	res.Outcome = OutcomeForceStopped
	return res
}

func processGone(err error) bool {
	return errors.Is(err, syscall.ESRCH) || errors.Is(err, os.ErrProcessDone)
}

// record journals a result best-effort; journaling failures never affect the
// batch outcome.
func (c *Controller) record(r Result) {
	if c.journal == nil {
		return
	}
	evt := events.Event{
		Tunnel:    r.Tunnel.Name,
		EventType: string(r.Outcome),
		PID:       r.PID,
	}
	if r.Err != nil {
		evt.Message = r.Err.Error()
	}
	if err := c.journal.Append(evt); err != nil {
		slog.Warn("failed to journal tunnel event", "tunnel", r.Tunnel.Name, "error", err)
	}
}

// Package doctor runs local diagnostics over the tunnel configuration and
// the host environment.
package doctor

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/treykane/tunnels/internal/config"
	"github.com/treykane/tunnels/internal/model"
	"github.com/treykane/tunnels/internal/sshclient"
	"github.com/treykane/tunnels/internal/tunnel"
)

type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

type Issue struct {
	Severity       Severity `json:"severity"`
	Check          string   `json:"check"`
	Target         string   `json:"target"`
	Message        string   `json:"message"`
	Recommendation string   `json:"recommendation"`
}

type Report struct {
	Issues []Issue `json:"issues"`
}

func (r Report) HasHigh() bool {
	for _, issue := range r.Issues {
		if issue.Severity == SeverityHigh {
			return true
		}
	}
	return false
}

// Run executes the diagnostics. configOverride takes the same value as the
// global --config flag; empty means the default location.
func Run(configOverride string) (Report, error) {
	var issues []Issue

	if err := sshclient.EnsureSSHBinary(); err != nil {
		issues = append(issues, Issue{
			Severity:       SeverityHigh,
			Check:          "ssh-binary",
			Target:         "PATH",
			Message:        err.Error(),
			Recommendation: "install the OpenSSH client and ensure `ssh` is on PATH",
		})
	}
	if _, ok := sshclient.AutosshBinary(); !ok {
		issues = append(issues, Issue{
			Severity:       SeverityLow,
			Check:          "autossh-binary",
			Target:         "PATH",
			Message:        "autossh is not installed",
			Recommendation: "install autossh for automatic tunnel restarts (plain ssh is used otherwise)",
		})
	}

	cfg, err := config.Load(configOverride)
	if err != nil {
		issues = append(issues, Issue{
			Severity:       SeverityHigh,
			Check:          "config-load",
			Target:         configTarget(configOverride),
			Message:        err.Error(),
			Recommendation: "fix the configuration file before starting tunnels",
		})
	} else {
		issues = append(issues, tagCollisionIssues(cfg.Tunnels)...)
		issues = append(issues, duplicateBindIssues(cfg.Tunnels)...)
	}

	if dir, err := config.Dir(); err == nil {
		checkPathPerm(&issues, dir, 0o700, false)
		checkPathPerm(&issues, filepath.Join(dir, "config.yaml"), 0o600, true)
		checkPathPerm(&issues, filepath.Join(dir, "events.jsonl"), 0o600, true)
		checkPathPerm(&issues, filepath.Join(dir, "history.json"), 0o600, true)
	}

	sort.Slice(issues, func(i, j int) bool {
		ri := severityRank(issues[i].Severity)
		rj := severityRank(issues[j].Severity)
		if ri != rj {
			return ri > rj
		}
		if issues[i].Check != issues[j].Check {
			return issues[i].Check < issues[j].Check
		}
		if issues[i].Target != issues[j].Target {
			return issues[i].Target < issues[j].Target
		}
		return issues[i].Message < issues[j].Message
	})
	return Report{Issues: issues}, nil
}

func configTarget(override string) string {
	if override != "" {
		return override
	}
	if path, err := config.Path(); err == nil {
		return path
	}
	return "config.yaml"
}

// tagCollisionIssues flags distinct tunnel names that normalize to the same
// process tag. Such tunnels would be indistinguishable in the process table.
func tagCollisionIssues(tunnels []model.Tunnel) []Issue {
	byTag := map[string][]string{}
	for _, t := range tunnels {
		tag := tunnel.Tag(t.Name)
		byTag[tag] = append(byTag[tag], t.Name)
	}
	var issues []Issue
	for tag, names := range byTag {
		if len(names) < 2 {
			continue
		}
		sort.Strings(names)
		issues = append(issues, Issue{
			Severity:       SeverityHigh,
			Check:          "tag-collision",
			Target:         tag,
			Message:        fmt.Sprintf("tunnels %s share the same process tag", strings.Join(names, ", ")),
			Recommendation: "rename the tunnels so their normalized names differ",
		})
	}
	return issues
}

func duplicateBindIssues(tunnels []model.Tunnel) []Issue {
	seen := map[string][]string{}
	for _, t := range tunnels {
		bind := listenAddress(t)
		if bind == "" {
			continue
		}
		seen[bind] = append(seen[bind], t.Name)
	}
	var issues []Issue
	for bind, names := range seen {
		if len(names) < 2 {
			continue
		}
		sort.Strings(names)
		issues = append(issues, Issue{
			Severity:       SeverityHigh,
			Check:          "duplicate-local-bind",
			Target:         bind,
			Message:        fmt.Sprintf("local bind is configured by %d tunnels (%s)", len(names), strings.Join(names, ", ")),
			Recommendation: "use a unique local port per tunnel to avoid startup conflicts",
		})
	}
	return issues
}

// listenAddress reports the local TCP address a tunnel would bind, or ""
// for socket-only forwards.
func listenAddress(t model.Tunnel) string {
	switch {
	case t.Dynamic != nil && t.Dynamic.Port > 0:
		bind := t.Dynamic.BindAddress
		if bind == "" {
			bind = "127.0.0.1"
		}
		return fmt.Sprintf("%s:%d", bind, t.Dynamic.Port)
	case t.Local != nil && t.Local.Port > 0:
		bind := t.Local.BindAddress
		if bind == "" {
			bind = "127.0.0.1"
		}
		return fmt.Sprintf("%s:%d", bind, t.Local.Port)
	}
	return ""
}

func severityRank(s Severity) int {
	switch s {
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	default:
		return 1
	}
}

func checkPathPerm(issues *[]Issue, path string, max os.FileMode, isFile bool) {
	st, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return
		}
		*issues = append(*issues, Issue{
			Severity:       SeverityLow,
			Check:          "file-permissions",
			Target:         path,
			Message:        fmt.Sprintf("unable to inspect permissions: %v", err),
			Recommendation: "verify path and permissions manually",
		})
		return
	}
	mode := st.Mode().Perm()
	if mode > max {
		kind := "directory"
		if isFile {
			kind = "file"
		}
		*issues = append(*issues, Issue{
			Severity:       SeverityMedium,
			Check:          "file-permissions",
			Target:         path,
			Message:        fmt.Sprintf("%s permissions are too broad (%#o)", kind, mode),
			Recommendation: fmt.Sprintf("restrict permissions to %#o or tighter", max),
		})
	}
}

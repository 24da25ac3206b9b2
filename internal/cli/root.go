// Package cli provides the command-line interface for tunnels.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/treykane/tunnels/internal/config"
	"github.com/treykane/tunnels/internal/doctor"
	"github.com/treykane/tunnels/internal/events"
	"github.com/treykane/tunnels/internal/history"
	"github.com/treykane/tunnels/internal/model"
	"github.com/treykane/tunnels/internal/output"
	"github.com/treykane/tunnels/internal/procscan"
	"github.com/treykane/tunnels/internal/profile"
	"github.com/treykane/tunnels/internal/sshclient"
	"github.com/treykane/tunnels/internal/tunnel"
	"github.com/treykane/tunnels/internal/ui"
	"github.com/treykane/tunnels/internal/util"
)

// version is overridable at build time with -ldflags "-X ...cli.version=".
var version = "dev"

// NewRootCommand creates the root cobra command.
func NewRootCommand() *cobra.Command {
	var configPath string
	root := &cobra.Command{
		Use:     "tunnels",
		Short:   "Manage named SSH port-forward tunnels",
		Version: version,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to config file (default: $XDG_CONFIG_HOME/tunnels/config.yaml)")

	root.AddCommand(newStartCmd(&configPath))
	root.AddCommand(newStopCmd(&configPath))
	root.AddCommand(newStatusCmd(&configPath))
	root.AddCommand(newListCmd(&configPath))
	root.AddCommand(newConnectCmd(&configPath))
	root.AddCommand(newEventsCmd())
	root.AddCommand(newProfileCmd())
	root.AddCommand(newDoctorCmd(&configPath))
	root.AddCommand(newVersionCmd())
	return root
}

func newController() *tunnel.Controller {
	return tunnel.NewController(procscan.New(), sshclient.New(), events.NewStore())
}

// selectTunnels resolves the shared --name/--group/--all/--profile selector
// flags against the configuration. A profile expands to its tunnel names and
// may not be combined with the other selectors.
func selectTunnels(configPath string, names []string, group string, all bool, profileName string) ([]model.Tunnel, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if profileName != "" {
		if len(names) > 0 || group != "" || all {
			return nil, fmt.Errorf("--profile cannot be combined with --name, --group or --all")
		}
		def, err := profile.Get(profileName)
		if err != nil {
			return nil, err
		}
		names = def.Tunnels
	}
	return tunnel.Select(cfg, names, group, all)
}

func newStartCmd(configPath *string) *cobra.Command {
	var names []string
	var group, profileName string
	var all, noAutossh bool
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the selected tunnels",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := sshclient.EnsureSSHBinary(); err != nil {
				return err
			}
			selected, err := selectTunnels(*configPath, names, group, all, profileName)
			if err != nil {
				return err
			}
			useAutossh := !noAutossh
			if useAutossh {
				if _, ok := sshclient.AutosshBinary(); !ok {
					slog.Warn("autossh not installed, starting tunnels with plain ssh")
				}
			}
			batch := newController().Start(selected, useAutossh)
			for _, r := range batch.Results {
				printResult(r)
				if r.Outcome == tunnel.OutcomeStarted {
					if err := history.Touch(r.Tunnel.Name); err != nil {
						slog.Warn("failed to record start history", "tunnel", r.Tunnel.Name, "error", err)
					}
				}
			}
			printSummary("started", batch)
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&names, "name", nil, "tunnel name (repeatable)")
	cmd.Flags().StringVar(&group, "group", "", "start every tunnel in a group")
	cmd.Flags().BoolVar(&all, "all", false, "start every configured tunnel")
	cmd.Flags().StringVar(&profileName, "profile", "", "start every tunnel named by a profile")
	cmd.Flags().BoolVar(&noAutossh, "no-autossh", false, "use plain ssh even when autossh is installed")
	return cmd
}

func newStopCmd(configPath *string) *cobra.Command {
	var names []string
	var group, profileName string
	var all bool
	cmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the selected tunnels",
		RunE: func(cmd *cobra.Command, args []string) error {
			selected, err := selectTunnels(*configPath, names, group, all, profileName)
			if err != nil {
				return err
			}
			batch := newController().Stop(selected)
			for _, r := range batch.Results {
				printResult(r)
			}
			printSummary("stopped", batch)
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&names, "name", nil, "tunnel name (repeatable)")
	cmd.Flags().StringVar(&group, "group", "", "stop every tunnel in a group")
	cmd.Flags().BoolVar(&all, "all", false, "stop every configured tunnel")
	cmd.Flags().StringVar(&profileName, "profile", "", "stop every tunnel named by a profile")
	return cmd
}

func printResult(r tunnel.Result) {
	name := r.Tunnel.Name
	switch r.Outcome {
	case tunnel.OutcomeStarted:
		fmt.Printf("started %s (pid %d)\n", name, r.PID)
	case tunnel.OutcomeAlreadyRunning:
		fmt.Printf("%s is already running (pid %d)\n", name, r.PID)
	case tunnel.OutcomeStartFailed:
		fmt.Printf("failed to start %s: %v\n", name, r.Err)
	case tunnel.OutcomeStopped:
		fmt.Printf("stopped %s (pid %d)\n", name, r.PID)
	case tunnel.OutcomeForceStopped:
		fmt.Printf("force-stopped %s (pid %d) after %s\n", name, r.PID, util.StopTimeout)
	case tunnel.OutcomeNotRunning:
		fmt.Printf("%s is not running\n", name)
	case tunnel.OutcomeAlreadyStopped:
		fmt.Printf("%s already stopped\n", name)
	case tunnel.OutcomeStopFailed:
		fmt.Printf("failed to stop %s: %v\n", name, r.Err)
	}
}

// printSummary reports the batch tally. Batch operations are best-effort:
// failures degrade the summary text but never the exit code; only usage
// errors exit non-zero.
func printSummary(verb string, batch tunnel.Batch) {
	if batch.Total() == 0 {
		return
	}
	switch batch.Class() {
	case tunnel.BatchFull:
		fmt.Printf("%s %d/%d tunnel(s)\n", verb, batch.Succeeded(), batch.Total())
	case tunnel.BatchPartial:
		fmt.Printf("%s %d/%d tunnel(s), some failed\n", verb, batch.Succeeded(), batch.Total())
	case tunnel.BatchNone:
		if hasFailures(batch) {
			fmt.Printf("%s 0/%d tunnel(s), all failed\n", verb, batch.Total())
		} else {
			fmt.Printf("%s 0/%d tunnel(s), nothing to do\n", verb, batch.Total())
		}
	}
}

func hasFailures(batch tunnel.Batch) bool {
	for _, r := range batch.Results {
		if r.Err != nil {
			return true
		}
	}
	return false
}

func newStatusCmd(configPath *string) *cobra.Command {
	var formatName, kind string
	var columns []string
	var live bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the status of every configured tunnel",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			format, err := output.ParseFormat(formatName)
			if err != nil {
				return err
			}
			if !procscan.ValidKind(kind) {
				return fmt.Errorf("unsupported connection kind %q", kind)
			}
			if live {
				return ui.RunLive(procscan.New(), cfg.Tunnels, columns, kind)
			}
			entries := tunnel.Snapshot(procscan.New(), cfg.Tunnels, kind)
			rows := make([]map[string]string, 0, len(entries))
			for _, e := range entries {
				rows = append(rows, e.Row())
			}
			rendered, err := output.Encode(format, tunnel.StatusColumns, columns, rows)
			if err != nil {
				return err
			}
			fmt.Println(rendered)
			return nil
		},
	}
	cmd.Flags().StringVar(&formatName, "format", string(output.FormatTable), fmt.Sprintf("output format (%s)", strings.Join(output.Formats(), ", ")))
	cmd.Flags().StringArrayVar(&columns, "column", nil, "column to include (repeatable, default all)")
	cmd.Flags().StringVar(&kind, "kind", procscan.DefaultKind, "connection family for the connections column (inet, inet4, inet6, tcp, udp, unix, all)")
	cmd.Flags().BoolVar(&live, "live", false, "refresh the status table continuously")
	return cmd
}

func newListCmd(configPath *string) *cobra.Command {
	var recent bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List configured tunnels",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			lastStarted, err := history.LastStarted()
			if err != nil {
				slog.Warn("failed to load start history", "error", err)
				lastStarted = map[string]int64{}
			}
			tunnels := cfg.Tunnels
			if recent {
				tunnels = history.SortTunnelsRecent(tunnels, lastStarted)
			}
			fmt.Printf("%-24s %-16s %-24s %-32s %s\n", "NAME", "GROUP", "HOSTNAME", "FORWARD", "LAST STARTED")
			for _, t := range tunnels {
				flag, addr := t.ForwardArg()
				last := "-"
				if ts, ok := lastStarted[t.Name]; ok {
					last = time.Unix(ts, 0).Format("2006-01-02 15:04:05")
				}
				fmt.Printf("%-24s %-16s %-24s %-32s %s\n", t.Name, util.EmptyDash(t.Group), t.Hostname, flag+" "+addr, last)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&recent, "recent", false, "order by most recently started")
	return cmd
}

func newConnectCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "connect <name>",
		Short: "Open an interactive SSH session to a tunnel's host",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := sshclient.EnsureSSHBinary(); err != nil {
				return err
			}
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			t, ok := cfg.ByName(args[0])
			if !ok {
				return fmt.Errorf("unknown tunnel: %s", args[0])
			}
			// Interactive sessions can stay open for a long while.
			ctx, cancel := context.WithTimeout(context.Background(), 24*time.Hour)
			defer cancel()
			return sshclient.New().RunInteractive(ctx, t.Hostname)
		},
	}
}

func newEventsCmd() *cobra.Command {
	var name, eventType string
	var limit int
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Show recorded tunnel lifecycle events",
		RunE: func(cmd *cobra.Command, args []string) error {
			evts, err := events.NewStore().Read(events.Query{
				Tunnel:    name,
				EventType: eventType,
				Limit:     limit,
			})
			if err != nil {
				return err
			}
			if jsonOut {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(evts)
			}
			for _, e := range evts {
				line := fmt.Sprintf("%s %-16s %-16s", e.Timestamp.Format(time.RFC3339), e.Tunnel, e.EventType)
				if e.PID != 0 {
					line += fmt.Sprintf(" pid=%d", e.PID)
				}
				if e.Message != "" {
					line += " " + e.Message
				}
				fmt.Println(line)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "filter by tunnel name")
	cmd.Flags().StringVar(&eventType, "type", "", "filter by event type")
	cmd.Flags().IntVar(&limit, "limit", 0, "show at most the last N events")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "output JSON")
	return cmd
}

func newProfileCmd() *cobra.Command {
	root := &cobra.Command{Use: "profile", Short: "Manage named tunnel profiles"}

	list := &cobra.Command{
		Use:   "list",
		Short: "List profiles",
		RunE: func(cmd *cobra.Command, args []string) error {
			defs, err := profile.LoadAll()
			if err != nil {
				return err
			}
			fmt.Printf("%-24s %s\n", "NAME", "TUNNELS")
			for _, def := range defs {
				fmt.Printf("%-24s %s\n", def.Name, strings.Join(def.Tunnels, ", "))
			}
			return nil
		},
	}

	var tunnels []string
	create := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a profile from tunnel names",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := profile.Create(args[0], tunnels); err != nil {
				return err
			}
			fmt.Printf("created profile %s (%d tunnel(s))\n", args[0], len(tunnels))
			return nil
		},
	}
	create.Flags().StringArrayVar(&tunnels, "tunnel", nil, "tunnel name to include (repeatable)")

	del := &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := profile.Delete(args[0]); err != nil {
				return err
			}
			fmt.Printf("deleted profile %s\n", args[0])
			return nil
		},
	}

	root.AddCommand(list, create, del)
	return root
}

func newDoctorCmd(configPath *string) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Run local diagnostics",
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := doctor.Run(*configPath)
			if err != nil {
				return err
			}
			if jsonOut {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}
			if len(report.Issues) == 0 {
				fmt.Println("no issues found")
				return nil
			}
			for _, issue := range report.Issues {
				fmt.Printf("[%s] %s %s: %s (%s)\n", issue.Severity, issue.Check, issue.Target, issue.Message, issue.Recommendation)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "output JSON")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the tunnels version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version)
		},
	}
}

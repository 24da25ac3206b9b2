// Package sshclient launches SSH processes — it does NOT implement the SSH
// protocol itself. It shells out to the system's "ssh" (or "autossh") binary,
// which means tunnels automatically inherit the user's full SSH configuration
// (keys, agents, ProxyJump chains, etc.) without reimplementing any of that
// logic.
//
// There are two primary operations:
//
//   - Detached tunnel spawn: Spawn() hands a fully-built argument vector to
//     the OS and does not wait on the result. Tunnel processes are meant to
//     outlive the invoking command; correlation back to a logical tunnel
//     happens later via the process table, not via a retained handle.
//
//   - Interactive sessions: RunInteractive() allocates a PTY and connects the
//     user's terminal to a live SSH session to a tunnel's hostname.
//
// Security note: all SSH arguments are passed via exec.Command's argv (not via
// shell interpolation), which prevents injection from tunnel names or
// forwarding specs that contain shell metacharacters.
package sshclient

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/creack/pty"
)

// Client creates and launches SSH processes. It is stateless and safe for
// concurrent use — each method call creates an independent exec.Cmd.
//
// The zero value is not useful; use New() to create a Client instance.
type Client struct{}

// New creates a new SSH client.
func New() *Client { return &Client{} }

// EnsureSSHBinary checks that the "ssh" binary is available on the system
// PATH. Called early so the user gets a clear message instead of a confusing
// exec error later.
func EnsureSSHBinary() error {
	if _, err := exec.LookPath("ssh"); err != nil {
		return fmt.Errorf("ssh binary not found in PATH")
	}
	return nil
}

// SSHBinary returns the resolved path of the ssh client, falling back to the
// bare name so exec resolution can still be attempted.
func SSHBinary() string {
	if path, err := exec.LookPath("ssh"); err == nil {
		return path
	}
	return "ssh"
}

// AutosshBinary returns the resolved autossh path and whether it is
// installed.
func AutosshBinary() (string, bool) {
	path, err := exec.LookPath("autossh")
	return path, err == nil
}

// Spawn launches argv as a detached background process and returns its PID.
//
// The child's stdio is fully disconnected: stdin nil, stdout/stderr
// discarded. A goroutine reaps the immediate child so it does not linger as a
// zombie — with ssh -f the direct child exits once it has backgrounded
// itself, and the surviving tunnel process is found again only through the
// process table.
//
// The only failure surfaced is the inability to start at all (missing
// executable, permission). Anything after a successful start is the tunnel
// process's own business.
func (c *Client) Spawn(argv []string) (int, error) {
	if len(argv) == 0 {
		return 0, fmt.Errorf("empty command")
	}
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Stdin = nil
	cmd.Stdout = io.Discard
	cmd.Stderr = io.Discard
	if err := cmd.Start(); err != nil {
		return 0, err
	}
	go func() { _ = cmd.Wait() }()
	return cmd.Process.Pid, nil
}

// ConnectCommand creates an exec.Cmd for an interactive SSH session to
// hostname. The command is not started; the caller connects stdio and runs
// it.
func (c *Client) ConnectCommand(hostname string) *exec.Cmd {
	return exec.Command("ssh", hostname)
}

// RunInteractive starts an interactive SSH session to hostname in a
// pseudo-terminal and blocks until it ends.
//
// The PTY is necessary because SSH expects a terminal for password prompts,
// remote line editing, and resizing. If ctx is cancelled while the session is
// active, the SSH process is killed rather than left orphaned.
func (c *Client) RunInteractive(ctx context.Context, hostname string) error {
	cmd := c.ConnectCommand(hostname)

	f, err := pty.Start(cmd)
	if err != nil {
		return err
	}
	defer f.Close()

	// Forward user input into the PTY master. io.Copy blocks until the PTY
	// closes, so this runs in a goroutine that ends with the session.
	go func() {
		_, _ = io.Copy(f, os.Stdin)
	}()

	// Forward PTY output to the user's terminal until the process exits.
	_, _ = io.Copy(os.Stdout, f)

	if ctx.Err() != nil {
		_ = cmd.Process.Kill()
	}
	return cmd.Wait()
}

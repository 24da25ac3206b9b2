package tunnel

import (
	"github.com/treykane/tunnels/internal/model"
	"github.com/treykane/tunnels/internal/sshclient"
)

// hardeningOptions is the fixed reliability option set appended to every
// tunnel command. These are operational defaults, not user-configurable:
// keepalive probes detect dead connections, batch mode keeps the detached
// process from hanging on a prompt it can never answer.
var hardeningOptions = []string{
	"ServerAliveInterval=60",
	"ServerAliveCountMax=3",
	"TCPKeepAlive=yes",
	"ConnectTimeout=10",
	"ConnectionAttempts=3",
	"BatchMode=yes",
	"StrictHostKeyChecking=no",
	"ExitOnForwardFailure=no",
}

// BuildStartCommand constructs the full argument vector to launch t.
//
// With useAutossh and an installed autossh binary, the command is
//
//	autossh -M 0 -f -N -n [-D|-L addr] hostname -o Tag=... -o <hardening>...
//
// -M 0 disables autossh's own monitoring port; SSH keepalive (from the
// hardening set) does that job instead. Without autossh the bare ssh client
// gets the same background flags: -f (background after auth), -N (no remote
// command), -n (stdin from /dev/null).
func BuildStartCommand(t model.Tunnel, useAutossh bool) []string {
	var cmd []string
	if path, ok := sshclient.AutosshBinary(); useAutossh && ok {
		cmd = []string{path, "-M", "0", "-f", "-N", "-n"}
	} else {
		cmd = []string{sshclient.SSHBinary(), "-f", "-N", "-n"}
	}
	if flag, address := t.ForwardArg(); flag != "" {
		cmd = append(cmd, flag, address)
	}
	cmd = append(cmd, t.Hostname, "-o", "Tag="+Tag(t.Name))
	for _, opt := range hardeningOptions {
		cmd = append(cmd, "-o", opt)
	}
	return cmd
}

package procscan

import (
	"os/exec"
	"testing"
	"time"
)

func TestValidKind(t *testing.T) {
	for _, kind := range []string{"all", "inet", "inet4", "inet6", "tcp", "tcp4", "tcp6", "udp", "udp4", "udp6", "unix"} {
		if !ValidKind(kind) {
			t.Fatalf("expected %q to be valid", kind)
		}
	}
	for _, kind := range []string{"", "tcp7", "ipx", "INET4"} {
		if ValidKind(kind) {
			t.Fatalf("expected %q to be invalid", kind)
		}
	}
}

// TestSSHProcessesFiltersByName verifies that a scan only ever reports
// ssh-family executables and tolerates whatever else is in the process table.
func TestSSHProcessesFiltersByName(t *testing.T) {
	s := New()
	for _, p := range s.SSHProcesses() {
		if p.Name != "ssh" && p.Name != "autossh" {
			t.Fatalf("scan returned non-ssh process: %+v", p)
		}
		if p.PID <= 0 {
			t.Fatalf("scan returned invalid pid: %+v", p)
		}
	}
}

// TestConnectionsGoneProcess verifies that socket enumeration for a process
// that has already exited degrades to an empty result.
func TestConnectionsGoneProcess(t *testing.T) {
	cmd := exec.Command("sleep", "0.01")
	if err := cmd.Start(); err != nil {
		t.Fatal(err)
	}
	pid := int32(cmd.Process.Pid)
	_ = cmd.Wait()
	time.Sleep(20 * time.Millisecond)

	if conns := New().Connections(pid, "inet4"); len(conns) != 0 {
		t.Fatalf("expected no connections for dead pid, got %v", conns)
	}
}

func TestConnectionsDefaultKind(t *testing.T) {
	// Kind defaults to inet4; an invalid pid must still not error out.
	if conns := New().Connections(-1, ""); len(conns) != 0 {
		t.Fatalf("expected empty result, got %v", conns)
	}
}

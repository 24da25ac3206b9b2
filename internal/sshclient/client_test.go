package sshclient

import (
	"syscall"
	"testing"
	"time"
)

func TestSpawnRejectsEmptyCommand(t *testing.T) {
	_, err := New().Spawn(nil)
	if err == nil {
		t.Fatal("expected error for empty argv")
	}
}

func TestSpawnMissingExecutable(t *testing.T) {
	_, err := New().Spawn([]string{"definitely-not-a-real-binary-xyz"})
	if err == nil {
		t.Fatal("expected error for missing executable")
	}
}

func TestSpawnDetached(t *testing.T) {
	pid, err := New().Spawn([]string{"sleep", "30"})
	if err != nil {
		t.Fatal(err)
	}
	if pid <= 0 {
		t.Fatalf("expected real pid, got %d", pid)
	}
	// The spawned process must be alive and signalable; Spawn must not have
	// waited on it.
	if err := syscall.Kill(pid, syscall.Signal(0)); err != nil {
		t.Fatalf("spawned process not alive: %v", err)
	}
	_ = syscall.Kill(pid, syscall.SIGKILL)
}

func TestSpawnReapsImmediateChild(t *testing.T) {
	pid, err := New().Spawn([]string{"true"})
	if err != nil {
		t.Fatal(err)
	}
	// The reaper goroutine should collect the exit; give it a moment and
	// verify the pid is no longer signalable as a live process.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if syscall.Kill(pid, syscall.Signal(0)) != nil {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("pid %d still alive after exit", pid)
}

func TestConnectCommand(t *testing.T) {
	cmd := New().ConnectCommand("bastion.prod")
	if len(cmd.Args) != 2 || cmd.Args[1] != "bastion.prod" {
		t.Fatalf("unexpected argv: %v", cmd.Args)
	}
}

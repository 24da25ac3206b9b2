package tunnel

import (
	"testing"

	"github.com/treykane/tunnels/internal/model"
	"github.com/treykane/tunnels/internal/procscan"
)

func TestSnapshotJoinsRunningProcess(t *testing.T) {
	tn := model.Tunnel{Name: "API Gateway", Group: "prod", Hostname: "bastion",
		Local: &model.Local{Port: 8080, Host: "api.internal", HostPort: 80}}
	insp := &fakeInspector{
		procs: []procscan.Process{sshProc(314, Tag(tn.Name))},
		conns: map[int32][]string{314: {"127.0.0.1:8080", "10.0.0.5:22"}},
	}

	entries := Snapshot(insp, []model.Tunnel{tn}, "")
	if len(entries) != 1 {
		t.Fatalf("expected one entry, got %d", len(entries))
	}
	e := entries[0]
	if e.PID != "314" || e.Status != "Sleep" {
		t.Fatalf("unexpected entry: %+v", e)
	}
	if e.Connections != "127.0.0.1:8080\n10.0.0.5:22" {
		t.Fatalf("unexpected connections: %q", e.Connections)
	}
}

func TestSnapshotInactiveSentinels(t *testing.T) {
	tn := model.Tunnel{Name: "API Gateway", Hostname: "bastion",
		Dynamic: &model.Dynamic{Port: 1080}}
	entries := Snapshot(&fakeInspector{}, []model.Tunnel{tn}, "")
	e := entries[0]
	if e.PID != "-" || e.Status != "Inactive" {
		t.Fatalf("unexpected sentinels: %+v", e)
	}
	if e.Connections != "" {
		t.Fatalf("expected empty connections, got %q", e.Connections)
	}
}

func TestSnapshotScansProcessTableOnce(t *testing.T) {
	tunnels := []model.Tunnel{
		{Name: "a", Hostname: "h", Dynamic: &model.Dynamic{Port: 1}},
		{Name: "b", Hostname: "h", Dynamic: &model.Dynamic{Port: 2}},
		{Name: "c", Hostname: "h", Dynamic: &model.Dynamic{Port: 3}},
	}
	insp := &fakeInspector{}
	Snapshot(insp, tunnels, "")
	if insp.scans != 1 {
		t.Fatalf("expected a single process table scan, got %d", insp.scans)
	}
}

func TestStatusEntryRowCoversAllColumns(t *testing.T) {
	e := StatusEntry{Name: "a", Group: "g", Hostname: "h", PID: "1", Status: "Running", Connections: "x"}
	row := e.Row()
	for _, col := range StatusColumns {
		if _, ok := row[col]; !ok {
			t.Fatalf("row missing column %s", col)
		}
	}
	if len(row) != len(StatusColumns) {
		t.Fatalf("row has extra keys: %v", row)
	}
}

package doctor

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	dir := filepath.Join(xdg, "tunnels")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func hasCheck(report Report, check string) bool {
	for _, issue := range report.Issues {
		if issue.Check == check {
			return true
		}
	}
	return false
}

func TestRunFlagsTagCollision(t *testing.T) {
	writeConfig(t, strings.Join([]string{
		"tunnels:",
		"  - name: My Tunnel",
		"    hostname: bastion",
		"    dynamic: {port: 1080}",
		"  - name: my tunnel",
		"    hostname: bastion",
		"    dynamic: {port: 1081}",
		"",
	}, "\n"))

	report, err := Run("")
	if err != nil {
		t.Fatal(err)
	}
	if !hasCheck(report, "tag-collision") {
		t.Fatalf("expected tag-collision issue, got %+v", report.Issues)
	}
	if !report.HasHigh() {
		t.Error("tag collision should be high severity")
	}
}

func TestRunFlagsDuplicateLocalBind(t *testing.T) {
	writeConfig(t, strings.Join([]string{
		"tunnels:",
		"  - name: api",
		"    hostname: bastion",
		"    local: {port: 9601, host: localhost, host_port: 80}",
		"  - name: db",
		"    hostname: bastion",
		"    local: {port: 9601, host: localhost, host_port: 5432}",
		"",
	}, "\n"))

	report, err := Run("")
	if err != nil {
		t.Fatal(err)
	}
	if !hasCheck(report, "duplicate-local-bind") {
		t.Fatalf("expected duplicate-local-bind issue, got %+v", report.Issues)
	}
}

func TestRunFlagsUnparsableConfig(t *testing.T) {
	writeConfig(t, "tunnels: [whoops\n")

	report, err := Run("")
	if err != nil {
		t.Fatal(err)
	}
	if !hasCheck(report, "config-load") {
		t.Fatalf("expected config-load issue, got %+v", report.Issues)
	}
}

func TestRunFlagsBroadConfigPermissions(t *testing.T) {
	path := writeConfig(t, "tunnels: []\n")
	if err := os.Chmod(path, 0o644); err != nil {
		t.Fatal(err)
	}

	report, err := Run("")
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, issue := range report.Issues {
		if issue.Check == "file-permissions" && issue.Target == path {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected file-permissions issue for %s, got %+v", path, report.Issues)
	}
}

func TestRunCleanConfigNoConfigIssues(t *testing.T) {
	writeConfig(t, strings.Join([]string{
		"tunnels:",
		"  - name: api",
		"    hostname: bastion",
		"    local: {port: 9601, host: localhost, host_port: 80}",
		"  - name: db",
		"    hostname: bastion",
		"    local: {port: 9602, host: localhost, host_port: 5432}",
		"",
	}, "\n"))

	report, err := Run("")
	if err != nil {
		t.Fatal(err)
	}
	for _, check := range []string{"tag-collision", "duplicate-local-bind", "config-load"} {
		if hasCheck(report, check) {
			t.Errorf("unexpected %s issue: %+v", check, report.Issues)
		}
	}
}

func TestReportJSONShape(t *testing.T) {
	writeConfig(t, "tunnels: []\n")

	report, err := Run("")
	if err != nil {
		t.Fatal(err)
	}
	b, err := json.Marshal(report)
	if err != nil {
		t.Fatal(err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(b, &decoded); err != nil {
		t.Fatal(err)
	}
	if _, ok := decoded["issues"]; !ok {
		t.Fatalf("expected issues key in json output: %s", string(b))
	}
}

func TestSeverityOrdering(t *testing.T) {
	writeConfig(t, strings.Join([]string{
		"tunnels:",
		"  - name: a",
		"    hostname: bastion",
		"    dynamic: {port: 1080}",
		"  - name: A",
		"    hostname: bastion",
		"    dynamic: {port: 1080}",
		"",
	}, "\n"))

	report, err := Run("")
	if err != nil {
		t.Fatal(err)
	}
	last := 4
	for _, issue := range report.Issues {
		rank := severityRank(issue.Severity)
		if rank > last {
			t.Fatalf("issues not sorted by severity: %+v", report.Issues)
		}
		last = rank
	}
}

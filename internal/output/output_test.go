package output

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

var sampleColumns = []string{"name", "group", "hostname", "pid", "status", "connections"}

func sampleRows() []map[string]string {
	return []map[string]string{
		{
			"name":        "db",
			"group":       "prod",
			"hostname":    "bastion",
			"pid":         "4242",
			"status":      "Running",
			"connections": "127.0.0.1:5432\n10.0.0.5:22",
		},
		{
			"name":        "web",
			"group":       "prod",
			"hostname":    "bastion",
			"pid":         "-",
			"status":      "Inactive",
			"connections": "",
		},
	}
}

func TestParseFormat(t *testing.T) {
	for _, name := range Formats() {
		if _, err := ParseFormat(name); err != nil {
			t.Errorf("ParseFormat(%q) error: %v", name, err)
		}
	}
	if _, err := ParseFormat("csv"); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestEncodeJSON(t *testing.T) {
	got, err := Encode(FormatJSON, sampleColumns, nil, sampleRows())
	if err != nil {
		t.Fatal(err)
	}
	var decoded []map[string]string
	if err := json.Unmarshal([]byte(got), &decoded); err != nil {
		t.Fatalf("output is not valid json: %v", err)
	}
	if len(decoded) != 2 {
		t.Fatalf("expected 2 records, got %d", len(decoded))
	}
	if decoded[0]["name"] != "db" || decoded[1]["status"] != "Inactive" {
		t.Errorf("unexpected records: %+v", decoded)
	}
}

func TestEncodeYAML(t *testing.T) {
	got, err := Encode(FormatYAML, sampleColumns, nil, sampleRows())
	if err != nil {
		t.Fatal(err)
	}
	var decoded []map[string]string
	if err := yaml.Unmarshal([]byte(got), &decoded); err != nil {
		t.Fatalf("output is not valid yaml: %v", err)
	}
	if decoded[0]["pid"] != "4242" {
		t.Errorf("pid = %q, want 4242", decoded[0]["pid"])
	}
}

func TestEncodeTOMLWrapsRowsInTunnelKey(t *testing.T) {
	got, err := Encode(FormatTOML, sampleColumns, nil, sampleRows())
	if err != nil {
		t.Fatal(err)
	}
	var decoded map[string][]map[string]string
	if err := toml.Unmarshal([]byte(got), &decoded); err != nil {
		t.Fatalf("output is not valid toml: %v", err)
	}
	rows, ok := decoded["Tunnel"]
	if !ok {
		t.Fatalf("missing Tunnel key in %q", got)
	}
	if len(rows) != 2 || rows[1]["name"] != "web" {
		t.Errorf("unexpected rows: %+v", rows)
	}
}

func TestEncodeColumnSelection(t *testing.T) {
	got, err := Encode(FormatJSON, sampleColumns, []string{"status", "name", "nope"}, sampleRows())
	if err != nil {
		t.Fatal(err)
	}
	var decoded []map[string]string
	if err := json.Unmarshal([]byte(got), &decoded); err != nil {
		t.Fatal(err)
	}
	if len(decoded[0]) != 2 {
		t.Fatalf("expected 2 columns, got %d: %+v", len(decoded[0]), decoded[0])
	}
	if _, ok := decoded[0]["hostname"]; ok {
		t.Error("hostname should have been filtered out")
	}
	if decoded[0]["status"] != "Running" || decoded[0]["name"] != "db" {
		t.Errorf("unexpected record: %+v", decoded[0])
	}
}

func TestSelectColumnsOrderAndFallback(t *testing.T) {
	got := selectColumns(sampleColumns, []string{"pid", "name"})
	if len(got) != 2 || got[0] != "pid" || got[1] != "name" {
		t.Errorf("selectColumns preserved order wrong: %v", got)
	}
	if got := selectColumns(sampleColumns, []string{"bogus"}); len(got) != len(sampleColumns) {
		t.Errorf("all-unknown selection should fall back to canonical columns, got %v", got)
	}
}

func TestRenderTableContainsValuesAndContinuationLines(t *testing.T) {
	got, err := Encode(FormatTable, sampleColumns, nil, sampleRows())
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"Name", "Connections", "db", "4242", "127.0.0.1:5432", "10.0.0.5:22"} {
		if !strings.Contains(got, want) {
			t.Errorf("table output missing %q:\n%s", want, got)
		}
	}
	// Multi-line connection cells expand the row to two rendered lines.
	if strings.Count(got, "\n") < 3 {
		t.Errorf("expected multi-line table, got:\n%s", got)
	}
}

func TestColumnTitle(t *testing.T) {
	if got := columnTitle("host_port"); got != "Host Port" {
		t.Errorf("columnTitle(host_port) = %q", got)
	}
	if got := columnTitle("pid"); got != "Pid" {
		t.Errorf("columnTitle(pid) = %q", got)
	}
}

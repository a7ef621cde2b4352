package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestFlattenCommand_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	ledger := filepath.Join(dir, "aiInsights.json")
	csvOut := filepath.Join(dir, "out.csv")

	body := `{"CornYield_24001": [{"question":"Q1","answer":"A1"}]}`
	if err := os.WriteFile(ledger, []byte(body), 0o644); err != nil {
		t.Fatalf("write ledger: %v", err)
	}

	cfgPath := filepath.Join(dir, "chartvoice.toml")
	cfg := fmt.Sprintf("[flatten]\nledger_path = %q\noutput_path = %q\n", ledger, csvOut)
	if err := os.WriteFile(cfgPath, []byte(cfg), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	out, err := runCommand(t, "flatten", "--config", cfgPath)
	if err != nil {
		t.Fatalf("flatten: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Wrote 1 rows") {
		t.Fatalf("output=%q", out)
	}

	data, err := os.ReadFile(csvOut)
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if !strings.Contains(string(data), "24001,Allegany,CornYield,Q1,A1") {
		t.Fatalf("csv=%s", data)
	}
}

func TestFlattenCommand_MissingLedgerFails(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "chartvoice.toml")
	cfg := fmt.Sprintf("[flatten]\nledger_path = %q\n", filepath.Join(dir, "absent.json"))
	if err := os.WriteFile(cfgPath, []byte(cfg), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := runCommand(t, "flatten", "--config", cfgPath); err == nil {
		t.Fatal("missing ledger should fail the flatten command")
	}
}

func TestExtractCommand_RequiresCredential(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "chartvoice.toml")
	if err := os.WriteFile(cfgPath, []byte(""), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	_, err := runCommand(t, "extract", "--config", cfgPath)
	if err == nil {
		t.Fatal("extract without a credential should fail fast")
	}
	if !strings.Contains(err.Error(), "OPENAI_API_KEY") {
		t.Fatalf("err=%v, want credential message", err)
	}
}

func TestRootCommand_UnknownSubcommand(t *testing.T) {
	if _, err := runCommand(t, "definitely-not-a-stage"); err == nil {
		t.Fatal("unknown subcommand should error")
	}
}

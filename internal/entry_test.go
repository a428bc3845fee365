package internal

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/starford/parasync/internal/apperr"
	"github.com/starford/parasync/internal/index"
	"github.com/starford/parasync/internal/testutil"
)

func testConfig(vault string) *Config {
	cfg := NewDefaultConfig()
	cfg.Vault.Path = vault
	return cfg
}

func TestRunSync_DryRunThenLive(t *testing.T) {
	vault := t.TempDir()
	testutil.WriteNote(t, vault, "01 - Projects/plan.md", "# Plan\n")
	testutil.WriteNote(t, vault, "00 - Inbox/Ideas/idea.md", "idea\n")

	dry, err := RunSync(context.Background(), WithConfig(testConfig(vault)), WithDryRun(true), WithLogOutput(io.Discard))
	if err != nil {
		t.Fatalf("dry run: %v", err)
	}
	if !dry.DryRun || dry.Scanned != 2 || dry.Changed != 2 || dry.Moved != 1 {
		t.Fatalf("dry report = %+v", dry)
	}
	data, _ := os.ReadFile(filepath.Join(vault, "01 - Projects", "plan.md"))
	if string(data) != "# Plan\n" {
		t.Fatalf("dry run wrote to disk: %q", data)
	}

	live, err := RunSync(context.Background(), WithConfig(testConfig(vault)), WithLogOutput(io.Discard))
	if err != nil {
		t.Fatalf("live run: %v", err)
	}
	if live.Changed != dry.Changed || live.Moved != dry.Moved || live.DirsRemoved != dry.DirsRemoved {
		t.Errorf("live %+v differs from dry %+v", live, dry)
	}
	data, _ = os.ReadFile(filepath.Join(vault, "01 - Projects", "plan.md"))
	if !strings.HasPrefix(string(data), "---\ncreated: ") {
		t.Errorf("note not normalized:\n%s", data)
	}
	if _, err := os.Stat(filepath.Join(vault, "00 - Inbox", "idea.md")); err != nil {
		t.Errorf("inbox note not relocated: %v", err)
	}
	if _, err := os.Stat(filepath.Join(vault, "00 - Inbox", "Ideas")); !os.IsNotExist(err) {
		t.Errorf("emptied folder should be removed, stat err = %v", err)
	}
}

func TestRunSync_RecordsLedger(t *testing.T) {
	vault := t.TempDir()
	testutil.WriteNote(t, vault, "02 - Areas/run.md", "#fitness\n")
	cfg := testConfig(vault)
	cfg.Ledger.Path = filepath.Join(t.TempDir(), "ledger.db")

	report, err := RunSync(context.Background(), WithConfig(cfg), WithLogOutput(io.Discard))
	if err != nil {
		t.Fatal(err)
	}

	db, err := index.Open(cfg.Ledger.Path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	run, err := db.GetRun(report.RunID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if run.Changed != 1 {
		t.Errorf("recorded changed = %d, want 1", run.Changed)
	}
}

func TestRunSync_InvalidRoot(t *testing.T) {
	_, err := RunSync(context.Background(),
		WithConfig(testConfig(filepath.Join(t.TempDir(), "missing"))),
		WithLogOutput(io.Discard))
	if !errors.Is(err, apperr.ErrInvalidRoot) {
		t.Fatalf("err = %v, want ErrInvalidRoot", err)
	}
}

func TestRunSync_RequiresConfig(t *testing.T) {
	if _, err := RunSync(context.Background()); err == nil {
		t.Fatal("expected error without config")
	}
}

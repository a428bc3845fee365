package mcpserver

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/parasync/internal/models"
	"github.com/starford/parasync/internal/noteservice"
	"github.com/starford/parasync/internal/reconcile"
	"github.com/starford/parasync/internal/testutil"
	"github.com/starford/parasync/internal/vaultsync"
)

func testServer(t *testing.T) (*Server, string) {
	t.Helper()
	vaultDir, store := testutil.TestVault(t)
	db := testutil.TestDB(t)

	engine := reconcile.New()
	syncer := vaultsync.New(store, engine, testutil.Logger(), vaultsync.WithLedger(db))
	svc := noteservice.NewService(store, engine, syncer, db, vaultsync.Options{})
	return New(svc, "test"), vaultDir
}

func callTool(t *testing.T, srv *Server, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go has no direct "call tool" test helper, so the handlers are
	// called directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "preview_note":
		result, err = srv.previewNote(ctx, req)
	case "sync_vault":
		result, err = srv.syncVault(ctx, req)
	case "list_notes":
		result, err = srv.listNotes(ctx, req)
	case "get_frontmatter_contract":
		result, err = srv.getFrontmatterContract(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestPreviewNote(t *testing.T) {
	srv, vaultDir := testServer(t)

	r := callTool(t, srv, "preview_note", map[string]any{
		"path":    "01 - Projects/Site/todo.md",
		"content": "Ship it #p1",
	})
	if r.IsError {
		t.Fatalf("preview error: %s", resultText(r))
	}
	var p noteservice.Preview
	if err := json.Unmarshal([]byte(resultText(r)), &p); err != nil {
		t.Fatal(err)
	}
	if p.NewPath != "01 - Projects/todo.md" || p.Meta.Priority != "1" || p.Meta.Category != "site" {
		t.Errorf("preview = %+v", p)
	}
	if _, err := os.Stat(filepath.Join(vaultDir, "01 - Projects")); !os.IsNotExist(err) {
		t.Error("preview touched the vault")
	}
}

func TestPreviewNoteMissing(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "preview_note", map[string]any{"path": "nope.md"})
	if !r.IsError {
		t.Error("expected error for missing note")
	}
}

func TestSyncVaultAndListNotes(t *testing.T) {
	srv, vaultDir := testServer(t)
	testutil.WriteNote(t, vaultDir, "02 - Areas/Health/run.md", "5k #sport")

	r := callTool(t, srv, "sync_vault", map[string]any{"dry_run": true})
	var report models.Report
	if err := json.Unmarshal([]byte(resultText(r)), &report); err != nil {
		t.Fatal(err)
	}
	if !report.DryRun || report.Moved != 1 {
		t.Errorf("dry report = %+v", report)
	}

	r = callTool(t, srv, "list_notes", map[string]any{})
	if resultText(r) != "no notes found" {
		t.Errorf("dry run indexed notes: %s", resultText(r))
	}

	r = callTool(t, srv, "sync_vault", map[string]any{})
	if r.IsError {
		t.Fatalf("sync error: %s", resultText(r))
	}

	r = callTool(t, srv, "list_notes", map[string]any{"tag": "sport"})
	text := resultText(r)
	if !strings.Contains(text, `"path": "02 - Areas/run.md"`) || !strings.Contains(text, `"category": "health"`) {
		t.Errorf("list = %s", text)
	}
}

func TestGetFrontmatterContract(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "get_frontmatter_contract", nil)
	if !strings.Contains(resultText(r), "created, para, category, subcategory, priority, tags, archived") {
		t.Error("contract missing key order")
	}
}

package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	resume "github.com/goliatone/go-resume"
	"github.com/goliatone/go-resume/pkg/state"
)

func setupFileStore(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("RESUME_STORE_DRIVER", "file")
	t.Setenv("RESUME_DATA_DIR", filepath.Join(dir, "data"))
	t.Setenv("RESUME_LOG_LEVEL", "error")
	t.Setenv("RESUME_STORAGE_KEY", "cli-test")
	return filepath.Join(dir, "data")
}

func loadStored(t *testing.T, dir string) resume.HistoryState {
	t.Helper()
	store := state.NewFileStore[resume.HistoryState](dir)
	snapshot, _, ok, err := store.Load(context.Background(), "cli-test")
	if err != nil || !ok {
		t.Fatalf("expected stored history, ok=%t err=%v", ok, err)
	}
	return snapshot
}

func TestRunPersistsEditsAcrossInvocations(t *testing.T) {
	dir := setupFileStore(t)
	ctx := context.Background()

	if code := run(ctx, []string{"set-name", "Ada", "Lovelace"}); code != 0 {
		t.Fatalf("set-name exit code %d", code)
	}
	if code := run(ctx, []string{"color", "accent", "#ff0000"}); code != 0 {
		t.Fatalf("color exit code %d", code)
	}

	stored := loadStored(t, dir)
	if stored.Present.Content.Name != "Ada Lovelace" {
		t.Fatalf("expected name persisted, got %q", stored.Present.Content.Name)
	}
	if stored.Present.Colors[resume.ColorAccent] != "#ff0000" {
		t.Fatalf("expected accent persisted, got %q", stored.Present.Colors[resume.ColorAccent])
	}
	if len(stored.Past) != 2 || !stored.CanUndo {
		t.Fatalf("expected two undo entries, got %d", len(stored.Past))
	}

	if code := run(ctx, []string{"undo"}); code != 0 {
		t.Fatalf("undo exit code %d", code)
	}
	stored = loadStored(t, dir)
	if stored.Present.Colors[resume.ColorAccent] != resume.DefaultColors()[resume.ColorAccent] {
		t.Fatalf("expected accent restored by undo, got %q", stored.Present.Colors[resume.ColorAccent])
	}
	if len(stored.Future) != 1 {
		t.Fatalf("expected one redo entry, got %d", len(stored.Future))
	}

	if code := run(ctx, []string{"clear-history"}); code != 0 {
		t.Fatalf("clear-history exit code %d", code)
	}
	stored = loadStored(t, dir)
	if len(stored.Past) != 0 || len(stored.Future) != 0 || stored.CanUndo || stored.CanRedo {
		t.Fatalf("expected history cleared, got past=%d future=%d", len(stored.Past), len(stored.Future))
	}
	if stored.Present.Content.Name != "Ada Lovelace" {
		t.Fatalf("expected document kept, got %q", stored.Present.Content.Name)
	}
}

func TestRunUsageErrors(t *testing.T) {
	setupFileStore(t)
	ctx := context.Background()

	if code := run(ctx, nil); code != 2 {
		t.Fatalf("expected exit 2 without a command, got %d", code)
	}
	if code := run(ctx, []string{"frobnicate"}); code != 2 {
		t.Fatalf("expected exit 2 for unknown command, got %d", code)
	}
	if code := run(ctx, []string{"layout", "three-column"}); code != 2 {
		t.Fatalf("expected exit 2 for invalid layout, got %d", code)
	}
	if code := run(ctx, []string{"preset", "Foolscap"}); code != 1 {
		t.Fatalf("expected exit 1 for unknown preset, got %d", code)
	}
}

func TestRunCheckAndExport(t *testing.T) {
	setupFileStore(t)
	ctx := context.Background()

	if code := run(ctx, []string{"check"}); code != 1 {
		t.Fatalf("expected empty document to fail preflight, got %d", code)
	}

	out := filepath.Join(t.TempDir(), "resume.pdf")
	if code := run(ctx, []string{"export-pdf", "--strict", out}); code != 1 {
		t.Fatalf("expected strict export to refuse, got %d", code)
	}
	if code := run(ctx, []string{"export-pdf", out}); code != 0 {
		t.Fatalf("export-pdf exit code %d", code)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read pdf: %v", err)
	}
	if len(data) < 4 || string(data[:4]) != "%PDF" {
		t.Fatalf("expected a PDF header, got %q", data[:min(len(data), 8)])
	}
}

func TestWatchAppliesCommandsFromInput(t *testing.T) {
	setupFileStore(t)
	t.Setenv("RESUME_PREVIEW_DELAY_MS", "10")

	sess, err := openSession(context.Background(), sessionOptions{})
	if err != nil {
		t.Fatalf("open session: %v", err)
	}
	defer sess.Close()

	var out bytes.Buffer
	sess.out = &out
	sess.in = strings.NewReader("set-name Ada Lovelace\n# comment\nbogus\nlayout one-column\nquit\nset-name ignored\n")

	path := filepath.Join(t.TempDir(), "preview.pdf")
	if err := cmdWatch(sess, []string{path}); err != nil {
		t.Fatalf("watch: %v", err)
	}

	present := sess.history.Present()
	if present.Content.Name != "Ada Lovelace" || present.Layout != resume.LayoutOneColumn {
		t.Fatalf("unexpected present after watch: %q %q", present.Content.Name, present.Layout)
	}
	if !strings.Contains(out.String(), `unknown command "bogus"`) {
		t.Fatalf("expected unknown command reported, got %q", out.String())
	}
	if data, err := os.ReadFile(path); err != nil || !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Fatalf("expected final render written, err=%v", err)
	}
}

package hook

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func readHook(t *testing.T, gitDir string) string {
	t.Helper()
	data, err := os.ReadFile(Path(gitDir))
	if err != nil {
		t.Fatalf("read hook: %v", err)
	}
	return string(data)
}

func TestInstall(t *testing.T) {
	gitDir := t.TempDir()

	if err := Install(gitDir, false); err != nil {
		t.Fatalf("Install: %v", err)
	}

	content := readHook(t, gitDir)
	if !strings.HasPrefix(content, "#!/bin/sh\n") {
		t.Errorf("hook missing shebang:\n%s", content)
	}
	if !strings.Contains(content, Marker) {
		t.Errorf("hook missing marker:\n%s", content)
	}
	if !strings.Contains(content, "exec preflight review") {
		t.Errorf("hook missing review invocation:\n%s", content)
	}

	info, err := os.Stat(Path(gitDir))
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0755 {
		t.Errorf("hook mode = %o, want 0755", perm)
	}
}

func TestInstall_Reinstall(t *testing.T) {
	gitDir := t.TempDir()

	if err := Install(gitDir, false); err != nil {
		t.Fatalf("Install: %v", err)
	}
	if err := Install(gitDir, false); err != nil {
		t.Errorf("reinstalling over our own hook should succeed: %v", err)
	}
}

func TestInstall_RefusesForeignHook(t *testing.T) {
	gitDir := t.TempDir()
	writeForeignHook(t, gitDir, "#!/bin/sh\nmake lint\n")

	err := Install(gitDir, false)
	if !errors.Is(err, ErrForeignHook) {
		t.Fatalf("Install = %v, want ErrForeignHook", err)
	}
	if got := readHook(t, gitDir); got != "#!/bin/sh\nmake lint\n" {
		t.Errorf("foreign hook should be untouched, got:\n%s", got)
	}
}

func TestInstall_ForceBacksUpForeignHook(t *testing.T) {
	gitDir := t.TempDir()
	writeForeignHook(t, gitDir, "#!/bin/sh\nmake lint\n")

	if err := Install(gitDir, true); err != nil {
		t.Fatalf("Install --force: %v", err)
	}
	if !strings.Contains(readHook(t, gitDir), Marker) {
		t.Error("forced install should write the preflight hook")
	}

	backup, err := os.ReadFile(Path(gitDir) + ".bak")
	if err != nil {
		t.Fatalf("read backup: %v", err)
	}
	if string(backup) != "#!/bin/sh\nmake lint\n" {
		t.Errorf("backup = %q, want the original hook", backup)
	}
}

func TestUninstall(t *testing.T) {
	gitDir := t.TempDir()

	if err := Install(gitDir, false); err != nil {
		t.Fatalf("Install: %v", err)
	}
	if err := Uninstall(gitDir); err != nil {
		t.Fatalf("Uninstall: %v", err)
	}
	if _, err := os.Stat(Path(gitDir)); !os.IsNotExist(err) {
		t.Error("hook should be removed")
	}
}

func TestUninstall_RestoresBackup(t *testing.T) {
	gitDir := t.TempDir()
	writeForeignHook(t, gitDir, "#!/bin/sh\nmake lint\n")

	if err := Install(gitDir, true); err != nil {
		t.Fatalf("Install --force: %v", err)
	}
	if err := Uninstall(gitDir); err != nil {
		t.Fatalf("Uninstall: %v", err)
	}

	if got := readHook(t, gitDir); got != "#!/bin/sh\nmake lint\n" {
		t.Errorf("original hook should be restored, got:\n%s", got)
	}
	if _, err := os.Stat(Path(gitDir) + ".bak"); !os.IsNotExist(err) {
		t.Error("backup file should be consumed by the restore")
	}
}

func TestUninstall_Missing(t *testing.T) {
	if err := Uninstall(t.TempDir()); err != nil {
		t.Errorf("uninstalling an absent hook should be a no-op, got %v", err)
	}
}

func TestUninstall_RefusesForeignHook(t *testing.T) {
	gitDir := t.TempDir()
	writeForeignHook(t, gitDir, "#!/bin/sh\nmake lint\n")

	if err := Uninstall(gitDir); !errors.Is(err, ErrForeignHook) {
		t.Fatalf("Uninstall = %v, want ErrForeignHook", err)
	}
	if got := readHook(t, gitDir); got != "#!/bin/sh\nmake lint\n" {
		t.Errorf("foreign hook should be untouched, got:\n%s", got)
	}
}

func TestCheck(t *testing.T) {
	gitDir := t.TempDir()

	state, err := Check(gitDir)
	if err != nil || state != StateAbsent {
		t.Errorf("Check = %v, %v, want absent", state, err)
	}

	if err := Install(gitDir, false); err != nil {
		t.Fatalf("Install: %v", err)
	}
	state, err = Check(gitDir)
	if err != nil || state != StateInstalled {
		t.Errorf("Check = %v, %v, want installed", state, err)
	}

	writeForeignHook(t, gitDir, "#!/bin/sh\nmake lint\n")
	state, err = Check(gitDir)
	if err != nil || state != StateForeign {
		t.Errorf("Check = %v, %v, want foreign", state, err)
	}
}

func writeForeignHook(t *testing.T, gitDir, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Join(gitDir, "hooks"), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(Path(gitDir), []byte(content), 0755); err != nil {
		t.Fatalf("write hook: %v", err)
	}
}

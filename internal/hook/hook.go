// Package hook manages the git pre-commit hook that runs preflight
// before every commit.
package hook

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Marker identifies hooks written by preflight. Install refuses to
// touch a hook that lacks it unless forced, and Uninstall only removes
// hooks that carry it.
const Marker = "# generated by preflight"

const hookScript = `#!/bin/sh
` + Marker + `
# Remove with: preflight hook uninstall
if ! command -v preflight >/dev/null 2>&1; then
  echo "preflight: not found on PATH, skipping review" >&2
  exit 0
fi
exec preflight review
`

// ErrForeignHook reports that a pre-commit hook not managed by
// preflight is already installed.
var ErrForeignHook = errors.New("a pre-commit hook not managed by preflight already exists")

// State describes what occupies the pre-commit hook slot.
type State string

const (
	StateAbsent    State = "absent"
	StateInstalled State = "installed"
	StateForeign   State = "foreign"
)

// Path returns the pre-commit hook path inside gitDir.
func Path(gitDir string) string {
	return filepath.Join(gitDir, "hooks", "pre-commit")
}

func backupPath(gitDir string) string {
	return Path(gitDir) + ".bak"
}

// Install writes the preflight pre-commit hook. Reinstalling over a
// preflight-managed hook is always allowed; replacing a foreign hook
// requires force, and the foreign hook is saved to pre-commit.bak.
func Install(gitDir string, force bool) error {
	hookPath := Path(gitDir)
	if err := os.MkdirAll(filepath.Dir(hookPath), 0755); err != nil {
		return fmt.Errorf("creating hooks directory: %w", err)
	}

	existing, err := os.ReadFile(hookPath)
	switch {
	case err == nil && !strings.Contains(string(existing), Marker):
		if !force {
			return ErrForeignHook
		}
		if err := os.WriteFile(backupPath(gitDir), existing, 0755); err != nil {
			return fmt.Errorf("backing up existing hook: %w", err)
		}
	case err != nil && !os.IsNotExist(err):
		return fmt.Errorf("reading existing hook: %w", err)
	}

	if err := os.WriteFile(hookPath, []byte(hookScript), 0755); err != nil {
		return fmt.Errorf("writing hook: %w", err)
	}
	return nil
}

// Uninstall removes a preflight-managed hook. If a backup of a
// previously replaced hook exists it is restored. Removing a hook that
// preflight did not install is refused.
func Uninstall(gitDir string) error {
	hookPath := Path(gitDir)

	existing, err := os.ReadFile(hookPath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading hook: %w", err)
	}
	if !strings.Contains(string(existing), Marker) {
		return ErrForeignHook
	}

	if err := os.Remove(hookPath); err != nil {
		return fmt.Errorf("removing hook: %w", err)
	}

	if _, err := os.Stat(backupPath(gitDir)); err == nil {
		if err := os.Rename(backupPath(gitDir), hookPath); err != nil {
			return fmt.Errorf("restoring previous hook: %w", err)
		}
	}
	return nil
}

// Check reports what currently occupies the pre-commit hook slot.
func Check(gitDir string) (State, error) {
	existing, err := os.ReadFile(Path(gitDir))
	if os.IsNotExist(err) {
		return StateAbsent, nil
	}
	if err != nil {
		return StateAbsent, fmt.Errorf("reading hook: %w", err)
	}
	if strings.Contains(string(existing), Marker) {
		return StateInstalled, nil
	}
	return StateForeign, nil
}

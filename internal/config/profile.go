package config

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// ProfileFileName is the optional repo-level profile checked in next to
// the code.
const ProfileFileName = ".preflight.toml"

// Profile narrows a run without touching the main config: paths to
// skip, a gate override, and builtin rules to disable.
type Profile struct {
	Ignore []string     `toml:"ignore"`
	Gate   ProfileGate  `toml:"gate"`
	Rules  ProfileRules `toml:"rules"`
}

// ProfileGate overrides the configured failOn threshold.
type ProfileGate struct {
	FailOn string `toml:"failOn"`
}

// ProfileRules disables builtin or custom rules by name.
type ProfileRules struct {
	Disable []string `toml:"disable"`
}

// LoadProfile parses .preflight.toml under repoRoot. A missing file is
// an empty profile.
func LoadProfile(repoRoot string) (*Profile, error) {
	data, err := os.ReadFile(filepath.Join(repoRoot, ProfileFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return &Profile{}, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", ProfileFileName, err)
	}

	var profile Profile
	if err := toml.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", ProfileFileName, err)
	}
	if profile.Gate.FailOn != "" {
		switch profile.Gate.FailOn {
		case "critical", "warning", "info", "off":
		default:
			return nil, &ConfigError{Field: "gate.failOn", Message: "must be one of critical, warning, info, off"}
		}
	}
	return &profile, nil
}

// Ignored reports whether file matches any ignore entry. Entries are
// glob patterns matched against the slashed path and its base name;
// an entry ending in / matches everything under that directory.
func (p *Profile) Ignored(file string) bool {
	slashed := strings.ReplaceAll(file, "\\", "/")
	base := path.Base(slashed)
	for _, pattern := range p.Ignore {
		if strings.HasSuffix(pattern, "/") {
			if strings.HasPrefix(slashed, pattern) || strings.Contains(slashed, "/"+pattern) {
				return true
			}
			continue
		}
		if ok, err := path.Match(pattern, slashed); err == nil && ok {
			return true
		}
		if ok, err := path.Match(pattern, base); err == nil && ok {
			return true
		}
	}
	return false
}

// FilterIgnored keeps only the paths the profile does not ignore,
// preserving order.
func (p *Profile) FilterIgnored(files []string) []string {
	if len(p.Ignore) == 0 {
		return files
	}
	var kept []string
	for _, file := range files {
		if !p.Ignored(file) {
			kept = append(kept, file)
		}
	}
	return kept
}

// ApplyTo folds profile overrides into a loaded config.
func (p *Profile) ApplyTo(cfg *Config) {
	if p.Gate.FailOn != "" {
		cfg.Review.Gate.FailOn = p.Gate.FailOn
	}
}

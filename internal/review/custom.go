package review

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// customRule is the YAML shape of one user-defined heuristic rule.
type customRule struct {
	Name     string `yaml:"name"`
	Pattern  string `yaml:"pattern"`
	Unless   string `yaml:"unless,omitempty"`
	Severity string `yaml:"severity,omitempty"`
	Problem  string `yaml:"problem"`
	Fix      string `yaml:"fix,omitempty"`
}

// LoadRulesFile reads extra heuristic rules from a YAML list. A missing
// file is not an error, the builtin bank simply runs alone. Compile
// failures and duplicate names are reported with the offending rule's
// name so the file can be corrected.
func LoadRulesFile(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading rules file %s: %w", path, err)
	}

	var entries []customRule
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parsing rules file %s: %w", path, err)
	}

	seen := make(map[string]struct{}, len(entries))
	rules := make([]Rule, 0, len(entries))
	for i, entry := range entries {
		if entry.Name == "" {
			return nil, fmt.Errorf("rules file %s: entry %d has no name", path, i+1)
		}
		if _, dup := seen[entry.Name]; dup {
			return nil, fmt.Errorf("rules file %s: duplicate rule %q", path, entry.Name)
		}
		if GetRuleByName(entry.Name) != nil {
			return nil, fmt.Errorf("rules file %s: rule %q shadows a builtin rule", path, entry.Name)
		}
		seen[entry.Name] = struct{}{}

		if entry.Pattern == "" {
			return nil, fmt.Errorf("rules file %s: rule %q has no pattern", path, entry.Name)
		}
		match, err := regexp.Compile(entry.Pattern)
		if err != nil {
			return nil, fmt.Errorf("rules file %s: rule %q: invalid pattern: %w", path, entry.Name, err)
		}
		var unless *regexp.Regexp
		if entry.Unless != "" {
			unless, err = regexp.Compile(entry.Unless)
			if err != nil {
				return nil, fmt.Errorf("rules file %s: rule %q: invalid unless pattern: %w", path, entry.Name, err)
			}
		}
		if entry.Problem == "" {
			return nil, fmt.Errorf("rules file %s: rule %q has no problem text", path, entry.Name)
		}

		rules = append(rules, Rule{
			Name:     entry.Name,
			Match:    match,
			Unless:   unless,
			Severity: NormalizeSeverity(entry.Severity),
			Problem:  entry.Problem,
			Fix:      entry.Fix,
		})
	}
	return rules, nil
}

// MergeRules appends custom rules after the builtin bank and drops any
// rule whose name appears in disabled. Order is preserved so scans stay
// deterministic.
func MergeRules(custom []Rule, disabled []string) []Rule {
	off := make(map[string]struct{}, len(disabled))
	for _, name := range disabled {
		off[name] = struct{}{}
	}

	merged := make([]Rule, 0, len(BuiltinRules)+len(custom))
	for _, r := range BuiltinRules {
		if _, skip := off[r.Name]; skip {
			continue
		}
		merged = append(merged, r)
	}
	for _, r := range custom {
		if _, skip := off[r.Name]; skip {
			continue
		}
		merged = append(merged, r)
	}
	return merged
}

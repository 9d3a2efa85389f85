package review

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeRulesFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rules.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadRulesFile(t *testing.T) {
	path := writeRulesFile(t, `
- name: no_alert
  pattern: \balert\s*\(
  severity: critical
  problem: alert() left in code
  fix: Remove the alert call
- name: plain_http
  pattern: http://
  unless: localhost
  problem: Insecure http URL
`)

	rules, err := LoadRulesFile(path)
	if err != nil {
		t.Fatalf("LoadRulesFile: %v", err)
	}
	if len(rules) != 2 {
		t.Fatalf("rules = %d, want 2", len(rules))
	}

	if rules[0].Name != "no_alert" || rules[0].Severity != SeverityCritical {
		t.Errorf("rules[0] = %+v", rules[0])
	}
	if !rules[0].Matches(`alert("hi");`) {
		t.Error("no_alert should match an alert call")
	}

	// Unset severity defaults to warning; unless suppresses.
	if rules[1].Severity != SeverityWarning {
		t.Errorf("rules[1].Severity = %q, want warning", rules[1].Severity)
	}
	if !rules[1].Matches(`fetch("http://example.com")`) {
		t.Error("plain_http should match a remote http URL")
	}
	if rules[1].Matches(`fetch("http://localhost:8080")`) {
		t.Error("plain_http should be suppressed for localhost")
	}
}

func TestLoadRulesFileMissing(t *testing.T) {
	rules, err := LoadRulesFile(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("missing file should not error, got %v", err)
	}
	if rules != nil {
		t.Errorf("rules = %v, want nil", rules)
	}
}

func TestLoadRulesFileInvalidPattern(t *testing.T) {
	path := writeRulesFile(t, `
- name: broken
  pattern: "(unclosed"
  problem: whatever
`)

	_, err := LoadRulesFile(path)
	if err == nil {
		t.Fatal("expected error for invalid pattern")
	}
	if !strings.Contains(err.Error(), "broken") {
		t.Errorf("error %q should name the rule", err)
	}
}

func TestLoadRulesFileDuplicateName(t *testing.T) {
	path := writeRulesFile(t, `
- name: twice
  pattern: a
  problem: first
- name: twice
  pattern: b
  problem: second
`)

	if _, err := LoadRulesFile(path); err == nil || !strings.Contains(err.Error(), "twice") {
		t.Errorf("expected duplicate-name error, got %v", err)
	}
}

func TestLoadRulesFileShadowsBuiltin(t *testing.T) {
	path := writeRulesFile(t, `
- name: eval_call
  pattern: x
  problem: shadow
`)

	if _, err := LoadRulesFile(path); err == nil || !strings.Contains(err.Error(), "eval_call") {
		t.Errorf("expected builtin-shadow error, got %v", err)
	}
}

func TestLoadRulesFileRequiresFields(t *testing.T) {
	for name, content := range map[string]string{
		"missing name":    "- pattern: x\n  problem: p\n",
		"missing pattern": "- name: r\n  problem: p\n",
		"missing problem": "- name: r\n  pattern: x\n",
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := LoadRulesFile(writeRulesFile(t, content)); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestMergeRules(t *testing.T) {
	custom, err := LoadRulesFile(writeRulesFile(t, `
- name: no_alert
  pattern: \balert\s*\(
  problem: alert() left in code
`))
	if err != nil {
		t.Fatal(err)
	}

	merged := MergeRules(custom, []string{"img_missing_alt"})

	if len(merged) != len(BuiltinRules) {
		// One builtin disabled, one custom appended.
		t.Errorf("merged = %d rules, want %d", len(merged), len(BuiltinRules))
	}
	for _, r := range merged {
		if r.Name == "img_missing_alt" {
			t.Error("disabled rule survived the merge")
		}
	}
	if merged[len(merged)-1].Name != "no_alert" {
		t.Errorf("custom rule should come last, got %q", merged[len(merged)-1].Name)
	}
}

func TestMergedRulesDriveScanner(t *testing.T) {
	custom, err := LoadRulesFile(writeRulesFile(t, `
- name: no_alert
  pattern: \balert\s*\(
  severity: info
  problem: alert() left in code
`))
	if err != nil {
		t.Fatal(err)
	}

	diff := `--- a/u.js
+++ b/u.js
@@ -1,1 +1,2 @@
+alert("hi");
+eval(x);
`
	issues := NewDiffScanner(MergeRules(custom, nil), nil).Scan(diff)

	if len(issues) != 2 {
		t.Fatalf("issues = %d, want builtin eval plus custom alert", len(issues))
	}
	var problems []string
	for _, issue := range issues {
		problems = append(problems, issue.Problem)
	}
	joined := strings.Join(problems, "|")
	if !strings.Contains(joined, "eval") || !strings.Contains(joined, "alert") {
		t.Errorf("problems = %v", problems)
	}
}

package review

import (
	"reflect"
	"regexp"
	"testing"
)

func TestScanLineAccounting(t *testing.T) {
	diff := `diff --git a/src/app.js b/src/app.js
--- a/src/app.js
+++ b/src/app.js
@@ -1,3 +10,3 @@
+eval(one);
+eval(two);
+eval(three);
`
	issues := NewDiffScanner(nil, nil).Scan(diff)

	if len(issues) != 3 {
		t.Fatalf("issues = %d, want 3", len(issues))
	}
	for i, wantLine := range []int{10, 11, 12} {
		if issues[i].Line != wantLine {
			t.Errorf("issues[%d].Line = %d, want %d", i, issues[i].Line, wantLine)
		}
		if issues[i].File != "src/app.js" {
			t.Errorf("issues[%d].File = %q, want src/app.js", i, issues[i].File)
		}
	}
}

func TestScanJSONParseAccess(t *testing.T) {
	diff := `--- a/src/a.ts
+++ b/src/a.ts
@@ -0,0 +1,1 @@
+const id = JSON.parse(resp).user.id;
`
	issues := NewDiffScanner(nil, nil).Scan(diff)

	if len(issues) != 1 {
		t.Fatalf("issues = %d, want exactly 1: %+v", len(issues), issues)
	}
	got := issues[0]
	if got.File != "src/a.ts" {
		t.Errorf("File = %q, want src/a.ts", got.File)
	}
	if got.Severity != SeverityCritical {
		t.Errorf("Severity = %q, want critical", got.Severity)
	}
	if got.Line != 1 {
		t.Errorf("Line = %d, want 1", got.Line)
	}
}

func TestScanContextLinesAdvanceCounter(t *testing.T) {
	diff := `--- a/f.js
+++ b/f.js
@@ -5,3 +5,4 @@
 const keep = 1;
+eval(x);
 const alsoKeep = 2;
`
	issues := NewDiffScanner(nil, nil).Scan(diff)

	if len(issues) != 1 {
		t.Fatalf("issues = %d, want 1", len(issues))
	}
	if issues[0].Line != 6 {
		t.Errorf("Line = %d, want 6 (context line occupies 5)", issues[0].Line)
	}
}

func TestScanRemovedLinesDoNotAdvanceCounter(t *testing.T) {
	diff := `--- a/f.js
+++ b/f.js
@@ -3,2 +3,2 @@
-const old = eval(gone);
+eval(x);
`
	issues := NewDiffScanner(nil, nil).Scan(diff)

	if len(issues) != 1 {
		t.Fatalf("issues = %d, want 1 (removed line must not be scanned)", len(issues))
	}
	if issues[0].Line != 3 {
		t.Errorf("Line = %d, want 3", issues[0].Line)
	}
}

func TestScanFileHeaderResets(t *testing.T) {
	diff := `--- a/one.js
+++ b/one.js
@@ -1,1 +1,1 @@
+eval(a);
--- a/two.js
+++ b/two.js
@@ -1,1 +7,1 @@
+eval(b);
`
	issues := NewDiffScanner(nil, nil).Scan(diff)

	if len(issues) != 2 {
		t.Fatalf("issues = %d, want 2", len(issues))
	}
	if issues[0].File != "one.js" || issues[0].Line != 1 {
		t.Errorf("first issue = %s:%d, want one.js:1", issues[0].File, issues[0].Line)
	}
	if issues[1].File != "two.js" || issues[1].Line != 7 {
		t.Errorf("second issue = %s:%d, want two.js:7", issues[1].File, issues[1].Line)
	}
}

func TestScanDeterminism(t *testing.T) {
	diff := `--- a/m.js
+++ b/m.js
@@ -1,2 +1,3 @@
+const token = "abc123";
+el.innerHTML = userInput;
+p.then(done);
`
	s := NewDiffScanner(nil, nil)
	first := s.Scan(diff)
	second := s.Scan(diff)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeated scans differ:\n%+v\nvs\n%+v", first, second)
	}
	if len(first) != 3 {
		t.Errorf("issues = %d, want 3", len(first))
	}
}

func TestScanCleanDiff(t *testing.T) {
	diff := `--- a/ok.js
+++ b/ok.js
@@ -1,1 +1,2 @@
 const a = compute();
+const b = transform(a);
`
	issues := NewDiffScanner(nil, nil).Scan(diff)
	if len(issues) != 0 {
		t.Errorf("issues = %d, want 0: %+v", len(issues), issues)
	}
}

func TestScanSnippetCarriesAddedText(t *testing.T) {
	diff := `--- a/s.js
+++ b/s.js
@@ -1,1 +1,1 @@
+eval(payload);
`
	issues := NewDiffScanner(nil, nil).Scan(diff)
	if len(issues) != 1 {
		t.Fatalf("issues = %d, want 1", len(issues))
	}
	if issues[0].Snippet != "eval(payload);" {
		t.Errorf("Snippet = %q, want the added line without its + prefix", issues[0].Snippet)
	}
}

func TestScanCustomRuleSet(t *testing.T) {
	rules := []Rule{
		{
			Name:     "no_alert",
			Match:    regexp.MustCompile(`\balert\s*\(`),
			Severity: SeverityInfo,
			Problem:  "alert() left in code",
		},
	}
	diff := `--- a/u.js
+++ b/u.js
@@ -1,1 +1,2 @@
+alert("hi");
+eval(x);
`
	issues := NewDiffScanner(rules, nil).Scan(diff)

	if len(issues) != 1 {
		t.Fatalf("issues = %d, want 1 (builtin bank replaced)", len(issues))
	}
	if issues[0].Problem != "alert() left in code" {
		t.Errorf("Problem = %q", issues[0].Problem)
	}
	if issues[0].Severity != SeverityInfo {
		t.Errorf("Severity = %q, want info", issues[0].Severity)
	}
}

func TestBuiltinRuleMatrix(t *testing.T) {
	testCases := []struct {
		name string
		rule string
		line string
		want bool
	}{
		{"json parse with property access", "json_parse_unvalidated", `const id = JSON.parse(resp).user.id;`, true},
		{"json parse with index access", "json_parse_unvalidated", `const v = JSON.parse(s)[0];`, true},
		{"json parse nested call", "json_parse_unvalidated", `JSON.parse(localStorage.getItem("k")).value`, true},
		{"json parse without access", "json_parse_unvalidated", `const data = JSON.parse(resp);`, false},

		{"then without catch", "then_without_catch", `fetchUser().then(render);`, true},
		{"then with catch", "then_without_catch", `fetchUser().then(render).catch(report);`, false},

		{"eval call", "eval_call", `eval(code);`, true},
		{"eval with space", "eval_call", `eval (code);`, true},
		{"evaluate is not eval", "eval_call", `evaluate(expr);`, false},
		{"medieval is not eval", "eval_call", `const medieval = true;`, false},

		{"password literal", "hardcoded_secret", `const password = "hunter2";`, true},
		{"api key literal", "hardcoded_secret", `apiKey: "sk-123456"`, true},
		{"token from env", "hardcoded_secret", `const token = process.env.TOKEN;`, false},

		{"raw innerHTML", "unsanitized_innerhtml", `el.innerHTML = userInput;`, true},
		{"sanitized innerHTML", "unsanitized_innerhtml", `el.innerHTML = DOMPurify.sanitize(userInput);`, false},
		{"sanitize helper", "unsanitized_innerhtml", `el.innerHTML = sanitizeHtml(raw);`, false},

		{"empty img src", "img_empty_src", `<img src="" />`, true},
		{"real img src", "img_empty_src", `<img src="logo.png" alt="Logo" />`, false},

		{"empty anchor href", "anchor_empty_href", `<a href="">click</a>`, true},
		{"real anchor href", "anchor_empty_href", `<a href="/home">home</a>`, false},

		{"event listener", "add_event_listener", `btn.addEventListener("click", onClick);`, true},
		{"remove listener alone", "add_event_listener", `btn.removeEventListener("click", onClick);`, false},

		{"interval", "set_interval", `setInterval(poll, 1000);`, true},
		{"clear interval alone", "set_interval", `clearInterval(id);`, false},

		{"img without alt", "img_missing_alt", `<img src="logo.png">`, true},
		{"img with alt", "img_missing_alt", `<img src="logo.png" alt="Logo">`, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rule := GetRuleByName(tc.rule)
			if rule == nil {
				t.Fatalf("no builtin rule named %q", tc.rule)
			}
			if got := rule.Matches(tc.line); got != tc.want {
				t.Errorf("rule %s on %q = %v, want %v", tc.rule, tc.line, got, tc.want)
			}
		})
	}
}

func TestBuiltinRuleSeverities(t *testing.T) {
	wantCritical := []string{
		"json_parse_unvalidated", "then_without_catch", "eval_call",
		"hardcoded_secret", "unsanitized_innerhtml", "img_empty_src", "anchor_empty_href",
	}
	wantWarning := []string{"add_event_listener", "set_interval", "img_missing_alt"}

	for _, name := range wantCritical {
		r := GetRuleByName(name)
		if r == nil {
			t.Fatalf("missing rule %q", name)
		}
		if r.Severity != SeverityCritical {
			t.Errorf("%s severity = %q, want critical", name, r.Severity)
		}
	}
	for _, name := range wantWarning {
		r := GetRuleByName(name)
		if r == nil {
			t.Fatalf("missing rule %q", name)
		}
		if r.Severity != SeverityWarning {
			t.Errorf("%s severity = %q, want warning", name, r.Severity)
		}
	}
	if len(BuiltinRules) != len(wantCritical)+len(wantWarning) {
		t.Errorf("builtin bank has %d rules, want %d", len(BuiltinRules), len(wantCritical)+len(wantWarning))
	}
}

// filename: internal/llm/extract_test.go
package llm

import (
	"strings"
	"testing"
)

func TestExtractRulePlain(t *testing.T) {
	rule := `alert http any any -> any any (msg:"test"; sid:9000001; rev:1;)`

	if got := ExtractRule(rule); got != rule {
		t.Errorf("Expected rule unchanged, got %q", got)
	}
}

func TestExtractRuleMarkdownFence(t *testing.T) {
	content := "Here is the rule:\n```suricata\nalert http any any -> any any (msg:\"t\"; sid:9000001; rev:1;)\n```\nLet me know if it works."

	got := ExtractRule(content)
	if !strings.HasPrefix(got, "alert http") {
		t.Errorf("Expected extracted rule, got %q", got)
	}
	if !strings.HasSuffix(got, ";)") {
		t.Errorf("Expected rule to end with options, got %q", got)
	}
	if strings.Contains(got, "```") || strings.Contains(got, "Let me know") {
		t.Errorf("Extracted rule contains noise: %q", got)
	}
}

func TestExtractRuleMultiline(t *testing.T) {
	content := "alert http any any -> any any (msg:\"t\";\n  content:\"abc\";\n  sid:9000001; rev:1;)"

	got := ExtractRule(content)
	if strings.Contains(got, "\n") {
		t.Errorf("Expected single line rule, got %q", got)
	}
	if !strings.Contains(got, "content:\"abc\";") {
		t.Errorf("Expected rule body retained, got %q", got)
	}
}

func TestExtractRuleNoRule(t *testing.T) {
	if got := ExtractRule("I cannot generate a rule for that."); got != "" {
		t.Errorf("Expected empty string, got %q", got)
	}
	if got := ExtractRule(""); got != "" {
		t.Errorf("Expected empty string for empty input, got %q", got)
	}
}

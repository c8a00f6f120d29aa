package autoresponder

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"
)

func TestMatchFirstRuleWins(t *testing.T) {
	// Both patterns match; the earlier declaration must win.
	rules := &Rules{
		Text: []Rule{
			{Pattern: regexp.MustCompile(`訂單`), Response: "first"},
			{Pattern: regexp.MustCompile(`訂單編號`), Response: "second"},
		},
	}
	if got := rules.Match("訂單編號12345"); got != "first" {
		t.Errorf("Match = %q, want first-declared rule", got)
	}
}

func TestMatchFallback(t *testing.T) {
	if got := Default().Match("完全無關的句子"); got != FallbackResponse {
		t.Errorf("Match = %q, want fallback", got)
	}
}

func TestDefaultQuickReplies(t *testing.T) {
	rules := Default()
	want := []string{"配送問題", "運送時間", "聯絡方式"}
	got := rules.QuickReplyLabels()
	if len(got) != len(want) {
		t.Fatalf("got %d labels, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("label[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	if _, ok := rules.QuickReply("不存在"); ok {
		t.Error("lookup of unknown label succeeded")
	}
}

func TestLoadPreservesDeclarationOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.toml")
	content := `
[[rule]]
pattern = "a"
response = "ra"

[[rule]]
pattern = "b"
response = "rb"

[[quick_reply]]
label = "q1"
response = "rq1"

[[quick_reply]]
label = "q2"
response = "rq2"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	rules, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(rules.Text) != 2 || rules.Text[0].Response != "ra" || rules.Text[1].Response != "rb" {
		t.Errorf("text rules out of order: %+v", rules.Text)
	}
	if labels := rules.QuickReplyLabels(); len(labels) != 2 || labels[0] != "q1" {
		t.Errorf("quick replies out of order: %v", labels)
	}
}

func TestLoadRejectsBadPattern(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.toml")
	if err := os.WriteFile(path, []byte("[[rule]]\npattern = \"(\"\nresponse = \"x\"\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for invalid regexp")
	}
}

func TestSagaTransitions(t *testing.T) {
	s := NewReplySaga()
	if s.State() != SagaAwaitingUserAck {
		t.Fatalf("initial state = %s", s.State())
	}
	if err := s.advance(SagaDone); err == nil {
		t.Error("AWAITING_USER_ACK -> DONE must be invalid")
	}
	if err := s.advance(SagaAwaitingReplyAck); err != nil {
		t.Fatal(err)
	}
	if err := s.advance(SagaDone); err != nil {
		t.Fatal(err)
	}
	if err := s.advance(SagaFailed); err == nil {
		t.Error("DONE is terminal")
	}
}

package autoresponder

import (
	"fmt"
	"regexp"

	"github.com/BurntSushi/toml"
)

// FallbackResponse is sent when no free-text rule matches.
const FallbackResponse = "抱歉，我不太明白您的問題！"

// Rule pairs a free-text pattern with its canned response.
type Rule struct {
	Pattern  *regexp.Regexp
	Response string
}

// QuickReply pairs an exact menu label with its canned response.
type QuickReply struct {
	Label    string
	Response string
}

// Rules holds both rule sets. Declaration order is the only tie-break for
// free-text matching, so both sets are ordered sequences, never maps.
type Rules struct {
	Text         []Rule
	QuickReplies []QuickReply
}

// Match evaluates the free-text rules in declaration order and returns the
// first matching response, or FallbackResponse when none match.
func (r *Rules) Match(text string) string {
	for _, rule := range r.Text {
		if rule.Pattern.MatchString(text) {
			return rule.Response
		}
	}
	return FallbackResponse
}

// QuickReply looks up a menu label by exact match.
func (r *Rules) QuickReply(label string) (string, bool) {
	for _, q := range r.QuickReplies {
		if q.Label == label {
			return q.Response, true
		}
	}
	return "", false
}

// QuickReplyLabels returns the menu labels in declaration order.
func (r *Rules) QuickReplyLabels() []string {
	labels := make([]string, len(r.QuickReplies))
	for i, q := range r.QuickReplies {
		labels[i] = q.Label
	}
	return labels
}

// Default returns the built-in rule tables shipped with the widget.
func Default() *Rules {
	return &Rules{
		Text: []Rule{
			{Pattern: regexp.MustCompile(`訂單編號[\s\S]*`), Response: "訂單編號是20240823153700"},
			{Pattern: regexp.MustCompile(`營業時間[\s\S]*`), Response: "我們的營業時間為每天9:00-18:00"},
			{Pattern: regexp.MustCompile(`聯絡方式[\s\S]*`), Response: "您好！可以透過客服電話或電子郵件聯絡我們喔～"},
		},
		QuickReplies: []QuickReply{
			{Label: "配送問題", Response: "若商品尚未出貨，可以在訂單頁面修改配送資訊；已出貨的訂單請聯絡客服協助喔～"},
			{Label: "運送時間", Response: "一般商品約 2-3 個工作天送達，偏遠地區約 5-7 個工作天。"},
			{Label: "聯絡方式", Response: "您好！可以透過客服電話或電子郵件聯絡我們喔～"},
		},
	}
}

// ruleFile is the TOML shape of a rule table. Arrays of tables keep the
// author's declaration order.
type ruleFile struct {
	Rules []struct {
		Pattern  string `toml:"pattern"`
		Response string `toml:"response"`
	} `toml:"rule"`
	QuickReplies []struct {
		Label    string `toml:"label"`
		Response string `toml:"response"`
	} `toml:"quick_reply"`
}

// Load reads a rule table from a TOML file.
func Load(path string) (*Rules, error) {
	var file ruleFile
	if _, err := toml.DecodeFile(path, &file); err != nil {
		return nil, fmt.Errorf("decode rules: %w", err)
	}

	rules := &Rules{}
	for _, entry := range file.Rules {
		pattern, err := regexp.Compile(entry.Pattern)
		if err != nil {
			return nil, fmt.Errorf("rule pattern %q: %w", entry.Pattern, err)
		}
		rules.Text = append(rules.Text, Rule{Pattern: pattern, Response: entry.Response})
	}
	for _, entry := range file.QuickReplies {
		rules.QuickReplies = append(rules.QuickReplies, QuickReply{Label: entry.Label, Response: entry.Response})
	}
	return rules, nil
}

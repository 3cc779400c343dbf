package intent

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tdcarpool/carpool/backend/internal/model/role"
)

//go:embed rules.yaml
var defaultRulesYAML []byte

// DefaultRestricted is rendered for a role a conditional template has no branch for.
const DefaultRestricted = "This feature isn't available for your account. Please contact your platform administrator if you need access."

// ErrInvalidTable reports a rule file that cannot be used.
var ErrInvalidTable = errors.New("invalid rule table")

// Template renders a rule's reply for the asking role.
type Template struct {
	Reply      string
	ByRole     map[role.Role]string
	Restricted string
}

// RoleConditional reports whether the reply depends on the caller's role.
func (t Template) RoleConditional() bool { return len(t.ByRole) > 0 }

// Render returns the reply for r. Conditional templates without a branch for
// r fall back to the restricted text.
func (t Template) Render(r role.Role) string {
	if !t.RoleConditional() {
		return t.Reply
	}
	if reply, ok := t.ByRole[r]; ok {
		return reply
	}
	if t.Restricted != "" {
		return t.Restricted
	}
	return DefaultRestricted
}

// Rule maps trigger keywords to a reply template.
type Rule struct {
	Name     string
	Keywords []string
	Template Template
}

// matches expects lowered input.
func (r Rule) matches(lowered string) bool {
	for _, kw := range r.Keywords {
		if strings.Contains(lowered, kw) {
			return true
		}
	}
	return false
}

// Table is an ordered, immutable rule list together with the assistant's
// fixed texts.
type Table struct {
	rules       []Rule
	welcome     string
	fallback    string
	suggestions []string
}

type tableFile struct {
	Welcome     string     `yaml:"welcome"`
	Fallback    string     `yaml:"fallback"`
	Suggestions []string   `yaml:"suggestions"`
	Rules       []ruleFile `yaml:"rules"`
}

type ruleFile struct {
	Name       string            `yaml:"name"`
	Keywords   []string          `yaml:"keywords"`
	Reply      string            `yaml:"reply"`
	Replies    map[string]string `yaml:"replies"`
	Restricted string            `yaml:"restricted"`
}

// Default returns the table shipped with the binary.
func Default() *Table {
	t, err := Parse(defaultRulesYAML)
	if err != nil {
		panic(fmt.Sprintf("load embedded rules.yaml: %v", err))
	}
	return t
}

// LoadFile reads a rule table from a YAML file.
func LoadFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rule table %s: %w", path, err)
	}
	t, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse rule table %s: %w", path, err)
	}
	return t, nil
}

// Parse decodes and validates a YAML rule table.
func Parse(data []byte) (*Table, error) {
	var doc tableFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTable, err)
	}

	if strings.TrimSpace(doc.Welcome) == "" {
		return nil, fmt.Errorf("%w: welcome text is required", ErrInvalidTable)
	}
	if strings.TrimSpace(doc.Fallback) == "" {
		return nil, fmt.Errorf("%w: fallback text is required", ErrInvalidTable)
	}
	if len(doc.Rules) == 0 {
		return nil, fmt.Errorf("%w: at least one rule is required", ErrInvalidTable)
	}

	seen := make(map[string]struct{}, len(doc.Rules))
	rules := make([]Rule, 0, len(doc.Rules))
	for i, rf := range doc.Rules {
		rule, err := buildRule(rf)
		if err != nil {
			return nil, fmt.Errorf("%w: rule #%d: %v", ErrInvalidTable, i+1, err)
		}
		if _, dup := seen[rule.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate rule name %q", ErrInvalidTable, rule.Name)
		}
		seen[rule.Name] = struct{}{}
		rules = append(rules, rule)
	}

	suggestions := make([]string, 0, len(doc.Suggestions))
	for _, s := range doc.Suggestions {
		if s = strings.TrimSpace(s); s != "" {
			suggestions = append(suggestions, s)
		}
	}

	return &Table{
		rules:       rules,
		welcome:     doc.Welcome,
		fallback:    doc.Fallback,
		suggestions: suggestions,
	}, nil
}

func buildRule(rf ruleFile) (Rule, error) {
	name := strings.TrimSpace(rf.Name)
	if name == "" {
		return Rule{}, errors.New("name is required")
	}

	keywords := make([]string, 0, len(rf.Keywords))
	for _, kw := range rf.Keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			return Rule{}, fmt.Errorf("%s: empty keyword", name)
		}
		keywords = append(keywords, kw)
	}
	if len(keywords) == 0 {
		return Rule{}, fmt.Errorf("%s: at least one keyword is required", name)
	}

	hasReply := strings.TrimSpace(rf.Reply) != ""
	hasReplies := len(rf.Replies) > 0
	switch {
	case hasReply && hasReplies:
		return Rule{}, fmt.Errorf("%s: reply and replies are mutually exclusive", name)
	case !hasReply && !hasReplies:
		return Rule{}, fmt.Errorf("%s: reply or replies is required", name)
	}

	tmpl := Template{Reply: rf.Reply, Restricted: rf.Restricted}
	if hasReplies {
		tmpl.ByRole = make(map[role.Role]string, len(rf.Replies))
		for raw, text := range rf.Replies {
			r, ok := role.Lookup(raw)
			if !ok {
				return Rule{}, fmt.Errorf("%s: unknown role %q", name, raw)
			}
			tmpl.ByRole[r] = text
		}
	}

	return Rule{Name: name, Keywords: keywords, Template: tmpl}, nil
}

// Match returns the first rule, in table order, with a keyword contained in
// the lowercased text.
func (t *Table) Match(text string) (Rule, bool) {
	lowered := strings.ToLower(text)
	for _, rule := range t.rules {
		if rule.matches(lowered) {
			return rule, true
		}
	}
	return Rule{}, false
}

// Rules returns a copy of the rules in priority order.
func (t *Table) Rules() []Rule {
	out := make([]Rule, len(t.rules))
	for i, r := range t.rules {
		out[i] = r
		out[i].Keywords = append([]string(nil), r.Keywords...)
		if r.Template.ByRole != nil {
			byRole := make(map[role.Role]string, len(r.Template.ByRole))
			for k, v := range r.Template.ByRole {
				byRole[k] = v
			}
			out[i].Template.ByRole = byRole
		}
	}
	return out
}

// Welcome is the greeting injected the first time a widget opens.
func (t *Table) Welcome() string { return t.welcome }

// Fallback is the reply used when no rule matches.
func (t *Table) Fallback() string { return t.fallback }

// Suggestions are the quick-action prompts offered under the input box.
func (t *Table) Suggestions() []string {
	return append([]string(nil), t.suggestions...)
}

package rules

import (
	"fmt"
	"strings"

	"github.com/whisper/replybot/internal/chat"
)

// Rule pairs a trigger with the replies it may produce.
type Rule struct {
	Name      string
	Trigger   Trigger
	Responses []string
}

// ConfigError reports a malformed rule table. It is fatal at startup.
type ConfigError struct {
	Rule   string // rule name, or its index when unnamed
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("rules: invalid rule %s: %s", e.Rule, e.Reason)
}

// Table is an ordered, read-only sequence of rules. The zero value is an
// empty table.
type Table struct {
	rules []Rule
}

// NewTable validates rules and freezes them into a Table. Every rule needs a
// usable trigger, a unique name and at least one valid response.
func NewTable(rules ...Rule) (*Table, error) {
	seen := make(map[string]bool, len(rules))
	frozen := make([]Rule, 0, len(rules))

	for i, r := range rules {
		id := r.Name
		if id == "" {
			id = fmt.Sprintf("#%d", i)
		}
		if r.Name == "" {
			return nil, &ConfigError{Rule: id, Reason: "name is empty"}
		}
		if seen[r.Name] {
			return nil, &ConfigError{Rule: id, Reason: "duplicate name"}
		}
		seen[r.Name] = true

		if err := r.Trigger.valid(); err != nil {
			return nil, &ConfigError{Rule: id, Reason: err.Error()}
		}
		if len(r.Responses) == 0 {
			return nil, &ConfigError{Rule: id, Reason: "no responses"}
		}
		for j, resp := range r.Responses {
			if err := chat.ValidateReply(resp); err != nil {
				return nil, &ConfigError{Rule: id, Reason: fmt.Sprintf("response %d: %v", j, err)}
			}
		}

		r.Responses = append([]string(nil), r.Responses...)
		frozen = append(frozen, r)
	}

	return &Table{rules: frozen}, nil
}

// Len returns the number of rules.
func (t *Table) Len() int {
	return len(t.rules)
}

// Rules returns a copy of the rules in table order.
func (t *Table) Rules() []Rule {
	out := make([]Rule, len(t.rules))
	copy(out, t.rules)
	return out
}

// Match returns every rule whose trigger fires on text, in table order. Rules
// are not mutually exclusive: one message can match several.
func (t *Table) Match(text string) []Rule {
	if text == "" {
		return nil
	}
	lowered := strings.ToLower(text)

	var matched []Rule
	for _, r := range t.rules {
		if r.Trigger.Matches(lowered) {
			matched = append(matched, r)
		}
	}
	return matched
}

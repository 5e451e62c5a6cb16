package rules

import (
	"fmt"
	"regexp"
	"strings"
)

// TriggerKind tags which variant a Trigger holds.
type TriggerKind int

const (
	TriggerLiteral TriggerKind = iota + 1
	TriggerPattern
)

func (k TriggerKind) String() string {
	switch k {
	case TriggerLiteral:
		return "literal"
	case TriggerPattern:
		return "pattern"
	default:
		return "unknown"
	}
}

// Trigger is the condition tested against lowercased message text. It holds
// either a literal token, matched as an unanchored substring, or a compiled
// regular expression. Literal matching is deliberately unanchored: "hi" also
// fires on "history".
type Trigger struct {
	kind    TriggerKind
	literal string
	pattern *regexp.Regexp
}

// Literal returns a substring trigger. The token is lowercased so that it
// compares against lowercased text.
func Literal(text string) Trigger {
	return Trigger{kind: TriggerLiteral, literal: strings.ToLower(text)}
}

// Pattern compiles expr into a regex trigger.
func Pattern(expr string) (Trigger, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return Trigger{}, fmt.Errorf("rules: compile pattern %q: %w", expr, err)
	}
	return Trigger{kind: TriggerPattern, pattern: re}, nil
}

// MustPattern is like Pattern but panics on an invalid expression. It is
// meant for the built-in table only.
func MustPattern(expr string) Trigger {
	t, err := Pattern(expr)
	if err != nil {
		panic(err)
	}
	return t
}

// Kind reports the trigger variant.
func (t Trigger) Kind() TriggerKind {
	return t.kind
}

// String renders the trigger source, regexes between slashes.
func (t Trigger) String() string {
	switch t.kind {
	case TriggerLiteral:
		return t.literal
	case TriggerPattern:
		return "/" + t.pattern.String() + "/"
	default:
		return ""
	}
}

// Matches tests the trigger against already lowercased text.
func (t Trigger) Matches(lowered string) bool {
	switch t.kind {
	case TriggerLiteral:
		return strings.Contains(lowered, t.literal)
	case TriggerPattern:
		return t.pattern.MatchString(lowered)
	default:
		return false
	}
}

func (t Trigger) valid() error {
	switch t.kind {
	case TriggerLiteral:
		if strings.TrimSpace(t.literal) == "" {
			return fmt.Errorf("literal trigger is empty")
		}
	case TriggerPattern:
		if t.pattern == nil || t.pattern.String() == "" {
			return fmt.Errorf("pattern trigger is empty")
		}
	default:
		return fmt.Errorf("trigger has no kind")
	}
	return nil
}

package rules

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// File is the on-disk form of a rule table:
//
//	rules:
//	  - name: fruit
//	    literal: fruit
//	    responses: [Apple, Orange]
//	  - name: bye
//	    pattern: '\bbye\b'
//	    responses: ["Bye! dude"]
type File struct {
	Rules []FileRule `yaml:"rules"`
}

// FileRule is one entry of a rule file. Exactly one of Literal and Pattern
// must be set.
type FileRule struct {
	Name      string   `yaml:"name"`
	Literal   string   `yaml:"literal,omitempty"`
	Pattern   string   `yaml:"pattern,omitempty"`
	Responses []string `yaml:"responses"`
}

// LoadFile reads and validates a YAML rule file.
func LoadFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("rules: read %s: %w", path, err)
	}
	t, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// Parse decodes a YAML rule document. Unknown fields are rejected.
func Parse(data []byte) (*Table, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &ConfigError{Rule: "-", Reason: "rule file is empty"}
		}
		return nil, &ConfigError{Rule: "-", Reason: fmt.Sprintf("decode: %v", err)}
	}
	if len(f.Rules) == 0 {
		return nil, &ConfigError{Rule: "-", Reason: "rule file has no rules"}
	}

	rs := make([]Rule, 0, len(f.Rules))
	for i, fr := range f.Rules {
		id := fr.Name
		if id == "" {
			id = fmt.Sprintf("#%d", i)
		}

		var trig Trigger
		switch {
		case fr.Literal != "" && fr.Pattern != "":
			return nil, &ConfigError{Rule: id, Reason: "both literal and pattern set"}
		case fr.Literal != "":
			trig = Literal(fr.Literal)
		case fr.Pattern != "":
			p, err := Pattern(fr.Pattern)
			if err != nil {
				return nil, &ConfigError{Rule: id, Reason: err.Error()}
			}
			trig = p
		default:
			return nil, &ConfigError{Rule: id, Reason: "no literal or pattern trigger"}
		}

		rs = append(rs, Rule{Name: fr.Name, Trigger: trig, Responses: fr.Responses})
	}

	return NewTable(rs...)
}

// Encode renders a table in rule file form.
func Encode(w io.Writer, t *Table) error {
	f := File{Rules: make([]FileRule, 0, t.Len())}
	for _, r := range t.rules {
		fr := FileRule{Name: r.Name, Responses: r.Responses}
		switch r.Trigger.Kind() {
		case TriggerLiteral:
			fr.Literal = r.Trigger.literal
		case TriggerPattern:
			fr.Pattern = r.Trigger.pattern.String()
		}
		f.Rules = append(f.Rules, fr)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(f); err != nil {
		return fmt.Errorf("rules: encode: %w", err)
	}
	return enc.Close()
}

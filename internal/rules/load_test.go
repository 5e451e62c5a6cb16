package rules

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleRules = `
rules:
  - name: fruit
    literal: Fruit
    responses: [Apple, Orange]
  - name: bye
    pattern: '\bbye\b'
    responses: ["Bye! dude"]
`

func TestParse(t *testing.T) {
	table, err := Parse([]byte(sampleRules))
	require.NoError(t, err)
	require.Equal(t, 2, table.Len())

	rs := table.Rules()
	assert.Equal(t, TriggerLiteral, rs[0].Trigger.Kind())
	assert.Equal(t, "fruit", rs[0].Trigger.String())
	assert.Equal(t, TriggerPattern, rs[1].Trigger.Kind())

	assert.Equal(t, []string{"bye"}, names(table.Match("say bye")))
	assert.Empty(t, table.Match("goodbyer"))
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"empty document", ""},
		{"no rules", "rules: []"},
		{"empty responses", "rules:\n  - name: a\n    literal: a\n    responses: []\n"},
		{"missing responses", "rules:\n  - name: a\n    literal: a\n"},
		{"both triggers", "rules:\n  - name: a\n    literal: a\n    pattern: a\n    responses: [x]\n"},
		{"no trigger", "rules:\n  - name: a\n    responses: [x]\n"},
		{"bad pattern", "rules:\n  - name: a\n    pattern: '(oops'\n    responses: [x]\n"},
		{"unknown field", "rules:\n  - name: a\n    literal: a\n    reply: x\n"},
		{"not yaml", "::::"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			require.Error(t, err)

			var cfgErr *ConfigError
			assert.True(t, errors.As(err, &cfgErr), "want ConfigError, got %T: %v", err, err)
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleRules), 0o600))

	table, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, table.Len())

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestEncode_BuiltinRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, BuildRules()))

	table, err := Parse(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, names(BuildRules().Rules()), names(table.Rules()))
	assert.Equal(t, []string{"bye"}, names(table.Match("please say bye now")))
}

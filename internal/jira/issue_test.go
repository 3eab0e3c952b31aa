package jira

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescriptionText(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		want   string
		wantOK bool
	}{
		{"absent", "", "", false},
		{"null", "null", "", false},
		{"plain string", `"legacy text"`, "", false},
		{"first fragment only", `{"type":"doc","content":[
			{"type":"paragraph","content":[{"type":"text","text":"first"},{"type":"text","text":"second"}]},
			{"type":"paragraph","content":[{"type":"text","text":"third"}]}]}`, "first", true},
		{"empty document", `{"type":"doc","content":[]}`, "", false},
		{"empty first block", `{"type":"doc","content":[{"type":"paragraph","content":[]}]}`, "", false},
		{"first leaf without text", `{"type":"doc","content":[{"type":"paragraph","content":[{"type":"hardBreak"}]}]}`, "", false},
		{"unexpected shape", `{"type":"doc","content":"oops"}`, "", false},
		{"number", `42`, "", false},
		{"malformed sibling block", `{"type":"doc","content":[
			{"type":"paragraph","content":[{"type":"text","text":"first"}]},
			{"type":"mediaSingle","content":"oops"}]}`, "first", true},
		{"malformed sibling leaf", `{"type":"doc","content":[
			{"type":"paragraph","content":[{"type":"text","text":"first"},{"type":"mention","attrs":7,"content":{}}]}]}`, "first", true},
		{"non-string text", `{"type":"doc","content":[{"type":"paragraph","content":[{"type":"text","text":5}]}]}`, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := DescriptionText(json.RawMessage(tt.raw))
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantOK, ok)
		})
	}
}

func TestNormalizeAcceptanceCriteria(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{"absent", "", []string{}},
		{"null", "null", []string{}},
		{"single string", `"Must log in"`, []string{"Must log in"}},
		{"empty string", `""`, []string{""}},
		{"list", `["a","b"]`, []string{"a", "b"}},
		{"empty list", `[]`, []string{}},
		{"list with non-string", `["a", 2]`, []string{}},
		{"object", `{"value":"x"}`, []string{}},
		{"number", `7`, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeAcceptanceCriteria(json.RawMessage(tt.raw))
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFields_Unmarshal(t *testing.T) {
	var issue Issue
	require.NoError(t, json.Unmarshal([]byte(`{"key":"PROJ-2","fields":{"summary":7,"customfield_1":"ac"}}`), &issue))

	assert.Equal(t, "", issue.Fields.Summary)
	assert.Nil(t, issue.Fields.Description)
	assert.Equal(t, json.RawMessage(`"ac"`), issue.Fields.Field("customfield_1"))

	var empty Fields
	assert.Nil(t, empty.Field("summary"))
}

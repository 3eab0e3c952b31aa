package jira

import (
	"encoding/json"
)

// Issue represents a Jira issue from the REST API. Only the fields this tool
// reads are decoded eagerly; everything else stays addressable through Field.
type Issue struct {
	ID     string `json:"id"`
	Key    string `json:"key"`
	Fields Fields `json:"fields"`
}

// Fields holds the "fields" object of an issue
type Fields struct {
	Summary     string
	Description json.RawMessage // ADF (Atlassian Document Format) or plain text

	raw map[string]json.RawMessage
}

// UnmarshalJSON keeps every field so custom fields can be looked up by id
func (f *Fields) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	f.raw = raw
	f.Description = raw["description"]
	f.Summary = ""
	if summary, ok := raw["summary"]; ok {
		// A non-string summary is treated as empty rather than failing the issue.
		var s string
		if json.Unmarshal(summary, &s) == nil {
			f.Summary = s
		}
	}
	return nil
}

// Field returns the raw value of a field (e.g. "customfield_10034"), or nil when absent
func (f Fields) Field(name string) json.RawMessage {
	if f.raw == nil {
		return nil
	}
	return f.raw[name]
}

// DescriptionText returns the first text fragment of an ADF description: the
// text of the first child of the first block (content[0].content[0].text).
// The boolean is false and the text "" when the description is absent, null,
// not an object, or not shaped that way. Only nodes on that path are decoded.
func DescriptionText(raw json.RawMessage) (string, bool) {
	node := raw
	for depth := 0; depth < 2; depth++ {
		var ok bool
		if node, ok = firstChild(node); !ok {
			return "", false
		}
	}

	var leaf map[string]json.RawMessage
	if err := json.Unmarshal(node, &leaf); err != nil {
		return "", false
	}
	var text string
	if err := json.Unmarshal(leaf["text"], &text); err != nil {
		return "", false
	}
	return text, true
}

// firstChild returns content[0] of an ADF node, leaving the other children undecoded
func firstChild(raw json.RawMessage) (json.RawMessage, bool) {
	var node map[string]json.RawMessage
	if err := json.Unmarshal(raw, &node); err != nil || node == nil {
		return nil, false
	}
	var content []json.RawMessage
	if err := json.Unmarshal(node["content"], &content); err != nil || len(content) == 0 {
		return nil, false
	}
	return content[0], true
}

// NormalizeAcceptanceCriteria coerces an acceptance-criteria field value to a
// list: absent or null gives an empty list, a string gives a one-element list,
// a list of strings is returned unchanged. Any other shape, including a list
// holding a non-string, gives an empty list. The result is never nil.
func NormalizeAcceptanceCriteria(raw json.RawMessage) []string {
	if len(raw) == 0 || string(raw) == "null" {
		return []string{}
	}

	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		return []string{single}
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return []string{}
	}

	criteria := make([]string, 0, len(items))
	for _, item := range items {
		var s string
		if err := json.Unmarshal(item, &s); err != nil {
			return []string{}
		}
		criteria = append(criteria, s)
	}
	return criteria
}

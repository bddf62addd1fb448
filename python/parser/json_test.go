package parser

import (
	"encoding/json"
	"testing"
)

func TestNodeMarshalJSON(t *testing.T) {
	call := parseExpression(t, "f(*a, k=1)")

	data, err := json.Marshal(call)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var got JSONNode
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if got.Kind != "Call" || got.Role != "value" {
		t.Errorf("got kind %q role %q, want Call value", got.Kind, got.Role)
	}
	if got.Span == nil || got.Span.Start.Column != 1 || got.Span.End.Column != 11 {
		t.Errorf("got span %+v, want 1:1-1:11", got.Span)
	}
	if len(got.Children) != 3 {
		t.Fatalf("got %d children, want 3", len(got.Children))
	}
	if fn := got.Children[0]; fn.Kind != "Name" || fn.Role != "function" || fn.Name != "f" {
		t.Errorf("function: got %+v", fn)
	}
	star := got.Children[1]
	if star.Role != "argument" || len(star.Flags) != 1 || star.Flags[0] != "star" {
		t.Errorf("star argument: got %+v", star)
	}
	keyword := got.Children[2]
	if keyword.Name != "k" || len(keyword.Children) != 1 || keyword.Children[0].Value != "1" {
		t.Errorf("keyword argument: got %+v", keyword)
	}
}

func TestNodeMarshalJSON_Error(t *testing.T) {
	ast, _ := parseModule(t, "x = (\n")
	data, err := json.Marshal(ast.Root)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var got JSONNode
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	found := false
	var walk func(n *JSONNode)
	walk = func(n *JSONNode) {
		if n.Error != nil {
			found = true
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(&got)
	if !found {
		t.Errorf("no error node in %s", data)
	}
}

func TestNodeFlagsString(t *testing.T) {
	tests := []struct {
		flags NodeFlags
		want  string
	}{
		{0, ""},
		{FlagStar, "star"},
		{FlagAsync | FlagCoroutine, "async|coroutine"},
		{FlagKeywordOnly | FlagTrailingComma, "keyword_only|trailing_comma"},
	}
	for _, tt := range tests {
		if got := tt.flags.String(); got != tt.want {
			t.Errorf("got %q, want %q", got, tt.want)
		}
	}
}

package ai

import "testing"

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
		ok   bool
	}{
		{
			name: "bare object",
			in:   `{"summary":"done"}`,
			want: `{"summary":"done"}`,
			ok:   true,
		},
		{
			name: "prose wrapped",
			in:   "Sure! Here is the result:\n{\"a\":1}\nHope that helps.",
			want: `{"a":1}`,
			ok:   true,
		},
		{
			name: "markdown fenced",
			in:   "```json\n{\"a\":1}\n```",
			want: `{"a":1}`,
			ok:   true,
		},
		{
			name: "braces inside string values",
			in:   `{"text":"use {curly} braces","n":2}`,
			want: `{"text":"use {curly} braces","n":2}`,
			ok:   true,
		},
		{
			name: "escaped quote inside string",
			in:   `{"text":"she said \"hi {\" then left"}`,
			want: `{"text":"she said \"hi {\" then left"}`,
			ok:   true,
		},
		{
			name: "nested objects",
			in:   `before {"a":{"b":{"c":3}}} after {"d":4}`,
			want: `{"a":{"b":{"c":3}}}`,
			ok:   true,
		},
		{
			name: "unterminated object",
			in:   `{"a":1`,
			ok:   false,
		},
		{
			name: "no object at all",
			in:   "I cannot answer that question.",
			ok:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractJSONObject(tt.in)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractJSONArray(t *testing.T) {
	got, ok := ExtractJSONArray("reply:\n```\n[{\"tag\":\"design\"},{\"tag\":\"web\"}]\n```")
	if !ok {
		t.Fatal("expected an array to be found")
	}
	if got != `[{"tag":"design"},{"tag":"web"}]` {
		t.Fatalf("unexpected array: %q", got)
	}

	if _, ok := ExtractJSONArray("no brackets here"); ok {
		t.Fatal("expected no array")
	}
}

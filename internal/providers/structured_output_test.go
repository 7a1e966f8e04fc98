package providers

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
)

func TestParseStructuredJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"bare object", `{"a":1}`, `{"a":1}`, false},
		{"surrounding whitespace", "  {\"a\":1}\n", `{"a":1}`, false},
		{"code fence", "```json\n{\"a\":1}\n```", `{"a":1}`, false},
		{"fence without language", "```\n{\"a\":1}\n```", `{"a":1}`, false},
		{"prose wrapped", "Here you go:\n{\"a\":1}\nHope that helps.", `{"a":1}`, false},
		{"array", `[1,2]`, `[1,2]`, false},
		{"empty", "", "", true},
		{"no json", "sorry, I cannot do that", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseStructuredJSON(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("parseStructuredJSON(%q) expected error, got %s", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseStructuredJSON(%q) error: %v", tt.input, err)
			}
			if string(got) != tt.want {
				t.Errorf("parseStructuredJSON(%q) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestValidateStructuredJSON(t *testing.T) {
	schema := json.RawMessage(`{
		"name": "test",
		"strict": true,
		"schema": {
			"type": "object",
			"properties": {
				"count": {"type": "integer"}
			},
			"required": ["count"],
			"additionalProperties": false
		}
	}`)

	if err := validateStructuredJSON(schema, json.RawMessage(`{"count":3}`)); err != nil {
		t.Errorf("valid document rejected: %v", err)
	}
	if err := validateStructuredJSON(schema, json.RawMessage(`{"count":"three"}`)); err == nil {
		t.Error("wrong type accepted")
	}
	if err := validateStructuredJSON(schema, json.RawMessage(`{}`)); err == nil {
		t.Error("missing required field accepted")
	}
	// No schema means nothing to check.
	if err := validateStructuredJSON(nil, json.RawMessage(`{}`)); err != nil {
		t.Errorf("nil schema should pass: %v", err)
	}
}

func TestParseSchemaWrapper(t *testing.T) {
	w, err := parseSchemaWrapper(json.RawMessage(`{"name":"x","strict":true,"schema":{"type":"object"}}`))
	if err != nil {
		t.Fatalf("parseSchemaWrapper error: %v", err)
	}
	if w.Name != "x" || !w.Strict || w.Schema["type"] != "object" {
		t.Errorf("unexpected wrapper: %+v", w)
	}

	w, err = parseSchemaWrapper(json.RawMessage(`{"schema":{}}`))
	if err != nil {
		t.Fatalf("parseSchemaWrapper error: %v", err)
	}
	if w.Name != "structured_output" {
		t.Errorf("missing name should default, got %q", w.Name)
	}
}

func TestMockClientQueue(t *testing.T) {
	ctx := context.Background()
	client := NewMockClient(
		MockReply{JSON: `{"a":1}`},
		MockReply{Err: errors.New("boom")},
	)

	res, err := client.Chat(ctx, &ChatRequest{Model: "m"})
	if err != nil {
		t.Fatalf("first call error: %v", err)
	}
	if res.Content != `{"a":1}` {
		t.Errorf("unexpected content: %s", res.Content)
	}

	if _, err := client.Chat(ctx, &ChatRequest{}); err == nil {
		t.Error("second call should fail")
	}
	if client.CallCount() != 2 {
		t.Errorf("CallCount = %d, want 2", client.CallCount())
	}
}

package extract

import (
	"encoding/json"

	"github.com/jackzampolin/folio/internal/providers"
)

// ResponseSchema is the JSON schema for one batched text-extraction
// call. Title and authors are only meaningful on the first batch;
// next_carry names the section presumed to continue into the next
// batch.
var ResponseSchema = map[string]any{
	"name":   "paper_text",
	"strict": true,
	"schema": map[string]any{
		"type": "object",
		"properties": map[string]any{
			"title": map[string]any{
				"type":        "string",
				"description": "Full paper title as shown on the first page; empty if not visible",
			},
			"authors": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Author names in order, without affiliations or emails",
			},
			"sections": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"name": map[string]any{
							"type":        "string",
							"description": "Top-level section heading",
						},
						"text": map[string]any{
							"type":        "string",
							"description": "Full readable text under the heading, plain, paragraph breaks kept",
						},
					},
					"required":             []string{"name", "text"},
					"additionalProperties": false,
				},
			},
			"next_carry": map[string]any{
				"type":        "string",
				"description": "Name of the section still open at the end of these pages; empty if none",
			},
		},
		"required":             []string{"title", "authors", "sections", "next_carry"},
		"additionalProperties": false,
	},
}

// batchResult is the parsed response of one batch call.
type batchResult struct {
	Title     string    `json:"title"`
	Authors   []string  `json:"authors"`
	Sections  []Section `json:"sections"`
	NextCarry string    `json:"next_carry"`
}

func buildResponseFormat() *providers.ResponseFormat {
	jsonSchema, _ := json.Marshal(ResponseSchema)
	return &providers.ResponseFormat{
		Type:       "json_schema",
		JSONSchema: jsonSchema,
	}
}

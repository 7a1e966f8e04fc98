package detect

import (
	"encoding/json"

	"github.com/jackzampolin/folio/internal/providers"
)

// ResponseSchema is the JSON schema for one page-detection call.
var ResponseSchema = map[string]any{
	"name":   "page_objects",
	"strict": true,
	"schema": map[string]any{
		"type": "object",
		"properties": map[string]any{
			"items": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"type": map[string]any{
							"type": "string",
							"enum": []string{"table", "figure"},
						},
						"bbox": map[string]any{
							"type": "object",
							"properties": map[string]any{
								"x0": map[string]any{"type": "number"},
								"y0": map[string]any{"type": "number"},
								"x1": map[string]any{"type": "number"},
								"y1": map[string]any{"type": "number"},
							},
							"required":             []string{"x0", "y0", "x1", "y1"},
							"additionalProperties": false,
						},
						"caption": map[string]any{
							"type":        "string",
							"description": "Nearest caption text if visible; empty otherwise",
						},
						"confidence": map[string]any{
							"type":        "number",
							"description": "Detection confidence in [0,1]",
						},
					},
					"required":             []string{"type", "bbox", "caption", "confidence"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []string{"items"},
		"additionalProperties": false,
	},
}

// detectionResponse is the parsed response of one detection call.
type detectionResponse struct {
	Items []struct {
		Type       string  `json:"type"`
		Caption    string  `json:"caption"`
		Confidence float64 `json:"confidence"`
		BBox       struct {
			X0 float64 `json:"x0"`
			Y0 float64 `json:"y0"`
			X1 float64 `json:"x1"`
			Y1 float64 `json:"y1"`
		} `json:"bbox"`
	} `json:"items"`
}

func buildResponseFormat() *providers.ResponseFormat {
	jsonSchema, _ := json.Marshal(ResponseSchema)
	return &providers.ResponseFormat{
		Type:       "json_schema",
		JSONSchema: jsonSchema,
	}
}

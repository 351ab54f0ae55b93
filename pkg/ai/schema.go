package ai

// analysisToolName is the function the model is forced to call.
const analysisToolName = "record_analysis"

var categoryEnum = []string{
	"article", "video", "audio", "image", "document",
	"spreadsheet", "presentation", "social", "reference", "other",
}

// analysisTool returns the tool definition for structured analysis
// output. The schema mirrors the normalized result shape.
func analysisTool() toolDef {
	return toolDef{
		Type: "function",
		Function: functionDef{
			Name:        analysisToolName,
			Description: "Record the analysis of the saved content.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"title": map[string]any{
						"type":        "string",
						"description": "Concise human-readable title for the content.",
					},
					"summary": map[string]any{
						"type":        "string",
						"description": "Two to three sentence summary of what the content is about.",
					},
					"tags": map[string]any{
						"type":        "array",
						"items":       map[string]any{"type": "string"},
						"description": "Up to six short topical tags.",
					},
					"category": map[string]any{
						"type": "string",
						"enum": categoryEnum,
					},
					"keyPoints": map[string]any{
						"type":        "array",
						"items":       map[string]any{"type": "string"},
						"description": "Main takeaways, one short sentence each.",
					},
					"confidence": map[string]any{
						"type":        "number",
						"minimum":     0,
						"maximum":     1,
						"description": "How confident the analysis is, 0 to 1.",
					},
				},
				"required": []string{"title", "summary", "category"},
			},
		},
	}
}

func forcedToolChoice() toolChoice {
	var tc toolChoice
	tc.Type = "function"
	tc.Function.Name = analysisToolName
	return tc
}

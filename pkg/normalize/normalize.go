package normalize

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// MaxTags caps the tag list after cleaning.
const MaxTags = 6

// Categories is the closed set a result may be classified into.
var Categories = map[string]bool{
	"article": true, "video": true, "audio": true, "image": true,
	"document": true, "spreadsheet": true, "presentation": true,
	"social": true, "reference": true, "other": true,
}

// Result is a complete, validated analysis.
type Result struct {
	Title      string   `json:"title" mapstructure:"title"`
	Summary    string   `json:"summary" mapstructure:"summary"`
	Tags       []string `json:"tags" mapstructure:"tags"`
	Category   string   `json:"category" mapstructure:"category"`
	KeyPoints  []string `json:"keyPoints" mapstructure:"keyPoints"`
	Confidence float64  `json:"confidence" mapstructure:"confidence"`
}

// Parse merges the model response over the fallback and sanitizes the
// outcome. It reports whether the fallback was used because no usable
// payload could be recovered from the response.
func Parse(resp Response, fallback Result) (Result, bool) {
	payload, ok := payloadOf(resp)
	result := fallback
	if ok {
		decoded, err := decodeOver(payload, fallback)
		if err == nil {
			result = decoded
		} else {
			ok = false
		}
	}
	sanitize(&result, fallback)
	return result, !ok
}

// payloadOf recovers a JSON object from the response, trying the tool
// arguments first, then bare JSON content, then JSON embedded in prose.
func payloadOf(resp Response) (map[string]any, bool) {
	switch resp.Kind {
	case ToolCall:
		return parseObject(resp.ToolArguments)
	case ContentJSON:
		return parseObject(resp.Content)
	case ContentText:
		if m, ok := parseObject(resp.Content); ok {
			return m, true
		}
		return parseObject(embeddedJSON(resp.Content))
	}
	return nil, false
}

func parseObject(s string) (map[string]any, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, false
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return nil, false
	}
	return m, true
}

// embeddedJSON cuts the outermost brace-delimited span out of prose.
func embeddedJSON(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return ""
	}
	return s[start : end+1]
}

// decodeOver lays payload fields over a copy of the fallback, so
// fields the model omitted keep their fallback values.
func decodeOver(payload map[string]any, fallback Result) (Result, error) {
	result := fallback
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &result,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fallback, err
	}
	if err := dec.Decode(payload); err != nil {
		return fallback, err
	}
	return result, nil
}

func sanitize(r *Result, fallback Result) {
	r.Title = strings.TrimSpace(r.Title)
	if r.Title == "" {
		r.Title = fallback.Title
	}
	r.Summary = strings.TrimSpace(r.Summary)
	if r.Summary == "" {
		r.Summary = fallback.Summary
	}

	r.Tags = CleanTags(r.Tags)
	if len(r.Tags) == 0 {
		r.Tags = CleanTags(fallback.Tags)
	}

	r.Category = strings.ToLower(strings.TrimSpace(r.Category))
	if !Categories[r.Category] {
		r.Category = "other"
	}

	points := make([]string, 0, len(r.KeyPoints))
	for _, p := range r.KeyPoints {
		if p = strings.TrimSpace(p); p != "" {
			points = append(points, p)
		}
	}
	r.KeyPoints = points

	if r.Confidence < 0 {
		r.Confidence = 0
	}
	if r.Confidence > 1 {
		r.Confidence = 1
	}
}

var tagCharsRe = regexp.MustCompile(`[^a-z0-9-]+`)

// CleanTags lowercases tags, hyphenates whitespace, strips everything
// outside [a-z0-9-], deduplicates, and caps the list at MaxTags.
func CleanTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		tag = strings.Join(strings.Fields(tag), "-")
		tag = tagCharsRe.ReplaceAllString(tag, "")
		tag = strings.Trim(tag, "-")
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
		if len(out) == MaxTags {
			break
		}
	}
	return out
}

package embedders

import (
	"errors"
	"strings"
)

// ErrNoInput means nothing usable was available to embed.
var ErrNoInput = errors.New("no content available for embedding")

// contentSnippetLimit bounds how much raw content goes into the
// embedding input; the labeled fields carry most of the signal.
const contentSnippetLimit = 500

// ComposeInput builds the embedding input from analysis fields plus a
// snippet of the extracted content, as labeled sections.
func ComposeInput(title, summary string, tags []string, content string) (string, error) {
	var sections []string
	if len(tags) > 0 {
		sections = append(sections, "Tags: "+strings.Join(tags, ", "))
	}
	if title = strings.TrimSpace(title); title != "" {
		sections = append(sections, "Title: "+title)
	}
	if summary = strings.TrimSpace(summary); summary != "" {
		sections = append(sections, "Summary: "+summary)
	}
	if content = strings.TrimSpace(content); content != "" {
		if len(content) > contentSnippetLimit {
			content = content[:contentSnippetLimit]
		}
		sections = append(sections, "Content: "+content)
	}

	if len(sections) == 0 {
		return "", ErrNoInput
	}
	return strings.Join(sections, "\n"), nil
}

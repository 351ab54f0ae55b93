package extraction

import "strings"

const sampleMarker = "\n[...]\n"

// Sample reduces long text to a budget-bounded representation that
// preserves the head, the middle, and the tail of the document. Text
// already within budget is returned unchanged.
func Sample(text string, budget int) string {
	if budget <= 0 || len(text) <= budget {
		return text
	}
	third := budget / 3
	if third == 0 {
		return text[:budget]
	}

	head := text[:third]
	midStart := len(text)/2 - third/2
	mid := text[midStart : midStart+third]
	tail := text[len(text)-third:]

	var b strings.Builder
	b.Grow(budget + 2*len(sampleMarker))
	b.WriteString(head)
	b.WriteString(sampleMarker)
	b.WriteString(mid)
	b.WriteString(sampleMarker)
	b.WriteString(tail)
	return b.String()
}

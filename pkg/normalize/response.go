// Package normalize turns raw model output into a validated analysis
// result. Models drift: they skip the forced tool call, wrap JSON in
// prose, or return fields with the wrong shape. Every path here ends in
// a well-formed Result.
package normalize

// Kind discriminates the shapes a chat completion can come back in.
type Kind int

const (
	// None means the model returned nothing usable.
	None Kind = iota
	// ToolCall carries the arguments of a function call.
	ToolCall
	// ContentJSON carries message content that is a bare JSON object.
	ContentJSON
	// ContentText carries plain message content, possibly with JSON
	// embedded in surrounding prose.
	ContentText
)

// Response is the model output reduced to what normalization needs.
type Response struct {
	Kind Kind

	// ToolArguments is the raw JSON argument string of the tool call.
	ToolArguments string

	// Content is the message text for the content kinds.
	Content string
}

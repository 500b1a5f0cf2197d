package relay

import "strings"

const (
	contextHeader  = "User's Notion items:\n"
	questionPrefix = "User question: "
	answerSuffix   = "\nAnswer as a helpful assistant."
)

// BuildPrompt prepends the workspace item summaries to the user's message.
// An empty summary list still produces the context frame.
func BuildPrompt(message string, summaries []string) string {
	var b strings.Builder
	b.WriteString(contextHeader)
	b.WriteString(strings.Join(summaries, "\n"))
	b.WriteString("\n")
	b.WriteString(questionPrefix)
	b.WriteString(message)
	b.WriteString(answerSuffix)
	return b.String()
}

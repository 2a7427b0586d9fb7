package answer

import (
	"fmt"
	"strings"
)

// SystemPrompt pins the model to the retrieved context. The bracket
// citation format is parsed by readers, keep it stable.
const SystemPrompt = `You are a highly precise Q&A assistant. Your task is to answer user questions based ONLY on the provided context.
- Provide a clear, concise, and direct answer.
- For every piece of information, you MUST cite the page and section it came from in brackets, like this: [Page 19, 5.5 DISCUSSION].
- If the answer is not in the context, state: "The answer is not available in the provided document sections."
- Do not use external knowledge.`

// NoContextMessage stands in for the context when retrieval came back
// empty, so the model declines instead of guessing.
const NoContextMessage = "No relevant context found."

// ContextBlock is one retrieved chunk with the provenance the model
// needs for its citations.
type ContextBlock struct {
	Page    int
	Section string
	Text    string
}

// FormatContext renders the retrieved chunks as delimited blocks, each
// headed by its page and section.
func FormatContext(blocks []ContextBlock) string {
	if len(blocks) == 0 {
		return NoContextMessage
	}
	parts := make([]string, len(blocks))
	for i, b := range blocks {
		parts[i] = fmt.Sprintf("--- Context from Page %d, Section: %s ---\n%s", b.Page, b.Section, b.Text)
	}
	return strings.Join(parts, "\n\n")
}

// BuildSystemPrompt appends the formatted context to the instruction
// block. The user's question travels separately as the user message.
func BuildSystemPrompt(blocks []ContextBlock) string {
	var sb strings.Builder
	sb.WriteString(SystemPrompt)
	sb.WriteString("\n\nContext:\n")
	sb.WriteString(FormatContext(blocks))
	return sb.String()
}

package generate

import (
	"fmt"
	"strings"
)

// SystemPrompt is sent as the system message on every call.
const SystemPrompt = `You write practice questions for the CENT-S university entrance test. You answer in plain text only.`

const questionTemplate = `Write exactly %d new multiple-choice questions about: %s

Match the style and difficulty of the reference questions below, but do not copy them.

Format rules:
- Start with the section name on its own line in capitals, for example MATHEMATICS or BIOLOGY.
- Number the questions Q1., Q2., and so on.
- Give exactly four options per question, each on its own line, starting with A), B), C) and D).
- Leave one blank line between questions.
- After the last question write a line ANSWER KEY followed by one line per question, for example "Q1: B".
- Plain text only. No Markdown tables and no LaTeX.`

const noReference = "No reference material was supplied. Use the usual CENT-S format."

// Request is one question-generation request.
type Request struct {
	Topic   string
	Count   int
	Excerpt string
}

// BuildPrompt embeds the request into the fixed instruction template.
func BuildPrompt(req Request) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(questionTemplate, req.Count, strings.TrimSpace(req.Topic)))
	sb.WriteString("\n\n---\n")
	if ex := strings.TrimSpace(req.Excerpt); ex != "" {
		sb.WriteString("Reference questions:\n")
		sb.WriteString(ex)
	} else {
		sb.WriteString(noReference)
	}
	sb.WriteString("\n---\n")
	return sb.String()
}

package oracle

import (
	_ "embed"
	"strings"
)

var (
	//go:embed prompts/answer.txt
	answerTemplate string
	//go:embed prompts/extract.txt
	extractPrompt string
)

// AnswerPrompt renders the question-answering prompt for text and question.
func AnswerPrompt(text, question string) string {
	return strings.NewReplacer("{{DOCUMENT}}", text, "{{QUESTION}}", question).Replace(answerTemplate)
}

// ExtractPrompt is the instruction sent alongside raw file bytes.
func ExtractPrompt() string {
	return strings.TrimSpace(extractPrompt)
}

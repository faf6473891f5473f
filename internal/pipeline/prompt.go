package pipeline

import (
	"fmt"
	"strings"

	"smart-pdf-chatbot/internal/model"
)

// 提示词模板。三个构造函数都是纯函数，相同输入总是得到相同输出。
const (
	summaryInstruction = "Summarize the following document(s) concisely:"

	answerInstruction = "Answer the question using only the document content below. " +
		"If the documents do not contain the answer, say so."

	comparisonInstruction = "Compare the following documents. Report their similarities and differences.\n" +
		"Use exactly two sections headed \"Similarities:\" and \"Differences:\", " +
		"and write each point on its own line starting with \"- \"."
)

// BuildSummaryPrompt 构造摘要提示词。
func BuildSummaryPrompt(combinedText string) string {
	return summaryInstruction + "\n\n" + combinedText
}

// BuildAnswerPrompt 把完整文档文本作为上下文，随后附上原样的问题。
// question 与 combinedText 均不能为空，由调用方在调用前校验。
func BuildAnswerPrompt(question, combinedText string) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", model.MissingInput("question")
	}
	if strings.TrimSpace(combinedText) == "" {
		return "", model.MissingInput("document text")
	}

	var b strings.Builder
	b.WriteString(answerInstruction)
	b.WriteString("\n\nDocument content:\n")
	b.WriteString(combinedText)
	b.WriteString("\n\nQuestion: ")
	b.WriteString(question)
	return b.String(), nil
}

// BuildComparisonPrompt 为每个可用记录按顺序输出 "Document <n>: <displayName>" 段落。
// 可用记录少于两份时返回 model.ErrInsufficientDocuments。
func BuildComparisonPrompt(corpus model.Corpus) (string, error) {
	usable := corpus.Usable()
	if len(usable) < 2 {
		return "", model.ErrInsufficientDocuments
	}

	var b strings.Builder
	b.WriteString(comparisonInstruction)
	for n, r := range usable {
		fmt.Fprintf(&b, "\n\nDocument %d: %s\n", n+1, r.DisplayName)
		b.WriteString(*r.Text)
	}
	return b.String(), nil
}

package rag

import "fmt"

// FallbackAnswer is the phrase the model is instructed to emit when the
// context cannot answer the question.
const FallbackAnswer = "I don't have enough information to answer this question."

const promptTemplate = `You are a helpful assistant. Answer the question based ONLY on the following context.
If the answer cannot be found in the context, say "%s"

Context:
%s

Question: %s

Answer:`

// BuildPrompt embeds the context and the query verbatim into the fixed
// instruction template. Deterministic; no side effects.
func BuildPrompt(query, context string) string {
	return fmt.Sprintf(promptTemplate, FallbackAnswer, context, query)
}

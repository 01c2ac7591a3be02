// Package prompt renders the question-answering prompt sent to the model.
package prompt

import (
	"strings"
	"text/template"
)

const qaTemplate = `Use the following pieces of information to answer the user's question.
If you don't know the answer, just say that you don't know, don't try to make up an answer.

Context: {{.Context}}
Question: {{.Question}}

Only return the helpful answer below and nothing else.
Helpful answer:`

var qa = template.Must(template.New("qa").Parse(qaTemplate))

// Render fills the context and question slots of the QA prompt.
func Render(context, question string) (string, error) {
	var b strings.Builder
	err := qa.Execute(&b, struct {
		Context  string
		Question string
	}{context, question})
	if err != nil {
		return "", err
	}
	return b.String(), nil
}

// JoinContext joins retrieved chunk texts, in order, into one context string.
func JoinContext(texts []string) string {
	return strings.Join(texts, "\n")
}

package web

import "html/template"

type sourceView struct {
	Page  int
	Score float64
	Text  string
}

type pageData struct {
	Summary  string
	Question string
	Answer   template.HTML
	Model    string
	Elapsed  string
	Sources  []sourceView
	Error    string
}

var pageTmpl = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Medical Chatbot</title>
<style>
body { font-family: sans-serif; max-width: 52rem; margin: 2rem auto; padding: 0 1rem; color: #222; }
.summary { color: #666; font-size: .9rem; }
input[type=text] { width: 100%; padding: .5rem; font-size: 1rem; box-sizing: border-box; }
.answer { border-left: 4px solid #2a7; padding: .25rem 1rem; margin: 1.5rem 0; }
.error { border-left: 4px solid #c33; padding: .5rem 1rem; color: #a00; }
.meta { color: #888; font-size: .8rem; }
details pre { white-space: pre-wrap; background: #f6f6f6; padding: .5rem; }
</style>
</head>
<body>
<h1>Medical Chatbot</h1>
{{with .Summary}}<p class="summary">{{.}}</p>{{end}}
<form method="post" action="/" onsubmit="document.getElementById('pending').hidden = false">
<label for="question">Ask a medical question related to the content of the PDF:</label>
<input type="text" id="question" name="question" placeholder="Your Question" value="{{.Question}}" autofocus>
</form>
<p id="pending" hidden>Processing your question...</p>
{{with .Error}}<div class="error">{{.}}</div>{{end}}
{{if .Answer}}
<div class="answer">{{.Answer}}</div>
<p class="meta">{{.Model}} &middot; {{.Elapsed}}</p>
{{range $s := .Sources}}
<details><summary>Context from page {{$s.Page}} &middot; score {{printf "%.3f" $s.Score}}</summary><pre>{{$s.Text}}</pre></details>
{{end}}
{{end}}
</body>
</html>
`))

package server

import "html/template"

type pageData struct {
	Title    string
	URL      string
	Fragment template.HTML
	Triples  int
}

var previewPage = template.Must(template.New("preview").Parse(`<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{.Title}}</title>
    <style>
        body {
            margin: 0;
            padding: 0 20px 20px;
            font-family: Arial, sans-serif;
        }
        .header {
            background: #2c3e50;
            color: white;
            margin: 0 -20px 20px;
            padding: 15px 20px;
        }
        .header a { color: white; }
        .header .info { margin-top: 5px; font-size: 14px; opacity: 0.9; }
        .prefixes, .triples { font-family: monospace; white-space: nowrap; }
        .prefixes { color: #7f8c8d; margin-bottom: 1em; }
        .triple { margin: 0 0 1em; }
        .subject a, .subject span { color: #2c3e50; font-weight: bold; }
        .predicate a { color: #27ae60; }
        .object a { color: #2980b9; }
        .object span { color: #c0392b; }
        a { text-decoration: none; }
        a:hover { text-decoration: underline; }
        :target { background: #fcf3cf; }
    </style>
</head>
<body>
    <div class="header">
        <h1><a href="{{.URL}}">{{.Title}}</a></h1>
        <div class="info">Triples: <strong>{{.Triples}}</strong></div>
    </div>
    {{.Fragment}}
</body>
</html>
`))

var indexPage = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <title>RDF Preview</title>
</head>
<body style="font-family: Arial, sans-serif;">
    <h1>RDF Preview</h1>
    <form action="/preview" method="get">
        <input type="url" name="url" size="60" placeholder="https://example.org/data.ttl" required>
        <select name="format">
            <option value="">from Content-Type</option>
            {{range .}}<option value="{{.}}">{{.}}</option>
            {{end}}
        </select>
        <button type="submit">Preview</button>
    </form>
</body>
</html>
`))

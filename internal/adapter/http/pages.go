package http

import (
	"bytes"
	"html/template"

	"github.com/labstack/echo/v4"
)

// Pages served to email-link visitors. These are browser-facing, so failures
// are styled HTML rather than JSON.

var pageTmpl = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<style>
  body { font-family: Helvetica, Arial, sans-serif; background: #f4f6f8; margin: 0; }
  .card { max-width: 480px; margin: 80px auto; background: #fff; border-radius: 8px;
          padding: 32px; box-shadow: 0 2px 8px rgba(0,0,0,.08); }
  h1 { font-size: 20px; margin-top: 0; color: {{if .IsError}}#b3261e{{else}}#147d42{{end}}; }
  p { color: #3e4c59; line-height: 1.5; }
  textarea { width: 100%; min-height: 90px; padding: 8px; border: 1px solid #9aa5b1;
             border-radius: 4px; box-sizing: border-box; }
  button { margin-top: 16px; padding: 10px 24px; border: 0; border-radius: 4px;
           background: #1f2933; color: #fff; font-size: 15px; cursor: pointer; }
</style>
</head>
<body>
  <div class="card">
    <h1>{{.Heading}}</h1>
    <p>{{.Message}}</p>
    {{if .FieldName}}
    <form method="get">
      <label for="{{.FieldName}}">{{.FieldLabel}}</label><br>
      <textarea id="{{.FieldName}}" name="{{.FieldName}}"{{if .FieldRequired}} required{{end}}></textarea><br>
      <button type="submit">{{.SubmitLabel}}</button>
    </form>
    {{end}}
  </div>
</body>
</html>`))

type pageData struct {
	Title         string
	Heading       string
	Message       string
	IsError       bool
	FieldName     string
	FieldLabel    string
	FieldRequired bool
	SubmitLabel   string
}

func renderPage(c echo.Context, code int, data pageData) error {
	var buf bytes.Buffer
	if err := pageTmpl.Execute(&buf, data); err != nil {
		return err
	}
	return c.HTML(code, buf.String())
}

func errorPage(c echo.Context, code int, message string) error {
	return renderPage(c, code, pageData{
		Title:   "Something went wrong",
		Heading: "Something went wrong",
		Message: message,
		IsError: true,
	})
}

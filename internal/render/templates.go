package render

import (
	"bytes"
	"fmt"
	"html/template"

	"procurement-backoffice/internal/domain/document"
)

var documentTmpl = template.Must(template.New("document").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<style>
  body { font-family: Helvetica, Arial, sans-serif; color: #1f2933; margin: 48px; }
  h1 { font-size: 22px; border-bottom: 2px solid #1f2933; padding-bottom: 8px; }
  .meta { margin: 24px 0; }
  .meta td { padding: 4px 16px 4px 0; }
  .status { display: inline-block; padding: 4px 10px; border: 1px solid #1f2933; font-weight: bold; }
  table.history { border-collapse: collapse; width: 100%; margin-top: 16px; }
  table.history th, table.history td { border: 1px solid #9aa5b1; padding: 6px 10px; font-size: 12px; text-align: left; }
</style>
</head>
<body>
  <h1>{{.KindLabel}} — {{.Doc.Title}}</h1>
  <table class="meta">
    <tr><td>Document ID</td><td>{{.Doc.DocumentID}}</td></tr>
    <tr><td>Reference</td><td>{{.Doc.Reference}}</td></tr>
    <tr><td>Amount</td><td>{{printf "%.2f" .Doc.Amount}}</td></tr>
    <tr><td>Created by</td><td>{{.Doc.CreatorID}}</td></tr>
    <tr><td>Status</td><td><span class="status">{{.Doc.Status}}</span></td></tr>
  </table>
  {{if .Doc.ApprovalHistory}}
  <h2>Approval history</h2>
  <table class="history">
    <tr><th>Action</th><th>By</th><th>At</th><th>From</th><th>To</th><th>Comments</th></tr>
    {{range .Doc.ApprovalHistory}}
    <tr>
      <td>{{.ActionType}}</td>
      <td>{{.UserID}}</td>
      <td>{{.Timestamp}}</td>
      <td>{{.PreviousStatus}}</td>
      <td>{{.NewStatus}}</td>
      <td>{{.Comments}}</td>
    </tr>
    {{end}}
  </table>
  {{end}}
</body>
</html>`))

// documentHTML builds the canonical HTML for a document's current state.
// Identical state must produce identical markup; the PDF hash depends on it.
func documentHTML(d *document.Document) (string, error) {
	var buf bytes.Buffer
	err := documentTmpl.Execute(&buf, struct {
		Doc       *document.Document
		KindLabel string
	}{Doc: d, KindLabel: d.Kind.Label()})
	if err != nil {
		return "", fmt.Errorf("execute document template: %w", err)
	}
	return buf.String(), nil
}

package notify

import (
	"bytes"
	"errors"
	"text/template"
)

const DefaultTemplate = `[{{.SeverityLabel}}] {{.TypeLabel}}
Title: {{.Title}}
Time: {{.Time}}
Severity: {{.Severity}}/10
Assets: {{.Assets}}
Message: {{.Message}}
{{ if .EventTitle }}
Related Event: {{.EventTitle}} at {{.EventTime}}
{{ end }}`

// TemplateData provides fields for rendering alert notification content.
type TemplateData struct {
	Type          string
	TypeLabel     string
	Title         string
	Message       string
	Severity      int
	SeverityLabel string
	Time          string
	Assets        string
	EventTitle    string
	EventTime     string
}

// Template renders alert notification content.
type Template struct {
	tpl *template.Template
}

// NewTemplate parses a notification template, falling back to DefaultTemplate.
func NewTemplate(tpl string) (*Template, error) {
	if tpl == "" {
		tpl = DefaultTemplate
	}
	parsed, err := template.New("alert-notification").Parse(tpl)
	if err != nil {
		return nil, err
	}
	return &Template{tpl: parsed}, nil
}

// Render applies the template to data.
func (t *Template) Render(data TemplateData) (string, error) {
	if t == nil || t.tpl == nil {
		return "", errors.New("alert template: nil")
	}
	var buf bytes.Buffer
	if err := t.tpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

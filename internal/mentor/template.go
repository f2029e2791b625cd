package mentor

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// TemplateErrorKind enumerates the ways rendering can fail, per the
// contract's single TemplateError(kind, template, cause_kind) shape.
type TemplateErrorKind string

const (
	TemplateErrSyntax         TemplateErrorKind = "syntax"
	TemplateErrMissingVar     TemplateErrorKind = "missing_variable"
	TemplateErrUnsafeConstruct TemplateErrorKind = "unsafe_construct"
)

// TemplateError is returned by Render. Its Error() string never embeds
// the untrusted variable values that triggered the failure.
type TemplateError struct {
	Kind     TemplateErrorKind
	Template string
	Cause    error
}

func (e *TemplateError) Error() string {
	return fmt.Sprintf("template error: kind=%s template=%s", e.Kind, e.Template)
}

func (e *TemplateError) Unwrap() error { return e.Cause }

// templateRenderer holds the fixed, code-controlled set of parsed
// templates. Data passed to Execute is always a map[string]string — never
// a struct — so there is no attribute/method chain an untrusted value
// could reach even if it ended up as a map key or value; {{.Field}}
// access on a map is a plain lookup, not a reflective method call.
type templateRenderer struct {
	tmpl *template.Template
}

func newTemplateRenderer() (*templateRenderer, error) {
	t, err := template.New("mentor").
		Option("missingkey=error").
		Funcs(template.FuncMap{}). // no functions exposed to templates
		ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &templateRenderer{tmpl: t}, nil
}

// Render executes the named template against variables. Every variable
// value is scrubbed through the Secret Scanner (C1) before substitution,
// per "untrusted variables are routed through C1 first".
func (r *templateRenderer) Render(name string, vars map[string]string) (string, error) {
	scrubbed := make(map[string]string, len(vars))
	for k, v := range vars {
		scrubbed[k] = ScanText(v).Redacted
	}

	var buf bytes.Buffer
	err := r.tmpl.ExecuteTemplate(&buf, name+".tmpl", scrubbed)
	if err != nil {
		kind := classifyTemplateError(err)
		return "", &TemplateError{Kind: kind, Template: name, Cause: errRedactCause(err)}
	}
	return buf.String(), nil
}

func classifyTemplateError(err error) TemplateErrorKind {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "map has no entry for key"):
		return TemplateErrMissingVar
	case strings.Contains(msg, "unexpected") || strings.Contains(msg, "unclosed"):
		return TemplateErrSyntax
	default:
		return TemplateErrUnsafeConstruct
	}
}

// errRedactCause strips the template engine's error text down to its
// kind, since the stdlib template error message can echo back fragments
// of the offending template source (never untrusted values, but we avoid
// relying on that and keep the logged cause generic).
func errRedactCause(err error) error {
	return fmt.Errorf("template execution failed")
}

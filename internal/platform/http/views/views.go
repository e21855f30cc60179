// Package views holds the server-rendered pages.
package views

import (
	"embed"
	"html/template"
)

// Template names.
const (
	Error   = "error.tmpl"
	Login   = "login.tmpl"
	Account = "account.tmpl"
)

//go:embed templates/*.tmpl
var files embed.FS

// Templates parses the embedded page templates. It panics on a parse error,
// which can only happen when the embedded files are broken.
func Templates() *template.Template {
	return template.Must(template.New("").ParseFS(files, "templates/*.tmpl"))
}

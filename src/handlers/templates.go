package handlers

import (
	"html/template"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

type Templates struct {
	Home   *template.Template
	Result *template.Template
	Places *template.Template
}

var funcs = template.FuncMap{
	"sub": func(a, b int) int { return a - b },
	"add": func(a, b int) int { return a + b },
	"div": func(a, b int) int { return a / b },
}

func LoadTemplate(name, filename string) (*template.Template, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "reading template %s", filename)
	}
	return template.New(name).Funcs(funcs).Parse(string(data))
}

// LoadTemplates reads home.html, result.html and places.html from dir.
func LoadTemplates(dir string) (*Templates, error) {
	var t Templates
	for name, dst := range map[string]**template.Template{
		"home":   &t.Home,
		"result": &t.Result,
		"places": &t.Places,
	} {
		tmpl, err := LoadTemplate(name, filepath.Join(dir, name+".html"))
		if err != nil {
			return nil, err
		}
		*dst = tmpl
	}
	return &t, nil
}

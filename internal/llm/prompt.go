package llm

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	"llm-futures-trader/internal/types"
)

// PromptVars is everything the decision prompt can reference.
type PromptVars struct {
	Balance     float64
	Positions   []types.Position
	Pairs       []string
	Markets     []types.MarketSnapshot
	CurrentTime string
}

// Renderer renders the decision prompt from a template file. The template
// content itself is operator-owned configuration, not code.
type Renderer struct {
	tmpl *template.Template
}

// NewRenderer parses the template at path. The "json" helper is available
// so templates can embed positions and market snapshots verbatim; nil
// optional snapshot fields simply do not appear in the output.
func NewRenderer(path string) (*Renderer, error) {
	tmpl, err := template.New(filepath.Base(path)).Funcs(template.FuncMap{
		"json": func(v any) (string, error) {
			b, err := json.Marshal(v)
			if err != nil {
				return "", err
			}
			return string(b), nil
		},
	}).ParseFiles(path)
	if err != nil {
		return nil, fmt.Errorf("parse prompt template %s: %w", path, err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// Render substitutes vars into the template.
func (r *Renderer) Render(vars PromptVars) (string, error) {
	if vars.CurrentTime == "" {
		vars.CurrentTime = time.Now().Format("2006-01-02 15:04:05")
	}
	var sb strings.Builder
	if err := r.tmpl.Execute(&sb, vars); err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}
	return sb.String(), nil
}

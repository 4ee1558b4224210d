package console

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"jobdash/internal/model"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/labstack/echo/v4"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageNames = []string{"home", "login", "jobs", "scrape", "runs", "logs", "users"}

type renderer struct {
	pages map[string]*template.Template
}

func newRenderer() *renderer {
	funcs := template.FuncMap{
		"ago": func(v any) string {
			var t time.Time
			switch x := v.(type) {
			case time.Time:
				t = x
			case string:
				t = model.ParseDate(x)
			}
			if t.IsZero() {
				return "-"
			}
			return humanize.Time(t)
		},
		"truncate": func(n int, s string) string {
			r := []rune(s)
			if len(r) <= n {
				return s
			}
			return string(r[:n]) + "…"
		},
		"arrow": func(active bool, dir string) string {
			switch {
			case !active:
				return ""
			case dir == string(model.Asc):
				return " ▲"
			default:
				return " ▼"
			}
		},
		"args": func(m map[string]any) string {
			parts := make([]string, 0, len(m))
			for _, k := range []string{"scrapers", "db_mode", "limit", "since", "workers", "combine_full"} {
				if v, ok := m[k]; ok && v != nil {
					parts = append(parts, fmt.Sprintf("%s=%v", k, v))
				}
			}
			return strings.Join(parts, " ")
		},
	}

	r := &renderer{pages: make(map[string]*template.Template, len(pageNames))}
	for _, name := range pageNames {
		r.pages[name] = template.Must(template.New(name).Funcs(funcs).ParseFS(templateFS,
			"templates/layout.html", "templates/"+name+".html"))
	}
	return r
}

func (r *renderer) Render(w io.Writer, name string, data any, c echo.Context) error {
	t, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("unknown page %q", name)
	}
	return t.ExecuteTemplate(w, "layout", data)
}

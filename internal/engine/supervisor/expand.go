package supervisor

import (
	"path/filepath"
	"regexp"
	"strings"

	"go.trai.ch/tend/internal/core/domain"
)

// placeholders lists the template variables, longest first so that "relfile"
// is never read as "relf" followed by text.
var placeholders = []string{"relfiles", "relfile", "reldir", "files", "file", "dir", "cwd", "action", "event"}

// Expander substitutes prefixed placeholders in command templates.
type Expander struct {
	root string
	re   *regexp.Regexp
}

// NewExpander creates an Expander for templates using prefix, with paths
// resolved against root.
func NewExpander(prefix, root string) *Expander {
	pattern := "(?i)" + regexp.QuoteMeta(prefix) + "(" + strings.Join(placeholders, "|") + ")"
	return &Expander{
		root: root,
		re:   regexp.MustCompile(pattern),
	}
}

// Expand fills tmpl with the values of inv. Unknown placeholders are left
// untouched.
func (e *Expander) Expand(tmpl string, inv domain.Invocation) string {
	vars := e.vars(inv)
	return e.re.ReplaceAllStringFunc(tmpl, func(m string) string {
		sub := e.re.FindStringSubmatch(m)
		return vars[strings.ToLower(sub[1])]
	})
}

func (e *Expander) vars(inv domain.Invocation) map[string]string {
	file := ""
	if p := inv.Path(); p != "" {
		file = e.abs(p)
	}

	files := make([]string, 0, len(inv.Changes))
	relFiles := make([]string, 0, len(inv.Changes))
	for _, p := range inv.Paths() {
		files = append(files, e.abs(p))
		relFiles = append(relFiles, e.rel(p))
	}

	vars := map[string]string{
		"cwd":      e.root,
		"file":     file,
		"relfile":  "",
		"dir":      "",
		"reldir":   "",
		"files":    strings.Join(files, " "),
		"relfiles": strings.Join(relFiles, " "),
		"action":   string(inv.Action()),
		"event":    string(inv.Action()),
	}
	if file != "" {
		vars["relfile"] = e.rel(file)
		vars["dir"] = filepath.Dir(file)
		vars["reldir"] = e.rel(filepath.Dir(file))
	}
	return vars
}

func (e *Expander) abs(p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(e.root, p)
}

func (e *Expander) rel(p string) string {
	r, err := filepath.Rel(e.root, e.abs(p))
	if err != nil {
		return p
	}
	return r
}

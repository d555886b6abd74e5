package css

import (
	"strings"

	"github.com/dshills/classlens/internal/scope"
)

// Pretty generates the CSS for a class and formats it one declaration
// per line, suitable for a completion item's detail field.
func Pretty(s *scope.Scope, class string) (string, error) {
	fragment, err := Generate(s, class)
	if err != nil {
		return "", err
	}
	return reflow(fragment, ""), nil
}

// Docs generates the CSS for a class wrapped in a fenced markdown
// block, suitable for a completion item's documentation field.
func Docs(s *scope.Scope, class string) (string, error) {
	pretty, err := Pretty(s, class)
	if err != nil {
		return "", err
	}
	return "```css\n" + pretty + "\n```", nil
}

// reflow rewrites a single-line fragment into indented multi-line form.
func reflow(fragment, indent string) string {
	if inner, rest, ok := cutMedia(fragment); ok {
		return indent + inner + " {\n" + reflow(rest, indent+"  ") + "\n" + indent + "}"
	}

	open := strings.Index(fragment, "{")
	end := strings.LastIndex(fragment, "}")
	if open < 0 || end <= open {
		return indent + fragment
	}

	selector := strings.TrimSpace(fragment[:open])
	var b strings.Builder
	b.WriteString(indent + selector + " {\n")
	for _, decl := range strings.Split(fragment[open+1:end], ";") {
		if decl = strings.TrimSpace(decl); decl != "" {
			b.WriteString(indent + "  " + decl + ";\n")
		}
	}
	b.WriteString(indent + "}")
	return b.String()
}

// cutMedia splits "@media (...) { rule }" into the media prelude and
// the inner rule.
func cutMedia(fragment string) (prelude, inner string, ok bool) {
	if !strings.HasPrefix(fragment, "@media") {
		return "", "", false
	}
	open := strings.Index(fragment, "{")
	end := strings.LastIndex(fragment, "}")
	if open < 0 || end <= open {
		return "", "", false
	}
	return strings.TrimSpace(fragment[:open]), strings.TrimSpace(fragment[open+1 : end]), true
}

// stylesheetExtensions are the file extensions recognized as
// stylesheet documents regardless of scope filtering.
var stylesheetExtensions = map[string]struct{}{
	".css":     {},
	".scss":    {},
	".sass":    {},
	".less":    {},
	".styl":    {},
	".pcss":    {},
	".postcss": {},
	".sss":     {},
}

// IsStylesheet reports whether the path names a stylesheet document.
func IsStylesheet(path string) bool {
	i := strings.LastIndex(path, ".")
	if i < 0 {
		return false
	}
	_, ok := stylesheetExtensions[strings.ToLower(path[i:])]
	return ok
}

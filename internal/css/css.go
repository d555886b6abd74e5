// Package css turns utility-class strings into CSS fragments and
// derives presentation metadata (colors, pretty-printed detail,
// markdown documentation) from them.
package css

import (
	"fmt"
	"strings"

	"github.com/dshills/classlens/internal/scope"
)

// stateVariants are the pseudo-class variants accepted on any utility.
var stateVariants = map[string]string{
	"hover":    ":hover",
	"focus":    ":focus",
	"active":   ":active",
	"disabled": ":disabled",
	"visited":  ":visited",
}

// staticUtilities maps variant-free utilities to their declarations.
var staticUtilities = map[string]string{
	"block":        "display: block",
	"inline-block": "display: inline-block",
	"inline":       "display: inline",
	"flex":         "display: flex",
	"inline-flex":  "display: inline-flex",
	"grid":         "display: grid",
	"hidden":       "display: none",
	"italic":       "font-style: italic",
	"not-italic":   "font-style: normal",
	"underline":    "text-decoration-line: underline",
	"line-through": "text-decoration-line: line-through",
	"no-underline": "text-decoration-line: none",
	"uppercase":    "text-transform: uppercase",
	"lowercase":    "text-transform: lowercase",
	"capitalize":   "text-transform: capitalize",
	"font-bold":    "font-weight: 700",
	"font-medium":  "font-weight: 500",
	"font-normal":  "font-weight: 400",
	"text-left":    "text-align: left",
	"text-center":  "text-align: center",
	"text-right":   "text-align: right",
	"rounded":      "border-radius: 0.25rem",
	"rounded-full": "border-radius: 9999px",
	"rounded-none": "border-radius: 0px",
	"border":       "border-width: 1px",
	"shadow":       "box-shadow: 0 1px 3px 0 rgb(0 0 0 / 0.1)",
	"shadow-none":  "box-shadow: none",
	"truncate":     "overflow: hidden; text-overflow: ellipsis; white-space: nowrap",
}

// colorProperties maps color-utility prefixes to the property they set.
var colorProperties = map[string]string{
	"bg":     "background-color",
	"text":   "color",
	"border": "border-color",
}

// spacingProperties maps spacing-utility prefixes to their properties.
var spacingProperties = map[string][]string{
	"p":   {"padding"},
	"px":  {"padding-left", "padding-right"},
	"py":  {"padding-top", "padding-bottom"},
	"pt":  {"padding-top"},
	"pr":  {"padding-right"},
	"pb":  {"padding-bottom"},
	"pl":  {"padding-left"},
	"m":   {"margin"},
	"mx":  {"margin-left", "margin-right"},
	"my":  {"margin-top", "margin-bottom"},
	"mt":  {"margin-top"},
	"mr":  {"margin-right"},
	"mb":  {"margin-bottom"},
	"ml":  {"margin-left"},
	"w":   {"width"},
	"h":   {"height"},
	"gap": {"gap"},
}

// Generate produces the CSS fragment for a utility class within a
// scope. The class may carry variant prefixes ("hover:bg-red-500",
// "md:flex"). Unknown classes return ErrUnknownClass.
func Generate(s *scope.Scope, class string) (string, error) {
	variants, base := splitVariants(class)

	base, ok := strings.CutPrefix(base, s.Prefix())
	if !ok && s.Prefix() != "" {
		return "", fmt.Errorf("%w: %s", ErrUnknownClass, class)
	}

	decls, err := declarationsFor(s, base)
	if err != nil {
		return "", err
	}

	selector := "." + escapeSelector(class)
	var screens []string
	for _, v := range variants {
		if pseudo, ok := stateVariants[v]; ok {
			selector += pseudo
			continue
		}
		if isScreen(s, v) {
			screens = append(screens, v)
			continue
		}
		return "", fmt.Errorf("%w: unknown variant %q", ErrUnknownClass, v)
	}

	rule := fmt.Sprintf("%s { %s; }", selector, strings.Join(decls, "; "))
	for i := len(screens) - 1; i >= 0; i-- {
		rule = fmt.Sprintf("@media (min-width: --screen-%s) { %s }", screens[i], rule)
	}
	return rule, nil
}

// declarationsFor resolves a variant-free, prefix-free utility into
// its declaration list.
func declarationsFor(s *scope.Scope, base string) ([]string, error) {
	if decl, ok := staticUtilities[base]; ok {
		return strings.Split(decl, "; "), nil
	}

	for prefix, property := range colorProperties {
		rest, ok := strings.CutPrefix(base, prefix+"-")
		if !ok {
			continue
		}
		if value, ok := lookupColor(s, rest); ok {
			return []string{property + ": " + value}, nil
		}
	}

	for prefix, properties := range spacingProperties {
		rest, ok := strings.CutPrefix(base, prefix+"-")
		if !ok {
			continue
		}
		if value, ok := s.Spacing()[rest]; ok {
			decls := make([]string, len(properties))
			for i, p := range properties {
				decls[i] = p + ": " + value
			}
			return decls, nil
		}
	}

	return nil, fmt.Errorf("%w: %s", ErrUnknownClass, base)
}

// lookupColor resolves "red-500" or "white" against the scope palette.
func lookupColor(s *scope.Scope, name string) (string, bool) {
	if shades, ok := s.Colors()[name]; ok {
		if value, ok := shades[""]; ok {
			return value, true
		}
	}
	if i := strings.LastIndex(name, "-"); i > 0 {
		if shades, ok := s.Colors()[name[:i]]; ok {
			if value, ok := shades[name[i+1:]]; ok {
				return value, true
			}
		}
	}
	return "", false
}

// splitVariants separates variant prefixes from the base utility.
func splitVariants(class string) ([]string, string) {
	parts := strings.Split(class, ":")
	if len(parts) == 1 {
		return nil, class
	}
	return parts[:len(parts)-1], parts[len(parts)-1]
}

// escapeSelector escapes characters that are not valid bare in a CSS
// class selector.
func escapeSelector(class string) string {
	var b strings.Builder
	for _, r := range class {
		switch r {
		case ':', '/', '.', '%', '#', '[', ']':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func isScreen(s *scope.Scope, v string) bool {
	for _, screen := range s.Screens() {
		if screen == v {
			return true
		}
	}
	return false
}

package css

import (
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// namedColors covers the CSS keyword colors the built-in palettes and
// common configs use. Anything else should be written as hex.
var namedColors = map[string]string{
	"black":   "#000000",
	"white":   "#ffffff",
	"red":     "#ff0000",
	"green":   "#008000",
	"blue":    "#0000ff",
	"yellow":  "#ffff00",
	"orange":  "#ffa500",
	"purple":  "#800080",
	"pink":    "#ffc0cb",
	"gray":    "#808080",
	"grey":    "#808080",
	"cyan":    "#00ffff",
	"magenta": "#ff00ff",
	"silver":  "#c0c0c0",
	"maroon":  "#800000",
	"navy":    "#000080",
	"teal":    "#008080",
	"olive":   "#808000",
}

// ExtractColor reports whether a CSS fragment represents a pure color:
// a single declaration whose value parses as a color. The returned
// string is the normalized #rrggbb form ("transparent" passes through
// unchanged).
func ExtractColor(fragment string) (string, bool) {
	open := strings.Index(fragment, "{")
	end := strings.LastIndex(fragment, "}")
	if open < 0 || end <= open {
		return "", false
	}

	body := fragment[open+1 : end]
	var decls []string
	for _, d := range strings.Split(body, ";") {
		if d = strings.TrimSpace(d); d != "" {
			decls = append(decls, d)
		}
	}
	if len(decls) != 1 {
		return "", false
	}

	_, value, ok := strings.Cut(decls[0], ":")
	if !ok {
		return "", false
	}
	return ParseColor(strings.TrimSpace(value))
}

// ParseColor normalizes a CSS color value to #rrggbb.
func ParseColor(value string) (string, bool) {
	value = strings.ToLower(strings.TrimSpace(value))

	if value == "transparent" {
		return value, true
	}
	if hex, ok := namedColors[value]; ok {
		return hex, true
	}
	if strings.HasPrefix(value, "#") {
		if c, err := colorful.Hex(expandShortHex(value)); err == nil {
			return c.Hex(), true
		}
		return "", false
	}
	if r, g, b, ok := parseRGBFunc(value); ok {
		return colorful.Color{R: r, G: g, B: b}.Hex(), true
	}
	return "", false
}

// expandShortHex turns #abc into #aabbcc; longer forms pass through.
func expandShortHex(hex string) string {
	if len(hex) != 4 {
		return hex
	}
	return "#" + strings.Repeat(string(hex[1]), 2) +
		strings.Repeat(string(hex[2]), 2) +
		strings.Repeat(string(hex[3]), 2)
}

// parseRGBFunc parses rgb(r, g, b) and rgb(r g b) notations with
// 0-255 components.
func parseRGBFunc(value string) (r, g, b float64, ok bool) {
	inner, found := strings.CutPrefix(value, "rgb(")
	if !found {
		return 0, 0, 0, false
	}
	inner, found = strings.CutSuffix(inner, ")")
	if !found {
		return 0, 0, 0, false
	}

	inner = strings.ReplaceAll(inner, ",", " ")
	fields := strings.Fields(inner)
	if len(fields) != 3 {
		return 0, 0, 0, false
	}

	var comps [3]float64
	for i, f := range fields {
		n := 0
		for _, ch := range f {
			if ch < '0' || ch > '9' {
				return 0, 0, 0, false
			}
			n = n*10 + int(ch-'0')
		}
		if n > 255 {
			return 0, 0, 0, false
		}
		comps[i] = float64(n) / 255.0
	}
	return comps[0], comps[1], comps[2], true
}

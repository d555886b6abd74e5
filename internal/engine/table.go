package engine

import (
	"sort"

	"github.com/dshills/classlens/internal/scope"
)

// colorPrefixes and spacingPrefixes mirror the utility grammar the
// css package generates for. The table lists bare classes only;
// variant prefixes are handled at query time.
var colorPrefixes = []string{"bg", "text", "border"}

var spacingPrefixes = []string{
	"p", "px", "py", "pt", "pr", "pb", "pl",
	"m", "mx", "my", "mt", "mr", "mb", "ml",
	"w", "h", "gap",
}

var staticClasses = []string{
	"block", "inline-block", "inline", "flex", "inline-flex", "grid",
	"hidden", "italic", "not-italic", "underline", "line-through",
	"no-underline", "uppercase", "lowercase", "capitalize",
	"font-bold", "font-medium", "font-normal",
	"text-left", "text-center", "text-right",
	"rounded", "rounded-full", "rounded-none",
	"border", "shadow", "shadow-none", "truncate",
}

// buildClassTable expands a scope's theme into the sorted list of
// every completable utility class.
func buildClassTable(s *scope.Scope) []string {
	var classes []string
	prefix := s.Prefix()

	for name, shades := range s.Colors() {
		for shade := range shades {
			suffix := name
			if shade != "" {
				suffix = name + "-" + shade
			}
			for _, p := range colorPrefixes {
				classes = append(classes, prefix+p+"-"+suffix)
			}
		}
	}

	for key := range s.Spacing() {
		for _, p := range spacingPrefixes {
			classes = append(classes, prefix+p+"-"+key)
		}
	}

	for _, c := range staticClasses {
		classes = append(classes, prefix+c)
	}

	sort.Strings(classes)
	return classes
}

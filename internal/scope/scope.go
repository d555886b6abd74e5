// Package scope resolves and tracks utility-class configuration scopes.
//
// A Scope is one resolved classlens.config.json governing a directory
// subtree. Scopes are identity objects: two resolutions of the same
// logical configuration return the same *Scope until a lifecycle event
// (reload or unload) retires it, at which point a fresh object takes
// its place. Consumers that cache per-scope state key by pointer and
// subscribe to the Notifier to drop entries when a scope dies.
package scope

import (
	"sort"
	"strings"

	"github.com/tidwall/gjson"
)

// Scope is a resolved configuration scope.
type Scope struct {
	configPath string // absolute path to the config file, "" for the fallback scope
	root       string // directory subtree this scope governs
	prefix     string

	// colors maps color name -> shade -> value. Bare (unshaded) colors
	// use the empty shade key.
	colors  map[string]map[string]string
	spacing map[string]string
	screens []string
}

// ConfigPath returns the path of the config file backing this scope,
// or the empty string for the built-in fallback scope.
func (s *Scope) ConfigPath() string { return s.configPath }

// Root returns the directory subtree this scope governs.
func (s *Scope) Root() string { return s.root }

// Prefix returns the configured utility-class prefix.
func (s *Scope) Prefix() string { return s.prefix }

// Colors returns the color palette as name -> shade -> value.
func (s *Scope) Colors() map[string]map[string]string { return s.colors }

// Spacing returns the spacing scale as key -> CSS length.
func (s *Scope) Spacing() map[string]string { return s.spacing }

// Screens returns the configured responsive variant names, sorted.
func (s *Scope) Screens() []string { return s.screens }

// Filter reports whether a document plausibly uses utility classes.
// It is a cheap textual check, not a parse: class attributes in markup
// and @apply directives in stylesheets both qualify.
func (s *Scope) Filter(text, path string) bool {
	if strings.Contains(text, "class=") ||
		strings.Contains(text, "className") ||
		strings.Contains(text, "class:") ||
		strings.Contains(text, "@apply") {
		return true
	}
	return false
}

// Parse builds a Scope from raw config JSON.
// Missing theme sections fall back to the built-in palette and scale so
// a minimal config still yields a usable scope.
func Parse(configPath, root string, data []byte) *Scope {
	s := &Scope{
		configPath: configPath,
		root:       root,
		prefix:     gjson.GetBytes(data, "prefix").String(),
		colors:     make(map[string]map[string]string),
		spacing:    make(map[string]string),
	}

	colors := gjson.GetBytes(data, "theme.colors")
	if colors.IsObject() {
		colors.ForEach(func(name, value gjson.Result) bool {
			shades := make(map[string]string)
			if value.IsObject() {
				value.ForEach(func(shade, v gjson.Result) bool {
					shades[shade.String()] = v.String()
					return true
				})
			} else {
				shades[""] = value.String()
			}
			s.colors[name.String()] = shades
			return true
		})
	} else {
		s.colors = defaultColors()
	}

	spacing := gjson.GetBytes(data, "theme.spacing")
	if spacing.IsObject() {
		spacing.ForEach(func(key, value gjson.Result) bool {
			s.spacing[key.String()] = value.String()
			return true
		})
	} else {
		s.spacing = defaultSpacing()
	}

	screens := gjson.GetBytes(data, "theme.screens")
	if screens.IsObject() {
		screens.ForEach(func(key, _ gjson.Result) bool {
			s.screens = append(s.screens, key.String())
			return true
		})
		sort.Strings(s.screens)
	} else {
		s.screens = defaultScreens()
	}

	return s
}

// Default builds the scope used when no config file exists between a
// document and the workspace root.
func Default(root string) *Scope {
	return &Scope{
		root:    root,
		colors:  defaultColors(),
		spacing: defaultSpacing(),
		screens: defaultScreens(),
	}
}

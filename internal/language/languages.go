// Package language manages which document types the completion
// provider is active for: a fixed default set, validation of
// user-configured additions, and the single live capability
// registration that binds the provider to the resulting set.
package language

import "sort"

// TriggerCharacters are the characters that invoke completion inside
// a utility-class string.
var TriggerCharacters = []string{"-", ":"}

// DefaultLanguages is the fixed set of document types known to carry
// utility-class strings: markup, stylesheet, templating, and
// scripting dialects.
var DefaultLanguages = []string{
	"css",
	"erb",
	"haml",
	"handlebars",
	"html",
	"javascript",
	"javascriptreact",
	"less",
	"markdown",
	"php",
	"postcss",
	"pug",
	"razor",
	"sass",
	"scss",
	"svelte",
	"twig",
	"typescript",
	"typescriptreact",
	"vue",
}

// knownLanguages is the host's full language-identifier table (the
// LSP specification set plus the template dialects editors commonly
// register). Configured identifiers outside this set are rejected.
var knownLanguages = map[string]struct{}{
	"abap": {}, "astro": {}, "bat": {}, "bibtex": {}, "clojure": {},
	"coffeescript": {}, "c": {}, "cpp": {}, "csharp": {}, "css": {},
	"diff": {}, "dart": {}, "dockerfile": {}, "elixir": {}, "erb": {},
	"erlang": {}, "fsharp": {}, "git-commit": {}, "git-rebase": {}, "go": {},
	"groovy": {}, "haml": {}, "handlebars": {}, "heex": {}, "html": {},
	"ini": {}, "java": {}, "javascript": {}, "javascriptreact": {}, "json": {},
	"jsonc": {}, "latex": {}, "less": {}, "lua": {}, "makefile": {},
	"markdown": {}, "objective-c": {}, "objective-cpp": {}, "perl": {}, "perl6": {},
	"php": {}, "plaintext": {}, "postcss": {}, "powershell": {}, "pug": {},
	"python": {}, "r": {}, "razor": {}, "ruby": {}, "rust": {},
	"sass": {}, "scss": {}, "shaderlab": {}, "shellscript": {}, "sql": {},
	"svelte": {}, "swift": {}, "twig": {}, "typescript": {}, "typescriptreact": {},
	"tex": {}, "vb": {}, "vue": {}, "xml": {}, "xsl": {}, "yaml": {},
}

// Known reports whether the host recognizes a language identifier.
func Known(id string) bool {
	_, ok := knownLanguages[id]
	return ok
}

// Validate partitions user-configured identifiers into those the host
// knows and those it does not. Rejected identifiers never abort
// registration; the caller reports them as one aggregated warning.
func Validate(ids []string) (valid, invalid []string) {
	for _, id := range ids {
		if Known(id) {
			valid = append(valid, id)
		} else {
			invalid = append(invalid, id)
		}
	}
	return valid, invalid
}

// merge unions the default set with extra identifiers, deduplicated
// and sorted.
func merge(extra []string) []string {
	set := make(map[string]struct{}, len(DefaultLanguages)+len(extra))
	for _, id := range DefaultLanguages {
		set[id] = struct{}{}
	}
	for _, id := range extra {
		set[id] = struct{}{}
	}

	merged := make([]string, 0, len(set))
	for id := range set {
		merged = append(merged, id)
	}
	sort.Strings(merged)
	return merged
}

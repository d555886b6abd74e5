// Package engine ranks utility-class suggestions for a configuration
// scope and manages the per-scope engine cache.
//
// An Engine is expensive to build (it expands the scope's full theme
// into a class table) and cheap to query, so exactly one engine is
// kept per live scope; see Cache.
package engine

import (
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/dshills/classlens/internal/scope"
)

// maxSuggestions bounds a single query's result size.
const maxSuggestions = 50

// Engine produces ranked utility-class suggestions for one scope.
type Engine struct {
	scope   *scope.Scope
	classes []string
}

// New builds an engine for a scope by expanding its theme into the
// full utility-class table.
func New(s *scope.Scope) *Engine {
	return &Engine{
		scope:   s,
		classes: buildClassTable(s),
	}
}

// Scope returns the scope this engine was built from.
func (e *Engine) Scope() *scope.Scope { return e.scope }

// ClassCount returns the size of the expanded class table.
func (e *Engine) ClassCount() int { return len(e.classes) }

// Suggestion is one ranked match. Value is the full replacement text
// (variant prefix included); Label is the bare class for display.
type Suggestion struct {
	Value string
	Label string
}

// Span is the exact document span a suggestion replaces.
type Span struct {
	Start int
	End   int
	Text  string
}

// Result is an ordered suggestion list plus the span resolution for
// the token it was computed from.
type Result struct {
	Suggestions []Suggestion

	tokenStart int
	tokenEnd   int
}

// Replace resolves the replacement span for one suggestion value.
// Pure: it derives everything from the token span captured at query
// time.
func (r *Result) Replace(value string) Span {
	return Span{Start: r.tokenStart, End: r.tokenEnd, Text: value}
}

// Suggest ranks the class table against the token at the given byte
// offset. A nil result means there is nothing to suggest at this
// position, as opposed to an empty list.
func (e *Engine) Suggest(text string, offset int) *Result {
	if offset < 0 || offset > len(text) {
		return nil
	}

	start := tokenStart(text, offset)
	token := text[start:offset]

	// A variant prefix ("hover:", "md:hover:") matches against the
	// remainder only and is prepended to every replacement.
	variants := ""
	needle := token
	if i := strings.LastIndex(token, ":"); i >= 0 {
		variants = token[:i+1]
		needle = token[i+1:]
	}

	matches := e.rank(needle)
	if len(matches) == 0 {
		return nil
	}

	result := &Result{
		Suggestions: make([]Suggestion, 0, len(matches)),
		tokenStart:  start,
		tokenEnd:    offset,
	}
	for _, class := range matches {
		result.Suggestions = append(result.Suggestions, Suggestion{
			Value: variants + class,
			Label: class,
		})
	}
	return result
}

// rank orders the class table against a needle. An empty needle
// returns the table head in lexical order.
func (e *Engine) rank(needle string) []string {
	if needle == "" {
		if len(e.classes) <= maxSuggestions {
			return e.classes
		}
		return e.classes[:maxSuggestions]
	}

	ranks := fuzzy.RankFindNormalizedFold(needle, e.classes)
	sort.Sort(ranks)

	n := len(ranks)
	if n > maxSuggestions {
		n = maxSuggestions
	}
	matches := make([]string, n)
	for i := 0; i < n; i++ {
		matches[i] = ranks[i].Target
	}
	return matches
}

// tokenDelimiters end a class token when scanning backward from the
// cursor.
const tokenDelimiters = " \t\n\r\"'`<>{}()[];,="

// tokenStart finds the byte offset where the class token under the
// cursor begins.
func tokenStart(text string, offset int) int {
	i := offset
	for i > 0 && !strings.ContainsRune(tokenDelimiters, rune(text[i-1])) {
		i--
	}
	return i
}

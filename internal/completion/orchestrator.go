// Package completion orchestrates the two-phase completion protocol:
// a cheap ranked candidate list on every keystroke, and on-demand
// enrichment of the single highlighted candidate.
//
// Failures from collaborators never escape to the host. Everything
// raised while producing a list is caught at the orchestrator
// boundary, logged with full detail, and degraded to "no suggestions";
// enrichment failures leave the candidate unenriched.
package completion

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"runtime/debug"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/dshills/classlens/internal/engine"
	"github.com/dshills/classlens/internal/scope"
)

// Resolver locates the configuration scope for a document.
// ResolveNearest must not return (nil, nil): when no exact scope
// exists it falls back to an enclosing or default scope.
type Resolver interface {
	Resolve(ctx context.Context, text, path string) (*scope.Scope, error)
	ResolveNearest(ctx context.Context, text, path string) (*scope.Scope, error)
}

// Suggester is the query surface of a per-scope suggestion engine.
type Suggester interface {
	Suggest(text string, offset int) *engine.Result
}

// EngineProvider hands out the live engine for a scope.
type EngineProvider interface {
	EngineFor(s *scope.Scope) Suggester
}

// Generator produces CSS renditions of a utility class and the
// derived presentation metadata.
type Generator interface {
	Generate(s *scope.Scope, class string) (string, error)
	Pretty(s *scope.Scope, class string) (string, error)
	Docs(s *scope.Scope, class string) (string, error)
	ExtractColor(fragment string) (string, bool)
	IsStylesheet(path string) bool
}

// Orchestrator coordinates scope resolution, the engine cache, and
// CSS generation into editor-ready candidate lists.
type Orchestrator struct {
	root      string
	resolver  Resolver
	engines   EngineProvider
	generator Generator
	logger    *log.Logger
}

// New creates an orchestrator serving documents under root.
func New(root string, resolver Resolver, engines EngineProvider, generator Generator, logger *log.Logger) *Orchestrator {
	return &Orchestrator{
		root:      root,
		resolver:  resolver,
		engines:   engines,
		generator: generator,
		logger:    logger,
	}
}

// shadePattern matches labels ending in a hyphen-numeral shade suffix.
var shadePattern = regexp.MustCompile(`-[0-9]+$`)

// Provide produces the candidate list for a cursor position. A nil
// list means there is nothing to offer; it is never an error surface.
func (o *Orchestrator) Provide(ctx context.Context, path, text string, offset int) (list *List) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("completion panic", "path", path, "panic", r, "stack", string(debug.Stack()))
			list = nil
		}
	}()

	if !o.inWorkspace(path) {
		return nil
	}
	if text == "" {
		return nil
	}

	s, err := o.resolver.Resolve(ctx, text, path)
	if err != nil {
		o.logger.Error("resolve scope", "path", path, "err", err)
		return nil
	}
	if s == nil {
		s, err = o.resolver.ResolveNearest(ctx, text, path)
		if err != nil {
			o.logger.Error("resolve nearest scope", "path", path, "err", err)
			return nil
		}
		if s == nil {
			// Precondition violation in the resolver contract.
			o.logger.Error("resolver returned no nearest scope", "path", path)
			return nil
		}
	}

	if !s.Filter(text, path) && !o.generator.IsStylesheet(path) {
		return nil
	}

	result := o.engines.EngineFor(s).Suggest(text, offset)
	if result == nil || len(result.Suggestions) == 0 {
		return nil
	}
	o.logger.Debug("suggestions", "path", path, "count", len(result.Suggestions), "top", topLabels(result.Suggestions, 3))

	candidates := make([]*Candidate, 0, len(result.Suggestions))
	for i, sug := range result.Suggestions {
		cand, err := o.buildCandidate(s, result, sug, i)
		if err != nil {
			o.logger.Error("build candidate", "path", path, "value", sug.Value, "err", err)
			return nil
		}
		candidates = append(candidates, cand)
	}

	return &List{Incomplete: true, Candidates: candidates}
}

// buildCandidate classifies one suggestion and computes its span and
// sort key.
func (o *Orchestrator) buildCandidate(s *scope.Scope, result *engine.Result, sug engine.Suggestion, index int) (*Candidate, error) {
	fragment, err := o.generator.Generate(s, sug.Value)
	if err != nil {
		return nil, fmt.Errorf("generate css for %s: %w", sug.Value, err)
	}

	cand := &Candidate{
		Value: sug.Value,
		Label: sug.Label,
		Kind:  KindMember,
		Span:  result.Replace(sug.Value),
		scope: s,
	}

	if color, ok := o.generator.ExtractColor(fragment); ok {
		cand.Kind = KindColor
		cand.Preview = color
	}

	// Numbered color shades surface ahead of everything else; order
	// within each bucket is the engine's ranking.
	bucket := 1
	if cand.Kind == KindColor && shadePattern.MatchString(cand.Label) {
		bucket = 0
	}
	cand.SortText = fmt.Sprintf("%d%05d", bucket, index)

	return cand, nil
}

// Resolve attaches the expensive enrichment to the highlighted
// candidate: pretty CSS detail for colors, markdown documentation for
// everything else. Idempotent; the same candidate is returned.
func (o *Orchestrator) Resolve(ctx context.Context, cand *Candidate) *Candidate {
	if cand == nil || cand.resolved || cand.scope == nil {
		return cand
	}

	switch cand.Kind {
	case KindColor:
		detail, err := o.generator.Pretty(cand.scope, cand.Value)
		if err != nil {
			o.logger.Error("pretty css", "value", cand.Value, "err", err)
			return cand
		}
		cand.Detail = detail
	default:
		docs, err := o.generator.Docs(cand.scope, cand.Value)
		if err != nil {
			o.logger.Error("render docs", "value", cand.Value, "err", err)
			return cand
		}
		cand.Documentation = docs
	}

	cand.resolved = true
	return cand
}

// inWorkspace reports whether a path is inside the served root.
func (o *Orchestrator) inWorkspace(path string) bool {
	if o.root == "" {
		return true
	}
	rel, err := filepath.Rel(o.root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func topLabels(suggestions []engine.Suggestion, n int) []string {
	if len(suggestions) < n {
		n = len(suggestions)
	}
	labels := make([]string, n)
	for i := 0; i < n; i++ {
		labels[i] = suggestions[i].Label
	}
	return labels
}

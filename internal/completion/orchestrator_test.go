package completion

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/dshills/classlens/internal/engine"
	"github.com/dshills/classlens/internal/scope"
)

func testLogger() *log.Logger {
	return log.New(io.Discard)
}

// stubResolver returns fixed scopes or errors.
type stubResolver struct {
	exact      *scope.Scope
	exactErr   error
	nearest    *scope.Scope
	nearestErr error
}

func (r stubResolver) Resolve(ctx context.Context, text, path string) (*scope.Scope, error) {
	return r.exact, r.exactErr
}

func (r stubResolver) ResolveNearest(ctx context.Context, text, path string) (*scope.Scope, error) {
	return r.nearest, r.nearestErr
}

// stubEngines hands out a fixed suggester regardless of scope.
type stubEngines struct {
	suggester Suggester
}

func (e stubEngines) EngineFor(s *scope.Scope) Suggester { return e.suggester }

// panicSuggester simulates a suggestion engine blowing up mid-query.
type panicSuggester struct{}

func (panicSuggester) Suggest(text string, offset int) *engine.Result {
	panic("engine exploded")
}

// errGenerator fails selected operations.
type errGenerator struct {
	CSSGenerator
	failGenerate bool
	failPretty   bool
	failDocs     bool
}

func (g errGenerator) Generate(s *scope.Scope, class string) (string, error) {
	if g.failGenerate {
		return "", errors.New("generate failed")
	}
	return g.CSSGenerator.Generate(s, class)
}

func (g errGenerator) Pretty(s *scope.Scope, class string) (string, error) {
	if g.failPretty {
		return "", errors.New("pretty failed")
	}
	return g.CSSGenerator.Pretty(s, class)
}

func (g errGenerator) Docs(s *scope.Scope, class string) (string, error) {
	if g.failDocs {
		return "", errors.New("docs failed")
	}
	return g.CSSGenerator.Docs(s, class)
}

// newTestOrchestrator wires an orchestrator with a real engine cache
// over the built-in fallback scope.
func newTestOrchestrator(t *testing.T) (*Orchestrator, string) {
	t.Helper()
	root := t.TempDir()
	s := scope.Default(root)
	cache := engine.NewCache(testLogger())

	o := New(root,
		stubResolver{exact: s, nearest: s},
		CachedEngines{Cache: cache},
		CSSGenerator{},
		testLogger(),
	)
	return o, root
}

func TestProvideReturnsRankedCandidates(t *testing.T) {
	o, root := newTestOrchestrator(t)

	text := `<div class="red">`
	offset := strings.Index(text, "red") + len("red")
	path := filepath.Join(root, "index.html")

	list := o.Provide(context.Background(), path, text, offset)
	if list == nil {
		t.Fatal("Provide returned nil, want candidates")
	}
	if !list.Incomplete {
		t.Error("list must be marked incomplete")
	}
	if len(list.Candidates) == 0 {
		t.Fatal("no candidates returned")
	}

	for _, cand := range list.Candidates {
		if cand.Span.Start < 0 || cand.Span.End > len(text) || cand.Span.Start > cand.Span.End {
			t.Errorf("candidate %q span [%d,%d) out of bounds", cand.Value, cand.Span.Start, cand.Span.End)
		}
		if cand.Span.Text != cand.Value {
			t.Errorf("candidate %q replacement text = %q", cand.Value, cand.Span.Text)
		}
	}
}

func TestProvideClassifiesColors(t *testing.T) {
	o, root := newTestOrchestrator(t)
	gen := CSSGenerator{}
	s := scope.Default(root)

	text := `<div class="red">`
	offset := strings.Index(text, "red") + len("red")
	list := o.Provide(context.Background(), filepath.Join(root, "index.html"), text, offset)
	if list == nil {
		t.Fatal("Provide returned nil")
	}

	for _, cand := range list.Candidates {
		fragment, err := gen.Generate(s, cand.Value)
		if err != nil {
			t.Fatalf("Generate(%q): %v", cand.Value, err)
		}
		color, ok := gen.ExtractColor(fragment)

		if ok != (cand.Kind == KindColor) {
			t.Errorf("candidate %q: kind %v but ExtractColor ok=%v", cand.Value, cand.Kind, ok)
		}
		if ok && cand.Preview != color {
			t.Errorf("candidate %q: preview %q, want %q", cand.Value, cand.Preview, color)
		}
		if !ok && cand.Preview != "" {
			t.Errorf("member candidate %q has preview %q", cand.Value, cand.Preview)
		}
	}
}

func TestProvideShadeOrdering(t *testing.T) {
	o, root := newTestOrchestrator(t)

	text := `<div class="red">`
	offset := strings.Index(text, "red") + len("red")
	list := o.Provide(context.Background(), filepath.Join(root, "index.html"), text, offset)
	if list == nil {
		t.Fatal("Provide returned nil")
	}

	isShadeColor := func(c *Candidate) bool {
		return c.Kind == KindColor && shadePattern.MatchString(c.Label)
	}

	// Sorting by SortText must put every numeral-suffixed color before
	// every other candidate, preserving engine order within each group.
	ordered := make([]*Candidate, len(list.Candidates))
	copy(ordered, list.Candidates)
	for i := range ordered {
		for j := i + 1; j < len(ordered); j++ {
			if ordered[j].SortText < ordered[i].SortText {
				ordered[i], ordered[j] = ordered[j], ordered[i]
			}
		}
	}

	seenOther := false
	for _, cand := range ordered {
		if isShadeColor(cand) {
			if seenOther {
				t.Fatalf("shade color %q sorted after non-shade candidate", cand.Label)
			}
		} else {
			seenOther = true
		}
	}

	var shades, others []string
	for _, cand := range list.Candidates {
		if isShadeColor(cand) {
			shades = append(shades, cand.Value)
		} else {
			others = append(others, cand.Value)
		}
	}
	var gotShades, gotOthers []string
	for _, cand := range ordered {
		if isShadeColor(cand) {
			gotShades = append(gotShades, cand.Value)
		} else {
			gotOthers = append(gotOthers, cand.Value)
		}
	}
	if !equalStrings(shades, gotShades) || !equalStrings(others, gotOthers) {
		t.Error("relative order within sort buckets does not match engine ranking")
	}
}

func TestProvideNoSuggestions(t *testing.T) {
	o, root := newTestOrchestrator(t)

	text := `<div class="zzzzqqqq">`
	offset := strings.Index(text, "zzzzqqqq") + len("zzzzqqqq")

	if list := o.Provide(context.Background(), filepath.Join(root, "index.html"), text, offset); list != nil {
		t.Errorf("Provide = %d candidates, want nil for unmatchable prefix", len(list.Candidates))
	}
}

func TestProvideEmptyText(t *testing.T) {
	o, root := newTestOrchestrator(t)

	if list := o.Provide(context.Background(), filepath.Join(root, "index.html"), "", 0); list != nil {
		t.Error("Provide on empty document should return nil")
	}
}

func TestProvideOutsideWorkspace(t *testing.T) {
	o, _ := newTestOrchestrator(t)

	text := `<div class="red">`
	offset := strings.Index(text, "red") + len("red")
	outside := filepath.Join(t.TempDir(), "elsewhere.html")

	if list := o.Provide(context.Background(), outside, text, offset); list != nil {
		t.Error("Provide outside the workspace root should return nil")
	}
}

func TestProvideFilterRejects(t *testing.T) {
	o, root := newTestOrchestrator(t)

	// No class attribute, no @apply: the scope filter rejects, and the
	// document is not a stylesheet.
	text := `const red = 1`
	offset := strings.Index(text, "red") + len("red")

	if list := o.Provide(context.Background(), filepath.Join(root, "app.js"), text, offset); list != nil {
		t.Error("Provide should return nil when the filter rejects a non-stylesheet")
	}

	// The same content in a stylesheet document bypasses the filter.
	if list := o.Provide(context.Background(), filepath.Join(root, "app.css"), text, offset); list == nil {
		t.Error("Provide should serve stylesheet documents even when the filter rejects")
	}
}

func TestProvideResolverError(t *testing.T) {
	root := t.TempDir()
	o := New(root,
		stubResolver{exactErr: errors.New("resolver down")},
		stubEngines{},
		CSSGenerator{},
		testLogger(),
	)

	text := `<div class="red">`
	if list := o.Provide(context.Background(), filepath.Join(root, "a.html"), text, len(text)-2); list != nil {
		t.Error("resolver failure must degrade to nil, not propagate")
	}
}

func TestProvideNearestFallback(t *testing.T) {
	root := t.TempDir()
	s := scope.Default(root)
	cache := engine.NewCache(testLogger())
	o := New(root,
		stubResolver{exact: nil, nearest: s},
		CachedEngines{Cache: cache},
		CSSGenerator{},
		testLogger(),
	)

	text := `<div class="red">`
	offset := strings.Index(text, "red") + len("red")
	if list := o.Provide(context.Background(), filepath.Join(root, "a.html"), text, offset); list == nil {
		t.Error("Provide should fall back to the nearest scope")
	}
}

func TestProvideNearestPreconditionViolation(t *testing.T) {
	root := t.TempDir()
	o := New(root, stubResolver{}, stubEngines{}, CSSGenerator{}, testLogger())

	text := `<div class="red">`
	if list := o.Provide(context.Background(), filepath.Join(root, "a.html"), text, len(text)-2); list != nil {
		t.Error("a nil nearest scope must degrade to nil, not crash")
	}
}

func TestProvideEnginePanic(t *testing.T) {
	root := t.TempDir()
	s := scope.Default(root)
	o := New(root,
		stubResolver{exact: s, nearest: s},
		stubEngines{suggester: panicSuggester{}},
		CSSGenerator{},
		testLogger(),
	)

	text := `<div class="red">`
	offset := strings.Index(text, "red") + len("red")
	if list := o.Provide(context.Background(), filepath.Join(root, "a.html"), text, offset); list != nil {
		t.Error("engine panic must degrade to nil")
	}
}

func TestProvideGeneratorError(t *testing.T) {
	root := t.TempDir()
	s := scope.Default(root)
	cache := engine.NewCache(testLogger())
	o := New(root,
		stubResolver{exact: s, nearest: s},
		CachedEngines{Cache: cache},
		errGenerator{failGenerate: true},
		testLogger(),
	)

	text := `<div class="red">`
	offset := strings.Index(text, "red") + len("red")
	if list := o.Provide(context.Background(), filepath.Join(root, "a.html"), text, offset); list != nil {
		t.Error("generation failure must degrade to nil")
	}
}

func TestResolveColorCandidate(t *testing.T) {
	o, root := newTestOrchestrator(t)

	list := provideFor(t, o, root, "red")
	cand := findKind(t, list, KindColor)

	resolved := o.Resolve(context.Background(), cand)
	if resolved != cand {
		t.Error("Resolve must return the same candidate")
	}
	if cand.Detail == "" {
		t.Error("color candidate should gain pretty CSS detail")
	}
	if cand.Documentation != "" {
		t.Error("color candidate should not gain markdown documentation")
	}

	detail := cand.Detail
	o.Resolve(context.Background(), cand)
	if cand.Detail != detail {
		t.Error("Resolve is not idempotent")
	}
}

func TestResolveMemberCandidate(t *testing.T) {
	o, root := newTestOrchestrator(t)

	list := provideFor(t, o, root, "red")
	cand := findKind(t, list, KindMember)

	o.Resolve(context.Background(), cand)
	if cand.Documentation == "" {
		t.Error("member candidate should gain markdown documentation")
	}
	if !strings.HasPrefix(cand.Documentation, "```css") {
		t.Errorf("documentation = %q, want fenced css block", cand.Documentation)
	}
}

func TestResolveEnrichmentFailure(t *testing.T) {
	root := t.TempDir()
	s := scope.Default(root)
	cache := engine.NewCache(testLogger())
	o := New(root,
		stubResolver{exact: s, nearest: s},
		CachedEngines{Cache: cache},
		errGenerator{failPretty: true, failDocs: true},
		testLogger(),
	)

	list := provideFor(t, o, root, "red")
	cand := list.Candidates[0]

	o.Resolve(context.Background(), cand)
	if cand.Detail != "" || cand.Documentation != "" {
		t.Error("failed enrichment must leave fields empty")
	}
}

func TestResolveNil(t *testing.T) {
	o, _ := newTestOrchestrator(t)
	if o.Resolve(context.Background(), nil) != nil {
		t.Error("Resolve(nil) should return nil")
	}
}

func provideFor(t *testing.T, o *Orchestrator, root, token string) *List {
	t.Helper()
	text := `<div class="` + token + `">`
	offset := strings.Index(text, token) + len(token)
	list := o.Provide(context.Background(), filepath.Join(root, "index.html"), text, offset)
	if list == nil {
		t.Fatal("Provide returned nil")
	}
	return list
}

func findKind(t *testing.T, list *List, kind Kind) *Candidate {
	t.Helper()
	for _, cand := range list.Candidates {
		if cand.Kind == kind {
			return cand
		}
	}
	t.Fatalf("no candidate of kind %v", kind)
	return nil
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

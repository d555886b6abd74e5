package completion

import (
	"github.com/dshills/classlens/internal/css"
	"github.com/dshills/classlens/internal/engine"
	"github.com/dshills/classlens/internal/scope"
)

// CSSGenerator is the default Generator, backed by the css package.
type CSSGenerator struct{}

func (CSSGenerator) Generate(s *scope.Scope, class string) (string, error) {
	return css.Generate(s, class)
}

func (CSSGenerator) Pretty(s *scope.Scope, class string) (string, error) {
	return css.Pretty(s, class)
}

func (CSSGenerator) Docs(s *scope.Scope, class string) (string, error) {
	return css.Docs(s, class)
}

func (CSSGenerator) ExtractColor(fragment string) (string, bool) {
	return css.ExtractColor(fragment)
}

func (CSSGenerator) IsStylesheet(path string) bool {
	return css.IsStylesheet(path)
}

// CachedEngines adapts an engine.Cache to the EngineProvider interface.
type CachedEngines struct {
	Cache *engine.Cache
}

func (p CachedEngines) EngineFor(s *scope.Scope) Suggester {
	return p.Cache.GetOrCreate(s)
}

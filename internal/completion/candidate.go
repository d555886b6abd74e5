package completion

import (
	"github.com/dshills/classlens/internal/engine"
	"github.com/dshills/classlens/internal/scope"
)

// Kind classifies a candidate for presentation.
type Kind int

const (
	// KindMember is an ordinary utility-class candidate.
	KindMember Kind = iota

	// KindColor is a candidate whose generated CSS is a pure color;
	// it carries an eager color preview.
	KindColor
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindColor:
		return "color"
	case KindMember:
		return "member"
	default:
		return "unknown"
	}
}

// Candidate is one completion offering, ready for conversion to the
// host's completion-item shape.
type Candidate struct {
	// Value is the exact replacement text.
	Value string

	// Label is the display text (bare class, no variant prefix).
	Label string

	// Kind classifies the candidate.
	Kind Kind

	// Span is the document byte span the value replaces.
	Span engine.Span

	// SortText orders candidates in the displayed list.
	SortText string

	// Preview is the normalized color string, eagerly attached to
	// KindColor candidates only.
	Preview string

	// Detail is the pretty-printed CSS, attached on demand by
	// Resolve for KindColor candidates.
	Detail string

	// Documentation is the markdown documentation block, attached on
	// demand by Resolve for KindMember candidates.
	Documentation string

	scope    *scope.Scope
	resolved bool
}

// List is a completion response. A nil *List means "no suggestions";
// Incomplete tells the host to re-query on further keystrokes.
type List struct {
	Incomplete bool
	Candidates []*Candidate
}

package css

import (
	"errors"
	"strings"
	"testing"

	"github.com/dshills/classlens/internal/scope"
)

func testScope(t *testing.T) *scope.Scope {
	t.Helper()
	return scope.Default(t.TempDir())
}

func TestGenerate(t *testing.T) {
	s := testScope(t)

	tests := []struct {
		class string
		want  string
	}{
		{"bg-red-500", ".bg-red-500 { background-color: #ef4444; }"},
		{"text-white", ".text-white { color: #ffffff; }"},
		{"border-blue-200", ".border-blue-200 { border-color: #bfdbfe; }"},
		{"p-4", ".p-4 { padding: 1rem; }"},
		{"px-2", ".px-2 { padding-left: 0.5rem; padding-right: 0.5rem; }"},
		{"flex", ".flex { display: flex; }"},
		{"hidden", ".hidden { display: none; }"},
		{"hover:bg-red-500", `.hover\:bg-red-500:hover { background-color: #ef4444; }`},
	}

	for _, tt := range tests {
		got, err := Generate(s, tt.class)
		if err != nil {
			t.Errorf("Generate(%q) error: %v", tt.class, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Generate(%q) = %q, want %q", tt.class, got, tt.want)
		}
	}
}

func TestGenerateScreenVariant(t *testing.T) {
	s := testScope(t)

	got, err := Generate(s, "md:flex")
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if !strings.HasPrefix(got, "@media") {
		t.Errorf("Generate(md:flex) = %q, want @media wrapper", got)
	}
	if !strings.Contains(got, "display: flex") {
		t.Errorf("Generate(md:flex) = %q, missing declaration", got)
	}
}

func TestGenerateUnknownClass(t *testing.T) {
	s := testScope(t)

	for _, class := range []string{"bogus-123", "bg-nonexistent-999", "weird:flex"} {
		if _, err := Generate(s, class); !errors.Is(err, ErrUnknownClass) {
			t.Errorf("Generate(%q) error = %v, want ErrUnknownClass", class, err)
		}
	}
}

func TestGenerateConfiguredPrefix(t *testing.T) {
	s := scope.Parse("", "", []byte(`{"prefix": "tw-"}`))

	if _, err := Generate(s, "tw-flex"); err != nil {
		t.Errorf("Generate(tw-flex) error: %v", err)
	}
	if _, err := Generate(s, "flex"); !errors.Is(err, ErrUnknownClass) {
		t.Errorf("Generate(flex) without prefix should fail, got %v", err)
	}
}

func TestExtractColor(t *testing.T) {
	tests := []struct {
		fragment string
		want     string
		ok       bool
	}{
		{".bg-red-500 { background-color: #ef4444; }", "#ef4444", true},
		{".text-white { color: #ffffff; }", "#ffffff", true},
		{".x { color: #FFF; }", "#ffffff", true},
		{".x { color: rgb(255, 0, 0); }", "#ff0000", true},
		{".x { color: transparent; }", "transparent", true},
		{".flex { display: flex; }", "", false},
		{".truncate { overflow: hidden; text-overflow: ellipsis; white-space: nowrap; }", "", false},
		{"not a fragment", "", false},
	}

	for _, tt := range tests {
		got, ok := ExtractColor(tt.fragment)
		if ok != tt.ok || got != tt.want {
			t.Errorf("ExtractColor(%q) = (%q, %v), want (%q, %v)", tt.fragment, got, ok, tt.want, tt.ok)
		}
	}
}

func TestPretty(t *testing.T) {
	s := testScope(t)

	got, err := Pretty(s, "px-2")
	if err != nil {
		t.Fatalf("Pretty error: %v", err)
	}

	want := ".px-2 {\n  padding-left: 0.5rem;\n  padding-right: 0.5rem;\n}"
	if got != want {
		t.Errorf("Pretty = %q, want %q", got, want)
	}
}

func TestPrettyMedia(t *testing.T) {
	s := testScope(t)

	got, err := Pretty(s, "md:flex")
	if err != nil {
		t.Fatalf("Pretty error: %v", err)
	}
	if !strings.HasPrefix(got, "@media") || !strings.Contains(got, "\n") {
		t.Errorf("Pretty(md:flex) = %q, want multi-line @media block", got)
	}
}

func TestDocs(t *testing.T) {
	s := testScope(t)

	got, err := Docs(s, "flex")
	if err != nil {
		t.Fatalf("Docs error: %v", err)
	}
	if !strings.HasPrefix(got, "```css\n") || !strings.HasSuffix(got, "\n```") {
		t.Errorf("Docs = %q, want fenced css block", got)
	}
}

func TestIsStylesheet(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"styles/main.css", true},
		{"app.SCSS", true},
		{"theme.less", true},
		{"index.html", false},
		{"component.tsx", false},
		{"Makefile", false},
	}

	for _, tt := range tests {
		if got := IsStylesheet(tt.path); got != tt.want {
			t.Errorf("IsStylesheet(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

package language

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func testLogger() *log.Logger {
	return log.New(io.Discard)
}

// recordingRegistrar logs calls in order so tests can assert the
// release-before-register sequence.
type recordingRegistrar struct {
	calls       []string
	nextID      int
	registerErr error
}

func (r *recordingRegistrar) Register(ctx context.Context, languages, triggerCharacters []string) (string, error) {
	if r.registerErr != nil {
		return "", r.registerErr
	}
	r.nextID++
	id := fmt.Sprintf("reg-%d", r.nextID)
	r.calls = append(r.calls, "register "+id)
	return id, nil
}

func (r *recordingRegistrar) Unregister(ctx context.Context, id string) error {
	r.calls = append(r.calls, "unregister "+id)
	return nil
}

type recordingWarner struct {
	messages []string
}

func (w *recordingWarner) Warn(ctx context.Context, message string) {
	w.messages = append(w.messages, message)
}

func TestValidatePartition(t *testing.T) {
	valid, invalid := Validate([]string{"go", "nope", "astro", "madeup"})

	if want := []string{"go", "astro"}; !equal(valid, want) {
		t.Errorf("valid = %v, want %v", valid, want)
	}
	if want := []string{"nope", "madeup"}; !equal(invalid, want) {
		t.Errorf("invalid = %v, want %v", invalid, want)
	}
}

func TestRegisterMergesDefaults(t *testing.T) {
	reg := &recordingRegistrar{}
	m := NewManager(reg, &recordingWarner{}, testLogger())

	r, err := m.Register(context.Background(), []string{"go", "html"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	langs := r.Languages()
	if !sort.StringsAreSorted(langs) {
		t.Error("registered language set is not sorted")
	}
	want := make(map[string]bool, len(DefaultLanguages)+1)
	for _, id := range DefaultLanguages {
		want[id] = true
	}
	want["go"] = true
	if len(langs) != len(want) {
		t.Fatalf("registered %d languages, want %d", len(langs), len(want))
	}
	for _, id := range langs {
		if !want[id] {
			t.Errorf("unexpected language %q registered", id)
		}
	}
}

func TestRegisterWarnsOnceForInvalidIDs(t *testing.T) {
	warner := &recordingWarner{}
	m := NewManager(&recordingRegistrar{}, warner, testLogger())

	r, err := m.Register(context.Background(), []string{"html", "klingon", "elvish"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	if len(warner.messages) != 1 {
		t.Fatalf("got %d warnings, want exactly 1", len(warner.messages))
	}
	msg := warner.messages[0]
	if !strings.Contains(msg, "klingon") || !strings.Contains(msg, "elvish") {
		t.Errorf("warning %q does not name the rejected identifiers", msg)
	}

	// Rejected identifiers never make it into the registration.
	for _, id := range r.Languages() {
		if id == "klingon" || id == "elvish" {
			t.Errorf("rejected identifier %q was registered", id)
		}
	}
}

func TestRegisterNoWarningForValidIDs(t *testing.T) {
	warner := &recordingWarner{}
	m := NewManager(&recordingRegistrar{}, warner, testLogger())

	if _, err := m.Register(context.Background(), []string{"go", "rust"}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if len(warner.messages) != 0 {
		t.Errorf("got warnings %v, want none", warner.messages)
	}
}

func TestRegisterReleasesPreviousFirst(t *testing.T) {
	reg := &recordingRegistrar{}
	m := NewManager(reg, &recordingWarner{}, testLogger())

	if _, err := m.Register(context.Background(), nil); err != nil {
		t.Fatalf("first Register: %v", err)
	}
	if _, err := m.Register(context.Background(), []string{"go"}); err != nil {
		t.Fatalf("second Register: %v", err)
	}

	want := []string{"register reg-1", "unregister reg-1", "register reg-2"}
	if !equal(reg.calls, want) {
		t.Errorf("registrar calls = %v, want %v", reg.calls, want)
	}

	if cur := m.Current(); cur == nil || cur.ID() != "reg-2" {
		t.Errorf("current registration = %v, want reg-2", cur)
	}
}

func TestRegisterFailure(t *testing.T) {
	reg := &recordingRegistrar{registerErr: errors.New("host refused")}
	m := NewManager(reg, &recordingWarner{}, testLogger())

	if _, err := m.Register(context.Background(), nil); err == nil {
		t.Fatal("Register should surface the registrar error")
	}
	if m.Current() != nil {
		t.Error("failed registration must not become current")
	}
}

func TestReleaseIdempotent(t *testing.T) {
	reg := &recordingRegistrar{}
	m := NewManager(reg, &recordingWarner{}, testLogger())

	r, err := m.Register(context.Background(), nil)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	if err := r.Release(context.Background()); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if err := r.Release(context.Background()); err != nil {
		t.Fatalf("second Release: %v", err)
	}

	unregisters := 0
	for _, call := range reg.calls {
		if strings.HasPrefix(call, "unregister") {
			unregisters++
		}
	}
	if unregisters != 1 {
		t.Errorf("got %d unregister calls, want 1", unregisters)
	}
}

func TestShutdown(t *testing.T) {
	reg := &recordingRegistrar{}
	m := NewManager(reg, &recordingWarner{}, testLogger())

	if _, err := m.Register(context.Background(), nil); err != nil {
		t.Fatalf("Register: %v", err)
	}

	m.Shutdown(context.Background())
	if m.Current() != nil {
		t.Error("Shutdown must clear the current registration")
	}
	if want := []string{"register reg-1", "unregister reg-1"}; !equal(reg.calls, want) {
		t.Errorf("registrar calls = %v, want %v", reg.calls, want)
	}

	// Shutdown with nothing live is a no-op.
	m.Shutdown(context.Background())
	if len(reg.calls) != 2 {
		t.Errorf("second Shutdown made registrar calls: %v", reg.calls)
	}
}

func equal(a, b []string) bool {
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

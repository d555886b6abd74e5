package language

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"
)

// Registrar installs and removes the completion provider's binding to
// a language set. The LSP server implements it with dynamic capability
// registration; hosts without dynamic registration supply a no-op.
type Registrar interface {
	Register(ctx context.Context, languages []string, triggerCharacters []string) (id string, err error)
	Unregister(ctx context.Context, id string) error
}

// Warner reports a non-fatal, user-visible warning.
type Warner interface {
	Warn(ctx context.Context, message string)
}

// Registration is the live binding of the completion provider to a
// language set. Exactly one is live at a time; Release is idempotent.
type Registration struct {
	id        string
	languages []string
	registrar Registrar
	released  atomic.Bool
}

// Languages returns the language set this registration covers.
func (r *Registration) Languages() []string { return r.languages }

// ID returns the registration identifier.
func (r *Registration) ID() string { return r.id }

// Release removes the registration. Calling it again is a no-op.
func (r *Registration) Release(ctx context.Context) error {
	if r.released.Swap(true) {
		return nil
	}
	return r.registrar.Unregister(ctx, r.id)
}

// Manager keeps the provider's activation scope consistent with user
// configuration, swapping the single live registration on every
// change.
type Manager struct {
	mu        sync.Mutex
	registrar Registrar
	warner    Warner
	logger    *log.Logger
	current   *Registration
}

// NewManager creates a registration manager.
func NewManager(registrar Registrar, warner Warner, logger *log.Logger) *Manager {
	return &Manager{
		registrar: registrar,
		warner:    warner,
		logger:    logger,
	}
}

// Register computes defaults ∪ validated configured identifiers and
// installs the completion provider for that set, releasing any
// previous registration strictly first. Two simultaneous
// registrations over overlapping language sets would double-fire
// every completion request.
func (m *Manager) Register(ctx context.Context, configured []string) (*Registration, error) {
	valid, invalid := Validate(configured)
	if len(invalid) > 0 {
		msg := fmt.Sprintf("classlens: ignoring unknown language identifier(s): %s", strings.Join(invalid, ", "))
		m.logger.Warn("invalid configured languages", "ids", invalid)
		m.warner.Warn(ctx, msg)
	}

	languages := merge(valid)

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current != nil {
		if err := m.current.Release(ctx); err != nil {
			m.logger.Error("release registration", "id", m.current.id, "err", err)
		}
		m.current = nil
	}

	id, err := m.registrar.Register(ctx, languages, TriggerCharacters)
	if err != nil {
		return nil, fmt.Errorf("register completion provider: %w", err)
	}

	reg := &Registration{
		id:        id,
		languages: languages,
		registrar: m.registrar,
	}
	m.current = reg
	m.logger.Info("completion provider registered", "id", id, "languages", len(languages))
	return reg, nil
}

// Current returns the live registration, or nil before the first
// Register call.
func (m *Manager) Current() *Registration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Shutdown releases the live registration, if any.
func (m *Manager) Shutdown(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current != nil {
		if err := m.current.Release(ctx); err != nil {
			m.logger.Error("release registration", "id", m.current.id, "err", err)
		}
		m.current = nil
	}
}

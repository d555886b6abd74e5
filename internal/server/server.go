// Package server wires the completion subsystem to an LSP client:
// handshake, document sync, configuration changes, and the completion
// request pair.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"

	"github.com/dshills/classlens/internal/completion"
	"github.com/dshills/classlens/internal/config"
	"github.com/dshills/classlens/internal/document"
	"github.com/dshills/classlens/internal/engine"
	"github.com/dshills/classlens/internal/language"
	"github.com/dshills/classlens/internal/protocol"
	"github.com/dshills/classlens/internal/rpc"
	"github.com/dshills/classlens/internal/scope"
)

// Server is one LSP session.
type Server struct {
	conn    *rpc.Conn
	logger  *log.Logger
	version string

	docs     *document.Store
	settings *config.Store

	// Completion subsystem, built during initialize once the
	// workspace root is known.
	mu           sync.RWMutex
	root         string
	registry     *scope.Registry
	watcher      *scope.Watcher
	cache        *engine.Cache
	orchestrator *completion.Orchestrator
	languages    *language.Manager

	// Registration swaps call back into the client over the same
	// connection, so they must never run on the read loop that delivers
	// the client's response. A worker drains this queue in order.
	registrations chan []string

	// The most recent candidate list, keyed by value, so
	// completionItem/resolve can recover the highlighted candidate.
	candMu     sync.Mutex
	candidates map[string]*completion.Candidate

	dynamicRegistration bool
	initialized         atomic.Bool
	shuttingDown        atomic.Bool
	exited              chan struct{}
}

// New creates a server over the given stream (typically stdin/stdout).
func New(r io.Reader, w io.Writer, version string, logger *log.Logger) *Server {
	s := &Server{
		logger:     logger,
		version:    version,
		docs:       document.NewStore(),
		settings:   config.NewStore(),
		candidates: make(map[string]*completion.Candidate),
		exited:     make(chan struct{}),
	}
	closer, _ := r.(io.Closer)
	s.conn = rpc.NewConn(r, w, closer, logger)
	s.routes()
	return s
}

// Run serves the connection until the client disconnects or sends exit.
func (s *Server) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		select {
		case <-s.exited:
			cancel()
		case <-ctx.Done():
		}
		// Unblock the read loop; Serve treats reads after Close as a
		// clean disconnect.
		s.conn.Close()
	}()

	err := s.conn.Serve(ctx)
	if s.watcher != nil {
		s.watcher.Close()
	}
	if err == context.Canceled || err == rpc.ErrConnClosed {
		return nil
	}
	return err
}

// routes registers all protocol handlers.
func (s *Server) routes() {
	s.conn.Handle("initialize", s.handleInitialize)
	s.conn.Handle("shutdown", s.handleShutdown)
	s.conn.Handle("textDocument/completion", s.handleCompletion)
	s.conn.Handle("completionItem/resolve", s.handleResolve)

	s.conn.HandleNotification("initialized", s.handleInitialized)
	s.conn.HandleNotification("exit", s.handleExit)
	s.conn.HandleNotification("textDocument/didOpen", s.handleDidOpen)
	s.conn.HandleNotification("textDocument/didChange", s.handleDidChange)
	s.conn.HandleNotification("textDocument/didClose", s.handleDidClose)
	s.conn.HandleNotification("workspace/didChangeConfiguration", s.handleDidChangeConfiguration)
}

func (s *Server) handleInitialize(ctx context.Context, params json.RawMessage) (any, error) {
	var p protocol.InitializeParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, &rpc.Error{Code: rpc.CodeInvalidParams, Message: err.Error()}
	}

	root := protocol.URIToFilePath(p.RootURI)
	if root == "" {
		root = p.RootPath
	}
	if root == "" {
		if wd, err := os.Getwd(); err == nil {
			root = wd
		}
	}
	s.dynamicRegistration = p.Capabilities.TextDocument.Completion.DynamicRegistration

	if len(p.InitializationOptions) > 0 {
		if err := s.settings.Update(p.InitializationOptions); err != nil {
			s.logger.Warn("initialization options", "err", err)
		}
	}

	if err := s.buildSubsystem(root); err != nil {
		return nil, &rpc.Error{Code: rpc.CodeInternalError, Message: err.Error()}
	}

	caps := protocol.ServerCapabilities{
		TextDocumentSync: protocol.TextDocumentSyncKindFull,
	}
	if !s.dynamicRegistration {
		// Static fallback: the client cannot swap registrations, so
		// the provider is advertised once for all documents.
		caps.CompletionProvider = &protocol.CompletionOptions{
			TriggerCharacters: language.TriggerCharacters,
			ResolveProvider:   true,
		}
	}

	s.logger.Info("initialized", "root", root, "dynamicRegistration", s.dynamicRegistration)
	return protocol.InitializeResult{
		Capabilities: caps,
		ServerInfo:   &protocol.ServerInfo{Name: "classlens", Version: s.version},
	}, nil
}

// buildSubsystem constructs the completion pipeline for a workspace
// root: registry, watcher, engine cache, orchestrator, and the
// language registration manager.
func (s *Server) buildSubsystem(root string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.root = root
	s.registry = scope.NewRegistry(root, s.logger)

	watcher, err := scope.NewWatcher(s.registry, s.logger)
	if err != nil {
		return fmt.Errorf("config watcher: %w", err)
	}
	s.watcher = watcher

	s.cache = engine.NewCache(s.logger)
	s.cache.Bind(s.registry.Notifier())

	s.orchestrator = completion.New(
		root,
		s.registry,
		completion.CachedEngines{Cache: s.cache},
		completion.CSSGenerator{},
		s.logger,
	)

	var registrar language.Registrar
	if s.dynamicRegistration {
		registrar = &capabilityRegistrar{conn: s.conn}
	} else {
		registrar = staticRegistrar{}
	}
	s.languages = language.NewManager(registrar, messageWarner{conn: s.conn, logger: s.logger}, s.logger)
	s.registrations = make(chan []string, 16)

	return nil
}

func (s *Server) handleInitialized(ctx context.Context, _ json.RawMessage) {
	if s.initialized.Swap(true) {
		return
	}

	go s.watcher.Run(context.Background())
	go s.registrationLoop(ctx)

	// Initial registration happens regardless of whether the client
	// ever pushed configuration.
	s.enqueueRegistration(s.settings.Settings().IncludeLanguages)

	s.settings.OnChange(func(settings config.Settings) {
		s.applySettings(settings)
	})
}

// applySettings reacts to a configuration change: adjust logging and
// queue the completion registration swap. It runs on the read loop and
// must not block.
func (s *Server) applySettings(settings config.Settings) {
	if settings.LogLevel != "" {
		if level, err := log.ParseLevel(settings.LogLevel); err == nil {
			s.logger.SetLevel(level)
		}
	}
	s.enqueueRegistration(settings.IncludeLanguages)
}

func (s *Server) enqueueRegistration(languages []string) {
	select {
	case s.registrations <- languages:
	default:
		s.logger.Warn("registration queue full, dropping change")
	}
}

// registrationLoop applies queued registration swaps in order. It is
// the only caller of Manager.Register, so the release-before-register
// sequence stays serialized even when configuration changes arrive
// faster than the client acknowledges them.
func (s *Server) registrationLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.exited:
			return
		case languages := <-s.registrations:
			if _, err := s.languages.Register(ctx, languages); err != nil {
				s.logger.Error("registration", "err", err)
			}
		}
	}
}

func (s *Server) handleShutdown(ctx context.Context, _ json.RawMessage) (any, error) {
	s.shuttingDown.Store(true)
	if s.languages != nil {
		s.languages.Shutdown(ctx)
	}
	return nil, nil
}

func (s *Server) handleExit(ctx context.Context, _ json.RawMessage) {
	select {
	case <-s.exited:
	default:
		close(s.exited)
	}
}

func (s *Server) handleDidOpen(ctx context.Context, params json.RawMessage) {
	var p protocol.DidOpenTextDocumentParams
	if err := json.Unmarshal(params, &p); err != nil {
		s.logger.Error("didOpen params", "err", err)
		return
	}
	if err := s.docs.Open(p.TextDocument); err != nil {
		s.logger.Warn("open document", "uri", p.TextDocument.URI, "err", err)
	}
}

func (s *Server) handleDidChange(ctx context.Context, params json.RawMessage) {
	var p protocol.DidChangeTextDocumentParams
	if err := json.Unmarshal(params, &p); err != nil {
		s.logger.Error("didChange params", "err", err)
		return
	}
	if len(p.ContentChanges) == 0 {
		return
	}
	// Full sync: the last change carries the entire document.
	text := p.ContentChanges[len(p.ContentChanges)-1].Text
	if err := s.docs.Change(p.TextDocument.URI, p.TextDocument.Version, text); err != nil {
		s.logger.Warn("change document", "uri", p.TextDocument.URI, "err", err)
	}
}

func (s *Server) handleDidClose(ctx context.Context, params json.RawMessage) {
	var p protocol.DidCloseTextDocumentParams
	if err := json.Unmarshal(params, &p); err != nil {
		s.logger.Error("didClose params", "err", err)
		return
	}
	if err := s.docs.Close(p.TextDocument.URI); err != nil {
		s.logger.Warn("close document", "uri", p.TextDocument.URI, "err", err)
	}
}

func (s *Server) handleDidChangeConfiguration(ctx context.Context, params json.RawMessage) {
	var p protocol.DidChangeConfigurationParams
	if err := json.Unmarshal(params, &p); err != nil {
		s.logger.Error("didChangeConfiguration params", "err", err)
		return
	}
	if err := s.settings.Update(p.Settings); err != nil {
		s.logger.Warn("update settings", "err", err)
	}
}

package server

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/charmbracelet/log"

	"github.com/dshills/classlens/internal/protocol"
	"github.com/dshills/classlens/internal/rpc"
)

// completionMethod is the capability method registrations bind to.
const completionMethod = "textDocument/completion"

// capabilityRegistrar installs the completion provider through LSP
// dynamic capability registration.
type capabilityRegistrar struct {
	conn   *rpc.Conn
	nextID atomic.Uint64
}

func (r *capabilityRegistrar) Register(ctx context.Context, languages, triggerCharacters []string) (string, error) {
	id := fmt.Sprintf("classlens-completion-%d", r.nextID.Add(1))

	selector := make(protocol.DocumentSelector, len(languages))
	for i, lang := range languages {
		selector[i] = protocol.DocumentFilter{Language: lang}
	}

	params := protocol.RegistrationParams{
		Registrations: []protocol.Registration{{
			ID:     id,
			Method: completionMethod,
			RegisterOptions: protocol.CompletionRegistrationOptions{
				DocumentSelector:  selector,
				TriggerCharacters: triggerCharacters,
				ResolveProvider:   true,
			},
		}},
	}

	if err := r.conn.Call(ctx, "client/registerCapability", params, nil); err != nil {
		return "", err
	}
	return id, nil
}

func (r *capabilityRegistrar) Unregister(ctx context.Context, id string) error {
	params := protocol.UnregistrationParams{
		Unregisterations: []protocol.Unregistration{{ID: id, Method: completionMethod}},
	}
	return r.conn.Call(ctx, "client/unregisterCapability", params, nil)
}

// staticRegistrar is the fallback for clients without dynamic
// registration: the provider was advertised in the initialize
// response, so swapping is a no-op.
type staticRegistrar struct{}

func (staticRegistrar) Register(ctx context.Context, languages, triggerCharacters []string) (string, error) {
	return "static", nil
}

func (staticRegistrar) Unregister(ctx context.Context, id string) error {
	return nil
}

// messageWarner surfaces aggregated warnings through
// window/showMessage.
type messageWarner struct {
	conn   *rpc.Conn
	logger *log.Logger
}

func (w messageWarner) Warn(ctx context.Context, message string) {
	params := protocol.ShowMessageParams{
		Type:    protocol.MessageTypeWarning,
		Message: message,
	}
	if err := w.conn.Notify(ctx, "window/showMessage", params); err != nil {
		w.logger.Warn("show message", "err", err)
	}
}

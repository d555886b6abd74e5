package server

import (
	"context"
	"encoding/json"

	"github.com/dshills/classlens/internal/completion"
	"github.com/dshills/classlens/internal/document"
	"github.com/dshills/classlens/internal/protocol"
	"github.com/dshills/classlens/internal/rpc"
)

func (s *Server) handleCompletion(ctx context.Context, params json.RawMessage) (any, error) {
	var p protocol.CompletionParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, &rpc.Error{Code: rpc.CodeInvalidParams, Message: err.Error()}
	}

	doc, ok := s.docs.Get(p.TextDocument.URI)
	if !ok {
		return nil, nil
	}

	offset := document.OffsetForPosition(doc.Text, p.Position)
	list := s.orchestrator.Provide(ctx, doc.Path, doc.Text, offset)
	if list == nil {
		return nil, nil
	}

	s.candMu.Lock()
	s.candidates = make(map[string]*completion.Candidate, len(list.Candidates))
	for _, cand := range list.Candidates {
		s.candidates[cand.Value] = cand
	}
	s.candMu.Unlock()

	items := make([]protocol.CompletionItem, len(list.Candidates))
	for i, cand := range list.Candidates {
		items[i] = s.toItem(doc.Text, cand)
	}
	return protocol.CompletionList{IsIncomplete: list.Incomplete, Items: items}, nil
}

func (s *Server) handleResolve(ctx context.Context, params json.RawMessage) (any, error) {
	var item protocol.CompletionItem
	if err := json.Unmarshal(params, &item); err != nil {
		return nil, &rpc.Error{Code: rpc.CodeInvalidParams, Message: err.Error()}
	}

	value, ok := itemValue(item)
	if !ok {
		return item, nil
	}

	s.candMu.Lock()
	cand := s.candidates[value]
	s.candMu.Unlock()
	if cand == nil {
		return item, nil
	}

	cand = s.orchestrator.Resolve(ctx, cand)
	if cand.Detail != "" {
		item.Detail = cand.Detail
	}
	if cand.Documentation != "" {
		item.Documentation = &protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: cand.Documentation,
		}
	}
	return item, nil
}

// toItem converts an orchestrator candidate to the wire shape. The
// candidate's value rides along in Data so resolve can find it again.
func (s *Server) toItem(text string, cand *completion.Candidate) protocol.CompletionItem {
	item := protocol.CompletionItem{
		Label:      cand.Label,
		Kind:       protocol.CompletionItemKindConstant,
		SortText:   cand.SortText,
		FilterText: cand.Value,
		TextEdit: &protocol.TextEdit{
			Range: protocol.Range{
				Start: document.PositionForOffset(text, cand.Span.Start),
				End:   document.PositionForOffset(text, cand.Span.End),
			},
			NewText: cand.Span.Text,
		},
		Data: map[string]any{"value": cand.Value},
	}

	if cand.Kind == completion.KindColor {
		item.Kind = protocol.CompletionItemKindColor
		// Clients render a swatch when a color item's documentation
		// is a bare color string.
		item.Documentation = cand.Preview
	}
	return item
}

// itemValue recovers the candidate value from a resolve payload.
func itemValue(item protocol.CompletionItem) (string, bool) {
	data, ok := item.Data.(map[string]any)
	if !ok {
		return "", false
	}
	value, ok := data["value"].(string)
	return value, ok
}

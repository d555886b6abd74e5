// Package rpc implements JSON-RPC 2.0 over the LSP base protocol
// (Content-Length framed messages, typically on stdio).
//
// A Conn serves incoming requests and notifications through registered
// handlers and can issue outgoing requests to the peer on the same
// stream, which the LSP needs for server-to-client calls such as
// client/registerCapability.
package rpc

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"runtime/debug"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"
)

// Handler processes a single incoming request and returns its result.
type Handler func(ctx context.Context, params json.RawMessage) (any, error)

// NotificationHandler processes an incoming notification.
type NotificationHandler func(ctx context.Context, params json.RawMessage)

// Conn is a bidirectional JSON-RPC 2.0 connection.
// It is safe for concurrent use.
type Conn struct {
	reader *bufio.Reader
	writer io.Writer
	closer io.Closer
	logger *log.Logger

	writeMu sync.Mutex

	mu            sync.Mutex
	handlers      map[string]Handler
	notifications map[string]NotificationHandler
	pending       map[int64]chan *message

	nextID atomic.Int64
	closed atomic.Bool
	done   chan struct{}
}

// message is the wire form of every JSON-RPC payload. Incoming request
// IDs are kept raw so number and string IDs round-trip unchanged.
type message struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// NewConn creates a connection over the given stream.
// The closer may be nil when the stream does not need closing.
func NewConn(r io.Reader, w io.Writer, c io.Closer, logger *log.Logger) *Conn {
	return &Conn{
		reader:        bufio.NewReaderSize(r, 64*1024),
		writer:        w,
		closer:        c,
		logger:        logger,
		handlers:      make(map[string]Handler),
		notifications: make(map[string]NotificationHandler),
		pending:       make(map[int64]chan *message),
		done:          make(chan struct{}),
	}
}

// Handle registers a handler for an incoming request method.
func (c *Conn) Handle(method string, h Handler) {
	c.mu.Lock()
	c.handlers[method] = h
	c.mu.Unlock()
}

// HandleNotification registers a handler for an incoming notification method.
func (c *Conn) HandleNotification(method string, h NotificationHandler) {
	c.mu.Lock()
	c.notifications[method] = h
	c.mu.Unlock()
}

// Serve reads and dispatches messages until the stream ends, the
// context is cancelled, or the connection is closed.
func (c *Conn) Serve(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.done:
			return ErrConnClosed
		default:
		}

		msg, err := c.readMessage()
		if err != nil {
			if c.closed.Load() || err == io.EOF || err == io.ErrClosedPipe {
				return nil
			}
			c.logger.Error("read message", "err", err)
			continue
		}

		c.dispatch(ctx, msg)
	}
}

// Close closes the connection and releases resources.
// Pending outgoing calls fail with ErrConnClosed.
func (c *Conn) Close() error {
	if c.closed.Swap(true) {
		return nil // Already closed
	}

	close(c.done)

	c.mu.Lock()
	c.pending = make(map[int64]chan *message)
	c.mu.Unlock()

	if c.closer != nil {
		return c.closer.Close()
	}
	return nil
}

// Call sends a request to the peer and waits for its response.
func (c *Conn) Call(ctx context.Context, method string, params any, result any) error {
	if c.closed.Load() {
		return ErrConnClosed
	}

	id := c.nextID.Add(1)
	ch := make(chan *message, 1)

	c.mu.Lock()
	c.pending[id] = ch
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
	}()

	rawID, _ := json.Marshal(id)
	if err := c.send(&message{JSONRPC: "2.0", ID: rawID, Method: method, Params: marshalParams(params)}); err != nil {
		return fmt.Errorf("send request: %w", err)
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		return ErrConnClosed
	case resp := <-ch:
		if resp.Error != nil {
			return resp.Error
		}
		if result != nil && len(resp.Result) > 0 {
			if err := json.Unmarshal(resp.Result, result); err != nil {
				return fmt.Errorf("unmarshal result: %w", err)
			}
		}
		return nil
	}
}

// Notify sends a notification to the peer (no response expected).
func (c *Conn) Notify(ctx context.Context, method string, params any) error {
	if c.closed.Load() {
		return ErrConnClosed
	}
	return c.send(&message{JSONRPC: "2.0", Method: method, Params: marshalParams(params)})
}

// dispatch routes one incoming message.
func (c *Conn) dispatch(ctx context.Context, raw json.RawMessage) {
	var msg message
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.logger.Error("parse message", "err", err)
		c.reply(nil, nil, &Error{Code: CodeParseError, Message: "parse error"})
		return
	}

	switch {
	case msg.Method != "" && msg.ID != nil:
		// Requests run concurrently; a slow completion must not block
		// configuration changes or document sync on the same stream.
		go c.handleRequest(ctx, &msg)
	case msg.Method != "":
		c.handleNotification(ctx, &msg)
	default:
		c.handleResponse(&msg)
	}
}

func (c *Conn) handleRequest(ctx context.Context, msg *message) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("handler panic", "method", msg.Method, "panic", r, "stack", string(debug.Stack()))
			c.reply(msg.ID, nil, &Error{Code: CodeInternalError, Message: fmt.Sprintf("internal error: %v", r)})
		}
	}()

	c.mu.Lock()
	h, ok := c.handlers[msg.Method]
	c.mu.Unlock()

	if !ok {
		c.reply(msg.ID, nil, &Error{Code: CodeMethodNotFound, Message: "method not found: " + msg.Method})
		return
	}

	result, err := h(ctx, msg.Params)
	if err != nil {
		c.reply(msg.ID, nil, toError(err))
		return
	}
	c.reply(msg.ID, result, nil)
}

func (c *Conn) handleNotification(ctx context.Context, msg *message) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("notification panic", "method", msg.Method, "panic", r, "stack", string(debug.Stack()))
		}
	}()

	c.mu.Lock()
	h, ok := c.notifications[msg.Method]
	c.mu.Unlock()

	if !ok {
		return
	}
	h(ctx, msg.Params)
}

func (c *Conn) handleResponse(msg *message) {
	if msg.ID == nil {
		return
	}
	id, err := strconv.ParseInt(strings.Trim(string(msg.ID), `"`), 10, 64)
	if err != nil {
		c.logger.Error("response with unparseable id", "id", string(msg.ID))
		return
	}

	c.mu.Lock()
	ch, ok := c.pending[id]
	c.mu.Unlock()

	if ok {
		ch <- msg
	}
}

// reply sends a response. A nil id means there is nothing to respond
// to (unparseable message); per JSON-RPC the error is sent with id null.
func (c *Conn) reply(id json.RawMessage, result any, rpcErr *Error) {
	resp := &message{JSONRPC: "2.0", ID: id, Error: rpcErr}
	if id == nil {
		resp.ID = json.RawMessage("null")
	}
	if rpcErr == nil {
		data, err := json.Marshal(result)
		if err != nil {
			resp.Error = &Error{Code: CodeInternalError, Message: "marshal result: " + err.Error()}
		} else {
			resp.Result = data
		}
	}
	if err := c.send(resp); err != nil && !c.closed.Load() {
		c.logger.Error("send response", "err", err)
	}
}

// send writes a message with the LSP Content-Length header.
func (c *Conn) send(msg *message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	header := fmt.Sprintf("Content-Length: %d\r\n\r\n", len(data))

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if _, err := io.WriteString(c.writer, header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if _, err := c.writer.Write(data); err != nil {
		return fmt.Errorf("write body: %w", err)
	}
	return nil
}

// readMessage reads a single framed message.
func (c *Conn) readMessage() (json.RawMessage, error) {
	var contentLength int
	for {
		line, err := c.reader.ReadString('\n')
		if err != nil {
			return nil, err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			break // End of headers
		}
		if strings.HasPrefix(strings.ToLower(line), "content-length:") {
			parts := strings.SplitN(line, ":", 2)
			if len(parts) == 2 {
				if length, err := strconv.Atoi(strings.TrimSpace(parts[1])); err == nil {
					contentLength = length
				}
			}
		}
		// Ignore Content-Type and other headers
	}

	if contentLength == 0 {
		return nil, fmt.Errorf("missing Content-Length header")
	}

	body := make([]byte, contentLength)
	if _, err := io.ReadFull(c.reader, body); err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

func marshalParams(params any) json.RawMessage {
	if params == nil {
		return nil
	}
	data, err := json.Marshal(params)
	if err != nil {
		return nil
	}
	return data
}

func toError(err error) *Error {
	if e, ok := err.(*Error); ok {
		return e
	}
	return &Error{Code: CodeInternalError, Message: err.Error()}
}

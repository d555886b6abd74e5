package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

func testLogger() *log.Logger {
	return log.New(io.Discard)
}

// connPair wires two connections back to back over in-memory pipes and
// serves both until the test ends.
func connPair(t *testing.T) (client, server *Conn) {
	t.Helper()

	clientReader, serverWriter := io.Pipe()
	serverReader, clientWriter := io.Pipe()

	client = NewConn(clientReader, clientWriter, clientWriter, testLogger())
	server = NewConn(serverReader, serverWriter, serverWriter, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	go client.Serve(ctx)
	go server.Serve(ctx)

	t.Cleanup(func() {
		cancel()
		client.Close()
		server.Close()
		clientReader.Close()
		serverReader.Close()
	})
	return client, server
}

func TestCallRoundTrip(t *testing.T) {
	client, server := connPair(t)

	server.Handle("ping", func(ctx context.Context, params json.RawMessage) (any, error) {
		var in map[string]string
		if err := json.Unmarshal(params, &in); err != nil {
			return nil, err
		}
		return map[string]string{"echo": in["msg"]}, nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var result map[string]string
	if err := client.Call(ctx, "ping", map[string]string{"msg": "hello"}, &result); err != nil {
		t.Fatalf("Call: %v", err)
	}
	if result["echo"] != "hello" {
		t.Errorf("result = %v, want echo hello", result)
	}
}

func TestNotification(t *testing.T) {
	client, server := connPair(t)

	received := make(chan string, 1)
	server.HandleNotification("event", func(ctx context.Context, params json.RawMessage) {
		var in map[string]string
		json.Unmarshal(params, &in)
		received <- in["name"]
	})

	if err := client.Notify(context.Background(), "event", map[string]string{"name": "opened"}); err != nil {
		t.Fatalf("Notify: %v", err)
	}

	select {
	case name := <-received:
		if name != "opened" {
			t.Errorf("notification payload = %q, want opened", name)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("notification never delivered")
	}
}

func TestMethodNotFound(t *testing.T) {
	client, _ := connPair(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := client.Call(ctx, "no/such/method", nil, nil)
	var rpcErr *Error
	if !errors.As(err, &rpcErr) || rpcErr.Code != CodeMethodNotFound {
		t.Errorf("Call error = %v, want code %d", err, CodeMethodNotFound)
	}
}

func TestHandlerErrorPreserved(t *testing.T) {
	client, server := connPair(t)

	server.Handle("fail", func(ctx context.Context, params json.RawMessage) (any, error) {
		return nil, &Error{Code: CodeInvalidParams, Message: "bad params"}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := client.Call(ctx, "fail", nil, nil)
	var rpcErr *Error
	if !errors.As(err, &rpcErr) {
		t.Fatalf("Call error = %v, want *Error", err)
	}
	if rpcErr.Code != CodeInvalidParams || rpcErr.Message != "bad params" {
		t.Errorf("error = %+v, want code %d message %q", rpcErr, CodeInvalidParams, "bad params")
	}
}

func TestHandlerPanicBecomesInternalError(t *testing.T) {
	client, server := connPair(t)

	server.Handle("boom", func(ctx context.Context, params json.RawMessage) (any, error) {
		panic("handler exploded")
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := client.Call(ctx, "boom", nil, nil)
	var rpcErr *Error
	if !errors.As(err, &rpcErr) || rpcErr.Code != CodeInternalError {
		t.Errorf("Call error = %v, want internal error", err)
	}
}

func TestServerInitiatedCall(t *testing.T) {
	client, server := connPair(t)

	client.Handle("client/registerCapability", func(ctx context.Context, params json.RawMessage) (any, error) {
		return nil, nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Call(ctx, "client/registerCapability", map[string]any{"registrations": []any{}}, nil); err != nil {
		t.Fatalf("server-initiated Call: %v", err)
	}
}

func TestCallAfterClose(t *testing.T) {
	client, _ := connPair(t)

	if err := client.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := client.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}

	if err := client.Call(context.Background(), "ping", nil, nil); !errors.Is(err, ErrConnClosed) {
		t.Errorf("Call after Close error = %v, want ErrConnClosed", err)
	}
	if err := client.Notify(context.Background(), "event", nil); !errors.Is(err, ErrConnClosed) {
		t.Errorf("Notify after Close error = %v, want ErrConnClosed", err)
	}
}

func TestCallContextTimeout(t *testing.T) {
	// Peer that never responds: the request is written and discarded.
	deadReader, _ := io.Pipe()
	conn := NewConn(deadReader, io.Discard, nil, testLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if err := conn.Call(ctx, "ping", nil, nil); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Call error = %v, want deadline exceeded", err)
	}
}

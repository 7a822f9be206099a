package adapter

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
)

// RemoteBackend drives a session hosted by a gateway over /ws.
type RemoteBackend struct {
	mu         sync.Mutex
	conn       *websocket.Conn
	sessionID  string
	prompt     string
	transcript []string
}

// Dial connects to the gateway at addr (http(s):// or ws(s)://). An empty
// sessionID asks the gateway for a session scoped to the connection.
func Dial(ctx context.Context, addr, sessionID string) (*RemoteBackend, error) {
	endpoint, err := terminalURL(addr, sessionID)
	if err != nil {
		return nil, err
	}
	conn, err := dialWebSocket(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", endpoint, err)
	}
	var ready Reply
	if err := readWSMessage(conn, &ready); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("read greeting: %w", err)
	}
	if ready.Type != "ready" {
		_ = conn.Close()
		return nil, fmt.Errorf("unexpected greeting %q", ready.Type)
	}
	return &RemoteBackend{
		conn:       conn,
		sessionID:  ready.SessionID,
		prompt:     ready.Prompt,
		transcript: ready.Lines,
	}, nil
}

func terminalURL(addr, sessionID string) (string, error) {
	if !strings.Contains(addr, "://") {
		addr = "ws://" + addr
	}
	u, err := url.Parse(addr)
	if err != nil {
		return "", fmt.Errorf("parse gateway address: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported gateway scheme %q", u.Scheme)
	}
	if u.Path == "" || u.Path == "/" {
		u.Path = "/ws"
	}
	if sessionID != "" {
		q := u.Query()
		q.Set("session", sessionID)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

func (b *RemoteBackend) SessionID() string {
	return b.sessionID
}

func (b *RemoteBackend) Prompt() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.prompt
}

func (b *RemoteBackend) Transcript() []string {
	return b.transcript
}

func (b *RemoteBackend) Run(line string) (Result, error) {
	reply, err := b.call(Message{Type: "command", Input: line})
	if err != nil {
		return Result{}, err
	}
	return Result{Lines: reply.Lines, Prompt: reply.Prompt, Cleared: reply.Cleared}, nil
}

func (b *RemoteBackend) Complete(input string) (string, error) {
	reply, err := b.call(Message{Type: "complete", Input: input})
	if err != nil {
		return input, err
	}
	return reply.Input, nil
}

func (b *RemoteBackend) call(msg Message) (Reply, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := writeWSMessage(b.conn, msg); err != nil {
		return Reply{}, err
	}
	var reply Reply
	if err := readWSMessage(b.conn, &reply); err != nil {
		return Reply{}, err
	}
	if reply.Error != "" {
		return Reply{}, errors.New(reply.Error)
	}
	if reply.Prompt != "" {
		b.prompt = reply.Prompt
	}
	return reply, nil
}

func (b *RemoteBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	_ = b.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return b.conn.Close()
}

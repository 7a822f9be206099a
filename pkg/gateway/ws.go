package gateway

import (
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/sameehj/vsh/pkg/session"
)

const (
	MessageReady    = "ready"
	MessageCommand  = "command"
	MessageComplete = "complete"
	MessageError    = "error"
)

// Message is a terminal request sent over /ws.
type Message struct {
	Type  string `json:"type"`
	Input string `json:"input"`
}

// Reply answers a Message. Ready replies carry the session id and the
// transcript so far in Lines.
type Reply struct {
	Type      string   `json:"type"`
	SessionID string   `json:"sessionId,omitempty"`
	Lines     []string `json:"lines,omitempty"`
	Input     string   `json:"input,omitempty"`
	Prompt    string   `json:"prompt"`
	Cleared   bool     `json:"cleared,omitempty"`
	Error     string   `json:"error,omitempty"`
}

// handleWebSocket attaches to ?session=<id>, or to a fresh session that
// lives as long as the connection.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	var (
		sess  *session.Session
		err   error
		owned bool
	)
	if id := r.URL.Query().Get("session"); id != "" {
		sess, err = s.sessions.Get(id)
	} else {
		sess, err = s.sessions.Create(r.RemoteAddr)
		owned = true
	}
	if err != nil {
		s.writeSessionError(w, err)
		return
	}
	if owned {
		defer func() { _ = s.sessions.Delete(sess.ID) }()
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logWarn("websocket_upgrade_failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	defer conn.Close()
	s.logInfo("terminal_attached", "id", sess.ID, "remote", r.RemoteAddr)

	ready := Reply{Type: MessageReady, SessionID: sess.ID, Lines: sess.Shell.History(), Prompt: sess.Shell.Prompt()}
	if err := conn.WriteJSON(ready); err != nil {
		return
	}
	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logWarn("terminal_read_failed", "id", sess.ID, "error", err)
			}
			break
		}
		if _, err := s.sessions.Get(sess.ID); err != nil {
			_ = conn.WriteJSON(Reply{Type: MessageError, Error: err.Error(), Prompt: sess.Shell.Prompt()})
			s.logInfo("terminal_session_gone", "id", sess.ID)
			break
		}
		if err := conn.WriteJSON(s.terminalReply(sess, msg)); err != nil {
			s.logWarn("terminal_write_failed", "id", sess.ID, "error", err)
			break
		}
	}
	s.logInfo("terminal_detached", "id", sess.ID)
}

func (s *Server) terminalReply(sess *session.Session, msg Message) Reply {
	switch msg.Type {
	case MessageCommand:
		res := sess.Shell.Run(msg.Input)
		return Reply{Type: MessageCommand, Lines: res.Lines, Prompt: res.Prompt, Cleared: res.Cleared}
	case MessageComplete:
		return Reply{Type: MessageComplete, Input: sess.Shell.Complete(msg.Input), Prompt: sess.Shell.Prompt()}
	default:
		return Reply{Type: MessageError, Error: "unknown message type: " + msg.Type, Prompt: sess.Shell.Prompt()}
	}
}

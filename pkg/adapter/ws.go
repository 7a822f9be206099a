package adapter

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const wsTimeout = 15 * time.Second

func dialWebSocket(ctx context.Context, addr string) (*websocket.Conn, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, addr, http.Header{})
	if err != nil {
		return nil, err
	}
	return conn, nil
}

func writeWSMessage(conn *websocket.Conn, payload interface{}) error {
	_ = conn.SetWriteDeadline(time.Now().Add(wsTimeout))
	return conn.WriteJSON(payload)
}

func readWSMessage(conn *websocket.Conn, out interface{}) error {
	_ = conn.SetReadDeadline(time.Now().Add(wsTimeout))
	return conn.ReadJSON(out)
}

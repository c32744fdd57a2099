package server

import (
	"net/http"

	"declang/pkg/eval"
	"declang/pkg/langerr"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// Allow all origins; put the API behind AUTH_SECRET when exposing it.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsMessage is one frame sent to the client. Type is "output", "done" or
// "error".
type wsMessage struct {
	Type  string `json:"type"`
	Line  string `json:"line,omitempty"`
	Error string `json:"error,omitempty"`
	Kind  string `json:"kind,omitempty"`
}

// handleWebSocket runs each text message as a script, streaming `show`
// output as it is produced.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied to the client
		s.logger.Printf("websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(s.cfg.MaxScriptBytes)

	for {
		msgType, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Printf("websocket read: %v", err)
			}
			return
		}
		if msgType != websocket.TextMessage {
			if err := conn.WriteJSON(wsMessage{Type: "error", Error: "scripts must be sent as text messages"}); err != nil {
				return
			}
			continue
		}

		if err := s.runStreaming(conn, r, string(msg)); err != nil {
			s.logger.Printf("websocket write: %v", err)
			return
		}
	}
}

// runStreaming returns only connection errors; script errors go to the client.
func (s *Server) runStreaming(conn *websocket.Conn, r *http.Request, source string) error {
	var writeErr error
	out := &showWriter{emit: func(text string) error {
		writeErr = conn.WriteJSON(wsMessage{Type: "output", Line: text})
		return writeErr
	}}

	err := eval.Run(source, out, s.evalOptions()...)
	if writeErr != nil {
		return writeErr
	}
	if err != nil {
		kind := langerr.KindOf(err).String()
		s.report(r, source, err, kind)
		return conn.WriteJSON(wsMessage{Type: "error", Error: err.Error(), Kind: kind})
	}
	return conn.WriteJSON(wsMessage{Type: "done"})
}

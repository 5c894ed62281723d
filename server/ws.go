package server

import (
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/gorilla/websocket"

	"wechat_md_publisher/publisher"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     sameOrigin,
}

// sameOrigin accepts the page served by this process and clients that send
// no Origin at all. Browsers always send one.
func sameOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Host, r.Host)
}

// wsEvent is one message on the publish stream.
type wsEvent struct {
	Type    string            `json:"type"`
	Message string            `json:"message,omitempty"`
	Result  *publisher.Result `json:"result,omitempty"`
}

// handlePublishWS reads one publish request from the socket, streams each
// progress line as it happens and ends with the result.
func (s *Server) handlePublishWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Printf("[WARN] websocket upgrade: %v", err)
		return
	}
	defer conn.Close()

	var req publishReq
	if err := conn.ReadJSON(&req); err != nil {
		_ = conn.WriteJSON(wsEvent{Type: "error", Message: err.Error()})
		return
	}
	if err := req.Validate(); err != nil {
		_ = conn.WriteJSON(wsEvent{Type: "error", Message: err.Error()})
		return
	}

	var mu sync.Mutex
	send := func(ev wsEvent) {
		mu.Lock()
		defer mu.Unlock()
		if err := conn.WriteJSON(ev); err != nil {
			s.logger.Printf("[WARN] websocket write: %v", err)
		}
	}

	in := req.input()
	in.Progress = func(msg string) { send(wsEvent{Type: "progress", Message: msg}) }
	res := s.pub.Publish(r.Context(), in)
	s.record(r.Context(), res, req.Source, req.Markdown)
	send(wsEvent{Type: "result", Result: &res})

	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

package http

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"proctor-quiz-service/internal/app"
	"proctor-quiz-service/internal/domain"
)

// WSHandler streams live leaderboard updates while a quiz is running.
type WSHandler struct {
	attempts *app.AttemptService
	feed     *app.LeaderboardFeed
	upgrader websocket.Upgrader
}

func NewWSHandler(attempts *app.AttemptService, feed *app.LeaderboardFeed) *WSHandler {
	return &WSHandler{
		attempts: attempts,
		feed:     feed,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type outboundMessage struct {
	Type    string             `json:"type"`
	Payload domain.Leaderboard `json:"payload"`
}

// ServeWS upgrades the request and pushes a leaderboard snapshot on connect
// plus one message per finalized submission until the client disconnects.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	quizID := r.URL.Query().Get("quizId")
	if quizID == "" {
		http.Error(w, "missing quizId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	initial, err := h.attempts.Leaderboard(r.Context(), quizID)
	if err != nil {
		_ = conn.WriteJSON(errorResponse{Error: err.Error()})
		return
	}

	updates, cancel := h.feed.Subscribe(quizID)
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		// the read loop exists only to notice the client going away
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := conn.WriteJSON(outboundMessage{Type: "leaderboard", Payload: initial}); err != nil {
		return
	}
	for {
		select {
		case update, ok := <-updates:
			if !ok {
				return
			}
			if err := conn.WriteJSON(outboundMessage{Type: "leaderboard", Payload: update}); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

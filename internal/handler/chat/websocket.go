package chat

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

// WebSocketHandler carries interview turns over a websocket for interactive
// clients: text turns in, turn payloads out. One connection serves one form.
type WebSocketHandler struct {
	turns    Turns
	upgrader websocket.Upgrader
}

// NewWebSocketHandler creates the websocket turn handler.
func NewWebSocketHandler(turns Turns) *WebSocketHandler {
	return &WebSocketHandler{
		turns: turns,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes registers the websocket endpoint.
func (h *WebSocketHandler) RegisterRoutes(r chi.Router) {
	r.Get("/chat/ws/{formID}", h.handleWebSocket)
}

type inboundTurn struct {
	Message string `json:"message"`
}

func (h *WebSocketHandler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	formID := chi.URLParam(r, "formID")
	if formID == "" {
		http.Error(w, "formID is required", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[ws] upgrade failed for form=%s: %v", formID, err)
		return
	}
	defer conn.Close()

	log.Printf("[ws] connection opened for form=%s", formID)

	for {
		var inbound inboundTurn
		if err := conn.ReadJSON(&inbound); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[ws] read failed for form=%s: %v", formID, err)
			}
			return
		}

		if inbound.Message == "" {
			if err := conn.WriteJSON(map[string]string{"error": "message is required"}); err != nil {
				return
			}
			continue
		}

		userTurn, botTurn, err := h.turns.Respond(r.Context(), formID, inbound.Message)
		if err != nil {
			log.Printf("[ws] turn failed for form=%s: %v", formID, err)
			if err := conn.WriteJSON(map[string]string{"error": "failed to process turn"}); err != nil {
				return
			}
			continue
		}

		if err := conn.WriteJSON(turnResponse{UserMessage: &userTurn, BotMessage: botTurn}); err != nil {
			log.Printf("[ws] write failed for form=%s: %v", formID, err)
			return
		}
	}
}

package handlers

import (
	"net/http"

	"github.com/XavierBriggs/fortuna/services/football-dashboard/internal/client"
	"github.com/XavierBriggs/fortuna/services/football-dashboard/internal/session"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// CORS middleware already restricts API callers; the dashboard page is same-origin
		return true
	},
}

// HandleWebSocket upgrades HTTP connections to WebSocket.
// ?session=<id> attaches to an existing session, otherwise a new one is created
// for this connection and removed when it closes.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	var s *session.Session
	if id := r.URL.Query().Get("session"); id != "" {
		existing, err := h.hub.GetSession(id)
		if err != nil {
			respondDomainError(w, "session not found", err)
			return
		}
		s = existing
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade error")
		return
	}

	if s == nil {
		s = h.hub.CreateConnectionSession()
	}

	clientID := uuid.New().String()
	c := client.NewClient(clientID, conn, h.hub, s)

	h.hub.Register(c)

	// Start client pumps (use handler context, not request context)
	go c.WritePump(h.ctx)
	go c.ReadPump(h.ctx)

	log.Info().Str("client", clientID).Str("session", s.ID()).Msg("websocket connection established")
}

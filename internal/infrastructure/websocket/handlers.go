package websocket

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"viewora-deals/internal/auth"
	"viewora-deals/internal/domain"
	"viewora-deals/internal/services"
	"viewora-deals/pkg/logger"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Origin checks happen at the edge proxy
	},
}

type ChatHandlers struct {
	chat   *services.ChatService
	tokens *auth.TokenService
	hub    domain.RoomHub
	log    logger.Logger
}

func NewChatHandlers(chat *services.ChatService, tokens *auth.TokenService,
	hub domain.RoomHub, log logger.Logger) *ChatHandlers {
	return &ChatHandlers{
		chat:   chat,
		tokens: tokens,
		hub:    hub,
		log:    log,
	}
}

// HandleConnection upgrades, authorizes and only then joins the room. A
// session that fails authorization is closed with 4001/4003 and never
// appears in the room's membership.
func (h *ChatHandlers) HandleConnection(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	interestID := vars["interestID"]

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error("Failed to upgrade connection", "error", err)
		return
	}

	identity, err := h.tokens.Verify(r.URL.Query().Get("token"))
	if err != nil {
		h.log.Info("Rejected connection - bad token", "interest_id", interestID)
		closeWith(conn, CloseUnauthenticated, "unauthenticated")
		return
	}

	if _, err := h.chat.Authorize(r.Context(), interestID, identity.UserID); err != nil {
		// Missing interest and non-party user get the same answer.
		h.log.Info("Rejected connection - not a party", "interest_id", interestID,
			"user_id", identity.UserID)
		closeWith(conn, CloseForbidden, "forbidden")
		return
	}

	session := NewChatSession(conn, identity.UserID, identity.Username, interestID, h.hub, h.chat, h.log)
	h.hub.Join(interestID, session)

	go session.Run()
}

func closeWith(conn *websocket.Conn, code int, reason string) {
	deadline := time.Now().Add(time.Second)
	conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(code, reason), deadline)
	conn.Close()
}

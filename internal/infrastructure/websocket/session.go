package websocket

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"viewora-deals/internal/domain"
	"viewora-deals/internal/services"
	"viewora-deals/pkg/logger"
)

// Close codes sent before authorization succeeds.
const (
	CloseUnauthenticated = 4001
	CloseForbidden       = 4003
)

// ChatSession is one live connection to an interest's room. It exists only
// after authorization; the read loop is the sole reader, so a session's own
// events are processed strictly in the order sent.
type ChatSession struct {
	id         string
	conn       *websocket.Conn
	userID     string
	username   string
	interestID string
	hub        domain.RoomHub
	chat       *services.ChatService
	log        logger.Logger
	writeMu    sync.Mutex
}

func NewChatSession(conn *websocket.Conn, userID, username, interestID string,
	hub domain.RoomHub, chat *services.ChatService, log logger.Logger) *ChatSession {
	return &ChatSession{
		id:         uuid.NewString(),
		conn:       conn,
		userID:     userID,
		username:   username,
		interestID: interestID,
		hub:        hub,
		chat:       chat,
		log:        log,
	}
}

func (s *ChatSession) ID() string       { return s.id }
func (s *ChatSession) UserID() string   { return s.userID }
func (s *ChatSession) Username() string { return s.username }

// Send may be called from any goroutine fanning out a room event; writes on
// a gorilla conn must not interleave.
func (s *ChatSession) Send(event interface{}) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteJSON(event)
}

func (s *ChatSession) Close() error {
	return s.conn.Close()
}

// Run reads inbound frames until the connection drops, then leaves the room.
func (s *ChatSession) Run() {
	defer func() {
		s.hub.Leave(s.interestID, s)
		s.conn.Close()
		s.log.Info("Session closed", "session_id", s.id,
			"user_id", s.userID, "interest_id", s.interestID)
	}()

	for {
		var frame domain.InboundFrame
		if err := s.conn.ReadJSON(&frame); err != nil {
			return
		}

		s.dispatch(context.Background(), frame)
	}
}

func (s *ChatSession) dispatch(ctx context.Context, frame domain.InboundFrame) {
	switch {
	case frame.Type == domain.FrameMessage:
		if frame.Message == "" {
			return
		}

		msg, err := s.chat.PostMessage(ctx, s.interestID, s.userID, frame.Message)
		if err != nil {
			s.log.Error("Failed to persist chat message", "session_id", s.id,
				"interest_id", s.interestID, "error", err)
			return
		}

		// The author receives the broadcast too: everyone renders the
		// canonical copy with server id and timestamp.
		s.hub.Publish(s.interestID, domain.ChatEvent{
			Type:    domain.FrameMessage,
			ID:      msg.ID,
			Sender:  s.username,
			Message: msg.Message,
			Time:    msg.CreatedAt.Format(time.RFC3339Nano),
		}, "")

	case frame.Type == domain.FrameRead:
		if len(frame.MessageIDs) == 0 {
			return
		}

		if _, err := s.chat.MarkMessagesRead(ctx, s.interestID, frame.MessageIDs, s.userID); err != nil {
			s.log.Error("Failed to mark messages read", "session_id", s.id,
				"interest_id", s.interestID, "error", err)
			return
		}

		s.hub.Publish(s.interestID, domain.ReadReceiptEvent{
			Type:       domain.EventReadReceipt,
			MessageIDs: frame.MessageIDs,
			Reader:     s.username,
		}, "")

	case domain.IsSignal(frame.Type):
		// Opaque relay; the sender never gets its own signaling frame.
		s.hub.Publish(s.interestID, domain.SignalEvent{
			Type:   frame.Type,
			Data:   frame.Data,
			Sender: s.username,
		}, s.id)

	default:
		// Unknown frame types are ignored so newer clients don't break us.
	}
}

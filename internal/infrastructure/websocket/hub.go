package websocket

import (
	"sync"

	"viewora-deals/internal/domain"
	"viewora-deals/pkg/logger"
)

// Hub is the in-process room registry: one room per interest, membership is
// the set of live authorized sessions. Nothing here is persisted; a restart
// empties every room and clients reconnect.
type Hub struct {
	rooms map[string]map[string]domain.RoomSession // interestID -> sessionID -> session
	mutex sync.RWMutex
	log   logger.Logger
}

func NewHub(log logger.Logger) *Hub {
	return &Hub{
		rooms: make(map[string]map[string]domain.RoomSession),
		log:   log,
	}
}

func (h *Hub) Join(interestID string, session domain.RoomSession) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if h.rooms[interestID] == nil {
		h.rooms[interestID] = make(map[string]domain.RoomSession)
	}
	h.rooms[interestID][session.ID()] = session

	h.log.Info("Session joined room", "session_id", session.ID(),
		"user_id", session.UserID(), "interest_id", interestID)
}

func (h *Hub) Leave(interestID string, session domain.RoomSession) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if room, exists := h.rooms[interestID]; exists {
		delete(room, session.ID())
		if len(room) == 0 {
			delete(h.rooms, interestID)
		}
	}

	h.log.Info("Session left room", "session_id", session.ID(),
		"user_id", session.UserID(), "interest_id", interestID)
}

// Members returns a snapshot of the room's sessions.
func (h *Hub) Members(interestID string) []domain.RoomSession {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	var sessions []domain.RoomSession
	for _, session := range h.rooms[interestID] {
		sessions = append(sessions, session)
	}
	return sessions
}

// Publish fans the event out to every member except excludeSessionID. The
// member set is snapshotted under the lock, so a session joining mid-call
// simply misses this event; sends happen outside the lock.
func (h *Hub) Publish(interestID string, event interface{}, excludeSessionID string) {
	sessions := h.Members(interestID)

	for _, session := range sessions {
		if excludeSessionID != "" && session.ID() == excludeSessionID {
			continue
		}

		if err := session.Send(event); err != nil {
			h.log.Error("Failed to deliver room event", "session_id", session.ID(),
				"user_id", session.UserID(), "interest_id", interestID, "error", err)
			// Continue to other sessions
		}
	}
}

// RemotePublisher forwards room events to other instances. Implemented by
// the redis room bridge.
type RemotePublisher interface {
	PublishRoomEvent(interestID string, event interface{}, excludeSessionID string) error
}

// BridgedHub is a Hub whose publications also cross instances. Remote
// failures degrade to local-only delivery and are logged, never surfaced.
type BridgedHub struct {
	*Hub
	remote RemotePublisher
	log    logger.Logger
}

func NewBridgedHub(local *Hub, remote RemotePublisher, log logger.Logger) *BridgedHub {
	return &BridgedHub{
		Hub:    local,
		remote: remote,
		log:    log,
	}
}

func (b *BridgedHub) Publish(interestID string, event interface{}, excludeSessionID string) {
	b.Hub.Publish(interestID, event, excludeSessionID)

	if err := b.remote.PublishRoomEvent(interestID, event, excludeSessionID); err != nil {
		b.log.Error("Failed to relay room event", "interest_id", interestID, "error", err)
	}
}

package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"viewora-deals/internal/api/middleware"
	"viewora-deals/internal/domain"
	"viewora-deals/internal/services"
	"viewora-deals/pkg/logger"
)

type ChatHandler struct {
	chat  *services.ChatService
	users domain.UserRepository
	log   logger.Logger
}

func NewChatHandler(chat *services.ChatService, users domain.UserRepository, log logger.Logger) *ChatHandler {
	return &ChatHandler{
		chat:  chat,
		users: users,
		log:   log,
	}
}

type chatMessageResponse struct {
	ID      string `json:"id"`
	Sender  string `json:"sender"`
	Message string `json:"message"`
	Time    string `json:"time"`
	IsRead  bool   `json:"is_read"`
}

// History returns the interest's messages newest-first, senders resolved to
// usernames like the realtime frames.
func (h *ChatHandler) History(c echo.Context) error {
	identity := middleware.Identity(c)
	interestID := c.Param("id")

	messages, err := h.chat.History(c.Request().Context(), interestID, identity.UserID)
	if err != nil {
		return writeError(c, err)
	}

	usernames := make(map[string]string) // at most two parties
	responses := make([]chatMessageResponse, 0, len(messages))
	for _, msg := range messages {
		responses = append(responses, chatMessageResponse{
			ID:      msg.ID,
			Sender:  h.username(c.Request().Context(), usernames, msg.SenderID),
			Message: msg.Message,
			Time:    msg.CreatedAt.Format(time.RFC3339Nano),
			IsRead:  msg.IsRead,
		})
	}

	return c.JSON(http.StatusOK, responses)
}

// MarkRead marks everything unread for the caller. Idempotent; a repeat call
// finds nothing to flip and broadcasts nothing.
func (h *ChatHandler) MarkRead(c echo.Context) error {
	identity := middleware.Identity(c)
	interestID := c.Param("id")

	err := h.chat.MarkInterestRead(c.Request().Context(), interestID, identity.UserID, identity.Username)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (h *ChatHandler) username(ctx context.Context, cache map[string]string, userID string) string {
	if name, ok := cache[userID]; ok {
		return name
	}

	user, err := h.users.Get(ctx, userID)
	if err != nil {
		h.log.Warn("Failed to resolve sender", "user_id", userID, "error", err)
		cache[userID] = userID
		return userID
	}

	cache[userID] = user.Username
	return user.Username
}

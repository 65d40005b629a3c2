package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"viewora-deals/internal/api/middleware"
	"viewora-deals/internal/domain"
	"viewora-deals/internal/services"
	"viewora-deals/pkg/logger"
)

type InterestHandler struct {
	interests *services.InterestService
	log       logger.Logger
}

func NewInterestHandler(interests *services.InterestService, log logger.Logger) *InterestHandler {
	return &InterestHandler{
		interests: interests,
		log:       log,
	}
}

type interestResponse struct {
	ID          string    `json:"id"`
	PropertyID  string    `json:"property_id"`
	ClientID    string    `json:"client_id"`
	BrokerID    string    `json:"broker_id,omitempty"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	UnreadCount *int      `json:"unread_count,omitempty"`
}

func toInterestResponse(interest *domain.Interest) interestResponse {
	return interestResponse{
		ID:         interest.ID,
		PropertyID: interest.PropertyID,
		ClientID:   interest.ClientID,
		BrokerID:   interest.BrokerID,
		Status:     string(interest.Status),
		CreatedAt:  interest.CreatedAt,
		UpdatedAt:  interest.UpdatedAt,
	}
}

func toInterestListResponse(items []*domain.InterestWithUnread) []interestResponse {
	responses := make([]interestResponse, 0, len(items))
	for _, item := range items {
		response := toInterestResponse(&item.Interest)
		unread := item.UnreadCount
		response.UnreadCount = &unread
		responses = append(responses, response)
	}
	return responses
}

// Create registers the caller's interest in a property.
func (h *InterestHandler) Create(c echo.Context) error {
	identity := middleware.Identity(c)
	propertyID := c.Param("propertyID")

	interest, err := h.interests.Create(c.Request().Context(), propertyID, identity.UserID)
	if err != nil {
		h.log.Warn("Failed to create interest", "property_id", propertyID,
			"client_id", identity.UserID, "error", err)
		return writeError(c, err)
	}

	return c.JSON(http.StatusCreated, toInterestResponse(interest))
}

// Accept lets the calling broker claim a requested interest. A lost race
// reads the same as a wrong id.
func (h *InterestHandler) Accept(c echo.Context) error {
	identity := middleware.Identity(c)
	interestID := c.Param("id")

	interest, err := h.interests.Accept(c.Request().Context(), interestID, identity.UserID)
	if err != nil {
		h.log.Warn("Failed to accept interest", "interest_id", interestID,
			"broker_id", identity.UserID, "error", err)
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, toInterestResponse(interest))
}

// Start marks the assigned interest in_progress when the chat opens.
func (h *InterestHandler) Start(c echo.Context) error {
	identity := middleware.Identity(c)
	interestID := c.Param("id")

	interest, err := h.interests.Start(c.Request().Context(), interestID, identity.UserID)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]string{"status": string(interest.Status)})
}

// Close finishes the deal and reports the sibling interests it cancelled.
func (h *InterestHandler) Close(c echo.Context) error {
	identity := middleware.Identity(c)
	interestID := c.Param("id")

	result, err := h.interests.Close(c.Request().Context(), interestID, identity.UserID)
	if err != nil {
		h.log.Warn("Failed to close deal", "interest_id", interestID,
			"broker_id", identity.UserID, "error", err)
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"message":       "Deal closed successfully",
		"property_id":   result.PropertyID,
		"cancelled_ids": result.CancelledIDs,
	})
}

// AutoAssign is the administrative override: the lowest-id approved broker
// is claimed onto the interest through the normal accept transition.
func (h *InterestHandler) AutoAssign(c echo.Context) error {
	interestID := c.Param("id")

	interest, err := h.interests.AutoAssign(c.Request().Context(), interestID)
	if err != nil {
		h.log.Warn("Failed to auto-assign interest", "interest_id", interestID, "error", err)
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, toInterestResponse(interest))
}

// ListMine returns the calling client's interests with unread counts.
func (h *InterestHandler) ListMine(c echo.Context) error {
	identity := middleware.Identity(c)

	items, err := h.interests.ForClient(c.Request().Context(), identity.UserID)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, toInterestListResponse(items))
}

// ListAssigned returns the calling broker's interests with unread counts.
func (h *InterestHandler) ListAssigned(c echo.Context) error {
	identity := middleware.Identity(c)

	items, err := h.interests.AssignedToBroker(c.Request().Context(), identity.UserID)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, toInterestListResponse(items))
}

// ListAvailable returns interests still open for any broker to claim.
func (h *InterestHandler) ListAvailable(c echo.Context) error {
	items, err := h.interests.AvailableForBrokers(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}

	responses := make([]interestResponse, 0, len(items))
	for _, item := range items {
		responses = append(responses, toInterestResponse(item))
	}
	return c.JSON(http.StatusOK, responses)
}

package domain

import (
	"time"
)

type InterestStatus string

const (
	InterestRequested  InterestStatus = "requested"
	InterestAssigned   InterestStatus = "assigned"
	InterestInProgress InterestStatus = "in_progress"
	InterestClosed     InterestStatus = "closed"
	InterestCancelled  InterestStatus = "cancelled"
)

// Terminal reports whether no further transition may leave the status.
func (s InterestStatus) Terminal() bool {
	return s == InterestClosed || s == InterestCancelled
}

type Interest struct {
	ID         string
	PropertyID string
	ClientID   string
	BrokerID   string // empty until a broker claims the interest
	Status     InterestStatus
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// InterestWithUnread decorates an interest with the number of messages the
// other party sent that the viewer has not read yet.
type InterestWithUnread struct {
	Interest
	UnreadCount int
}

type PropertyStatus string

const (
	PropertyPublished PropertyStatus = "published"
	PropertySold      PropertyStatus = "sold"
)

type Property struct {
	ID       string
	SellerID string
	Title    string
	Status   PropertyStatus
}

// CloseResult describes everything a successful deal close changed.
type CloseResult struct {
	Interest     *Interest
	PropertyID   string
	SellerID     string
	CancelledIDs []string // sibling interests forced to cancelled
}

type ChatMessage struct {
	ID         string
	InterestID string
	SenderID   string
	Message    string
	IsRead     bool
	CreatedAt  time.Time
}

type UserRole string

const (
	RoleClient UserRole = "client"
	RoleBroker UserRole = "broker"
	RoleAdmin  UserRole = "admin"
)

type User struct {
	ID         string
	Username   string
	Email      string
	Role       UserRole
	IsApproved bool
}

type Notification struct {
	ID        string
	UserID    string
	Title     string
	Body      string
	Data      map[string]string
	IsRead    bool
	CreatedAt time.Time
}

type DealEvent struct {
	Event      string            `json:"event"`
	InterestID string            `json:"interest_id"`
	PropertyID string            `json:"property_id,omitempty"`
	UserID     string            `json:"user_id,omitempty"`
	Data       map[string]string `json:"data,omitempty"`
	Timestamp  time.Time         `json:"timestamp"`
}

const (
	EventInterestCreated  = "INTEREST_CREATED"
	EventInterestAccepted = "INTEREST_ACCEPTED"
	EventDealClosed       = "DEAL_CLOSED"
)

package domain

import (
	"context"
)

// Repository interfaces
type InterestRepository interface {
	// Create inserts a new interest in requested state. A second interest
	// for the same (property, client) pair fails with ErrConflict and
	// inserts nothing.
	Create(ctx context.Context, interest *Interest) error

	Get(ctx context.Context, interestID string) (*Interest, error)

	// Accept claims the interest for the broker. The row is read under an
	// exclusive lock scoped to status=requested; if no such row exists the
	// call fails with ErrNotFound. Under concurrent calls exactly one wins.
	Accept(ctx context.Context, interestID, brokerID string) (*Interest, error)

	// Start moves the broker's assigned interest to in_progress. Calling
	// it again while already in_progress is a no-op.
	Start(ctx context.Context, interestID, brokerID string) (*Interest, error)

	// CloseDeal atomically closes the broker's in_progress interest, marks
	// the property sold and cancels every other non-terminal interest on
	// the property. An already-sold property fails with ErrConflict and
	// nothing changes.
	CloseDeal(ctx context.Context, interestID, brokerID string) (*CloseResult, error)

	// Cancel moves a non-terminal interest to cancelled. Administrative;
	// not exposed to users.
	Cancel(ctx context.Context, interestID string) error

	ListByClient(ctx context.Context, clientID string) ([]*InterestWithUnread, error)
	ListByBroker(ctx context.Context, brokerID string) ([]*InterestWithUnread, error)
	ListRequested(ctx context.Context) ([]*Interest, error)
}

type PropertyRepository interface {
	Get(ctx context.Context, propertyID string) (*Property, error)
}

type ChatMessageRepository interface {
	// Save assigns the id and created timestamp.
	Save(ctx context.Context, msg *ChatMessage) error

	// History returns the interest's messages newest-first.
	History(ctx context.Context, interestID string) ([]*ChatMessage, error)

	// MarkRead flips is_read on the given messages, skipping those the
	// reader sent and those already read. Returns the ids actually
	// flipped; calling it again with the same ids changes nothing.
	MarkRead(ctx context.Context, interestID string, messageIDs []string, readerID string) ([]string, error)

	// MarkAllRead flips every unread message the reader did not send.
	MarkAllRead(ctx context.Context, interestID, readerID string) ([]string, error)
}

type UserRepository interface {
	Get(ctx context.Context, userID string) (*User, error)

	// ApprovedBrokers returns admin-approved brokers ordered by id.
	ApprovedBrokers(ctx context.Context) ([]*User, error)

	// PendingInterestCounts returns, per approved broker, how many of
	// their assigned interests are still requested or assigned.
	PendingInterestCounts(ctx context.Context) (map[string]int, error)
}

type NotificationRepository interface {
	Save(ctx context.Context, n *Notification) error
}

// Side-effect interfaces. Dispatch is best-effort: implementations log and
// swallow failures, never propagate them into a state transition.
type NotificationDispatcher interface {
	Notify(ctx context.Context, userID, title, body string, data map[string]string)
}

type PushGateway interface {
	Push(ctx context.Context, userID, title, body string, data map[string]string) error
}

type EventPublisher interface {
	PublishDealEvent(ctx context.Context, event *DealEvent) error
}

// Realtime interfaces
type RoomSession interface {
	ID() string
	UserID() string
	Username() string
	Send(event interface{}) error
	Close() error
}

// RoomHub is the per-interest publish/subscribe group. Join, Leave and
// Publish are safe to call concurrently for the same interest id.
type RoomHub interface {
	Join(interestID string, session RoomSession)
	Leave(interestID string, session RoomSession)

	// Publish fans the event out to the room. excludeSessionID may be
	// empty; when set, that session is skipped (signaling never echoes).
	Publish(interestID string, event interface{}, excludeSessionID string)
}

// Leader election interface
type LeaderElection interface {
	BecomeLeader(ctx context.Context, instanceID string) (bool, error)
	IsLeader(ctx context.Context, instanceID string) (bool, error)
	ReleaseLeadership(ctx context.Context, instanceID string) error
}

package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"viewora-deals/internal/domain"
	"viewora-deals/pkg/logger"
)

// InterestService owns the interest lifecycle:
//
//	requested -> assigned -> in_progress -> closed
//	requested | assigned | in_progress   -> cancelled
//
// Transitions never move backward. The transactional claim and close
// semantics live in the repository; this layer enforces policy and fires
// side effects after the transition has committed.
type InterestService struct {
	interests  domain.InterestRepository
	properties domain.PropertyRepository
	users      domain.UserRepository
	dispatcher domain.NotificationDispatcher
	events     domain.EventPublisher
	log        logger.Logger
}

func NewInterestService(
	interests domain.InterestRepository,
	properties domain.PropertyRepository,
	users domain.UserRepository,
	dispatcher domain.NotificationDispatcher,
	events domain.EventPublisher,
	log logger.Logger,
) *InterestService {
	return &InterestService{
		interests:  interests,
		properties: properties,
		users:      users,
		dispatcher: dispatcher,
		events:     events,
		log:        log,
	}
}

// Create registers a client's interest in a property and notifies every
// approved broker. A client cannot express interest in their own property,
// and a second interest for the same (property, client) pair is a conflict
// that inserts nothing.
func (s *InterestService) Create(ctx context.Context, propertyID, clientID string) (*domain.Interest, error) {
	property, err := s.properties.Get(ctx, propertyID)
	if err != nil {
		return nil, err
	}

	if property.Status != domain.PropertyPublished {
		return nil, domain.ErrNotFound
	}

	if property.SellerID == clientID {
		return nil, fmt.Errorf("cannot show interest in own property: %w", domain.ErrForbidden)
	}

	now := time.Now()
	interest := &domain.Interest{
		ID:         uuid.NewString(),
		PropertyID: propertyID,
		ClientID:   clientID,
		Status:     domain.InterestRequested,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.interests.Create(ctx, interest); err != nil {
		return nil, err
	}

	s.log.Info("Interest created", "interest_id", interest.ID,
		"property_id", propertyID, "client_id", clientID)

	s.notifyBrokers(ctx, interest, property)
	s.publishEvent(ctx, &domain.DealEvent{
		Event:      domain.EventInterestCreated,
		InterestID: interest.ID,
		PropertyID: propertyID,
		UserID:     clientID,
		Data:       map[string]string{"property_title": property.Title},
		Timestamp:  now,
	})

	return interest, nil
}

// Accept claims the interest exclusively for the broker. Under concurrent
// accepts exactly one caller wins; the rest see ErrNotFound, the same answer
// a wrong id gets.
func (s *InterestService) Accept(ctx context.Context, interestID, brokerID string) (*domain.Interest, error) {
	interest, err := s.interests.Accept(ctx, interestID, brokerID)
	if err != nil {
		return nil, err
	}

	s.log.Info("Interest accepted", "interest_id", interestID, "broker_id", brokerID)

	s.dispatcher.Notify(ctx, interest.ClientID,
		"Interest Accepted",
		"A broker has accepted your interest",
		map[string]string{"interest_id": interest.ID})

	s.publishEvent(ctx, &domain.DealEvent{
		Event:      domain.EventInterestAccepted,
		InterestID: interest.ID,
		PropertyID: interest.PropertyID,
		UserID:     brokerID,
		Timestamp:  time.Now(),
	})

	return interest, nil
}

// Start moves the broker's assigned interest to in_progress when the chat
// opens. Idempotent once in_progress.
func (s *InterestService) Start(ctx context.Context, interestID, brokerID string) (*domain.Interest, error) {
	return s.interests.Start(ctx, interestID, brokerID)
}

// Close completes the deal: the interest closes, the property is sold and
// every sibling interest on the property is cancelled, all atomically. The
// property's seller is notified afterwards.
func (s *InterestService) Close(ctx context.Context, interestID, brokerID string) (*domain.CloseResult, error) {
	result, err := s.interests.CloseDeal(ctx, interestID, brokerID)
	if err != nil {
		return nil, err
	}

	s.log.Info("Deal closed", "interest_id", interestID, "broker_id", brokerID,
		"property_id", result.PropertyID, "cancelled", len(result.CancelledIDs))

	s.dispatcher.Notify(ctx, result.SellerID,
		"Property Sold",
		"Your property deal has been closed successfully",
		map[string]string{"property_id": result.PropertyID})

	s.publishEvent(ctx, &domain.DealEvent{
		Event:      domain.EventDealClosed,
		InterestID: interestID,
		PropertyID: result.PropertyID,
		UserID:     brokerID,
		Timestamp:  time.Now(),
	})

	return result, nil
}

// AutoAssign is the administrative assignment path: the lowest-id approved
// broker claims the interest through the same locked accept transition, so
// it cannot race past a concurrent opportunistic accept.
func (s *InterestService) AutoAssign(ctx context.Context, interestID string) (*domain.Interest, error) {
	brokers, err := s.users.ApprovedBrokers(ctx)
	if err != nil {
		return nil, err
	}
	if len(brokers) == 0 {
		return nil, fmt.Errorf("no approved broker available: %w", domain.ErrConflict)
	}

	return s.Accept(ctx, interestID, brokers[0].ID)
}

// Cancel is administrative; users never invoke it directly.
func (s *InterestService) Cancel(ctx context.Context, interestID string) error {
	return s.interests.Cancel(ctx, interestID)
}

func (s *InterestService) Get(ctx context.Context, interestID string) (*domain.Interest, error) {
	return s.interests.Get(ctx, interestID)
}

func (s *InterestService) ForClient(ctx context.Context, clientID string) ([]*domain.InterestWithUnread, error) {
	return s.interests.ListByClient(ctx, clientID)
}

func (s *InterestService) AssignedToBroker(ctx context.Context, brokerID string) ([]*domain.InterestWithUnread, error) {
	return s.interests.ListByBroker(ctx, brokerID)
}

func (s *InterestService) AvailableForBrokers(ctx context.Context) ([]*domain.Interest, error) {
	return s.interests.ListRequested(ctx)
}

func (s *InterestService) notifyBrokers(ctx context.Context, interest *domain.Interest, property *domain.Property) {
	brokers, err := s.users.ApprovedBrokers(ctx)
	if err != nil {
		s.log.Error("Failed to list brokers for notification",
			"interest_id", interest.ID, "error", err)
		return
	}

	data := map[string]string{
		"interest_id": interest.ID,
		"property_id": property.ID,
	}
	for _, broker := range brokers {
		s.dispatcher.Notify(ctx, broker.ID,
			"New Property Interest",
			"A client is interested in "+property.Title,
			data)
	}
}

func (s *InterestService) publishEvent(ctx context.Context, event *domain.DealEvent) {
	if err := s.events.PublishDealEvent(ctx, event); err != nil {
		s.log.Error("Failed to publish deal event", "event", event.Event,
			"interest_id", event.InterestID, "error", err)
	}
}

package services

import (
	"context"
	"sync"

	"viewora-deals/internal/domain"
)

// In-memory repositories mirroring the MySQL semantics, including the
// row-lock behaviour the state machine relies on.

type fakePropertyRepo struct {
	mu         sync.Mutex
	properties map[string]*domain.Property
}

func newFakePropertyRepo() *fakePropertyRepo {
	return &fakePropertyRepo{properties: make(map[string]*domain.Property)}
}

func (r *fakePropertyRepo) add(p *domain.Property) {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *p
	r.properties[p.ID] = &copied
}

func (r *fakePropertyRepo) Get(ctx context.Context, propertyID string) (*domain.Property, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	property, ok := r.properties[propertyID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *property
	return &copied, nil
}

type fakeInterestRepo struct {
	mu         sync.Mutex
	interests  map[string]*domain.Interest
	properties *fakePropertyRepo
	unread     map[string]int
}

func newFakeInterestRepo(properties *fakePropertyRepo) *fakeInterestRepo {
	return &fakeInterestRepo{
		interests:  make(map[string]*domain.Interest),
		properties: properties,
		unread:     make(map[string]int),
	}
}

func (r *fakeInterestRepo) add(i *domain.Interest) {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *i
	r.interests[i.ID] = &copied
}

func (r *fakeInterestRepo) snapshot(id string) *domain.Interest {
	r.mu.Lock()
	defer r.mu.Unlock()
	if interest, ok := r.interests[id]; ok {
		copied := *interest
		return &copied
	}
	return nil
}

func (r *fakeInterestRepo) Create(ctx context.Context, interest *domain.Interest) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.interests {
		if existing.PropertyID == interest.PropertyID && existing.ClientID == interest.ClientID {
			return domain.ErrConflict
		}
	}

	copied := *interest
	r.interests[interest.ID] = &copied
	return nil
}

func (r *fakeInterestRepo) Get(ctx context.Context, interestID string) (*domain.Interest, error) {
	interest := r.snapshot(interestID)
	if interest == nil {
		return nil, domain.ErrNotFound
	}
	return interest, nil
}

func (r *fakeInterestRepo) Accept(ctx context.Context, interestID, brokerID string) (*domain.Interest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	interest, ok := r.interests[interestID]
	if !ok || interest.Status != domain.InterestRequested {
		return nil, domain.ErrNotFound
	}

	interest.BrokerID = brokerID
	interest.Status = domain.InterestAssigned

	copied := *interest
	return &copied, nil
}

func (r *fakeInterestRepo) Start(ctx context.Context, interestID, brokerID string) (*domain.Interest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	interest, ok := r.interests[interestID]
	if !ok || interest.BrokerID != brokerID {
		return nil, domain.ErrNotFound
	}

	switch interest.Status {
	case domain.InterestInProgress:
	case domain.InterestAssigned:
		interest.Status = domain.InterestInProgress
	default:
		return nil, domain.ErrNotFound
	}

	copied := *interest
	return &copied, nil
}

func (r *fakeInterestRepo) CloseDeal(ctx context.Context, interestID, brokerID string) (*domain.CloseResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	interest, ok := r.interests[interestID]
	if !ok || interest.BrokerID != brokerID || interest.Status != domain.InterestInProgress {
		return nil, domain.ErrNotFound
	}

	r.properties.mu.Lock()
	defer r.properties.mu.Unlock()

	property, ok := r.properties.properties[interest.PropertyID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if property.Status == domain.PropertySold {
		return nil, domain.ErrConflict
	}

	interest.Status = domain.InterestClosed
	property.Status = domain.PropertySold

	var cancelledIDs []string
	for _, sibling := range r.interests {
		if sibling.PropertyID == interest.PropertyID && sibling.ID != interest.ID && !sibling.Status.Terminal() {
			sibling.Status = domain.InterestCancelled
			cancelledIDs = append(cancelledIDs, sibling.ID)
		}
	}

	copied := *interest
	return &domain.CloseResult{
		Interest:     &copied,
		PropertyID:   property.ID,
		SellerID:     property.SellerID,
		CancelledIDs: cancelledIDs,
	}, nil
}

func (r *fakeInterestRepo) Cancel(ctx context.Context, interestID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	interest, ok := r.interests[interestID]
	if !ok || interest.Status.Terminal() {
		return domain.ErrNotFound
	}
	interest.Status = domain.InterestCancelled
	return nil
}

func (r *fakeInterestRepo) ListByClient(ctx context.Context, clientID string) ([]*domain.InterestWithUnread, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var items []*domain.InterestWithUnread
	for _, interest := range r.interests {
		if interest.ClientID == clientID {
			items = append(items, &domain.InterestWithUnread{Interest: *interest, UnreadCount: r.unread[interest.ID]})
		}
	}
	return items, nil
}

func (r *fakeInterestRepo) ListByBroker(ctx context.Context, brokerID string) ([]*domain.InterestWithUnread, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var items []*domain.InterestWithUnread
	for _, interest := range r.interests {
		if interest.BrokerID == brokerID {
			items = append(items, &domain.InterestWithUnread{Interest: *interest, UnreadCount: r.unread[interest.ID]})
		}
	}
	return items, nil
}

func (r *fakeInterestRepo) ListRequested(ctx context.Context) ([]*domain.Interest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var items []*domain.Interest
	for _, interest := range r.interests {
		if interest.Status == domain.InterestRequested {
			copied := *interest
			items = append(items, &copied)
		}
	}
	return items, nil
}

type fakeUserRepo struct {
	brokers []*domain.User
	counts  map[string]int
	users   map[string]*domain.User
}

func (r *fakeUserRepo) Get(ctx context.Context, userID string) (*domain.User, error) {
	if user, ok := r.users[userID]; ok {
		return user, nil
	}
	return nil, domain.ErrNotFound
}

func (r *fakeUserRepo) ApprovedBrokers(ctx context.Context) ([]*domain.User, error) {
	return r.brokers, nil
}

func (r *fakeUserRepo) PendingInterestCounts(ctx context.Context) (map[string]int, error) {
	return r.counts, nil
}

type notice struct {
	userID string
	title  string
	body   string
	data   map[string]string
}

type fakeDispatcher struct {
	mu      sync.Mutex
	notices []notice
}

func (d *fakeDispatcher) Notify(ctx context.Context, userID, title, body string, data map[string]string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.notices = append(d.notices, notice{userID: userID, title: title, body: body, data: data})
}

func (d *fakeDispatcher) forUser(userID string) []notice {
	d.mu.Lock()
	defer d.mu.Unlock()

	var matched []notice
	for _, n := range d.notices {
		if n.userID == userID {
			matched = append(matched, n)
		}
	}
	return matched
}

type fakeEventPublisher struct {
	mu     sync.Mutex
	events []*domain.DealEvent
	err    error
}

func (p *fakeEventPublisher) PublishDealEvent(ctx context.Context, event *domain.DealEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

type publishedEvent struct {
	interestID string
	event      interface{}
	exclude    string
}

type fakeHub struct {
	mu        sync.Mutex
	published []publishedEvent
}

func (h *fakeHub) Join(interestID string, session domain.RoomSession)  {}
func (h *fakeHub) Leave(interestID string, session domain.RoomSession) {}

func (h *fakeHub) Publish(interestID string, event interface{}, excludeSessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.published = append(h.published, publishedEvent{
		interestID: interestID,
		event:      event,
		exclude:    excludeSessionID,
	})
}

func (h *fakeHub) events() []publishedEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]publishedEvent(nil), h.published...)
}

type fakeChatRepo struct {
	mu       sync.Mutex
	messages map[string]*domain.ChatMessage
	saveErr  error
}

func newFakeChatRepo() *fakeChatRepo {
	return &fakeChatRepo{messages: make(map[string]*domain.ChatMessage)}
}

func (r *fakeChatRepo) add(msg *domain.ChatMessage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *msg
	r.messages[msg.ID] = &copied
}

func (r *fakeChatRepo) isRead(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if msg, ok := r.messages[id]; ok {
		return msg.IsRead
	}
	return false
}

func (r *fakeChatRepo) Save(ctx context.Context, msg *domain.ChatMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.saveErr != nil {
		return r.saveErr
	}
	if msg.ID == "" {
		msg.ID = "msg-" + string(rune('a'+len(r.messages)))
	}
	copied := *msg
	r.messages[msg.ID] = &copied
	return nil
}

func (r *fakeChatRepo) History(ctx context.Context, interestID string) ([]*domain.ChatMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var messages []*domain.ChatMessage
	for _, msg := range r.messages {
		if msg.InterestID == interestID {
			copied := *msg
			messages = append(messages, &copied)
		}
	}
	return messages, nil
}

func (r *fakeChatRepo) MarkRead(ctx context.Context, interestID string, messageIDs []string, readerID string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var flipped []string
	for _, id := range messageIDs {
		msg, ok := r.messages[id]
		if !ok || msg.InterestID != interestID || msg.SenderID == readerID || msg.IsRead {
			continue
		}
		msg.IsRead = true
		flipped = append(flipped, id)
	}
	return flipped, nil
}

func (r *fakeChatRepo) MarkAllRead(ctx context.Context, interestID, readerID string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var flipped []string
	for id, msg := range r.messages {
		if msg.InterestID != interestID || msg.SenderID == readerID || msg.IsRead {
			continue
		}
		msg.IsRead = true
		flipped = append(flipped, id)
	}
	return flipped, nil
}

package websocket

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"viewora-deals/pkg/logger"
)

type stubSession struct {
	id       string
	userID   string
	username string

	mu      sync.Mutex
	events  []interface{}
	sendErr error
}

func newStubSession(id string) *stubSession {
	return &stubSession{id: id, userID: "user-" + id, username: "name-" + id}
}

func (s *stubSession) ID() string       { return s.id }
func (s *stubSession) UserID() string   { return s.userID }
func (s *stubSession) Username() string { return s.username }
func (s *stubSession) Close() error     { return nil }

func (s *stubSession) Send(event interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sendErr != nil {
		return s.sendErr
	}
	s.events = append(s.events, event)
	return nil
}

func (s *stubSession) received() []interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]interface{}(nil), s.events...)
}

func TestHub_PublishReachesEveryMemberExceptExcluded(t *testing.T) {
	hub := NewHub(logger.NewNop())

	sender := newStubSession("sender")
	peerA := newStubSession("peer-a")
	peerB := newStubSession("peer-b")
	outsider := newStubSession("outsider")

	hub.Join("interest-1", sender)
	hub.Join("interest-1", peerA)
	hub.Join("interest-1", peerB)
	hub.Join("interest-2", outsider)

	hub.Publish("interest-1", "call_request", sender.ID())

	require.Empty(t, sender.received())
	require.Equal(t, []interface{}{"call_request"}, peerA.received())
	require.Equal(t, []interface{}{"call_request"}, peerB.received())
	require.Empty(t, outsider.received())
}

func TestHub_PublishWithoutExclusionIncludesAuthor(t *testing.T) {
	hub := NewHub(logger.NewNop())

	sender := newStubSession("sender")
	peer := newStubSession("peer")
	hub.Join("interest-1", sender)
	hub.Join("interest-1", peer)

	hub.Publish("interest-1", "message", "")

	require.Len(t, sender.received(), 1)
	require.Len(t, peer.received(), 1)
}

func TestHub_LeaveStopsDelivery(t *testing.T) {
	hub := NewHub(logger.NewNop())

	staying := newStubSession("staying")
	leaving := newStubSession("leaving")
	hub.Join("interest-1", staying)
	hub.Join("interest-1", leaving)

	hub.Leave("interest-1", leaving)
	hub.Publish("interest-1", "message", "")

	require.Len(t, staying.received(), 1)
	require.Empty(t, leaving.received())
	require.Len(t, hub.Members("interest-1"), 1)
}

func TestHub_EmptyRoomIsDropped(t *testing.T) {
	hub := NewHub(logger.NewNop())

	session := newStubSession("only")
	hub.Join("interest-1", session)
	hub.Leave("interest-1", session)

	require.Empty(t, hub.Members("interest-1"))

	// Publishing to a room nobody is in must be a no-op, not a panic.
	hub.Publish("interest-1", "message", "")
}

func TestHub_FailedSendDoesNotBlockOtherMembers(t *testing.T) {
	hub := NewHub(logger.NewNop())

	broken := newStubSession("broken")
	broken.sendErr = errors.New("connection reset")
	healthy := newStubSession("healthy")

	hub.Join("interest-1", broken)
	hub.Join("interest-1", healthy)

	hub.Publish("interest-1", "message", "")

	require.Len(t, healthy.received(), 1)
}

func TestHub_ConcurrentJoinLeavePublish(t *testing.T) {
	hub := NewHub(logger.NewNop())

	stable := newStubSession("stable")
	hub.Join("interest-1", stable)

	const rounds = 50
	var wg sync.WaitGroup
	for i := 0; i < rounds; i++ {
		wg.Add(2)

		session := newStubSession(fmt.Sprintf("churn-%d", i))
		go func() {
			defer wg.Done()
			hub.Join("interest-1", session)
			hub.Leave("interest-1", session)
		}()
		go func() {
			defer wg.Done()
			hub.Publish("interest-1", "message", "")
		}()
	}
	wg.Wait()

	// The stable member saw every publish; churning members may miss some.
	require.Len(t, stable.received(), rounds)
}

type stubRemote struct {
	mu     sync.Mutex
	events []interface{}
	err    error
}

func (r *stubRemote) PublishRoomEvent(interestID string, event interface{}, excludeSessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, event)
	return nil
}

func TestBridgedHub_PublishesLocallyAndRemotely(t *testing.T) {
	local := NewHub(logger.NewNop())
	remote := &stubRemote{}
	hub := NewBridgedHub(local, remote, logger.NewNop())

	member := newStubSession("member")
	hub.Join("interest-1", member)

	hub.Publish("interest-1", "message", "")

	require.Len(t, member.received(), 1)
	require.Len(t, remote.events, 1)
}

func TestBridgedHub_RemoteFailureStillDeliversLocally(t *testing.T) {
	local := NewHub(logger.NewNop())
	remote := &stubRemote{err: errors.New("redis down")}
	hub := NewBridgedHub(local, remote, logger.NewNop())

	member := newStubSession("member")
	hub.Join("interest-1", member)

	hub.Publish("interest-1", "message", "")

	require.Len(t, member.received(), 1)
}

package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"viewora-deals/internal/domain"
	"viewora-deals/pkg/logger"
)

type fakeNotificationStore struct {
	saved []*domain.Notification
	err   error
}

func (s *fakeNotificationStore) Save(ctx context.Context, n *domain.Notification) error {
	if s.err != nil {
		return s.err
	}
	s.saved = append(s.saved, n)
	return nil
}

type failingPushGateway struct{}

func (failingPushGateway) Push(ctx context.Context, userID, title, body string, data map[string]string) error {
	return errors.New("provider unreachable")
}

func TestNotifier_StoresAndPushes(t *testing.T) {
	store := &fakeNotificationStore{}
	notifier := NewNotifier(store, NewLogPushGateway(logger.NewNop()), logger.NewNop())

	notifier.Notify(context.Background(), "user-1", "Title", "Body", map[string]string{"k": "v"})

	require.Len(t, store.saved, 1)
	require.Equal(t, "user-1", store.saved[0].UserID)
	require.Equal(t, "Title", store.saved[0].Title)
}

func TestNotifier_SwallowsFailures(t *testing.T) {
	// A dead store and a dead push provider must not panic or propagate.
	store := &fakeNotificationStore{err: errors.New("db down")}
	notifier := NewNotifier(store, failingPushGateway{}, logger.NewNop())

	notifier.Notify(context.Background(), "user-1", "Title", "Body", nil)
}

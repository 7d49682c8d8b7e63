package notification

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/geopoint/geopoint-backend-go/internal/domain/notification"
	"github.com/geopoint/geopoint-backend-go/internal/pkg/sse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	notification.Repository
	mu       sync.Mutex
	batches  [][]*notification.Notification
	created  []*notification.Notification
	batchErr error
	markIDs  []string
}

func (f *fakeRepo) CreateBatch(_ context.Context, ns []*notification.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.batchErr != nil {
		return f.batchErr
	}
	f.batches = append(f.batches, ns)
	return nil
}

func (f *fakeRepo) Create(_ context.Context, n *notification.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, n)
	return nil
}

func (f *fakeRepo) GetByUserID(_ context.Context, userID string, page, pageSize int, unreadOnly bool) ([]*notification.Notification, int, error) {
	return []*notification.Notification{{ID: "n1", RecipientID: userID, Title: "Hi"}}, 1, nil
}

func (f *fakeRepo) GetUnreadCount(context.Context, string) (int, error) { return 1, nil }

func (f *fakeRepo) MarkAsRead(_ context.Context, ids []string, _ string) error {
	f.markIDs = ids
	return nil
}

func TestQueueNotification_FlushesOnStopAndPushes(t *testing.T) {
	repo := &fakeRepo{}
	hub := sse.NewHub()
	ch, cleanup := hub.Subscribe(sse.Subscriber{UserID: "admin-1", WorkspaceID: "ws-1", Admin: true})
	defer cleanup()

	svc := NewNotificationService(repo, hub, Config{WorkerCount: 1, FlushInterval: time.Hour})
	ctx := context.Background()

	require.NoError(t, svc.QueueBulkNotification(ctx, []notification.CreateNotificationRequest{
		{WorkspaceID: "ws-1", RecipientID: "admin-1", Type: notification.TypeRequestCreated, Title: "New request"},
		{WorkspaceID: "ws-1", RecipientID: "admin-2", Type: notification.TypeRequestCreated, Title: "New request"},
	}))
	svc.Stop()
	svc.Stop()

	require.Len(t, repo.batches, 1)
	assert.Len(t, repo.batches[0], 2)
	assert.Equal(t, "ws-1", repo.batches[0][0].WorkspaceID)
	assert.NotEmpty(t, repo.batches[0][0].ID)

	require.Len(t, ch, 1)
	ev := <-ch
	assert.Equal(t, EventNotification, ev.Name)
	assert.Equal(t, "New request", ev.Data.(notification.NotificationResponse).Title)
}

func TestQueueNotification_BatchSizeTriggersFlush(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewNotificationService(repo, sse.NewHub(), Config{WorkerCount: 1, BatchSize: 1, FlushInterval: time.Hour})
	defer svc.Stop()

	require.NoError(t, svc.QueueNotification(context.Background(), notification.CreateNotificationRequest{RecipientID: "u1"}))

	assert.Eventually(t, func() bool {
		repo.mu.Lock()
		defer repo.mu.Unlock()
		return len(repo.batches) == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestQueueNotification_FullQueueWritesThrough(t *testing.T) {
	repo := &fakeRepo{}
	s := &service{
		repo:   repo,
		hub:    sse.NewHub(),
		now:    time.Now,
		queue:  make(chan notification.CreateNotificationRequest),
		stopCh: make(chan struct{}),
	}

	require.NoError(t, s.QueueNotification(context.Background(), notification.CreateNotificationRequest{RecipientID: "u1"}))
	assert.Len(t, repo.created, 1)
}

func TestQueueNotification_BatchErrorSkipsPush(t *testing.T) {
	repo := &fakeRepo{batchErr: errors.New("db down")}
	hub := sse.NewHub()
	ch, cleanup := hub.Subscribe(sse.Subscriber{UserID: "u1"})
	defer cleanup()

	svc := NewNotificationService(repo, hub, Config{WorkerCount: 1, FlushInterval: time.Hour})
	require.NoError(t, svc.QueueNotification(context.Background(), notification.CreateNotificationRequest{RecipientID: "u1"}))
	svc.Stop()

	assert.Len(t, ch, 0)
}

func TestInbox(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewNotificationService(repo, sse.NewHub(), Config{WorkerCount: 1})
	defer svc.Stop()
	ctx := context.Background()

	list, err := svc.GetNotifications(ctx, "u1", 0, 500, false)
	require.NoError(t, err)
	assert.Equal(t, 1, list.Page)
	assert.Equal(t, 20, list.PageSize)
	assert.Equal(t, 1, list.UnreadCount)
	require.Len(t, list.Notifications, 1)

	err = svc.MarkAsRead(ctx, "u1", notification.MarkAsReadRequest{})
	assert.Error(t, err)

	id := "0b8f6a1e-2c3d-4e5f-8a9b-0c1d2e3f4a5b"
	require.NoError(t, svc.MarkAsRead(ctx, "u1", notification.MarkAsReadRequest{NotificationIDs: []string{id}}))
	assert.Equal(t, []string{id}, repo.markIDs)
}

func TestBroadcastToAdmins(t *testing.T) {
	hub := sse.NewHub()
	svc := NewNotificationService(&fakeRepo{}, hub, Config{WorkerCount: 1})
	defer svc.Stop()

	ch, cleanup := svc.Subscribe(sse.Subscriber{UserID: "a1", WorkspaceID: "ws-1", Admin: true})
	defer cleanup()

	svc.BroadcastToAdmins("ws-1", sse.Event{Name: "punch.recorded"})
	require.Len(t, ch, 1)
	assert.Equal(t, "punch.recorded", (<-ch).Name)
}

package unread

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"y-chat/internal/mocks"
	"y-chat/internal/models"
	"y-chat/internal/notify"
	"y-chat/internal/repositories"
)

func waitForCounts(t *testing.T, ch <-chan map[string]int) map[string]int {
	t.Helper()
	select {
	case counts := <-ch:
		return counts
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a published count map")
		return nil
	}
}

func TestTrackerPublishesOnStart(t *testing.T) {
	reads := new(mocks.ReadStatusRepositoryMock)
	feed := notify.NewFeed()
	published := make(chan map[string]int, 4)

	reads.On("UnreadCounts", mock.Anything, "bob").Return([]repositories.UnreadCount{
		{RoomID: "room-1", Count: 2},
		{RoomID: "room-2", Count: 5},
	}, nil)

	tracker := NewTracker(reads, new(mocks.RoomRepositoryMock), feed, "bob", func(counts map[string]int) {
		published <- counts
	})
	dispose := tracker.Start(context.Background())
	defer dispose()

	counts := waitForCounts(t, published)
	assert.Equal(t, map[string]int{"room-1": 2, "room-2": 5}, counts)
}

func TestTrackerRecomputesOnFeedChange(t *testing.T) {
	reads := new(mocks.ReadStatusRepositoryMock)
	feed := notify.NewFeed()
	published := make(chan map[string]int, 4)

	reads.On("UnreadCounts", mock.Anything, "bob").Return([]repositories.UnreadCount{
		{RoomID: "room-1", Count: 1},
	}, nil)

	tracker := NewTracker(reads, new(mocks.RoomRepositoryMock), feed, "bob", func(counts map[string]int) {
		published <- counts
	})
	dispose := tracker.Start(context.Background())
	defer dispose()
	waitForCounts(t, published)

	// any table change triggers the wholesale recompute
	feed.Dispatch(notify.Change{Table: "messages", Op: "INSERT", RoomID: "room-1"})
	counts := waitForCounts(t, published)
	assert.Equal(t, 1, counts["room-1"])
}

func TestSetActiveRoomZeroesLocally(t *testing.T) {
	reads := new(mocks.ReadStatusRepositoryMock)
	feed := notify.NewFeed()
	published := make(chan map[string]int, 4)

	reads.On("UnreadCounts", mock.Anything, "bob").Return([]repositories.UnreadCount{
		{RoomID: "room-1", Count: 3},
	}, nil)

	tracker := NewTracker(reads, new(mocks.RoomRepositoryMock), feed, "bob", func(counts map[string]int) {
		published <- counts
	})
	dispose := tracker.Start(context.Background())
	defer dispose()
	waitForCounts(t, published)

	tracker.SetActiveRoom("room-1")
	counts := waitForCounts(t, published)
	assert.Zero(t, counts["room-1"])

	// the store was never told anything; only the local copy changed
	assert.Zero(t, tracker.Counts()["room-1"])
	reads.AssertNotCalled(t, "MarkRead", mock.Anything, mock.Anything, mock.Anything)
}

func TestDisposerInvalidatesInFlightRecompute(t *testing.T) {
	reads := new(mocks.ReadStatusRepositoryMock)
	feed := notify.NewFeed()
	published := make(chan map[string]int, 4)

	release := make(chan struct{})
	reads.On("UnreadCounts", mock.Anything, "bob").Run(func(mock.Arguments) {
		<-release
	}).Return([]repositories.UnreadCount{{RoomID: "room-1", Count: 9}}, nil)

	tracker := NewTracker(reads, new(mocks.RoomRepositoryMock), feed, "bob", func(counts map[string]int) {
		published <- counts
	})
	dispose := tracker.Start(context.Background())

	// dispose while the fetch is still blocked; its result must be dropped
	dispose()
	close(release)

	select {
	case <-published:
		t.Fatal("stale recompute result was published after disposal")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestContactRooms(t *testing.T) {
	rooms := new(mocks.RoomRepositoryMock)

	rooms.On("ListPersonalRooms", mock.Anything, "bob").Return([]models.Room{
		{ID: "room-1"},
		{ID: "room-2"},
	}, nil).Once()
	rooms.On("ListParticipants", mock.Anything, "room-1").Return([]string{"bob", "alice"}, nil).Once()
	rooms.On("ListParticipants", mock.Anything, "room-2").Return([]string{"carol", "bob"}, nil).Once()

	contacts, err := ContactRooms(context.Background(), rooms, "bob")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"room-1": "alice", "room-2": "carol"}, contacts)
}

func TestContactRoomsPropagatesParticipantError(t *testing.T) {
	rooms := new(mocks.RoomRepositoryMock)

	rooms.On("ListPersonalRooms", mock.Anything, "bob").Return([]models.Room{{ID: "room-1"}}, nil).Once()
	rooms.On("ListParticipants", mock.Anything, "room-1").Return(nil, assert.AnError).Once()

	_, err := ContactRooms(context.Background(), rooms, "bob")
	assert.ErrorIs(t, err, assert.AnError)
}

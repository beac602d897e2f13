package roomsync

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"y-chat/internal/mocks"
	"y-chat/internal/models"
	"y-chat/internal/notify"
)

func newWorkerFixture(rooms *mocks.RoomRepositoryMock, messages *mocks.MessageRepositoryMock, reads *mocks.ReadStatusRepositoryMock, feed *notify.Feed, publish func(Snapshot)) *Worker {
	profiles := new(mocks.ProfileRepositoryMock)
	profiles.On("BulkProfiles", mock.Anything, mock.Anything).Return([]models.Profile{}, nil)
	sync := NewSynchronizer(rooms, messages, profiles, reads)
	return NewWorker(sync, feed, "room-1", "bob", publish)
}

func stubEmptyRoom(rooms *mocks.RoomRepositoryMock, messages *mocks.MessageRepositoryMock, reads *mocks.ReadStatusRepositoryMock) {
	rooms.On("GetRoom", mock.Anything, "room-1").Return(models.Room{ID: "room-1"}, nil)
	messages.On("GetRoomMessages", mock.Anything, "room-1").Return([]models.Message{}, nil)
	reads.On("ListForMessages", mock.Anything, mock.Anything).Return([]models.ReadStatus{}, nil)
	reads.On("UnreadMessageIDs", mock.Anything, "room-1", "bob").Return([]int64{}, nil)
}

func TestWorkerPublishesOnStartAndOnChange(t *testing.T) {
	rooms := new(mocks.RoomRepositoryMock)
	messages := new(mocks.MessageRepositoryMock)
	reads := new(mocks.ReadStatusRepositoryMock)
	feed := notify.NewFeed()
	published := make(chan Snapshot, 4)

	stubEmptyRoom(rooms, messages, reads)

	worker := newWorkerFixture(rooms, messages, reads, feed, func(s Snapshot) { published <- s })
	dispose := worker.Start(context.Background())
	defer dispose()

	select {
	case snap := <-published:
		assert.Equal(t, "room-1", snap.Room.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("no snapshot published on start")
	}

	feed.Dispatch(notify.Change{Table: "messages", Op: "INSERT", RoomID: "room-1"})
	select {
	case <-published:
	case <-time.After(2 * time.Second):
		t.Fatal("no snapshot published after a room change")
	}
}

func TestWorkerDiscardsStaleRefresh(t *testing.T) {
	rooms := new(mocks.RoomRepositoryMock)
	messages := new(mocks.MessageRepositoryMock)
	reads := new(mocks.ReadStatusRepositoryMock)
	feed := notify.NewFeed()
	published := make(chan Snapshot, 4)

	release := make(chan struct{})
	rooms.On("GetRoom", mock.Anything, "room-1").Run(func(mock.Arguments) {
		<-release
	}).Return(models.Room{ID: "room-1"}, nil)
	messages.On("GetRoomMessages", mock.Anything, "room-1").Return([]models.Message{}, nil)
	reads.On("ListForMessages", mock.Anything, mock.Anything).Return([]models.ReadStatus{}, nil)
	reads.On("UnreadMessageIDs", mock.Anything, "room-1", "bob").Return([]int64{}, nil)

	worker := newWorkerFixture(rooms, messages, reads, feed, func(s Snapshot) { published <- s })
	dispose := worker.Start(context.Background())

	// dispose while the refresh is still fetching; its result must be dropped
	dispose()
	close(release)

	select {
	case <-published:
		t.Fatal("stale snapshot was published after disposal")
	case <-time.After(200 * time.Millisecond):
	}
}

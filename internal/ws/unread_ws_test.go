package ws

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"y-chat/internal/access"
	"y-chat/internal/auth"
	"y-chat/internal/mocks"
	"y-chat/internal/models"
	"y-chat/internal/notify"
	"y-chat/internal/repositories"
	"y-chat/internal/unread"
)

type unreadSocketFixture struct {
	server *httptest.Server
	feed   *notify.Feed
	tokens *auth.TokenManager
	bans   *mocks.BanRepositoryMock
}

func newUnreadSocketFixture(userID string) unreadSocketFixture {
	gin.SetMode(gin.TestMode)

	feed := notify.NewFeed()
	reads := new(mocks.ReadStatusRepositoryMock)
	reads.On("UnreadCounts", mock.Anything, userID).Return([]repositories.UnreadCount{}, nil)
	rooms := new(mocks.RoomRepositoryMock)
	bans := new(mocks.BanRepositoryMock)
	bans.On("ListBansForUser", mock.Anything, userID).Return([]models.UserBan{}, nil)
	guard := access.NewGuard(new(mocks.SettingsRepositoryMock), new(mocks.ProfileRepositoryMock), bans)

	tokens := auth.NewTokenManager("test-secret", time.Minute)
	handler := NewUnreadWebSocketHandler(NewHub(), tokens, guard, feed, func(id string, publish func(map[string]int)) *unread.Tracker {
		return unread.NewTracker(reads, rooms, feed, id, publish)
	})

	r := gin.New()
	r.GET("/ws/unread", handler.Handle)
	return unreadSocketFixture{server: httptest.NewServer(r), feed: feed, tokens: tokens, bans: bans}
}

func (f unreadSocketFixture) dial(t *testing.T, userID string) *websocket.Conn {
	t.Helper()
	token, err := f.tokens.Generate(userID, "alice")
	require.NoError(t, err)

	url := "ws" + strings.TrimPrefix(f.server.URL, "http") + "/ws/unread?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	return conn
}

func readUntilType(t *testing.T, conn *websocket.Conn, frameType string) map[string]any {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	for {
		var frame map[string]any
		require.NoError(t, conn.ReadJSON(&frame))
		if frame["type"] == frameType {
			return frame
		}
	}
}

func TestUnreadSocketPushesRoomListRefresh(t *testing.T) {
	f := newUnreadSocketFixture("user-1")
	defer f.server.Close()
	conn := f.dial(t, "user-1")
	defer conn.Close()

	// Any frame proves the per-user subscription is registered, it is
	// wired before the tracker publishes its first counts.
	readUntilType(t, conn, "unread_counts")

	f.feed.Dispatch(notify.Change{Table: "room_participants", Op: "INSERT", RoomID: "room-9", UserID: "user-1"})

	readUntilType(t, conn, "rooms_changed")
}

func TestUnreadSocketBanChangeForcesRecheck(t *testing.T) {
	f := newUnreadSocketFixture("user-1")
	defer f.server.Close()
	conn := f.dial(t, "user-1")
	defer conn.Close()

	readUntilType(t, conn, "ban_status")

	f.feed.Dispatch(notify.Change{Table: "user_bans", Op: "INSERT", UserID: "user-1"})

	// The poll interval is a minute; a second status frame this soon can
	// only come from the change-triggered recheck.
	readUntilType(t, conn, "ban_status")
}

func TestUnreadSocketIgnoresOtherUsersChanges(t *testing.T) {
	f := newUnreadSocketFixture("user-1")
	defer f.server.Close()
	conn := f.dial(t, "user-1")
	defer conn.Close()

	readUntilType(t, conn, "unread_counts")

	f.feed.Dispatch(notify.Change{Table: "room_participants", Op: "INSERT", RoomID: "room-9", UserID: "user-2"})

	// A membership change for someone else must not produce a refresh
	// frame; the next frames are only recomputed counts.
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(500*time.Millisecond)))
	for {
		var frame map[string]any
		if err := conn.ReadJSON(&frame); err != nil {
			break
		}
		require.NotEqual(t, "rooms_changed", frame["type"])
	}
}

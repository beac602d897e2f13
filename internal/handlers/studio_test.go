package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"y-chat/internal/access"
	"y-chat/internal/mocks"
	"y-chat/internal/models"
	"y-chat/internal/repositories"
	"y-chat/internal/telemetry"
)

type studioMocks struct {
	rooms    *mocks.RoomRepositoryMock
	messages *mocks.MessageRepositoryMock
	profiles *mocks.ProfileRepositoryMock
	bans     *mocks.BanRepositoryMock
	settings *mocks.SettingsRepositoryMock
	sessions *mocks.SessionRepositoryMock
}

func setupStudioRouter(userID string) (*gin.Engine, *StudioHandler, studioMocks) {
	gin.SetMode(gin.TestMode)

	m := studioMocks{
		rooms:    new(mocks.RoomRepositoryMock),
		messages: new(mocks.MessageRepositoryMock),
		profiles: new(mocks.ProfileRepositoryMock),
		bans:     new(mocks.BanRepositoryMock),
		settings: new(mocks.SettingsRepositoryMock),
		sessions: new(mocks.SessionRepositoryMock),
	}
	guard := access.NewGuard(m.settings, m.profiles, m.bans)
	handler := NewStudioHandler(guard, m.rooms, m.messages, m.profiles, m.bans, m.settings, m.sessions, nil)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", userID)
		c.Next()
	})
	r.GET("/studio/access", handler.CheckAccess)
	studio := r.Group("/studio", handler.RequireAccess())
	studio.GET("/rooms", handler.ListRooms)
	studio.GET("/rooms/:room_id/messages", handler.ListRoomMessages)
	studio.PUT("/messages/:message_id", handler.EditMessage)
	studio.DELETE("/messages/:message_id", handler.DeleteMessage)
	studio.PUT("/messages/:message_id/lock", handler.SetMessageLock)
	studio.PUT("/messages/:message_id/user", handler.ReassignMessage)
	studio.GET("/users", handler.ListUsers)
	studio.POST("/users/:user_id/ban", handler.BanUser)
	studio.DELETE("/users/:user_id/ban", handler.UnbanUser)
	studio.POST("/emergency-stop", handler.EmergencyStop)
	return r, handler, m
}

func grantAccess(m studioMocks, userID string) {
	m.settings.On("GetSettings", mock.Anything).Return(models.SystemSetting{ID: 1, StudioEnabled: true}, nil).Once()
	m.profiles.On("IsAdmin", mock.Anything, userID).Return(true, nil).Once()
}

func TestStudioKillSwitchBlocksEveryRoute(t *testing.T) {
	router, _, m := setupStudioRouter("admin-1")

	m.settings.On("GetSettings", mock.Anything).Return(models.SystemSetting{ID: 1, StudioEnabled: false}, nil)

	req := httptest.NewRequest(http.MethodGet, "/studio/rooms", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
	var resp map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "denied_killswitch", resp["reason"])
	// the switch wins before the admin flag is ever read
	m.profiles.AssertNotCalled(t, "IsAdmin", mock.Anything, mock.Anything)
	m.rooms.AssertNotCalled(t, "ListRoomSummaries", mock.Anything)
}

func TestStudioAccessProbe(t *testing.T) {
	router, _, m := setupStudioRouter("user-1")

	m.settings.On("GetSettings", mock.Anything).Return(models.SystemSetting{ID: 1, StudioEnabled: true}, nil).Once()
	m.profiles.On("IsAdmin", mock.Anything, "user-1").Return(false, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/studio/access", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, false, resp["allowed"])
	assert.Equal(t, "denied_not_admin", resp["reason"])
}

func TestStudioDeleteLockedMessage(t *testing.T) {
	router, _, m := setupStudioRouter("admin-1")
	grantAccess(m, "admin-1")

	m.messages.On("SoftDeleteMessage", mock.Anything, int64(4)).Return(repositories.ErrMessageLocked).Once()

	req := httptest.NewRequest(http.MethodDelete, "/studio/messages/4", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusLocked, rec.Code)
	m.messages.AssertExpectations(t)
}

func TestStudioBanDurationCodes(t *testing.T) {
	router, handler, m := setupStudioRouter("admin-1")
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	handler.now = func() time.Time { return base }

	grantAccess(m, "admin-1")
	m.profiles.On("GetProfile", mock.Anything, "user-1").Return(models.Profile{ID: "user-1"}, nil).Once()

	expected := base.Add(60 * time.Second)
	m.bans.On("CreateBan", mock.Anything, "user-1", "admin-1", (*string)(nil), &expected).
		Return(models.UserBan{ID: 1, UserID: "user-1", IsActive: true, ExpiresAt: &expected}, nil).Once()
	m.sessions.On("DeleteSessionsForUser", mock.Anything, "user-1").Return(nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/studio/users/user-1/ban", bytes.NewBufferString(`{"duration":1}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	m.bans.AssertExpectations(t)
}

func TestStudioBanPermanentHasNoExpiry(t *testing.T) {
	router, _, m := setupStudioRouter("admin-1")
	grantAccess(m, "admin-1")

	m.profiles.On("GetProfile", mock.Anything, "user-1").Return(models.Profile{ID: "user-1"}, nil).Once()
	m.bans.On("CreateBan", mock.Anything, "user-1", "admin-1", (*string)(nil), (*time.Time)(nil)).
		Return(models.UserBan{ID: 2, UserID: "user-1", IsActive: true}, nil).Once()
	m.sessions.On("DeleteSessionsForUser", mock.Anything, "user-1").Return(nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/studio/users/user-1/ban", bytes.NewBufferString(`{"duration":6}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	m.bans.AssertExpectations(t)
}

func TestStudioBanRejectsUnknownDuration(t *testing.T) {
	router, _, m := setupStudioRouter("admin-1")
	grantAccess(m, "admin-1")

	req := httptest.NewRequest(http.MethodPost, "/studio/users/user-1/ban", bytes.NewBufferString(`{"duration":9}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	m.bans.AssertNotCalled(t, "CreateBan", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestStudioUnban(t *testing.T) {
	router, _, m := setupStudioRouter("admin-1")
	grantAccess(m, "admin-1")

	m.bans.On("DeactivateBans", mock.Anything, "user-1").Return(nil).Once()

	req := httptest.NewRequest(http.MethodDelete, "/studio/users/user-1/ban", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	m.bans.AssertExpectations(t)
}

func TestStudioListUsersResolvesBans(t *testing.T) {
	router, handler, m := setupStudioRouter("admin-1")
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	handler.now = func() time.Time { return base }

	grantAccess(m, "admin-1")
	m.profiles.On("ListProfiles", mock.Anything).Return([]models.Profile{
		{ID: "user-1", Username: "alice"},
		{ID: "user-2", Username: "bob"},
	}, nil).Once()
	expired := base.Add(-time.Minute)
	m.bans.On("ListActiveBans", mock.Anything).Return([]models.UserBan{
		{ID: 1, UserID: "user-1", IsActive: true},
		{ID: 2, UserID: "user-2", IsActive: true, ExpiresAt: &expired},
	}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/studio/users", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Users []models.ProfileSummary `json:"users"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Users, 2)
	assert.True(t, resp.Users[0].IsBanned)
	// the expired row is still is_active in the store but no longer effective
	assert.False(t, resp.Users[1].IsBanned)
}

func TestStudioEmergencyStop(t *testing.T) {
	router, _, m := setupStudioRouter("admin-1")
	grantAccess(m, "admin-1")

	m.settings.On("SetStudioEnabled", mock.Anything, false).Return(nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/studio/emergency-stop", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	m.settings.AssertExpectations(t)
}

func TestStudioBanRevokesSessions(t *testing.T) {
	router, _, m := setupStudioRouter("admin-1")
	grantAccess(m, "admin-1")

	m.profiles.On("GetProfile", mock.Anything, "user-1").Return(models.Profile{ID: "user-1"}, nil).Once()
	m.bans.On("CreateBan", mock.Anything, "user-1", "admin-1", (*string)(nil), (*time.Time)(nil)).
		Return(models.UserBan{ID: 3, UserID: "user-1", IsActive: true}, nil).Once()
	m.sessions.On("DeleteSessionsForUser", mock.Anything, "user-1").Return(nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/studio/users/user-1/ban", bytes.NewBufferString(`{"duration":6}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	m.sessions.AssertExpectations(t)
}

func TestStudioBanSurvivesSessionRevocationFailure(t *testing.T) {
	router, _, m := setupStudioRouter("admin-1")
	grantAccess(m, "admin-1")

	m.profiles.On("GetProfile", mock.Anything, "user-1").Return(models.Profile{ID: "user-1"}, nil).Once()
	m.bans.On("CreateBan", mock.Anything, "user-1", "admin-1", (*string)(nil), (*time.Time)(nil)).
		Return(models.UserBan{ID: 4, UserID: "user-1", IsActive: true}, nil).Once()
	m.sessions.On("DeleteSessionsForUser", mock.Anything, "user-1").Return(assert.AnError).Once()

	req := httptest.NewRequest(http.MethodPost, "/studio/users/user-1/ban", bytes.NewBufferString(`{"duration":6}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	// the ban itself stands even when token cleanup fails
	require.Equal(t, http.StatusCreated, rec.Code)
}

func TestStudioEmergencyStopEmitsAudit(t *testing.T) {
	router, handler, m := setupStudioRouter("admin-1")
	grantAccess(m, "admin-1")

	publisher := new(mocks.PublisherMock)
	publisher.On("Publish", mock.Anything, "audit.studio", mock.MatchedBy(func(event any) bool {
		envelope, ok := event.(telemetry.AuditEnvelope)
		return ok && envelope.Payload.Action == "studio.emergency_stop"
	})).Return(nil).Once()
	handler.audit = telemetry.NewAuditEmitter(publisher, "audit.studio", "y-chat", "test")

	m.settings.On("SetStudioEnabled", mock.Anything, false).Return(nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/studio/emergency-stop", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	publisher.AssertExpectations(t)
}

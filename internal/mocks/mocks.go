package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"y-chat/internal/models"
	"y-chat/internal/repositories"
)

type ProfileRepositoryMock struct {
	mock.Mock
}

func (m *ProfileRepositoryMock) CreateProfile(ctx context.Context, id, username, email, passwordHash string) (models.Profile, error) {
	args := m.Called(ctx, id, username, email, passwordHash)
	var profile models.Profile
	if val := args.Get(0); val != nil {
		profile = val.(models.Profile)
	}
	return profile, args.Error(1)
}

func (m *ProfileRepositoryMock) GetProfile(ctx context.Context, userID string) (models.Profile, error) {
	args := m.Called(ctx, userID)
	var profile models.Profile
	if val := args.Get(0); val != nil {
		profile = val.(models.Profile)
	}
	return profile, args.Error(1)
}

func (m *ProfileRepositoryMock) GetProfileByUsername(ctx context.Context, username string) (models.Profile, error) {
	args := m.Called(ctx, username)
	var profile models.Profile
	if val := args.Get(0); val != nil {
		profile = val.(models.Profile)
	}
	return profile, args.Error(1)
}

func (m *ProfileRepositoryMock) GetCredentials(ctx context.Context, username string) (string, string, error) {
	args := m.Called(ctx, username)
	return args.String(0), args.String(1), args.Error(2)
}

func (m *ProfileRepositoryMock) ListOtherProfiles(ctx context.Context, excludeID string) ([]models.Profile, error) {
	args := m.Called(ctx, excludeID)
	var profiles []models.Profile
	if val := args.Get(0); val != nil {
		profiles = val.([]models.Profile)
	}
	return profiles, args.Error(1)
}

func (m *ProfileRepositoryMock) ListProfiles(ctx context.Context) ([]models.Profile, error) {
	args := m.Called(ctx)
	var profiles []models.Profile
	if val := args.Get(0); val != nil {
		profiles = val.([]models.Profile)
	}
	return profiles, args.Error(1)
}

func (m *ProfileRepositoryMock) BulkProfiles(ctx context.Context, ids []string) ([]models.Profile, error) {
	args := m.Called(ctx, ids)
	var profiles []models.Profile
	if val := args.Get(0); val != nil {
		profiles = val.([]models.Profile)
	}
	return profiles, args.Error(1)
}

func (m *ProfileRepositoryMock) UpdateProfile(ctx context.Context, userID string, nickname, avatarPublicID *string) error {
	args := m.Called(ctx, userID, nickname, avatarPublicID)
	return args.Error(0)
}

func (m *ProfileRepositoryMock) SetNickname(ctx context.Context, userID string, nickname string) error {
	args := m.Called(ctx, userID, nickname)
	return args.Error(0)
}

func (m *ProfileRepositoryMock) IsAdmin(ctx context.Context, userID string) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

type RoomRepositoryMock struct {
	mock.Mock
}

func (m *RoomRepositoryMock) CreateRoom(ctx context.Context, name string, isGroup bool, createdBy string, participantIDs []string) (models.Room, error) {
	args := m.Called(ctx, name, isGroup, createdBy, participantIDs)
	var room models.Room
	if val := args.Get(0); val != nil {
		room = val.(models.Room)
	}
	return room, args.Error(1)
}

func (m *RoomRepositoryMock) GetRoom(ctx context.Context, roomID string) (models.Room, error) {
	args := m.Called(ctx, roomID)
	var room models.Room
	if val := args.Get(0); val != nil {
		room = val.(models.Room)
	}
	return room, args.Error(1)
}

func (m *RoomRepositoryMock) ListRoomsForUser(ctx context.Context, userID string) ([]models.Room, error) {
	args := m.Called(ctx, userID)
	var rooms []models.Room
	if val := args.Get(0); val != nil {
		rooms = val.([]models.Room)
	}
	return rooms, args.Error(1)
}

func (m *RoomRepositoryMock) IsParticipant(ctx context.Context, roomID, userID string) (bool, error) {
	args := m.Called(ctx, roomID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *RoomRepositoryMock) ListParticipants(ctx context.Context, roomID string) ([]string, error) {
	args := m.Called(ctx, roomID)
	var ids []string
	if val := args.Get(0); val != nil {
		ids = val.([]string)
	}
	return ids, args.Error(1)
}

func (m *RoomRepositoryMock) AddParticipants(ctx context.Context, roomID string, userIDs []string) error {
	args := m.Called(ctx, roomID, userIDs)
	return args.Error(0)
}

func (m *RoomRepositoryMock) RemoveParticipant(ctx context.Context, roomID, userID string) error {
	args := m.Called(ctx, roomID, userID)
	return args.Error(0)
}

func (m *RoomRepositoryMock) GetPersonalRoom(ctx context.Context, userID, otherUserID string) (models.Room, error) {
	args := m.Called(ctx, userID, otherUserID)
	var room models.Room
	if val := args.Get(0); val != nil {
		room = val.(models.Room)
	}
	return room, args.Error(1)
}

func (m *RoomRepositoryMock) ListPersonalRooms(ctx context.Context, userID string) ([]models.Room, error) {
	args := m.Called(ctx, userID)
	var rooms []models.Room
	if val := args.Get(0); val != nil {
		rooms = val.([]models.Room)
	}
	return rooms, args.Error(1)
}

func (m *RoomRepositoryMock) ListRoomSummaries(ctx context.Context) ([]models.RoomSummary, error) {
	args := m.Called(ctx)
	var summaries []models.RoomSummary
	if val := args.Get(0); val != nil {
		summaries = val.([]models.RoomSummary)
	}
	return summaries, args.Error(1)
}

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) CreateMessage(ctx context.Context, roomID, userID string, content, imageURL *string) (models.Message, error) {
	args := m.Called(ctx, roomID, userID, content, imageURL)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) GetRoomMessages(ctx context.Context, roomID string) ([]models.Message, error) {
	args := m.Called(ctx, roomID)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Error(1)
}

func (m *MessageRepositoryMock) GetMessage(ctx context.Context, messageID int64) (models.Message, error) {
	args := m.Called(ctx, messageID)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) SoftDeleteMessage(ctx context.Context, messageID int64) error {
	args := m.Called(ctx, messageID)
	return args.Error(0)
}

func (m *MessageRepositoryMock) UpdateContent(ctx context.Context, messageID int64, content string) error {
	args := m.Called(ctx, messageID, content)
	return args.Error(0)
}

func (m *MessageRepositoryMock) SetLocked(ctx context.Context, messageID int64, locked bool) error {
	args := m.Called(ctx, messageID, locked)
	return args.Error(0)
}

func (m *MessageRepositoryMock) ReassignUser(ctx context.Context, messageID int64, userID string) error {
	args := m.Called(ctx, messageID, userID)
	return args.Error(0)
}

type ReadStatusRepositoryMock struct {
	mock.Mock
}

func (m *ReadStatusRepositoryMock) ListForMessages(ctx context.Context, messageIDs []int64) ([]models.ReadStatus, error) {
	args := m.Called(ctx, messageIDs)
	var statuses []models.ReadStatus
	if val := args.Get(0); val != nil {
		statuses = val.([]models.ReadStatus)
	}
	return statuses, args.Error(1)
}

func (m *ReadStatusRepositoryMock) UnreadMessageIDs(ctx context.Context, roomID, userID string) ([]int64, error) {
	args := m.Called(ctx, roomID, userID)
	var ids []int64
	if val := args.Get(0); val != nil {
		ids = val.([]int64)
	}
	return ids, args.Error(1)
}

func (m *ReadStatusRepositoryMock) MarkRead(ctx context.Context, messageID int64, userID string) error {
	args := m.Called(ctx, messageID, userID)
	return args.Error(0)
}

func (m *ReadStatusRepositoryMock) UnreadCounts(ctx context.Context, userID string) ([]repositories.UnreadCount, error) {
	args := m.Called(ctx, userID)
	var counts []repositories.UnreadCount
	if val := args.Get(0); val != nil {
		counts = val.([]repositories.UnreadCount)
	}
	return counts, args.Error(1)
}

type BanRepositoryMock struct {
	mock.Mock
}

func (m *BanRepositoryMock) CreateBan(ctx context.Context, userID, bannedBy string, reason *string, expiresAt *time.Time) (models.UserBan, error) {
	args := m.Called(ctx, userID, bannedBy, reason, expiresAt)
	var ban models.UserBan
	if val := args.Get(0); val != nil {
		ban = val.(models.UserBan)
	}
	return ban, args.Error(1)
}

func (m *BanRepositoryMock) DeactivateBans(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *BanRepositoryMock) ListBansForUser(ctx context.Context, userID string) ([]models.UserBan, error) {
	args := m.Called(ctx, userID)
	var bans []models.UserBan
	if val := args.Get(0); val != nil {
		bans = val.([]models.UserBan)
	}
	return bans, args.Error(1)
}

func (m *BanRepositoryMock) ListActiveBans(ctx context.Context) ([]models.UserBan, error) {
	args := m.Called(ctx)
	var bans []models.UserBan
	if val := args.Get(0); val != nil {
		bans = val.([]models.UserBan)
	}
	return bans, args.Error(1)
}

type SettingsRepositoryMock struct {
	mock.Mock
}

func (m *SettingsRepositoryMock) GetSettings(ctx context.Context) (models.SystemSetting, error) {
	args := m.Called(ctx)
	var setting models.SystemSetting
	if val := args.Get(0); val != nil {
		setting = val.(models.SystemSetting)
	}
	return setting, args.Error(1)
}

func (m *SettingsRepositoryMock) SetStudioEnabled(ctx context.Context, enabled bool) error {
	args := m.Called(ctx, enabled)
	return args.Error(0)
}

type SessionRepositoryMock struct {
	mock.Mock
}

func (m *SessionRepositoryMock) CreateSession(ctx context.Context, id, userID, refreshToken string, expiresAt time.Time) error {
	args := m.Called(ctx, id, userID, refreshToken, expiresAt)
	return args.Error(0)
}

func (m *SessionRepositoryMock) GetSessionByToken(ctx context.Context, refreshToken string) (repositories.Session, error) {
	args := m.Called(ctx, refreshToken)
	var session repositories.Session
	if val := args.Get(0); val != nil {
		session = val.(repositories.Session)
	}
	return session, args.Error(1)
}

func (m *SessionRepositoryMock) DeleteSession(ctx context.Context, refreshToken string) error {
	args := m.Called(ctx, refreshToken)
	return args.Error(0)
}

func (m *SessionRepositoryMock) DeleteSessionsForUser(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

var _ repositories.ProfileRepository = (*ProfileRepositoryMock)(nil)
var _ repositories.RoomRepository = (*RoomRepositoryMock)(nil)
var _ repositories.MessageRepository = (*MessageRepositoryMock)(nil)
var _ repositories.ReadStatusRepository = (*ReadStatusRepositoryMock)(nil)
var _ repositories.BanRepository = (*BanRepositoryMock)(nil)
var _ repositories.SettingsRepository = (*SettingsRepositoryMock)(nil)
var _ repositories.SessionRepository = (*SessionRepositoryMock)(nil)

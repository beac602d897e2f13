package access

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"y-chat/internal/mocks"
	"y-chat/internal/models"
)

func TestCheckStudioAccessGranted(t *testing.T) {
	settings := new(mocks.SettingsRepositoryMock)
	profiles := new(mocks.ProfileRepositoryMock)
	guard := NewGuard(settings, profiles, new(mocks.BanRepositoryMock))

	settings.On("GetSettings", mock.Anything).Return(models.SystemSetting{ID: 1, StudioEnabled: true}, nil).Once()
	profiles.On("IsAdmin", mock.Anything, "admin-1").Return(true, nil).Once()

	require.Equal(t, DecisionGranted, guard.CheckStudioAccess(context.Background(), "admin-1"))
	settings.AssertExpectations(t)
	profiles.AssertExpectations(t)
}

func TestCheckStudioAccessDeniesNonAdmin(t *testing.T) {
	settings := new(mocks.SettingsRepositoryMock)
	profiles := new(mocks.ProfileRepositoryMock)
	guard := NewGuard(settings, profiles, new(mocks.BanRepositoryMock))

	settings.On("GetSettings", mock.Anything).Return(models.SystemSetting{ID: 1, StudioEnabled: true}, nil).Once()
	profiles.On("IsAdmin", mock.Anything, "user-1").Return(false, nil).Once()

	require.Equal(t, DecisionDeniedNotAdmin, guard.CheckStudioAccess(context.Background(), "user-1"))
}

func TestCheckStudioAccessKillSwitchShortCircuits(t *testing.T) {
	settings := new(mocks.SettingsRepositoryMock)
	profiles := new(mocks.ProfileRepositoryMock)
	guard := NewGuard(settings, profiles, new(mocks.BanRepositoryMock))

	settings.On("GetSettings", mock.Anything).Return(models.SystemSetting{ID: 1, StudioEnabled: false}, nil).Once()

	require.Equal(t, DecisionDeniedKillSwitch, guard.CheckStudioAccess(context.Background(), "admin-1"))
	// the admin flag must never be consulted once the switch is off
	profiles.AssertNotCalled(t, "IsAdmin", mock.Anything, mock.Anything)
}

func TestCheckStudioAccessFailsClosed(t *testing.T) {
	settings := new(mocks.SettingsRepositoryMock)
	profiles := new(mocks.ProfileRepositoryMock)
	guard := NewGuard(settings, profiles, new(mocks.BanRepositoryMock))

	settings.On("GetSettings", mock.Anything).Return(models.SystemSetting{}, assert.AnError).Once()
	require.Equal(t, DecisionDeniedKillSwitch, guard.CheckStudioAccess(context.Background(), "admin-1"))

	settings.On("GetSettings", mock.Anything).Return(models.SystemSetting{ID: 1, StudioEnabled: true}, nil).Once()
	profiles.On("IsAdmin", mock.Anything, "admin-1").Return(false, assert.AnError).Once()
	require.Equal(t, DecisionDeniedNotAdmin, guard.CheckStudioAccess(context.Background(), "admin-1"))
}

func TestCheckBanTimedBanLapses(t *testing.T) {
	bans := new(mocks.BanRepositoryMock)
	guard := NewGuard(new(mocks.SettingsRepositoryMock), new(mocks.ProfileRepositoryMock), bans)

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	expiry := base.Add(60 * time.Second)
	ban := models.UserBan{ID: 1, UserID: "user-1", IsActive: true, ExpiresAt: &expiry}
	bans.On("ListBansForUser", mock.Anything, "user-1").Return([]models.UserBan{ban}, nil)

	guard.now = func() time.Time { return base.Add(30 * time.Second) }
	status, err := guard.CheckBan(context.Background(), "user-1")
	require.NoError(t, err)
	assert.True(t, status.Banned)
	require.NotNil(t, status.Ban)
	assert.Equal(t, int64(1), status.Ban.ID)

	// same rows, later clock: the ban has lapsed without any row changing
	guard.now = func() time.Time { return base.Add(61 * time.Second) }
	status, err = guard.CheckBan(context.Background(), "user-1")
	require.NoError(t, err)
	assert.False(t, status.Banned)
	assert.Nil(t, status.Ban)
}

func TestCheckBanPermanentAndInactive(t *testing.T) {
	bans := new(mocks.BanRepositoryMock)
	guard := NewGuard(new(mocks.SettingsRepositoryMock), new(mocks.ProfileRepositoryMock), bans)

	permanent := models.UserBan{ID: 2, UserID: "user-2", IsActive: true}
	bans.On("ListBansForUser", mock.Anything, "user-2").Return([]models.UserBan{permanent}, nil).Once()

	status, err := guard.CheckBan(context.Background(), "user-2")
	require.NoError(t, err)
	assert.True(t, status.Banned)

	lifted := models.UserBan{ID: 3, UserID: "user-3", IsActive: false}
	bans.On("ListBansForUser", mock.Anything, "user-3").Return([]models.UserBan{lifted}, nil).Once()

	status, err = guard.CheckBan(context.Background(), "user-3")
	require.NoError(t, err)
	assert.False(t, status.Banned)
}

func TestIsBannedFailsClosed(t *testing.T) {
	bans := new(mocks.BanRepositoryMock)
	guard := NewGuard(new(mocks.SettingsRepositoryMock), new(mocks.ProfileRepositoryMock), bans)

	bans.On("ListBansForUser", mock.Anything, "user-1").Return(([]models.UserBan)(nil), assert.AnError).Once()
	assert.True(t, guard.IsBanned(context.Background(), "user-1"))

	bans.On("ListBansForUser", mock.Anything, "user-1").Return([]models.UserBan{}, nil).Once()
	assert.False(t, guard.IsBanned(context.Background(), "user-1"))
}

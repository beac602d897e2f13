package access

import (
	"context"
	"log"
	"time"

	"y-chat/internal/models"
)

// Decision is the outcome of a studio access check.
type Decision int

const (
	DecisionDeniedKillSwitch Decision = iota
	DecisionDeniedNotAdmin
	DecisionGranted
)

func (d Decision) String() string {
	switch d {
	case DecisionGranted:
		return "granted"
	case DecisionDeniedNotAdmin:
		return "denied_not_admin"
	default:
		return "denied_killswitch"
	}
}

// SettingsReader is the read port for the kill switch.
type SettingsReader interface {
	GetSettings(ctx context.Context) (models.SystemSetting, error)
}

// AdminReader is the read port for the admin flag.
type AdminReader interface {
	IsAdmin(ctx context.Context, userID string) (bool, error)
}

// BanReader is the read port for ban rows.
type BanReader interface {
	ListBansForUser(ctx context.Context, userID string) ([]models.UserBan, error)
}

// Guard decides whether an identity may reach protected surfaces. Both
// gates fail closed: a read error is a denial, never an allow. Nothing is
// cached across the evaluation boundary of a single decision.
type Guard struct {
	settings SettingsReader
	admins   AdminReader
	bans     BanReader
	now      func() time.Time
}

// NewGuard constructs a Guard against the given read ports.
func NewGuard(settings SettingsReader, admins AdminReader, bans BanReader) *Guard {
	return &Guard{settings: settings, admins: admins, bans: bans, now: time.Now}
}

// CheckStudioAccess evaluates the two gates in order. The kill switch is
// checked first and short-circuits the admin check when disabled.
func (g *Guard) CheckStudioAccess(ctx context.Context, userID string) Decision {
	setting, err := g.settings.GetSettings(ctx)
	if err != nil {
		log.Printf("access: settings read failed, denying: %v", err)
		return DecisionDeniedKillSwitch
	}
	if !setting.StudioEnabled {
		return DecisionDeniedKillSwitch
	}

	isAdmin, err := g.admins.IsAdmin(ctx, userID)
	if err != nil {
		log.Printf("access: admin read failed, denying: %v", err)
		return DecisionDeniedNotAdmin
	}
	if !isAdmin {
		return DecisionDeniedNotAdmin
	}
	return DecisionGranted
}

// BanStatus reports whether an identity is currently suppressed and, when
// it is, surfaces the most recent effective ban.
type BanStatus struct {
	Banned bool            `json:"banned"`
	Ban    *models.UserBan `json:"ban,omitempty"`
}

// CheckBan loads the user's ban rows and evaluates them fresh against the
// current clock. Expired or inactive rows never suppress access.
func (g *Guard) CheckBan(ctx context.Context, userID string) (BanStatus, error) {
	bans, err := g.bans.ListBansForUser(ctx, userID)
	if err != nil {
		return BanStatus{}, err
	}

	now := g.now()
	for i := range bans {
		if bans[i].EffectiveAt(now) {
			return BanStatus{Banned: true, Ban: &bans[i]}, nil
		}
	}
	return BanStatus{}, nil
}

// IsBanned is CheckBan with errors treated as suppression, for gate use.
// The read failing closed mirrors the studio gates.
func (g *Guard) IsBanned(ctx context.Context, userID string) bool {
	status, err := g.CheckBan(ctx, userID)
	if err != nil {
		log.Printf("access: ban read failed, denying: %v", err)
		return true
	}
	return status.Banned
}

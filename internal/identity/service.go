// Package identity is the concrete, in-process stand-in for the "opaque
// identity provider" the core treats as external: it owns password
// verification, session token issuance, and the failed-login lockout, and
// yields exactly the {userId, role, assignedSites, primarySite} shape the
// rest of the core consumes. There is no separate identity microservice in
// this deployment, so something in the monolith has to emit those tokens;
// this is that something, kept to login/refresh/logout/change-password and
// nothing else. It never reaches for delivery channels (email, SMS), so
// self-service password reset lives outside it.
package identity

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"parking-core/internal/apperr"
	"parking-core/internal/ids"
	"parking-core/internal/models"
	"parking-core/internal/site"
)

const (
	failedLoginThreshold = 5
	lockDuration          = 2 * time.Hour
)

type Config struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	BcryptCost    int
}

type Service struct {
	Store *site.Store
	Cfg   Config
}

func NewService(store *site.Store, cfg Config) *Service {
	return &Service{Store: store, Cfg: cfg}
}

type Tokens struct {
	AccessToken  string
	RefreshToken string
}

// Login implements the account-lockout rule named in §7: 5 consecutive
// failed attempts lock the account for two hours. A successful login
// clears the counter and mints a fresh refresh jti, revoking any
// outstanding refresh token.
func (s *Service) Login(ctx context.Context, email, password string, now time.Time) (*models.User, Tokens, error) {
	u, err := s.Store.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, Tokens{}, apperr.New(apperr.Unauthorized, "invalid email or password")
	}
	if u.Status == models.UserBlocked {
		return nil, Tokens{}, apperr.New(apperr.Forbidden, "account is blocked")
	}
	if u.LockedUntil != nil && now.Before(*u.LockedUntil) {
		return nil, Tokens{}, apperr.New(apperr.AccountLocked, "account is locked, try again later")
	}

	if !ids.CheckPassword(password, u.PasswordHash) {
		u.FailedLogins++
		if u.FailedLogins >= failedLoginThreshold {
			until := now.Add(lockDuration)
			u.LockedUntil = &until
		}
		if saveErr := s.Store.ReplaceUser(ctx, u); saveErr != nil {
			return nil, Tokens{}, saveErr
		}
		return nil, Tokens{}, apperr.New(apperr.Unauthorized, "invalid email or password")
	}

	u.FailedLogins = 0
	u.LockedUntil = nil
	jti := newRefreshJTI(now)
	u.RefreshTokenID = jti
	if err := s.Store.ReplaceUser(ctx, u); err != nil {
		return nil, Tokens{}, err
	}

	tokens, err := s.issueTokens(u, jti, now)
	if err != nil {
		return nil, Tokens{}, err
	}
	return u, tokens, nil
}

// Refresh rotates the refresh token, rejecting a jti that doesn't match
// the one last issued (the previous token was superseded by a newer
// login or refresh, or the user logged out).
func (s *Service) Refresh(ctx context.Context, refreshToken string, now time.Time) (*models.User, Tokens, error) {
	userIDHex, jti, err := ids.ParseRefreshToken(s.Cfg.RefreshSecret, refreshToken)
	if err != nil {
		return nil, Tokens{}, apperr.New(apperr.Unauthorized, "invalid or expired refresh token")
	}
	userID, err := primitive.ObjectIDFromHex(userIDHex)
	if err != nil {
		return nil, Tokens{}, apperr.New(apperr.Unauthorized, "invalid refresh token subject")
	}
	u, err := s.Store.GetUser(ctx, userID)
	if err != nil {
		return nil, Tokens{}, apperr.New(apperr.Unauthorized, "invalid refresh token")
	}
	if u.RefreshTokenID == "" || !ids.ConstantTimeEqual(u.RefreshTokenID, jti) {
		return nil, Tokens{}, apperr.New(apperr.Unauthorized, "refresh token has been revoked")
	}

	newJTI := newRefreshJTI(now)
	u.RefreshTokenID = newJTI
	if err := s.Store.ReplaceUser(ctx, u); err != nil {
		return nil, Tokens{}, err
	}
	tokens, err := s.issueTokens(u, newJTI, now)
	if err != nil {
		return nil, Tokens{}, err
	}
	return u, tokens, nil
}

// Logout revokes the user's current refresh token so a stolen copy can no
// longer mint fresh access tokens.
func (s *Service) Logout(ctx context.Context, userID primitive.ObjectID) error {
	u, err := s.Store.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	u.RefreshTokenID = ""
	return s.Store.ReplaceUser(ctx, u)
}

// ChangePassword requires the caller to re-present the current password
// and revokes the existing refresh token, forcing re-login on other
// devices.
func (s *Service) ChangePassword(ctx context.Context, userID primitive.ObjectID, oldPassword, newPassword string) error {
	u, err := s.Store.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if !ids.CheckPassword(oldPassword, u.PasswordHash) {
		return apperr.New(apperr.Unauthorized, "current password is incorrect")
	}
	hash, err := ids.HashPassword(newPassword, s.Cfg.BcryptCost)
	if err != nil {
		return apperr.Wrap(apperr.Internal, "failed to hash password", err)
	}
	u.PasswordHash = hash
	u.RefreshTokenID = ""
	return s.Store.ReplaceUser(ctx, u)
}

func (s *Service) Profile(ctx context.Context, userID primitive.ObjectID) (*models.User, error) {
	return s.Store.GetUser(ctx, userID)
}

// issueTokens signs a fresh access/refresh pair. primarySite and
// assignedSites travel in the profile payload, not the token claims, so
// reassigning a user's sites never invalidates an in-flight token.
func (s *Service) issueTokens(u *models.User, jti string, now time.Time) (Tokens, error) {
	access, err := ids.IssueAccessToken(s.Cfg.AccessSecret, u.ID.Hex(), u.OperatorID, string(u.Role), s.Cfg.AccessTTL, now)
	if err != nil {
		return Tokens{}, apperr.Wrap(apperr.Internal, "failed to issue access token", err)
	}
	refresh, err := ids.IssueRefreshToken(s.Cfg.RefreshSecret, u.ID.Hex(), jti, s.Cfg.RefreshTTL, now)
	if err != nil {
		return Tokens{}, apperr.Wrap(apperr.Internal, "failed to issue refresh token", err)
	}
	return Tokens{AccessToken: access, RefreshToken: refresh}, nil
}

// newRefreshJTI derives a refresh jti from the clock rather than crypto/rand.
// The ObjectID also carries the driver's process-unique bytes and an
// incrementing counter, so two calls with the same now yield different ids.
func newRefreshJTI(now time.Time) string {
	return primitive.NewObjectIDFromTimestamp(now).Hex()
}

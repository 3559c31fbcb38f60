package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"

	"github.com/contactbook/contactbook-go/internal/cache"
	"github.com/contactbook/contactbook-go/internal/crypto"
	"github.com/contactbook/contactbook-go/internal/media"
	"github.com/contactbook/contactbook-go/internal/model"
	"github.com/contactbook/contactbook-go/internal/repository"
)

var (
	ErrEmailRequired      = errors.New("email is required")
	ErrPasswordRequired   = errors.New("password is required")
	ErrDuplicateEmail     = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUnverifiedAccount  = errors.New("email not verified")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrRevokedToken       = errors.New("refresh token has been revoked")
)

// UserStore is the persistence interface the auth and user services operate on.
type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id int64) (*model.User, error)
	SetVerified(ctx context.Context, id int64) error
	SetRefreshFingerprint(ctx context.Context, id int64, fingerprint string) error
	SetAvatarURL(ctx context.Context, id int64, url string) error
}

// VerificationMailer dispatches account verification emails.
type VerificationMailer interface {
	SendVerification(ctx context.Context, to, token string) error
}

// AuthService handles signup, email verification, login, token refresh and
// logout. Token state lives entirely in the signed tokens themselves plus a
// single fingerprint column on the user row.
type AuthService struct {
	users  UserStore
	tokens *crypto.Issuer
	mailer VerificationMailer
	cache  *cache.UserCache
}

// NewAuthService creates a new AuthService.
func NewAuthService(users UserStore, tokens *crypto.Issuer, mailer VerificationMailer, userCache *cache.UserCache) *AuthService {
	return &AuthService{
		users:  users,
		tokens: tokens,
		mailer: mailer,
		cache:  userCache,
	}
}

// Signup creates a new unverified account and dispatches a verification
// email. The email failure mode is deliberately non-fatal: the user can
// request a re-send later.
func (s *AuthService) Signup(ctx context.Context, req model.SignupRequest) (model.UserResponse, error) {
	if req.Email == "" {
		return model.UserResponse{}, ErrEmailRequired
	}
	if req.Password == "" {
		return model.UserResponse{}, ErrPasswordRequired
	}

	hash, err := crypto.HashPassword(req.Password)
	if err != nil {
		return model.UserResponse{}, err
	}

	user := &model.User{
		Email:        req.Email,
		PasswordHash: hash,
		AvatarURL:    media.GravatarURL(req.Email),
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return model.UserResponse{}, ErrDuplicateEmail
		}
		return model.UserResponse{}, err
	}

	s.sendVerification(ctx, user)

	return userResponse(user), nil
}

// VerifyEmail consumes a verification token and marks the account verified.
// Verifying an already verified account succeeds without touching anything.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) error {
	claims, err := s.tokens.Parse(token, crypto.ScopeVerifyEmail)
	if err != nil {
		return ErrInvalidToken
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrInvalidToken
		}
		return err
	}

	if user.IsVerified {
		return nil
	}

	if err := s.users.SetVerified(ctx, user.ID); err != nil {
		return err
	}

	s.cache.Delete(ctx, user.ID)
	return nil
}

// RequestVerification re-sends the verification email for an unverified
// account. Unknown emails and already verified accounts are silent no-ops so
// the endpoint does not leak which addresses have accounts.
func (s *AuthService) RequestVerification(ctx context.Context, emailAddr string) error {
	user, err := s.users.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil
		}
		return err
	}

	if user.IsVerified {
		return nil
	}

	s.sendVerification(ctx, user)
	return nil
}

// Login authenticates a verified user and issues a fresh token pair. The new
// refresh fingerprint overwrites the stored one, so logging in invalidates
// any refresh token issued earlier.
func (s *AuthService) Login(ctx context.Context, req model.LoginRequest) (model.TokenPair, error) {
	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return model.TokenPair{}, ErrInvalidCredentials
		}
		return model.TokenPair{}, err
	}

	if !user.IsVerified {
		return model.TokenPair{}, ErrUnverifiedAccount
	}

	match, err := crypto.VerifyPassword(req.Password, user.PasswordHash)
	if err != nil {
		return model.TokenPair{}, err
	}
	if !match {
		return model.TokenPair{}, ErrInvalidCredentials
	}

	return s.issuePair(ctx, user.ID)
}

// Refresh exchanges a valid refresh token for a new token pair, rotating the
// fingerprint. Presenting a superseded token reports ErrRevokedToken and
// clears the stored fingerprint, forcing a full login.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (model.TokenPair, error) {
	claims, err := s.tokens.Parse(refreshToken, crypto.ScopeRefresh)
	if err != nil {
		return model.TokenPair{}, ErrInvalidToken
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return model.TokenPair{}, ErrInvalidToken
		}
		return model.TokenPair{}, err
	}

	if user.RefreshFingerprint == "" ||
		subtle.ConstantTimeCompare([]byte(user.RefreshFingerprint), []byte(claims.Fingerprint)) != 1 {
		if err := s.users.SetRefreshFingerprint(ctx, user.ID, ""); err != nil {
			return model.TokenPair{}, err
		}
		return model.TokenPair{}, ErrRevokedToken
	}

	return s.issuePair(ctx, user.ID)
}

// Logout clears the stored refresh fingerprint so any outstanding refresh
// token becomes unusable. Access tokens already issued remain valid until
// their natural expiry.
func (s *AuthService) Logout(ctx context.Context, userID int64) error {
	if err := s.users.SetRefreshFingerprint(ctx, userID, ""); err != nil {
		return err
	}

	s.cache.Delete(ctx, userID)
	return nil
}

func (s *AuthService) issuePair(ctx context.Context, userID int64) (model.TokenPair, error) {
	access, err := s.tokens.AccessToken(userID)
	if err != nil {
		return model.TokenPair{}, err
	}

	refresh, fingerprint, err := s.tokens.RefreshToken(userID)
	if err != nil {
		return model.TokenPair{}, err
	}

	if err := s.users.SetRefreshFingerprint(ctx, userID, fingerprint); err != nil {
		return model.TokenPair{}, err
	}

	return model.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
	}, nil
}

func (s *AuthService) sendVerification(ctx context.Context, user *model.User) {
	token, err := s.tokens.VerificationToken(user.ID)
	if err != nil {
		slog.Error("issuing verification token", "user_id", user.ID, "error", err)
		return
	}

	if err := s.mailer.SendVerification(ctx, user.Email, token); err != nil {
		slog.Error("sending verification email", "user_id", user.ID, "error", err)
	}
}

func userResponse(u *model.User) model.UserResponse {
	return model.UserResponse{
		ID:         u.ID,
		Email:      u.Email,
		AvatarURL:  u.AvatarURL,
		IsVerified: u.IsVerified,
		CreatedAt:  u.CreatedAt,
	}
}

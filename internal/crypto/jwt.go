package crypto

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid or expired token")

// Scope identifies what a token may be used for. A token is only accepted
// for the scope it was minted with.
type Scope string

const (
	ScopeAccess      Scope = "access_token"
	ScopeRefresh     Scope = "refresh_token"
	ScopeVerifyEmail Scope = "verify_email"
)

// Claims represents the JWT claims carried by contactbook tokens.
type Claims struct {
	jwt.RegisteredClaims
	UserID      int64  `json:"user_id"`
	Scope       Scope  `json:"scope"`
	Fingerprint string `json:"fingerprint,omitempty"`
}

// Issuer mints and verifies signed, time-bounded tokens. The signing secret
// is injected at construction and never read from anywhere else.
type Issuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	verifyTTL  time.Duration
}

// NewIssuer creates an Issuer with the given signing secret and lifetimes
// for access, refresh and email verification tokens.
func NewIssuer(secret string, accessTTL, refreshTTL, verifyTTL time.Duration) *Issuer {
	return &Issuer{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		verifyTTL:  verifyTTL,
	}
}

// AccessToken mints a short-lived token authorizing API requests for the user.
func (i *Issuer) AccessToken(userID int64) (string, error) {
	return i.sign(userID, ScopeAccess, i.accessTTL, "")
}

// RefreshToken mints a long-lived token embedding a fresh random fingerprint.
// The fingerprint is returned alongside the token so the caller can persist
// it on the user record; only the most recently persisted fingerprint remains
// valid, which gives single-active-session semantics without a blacklist.
func (i *Issuer) RefreshToken(userID int64) (token, fingerprint string, err error) {
	fingerprint = uuid.NewString()
	token, err = i.sign(userID, ScopeRefresh, i.refreshTTL, fingerprint)
	if err != nil {
		return "", "", err
	}
	return token, fingerprint, nil
}

// VerificationToken mints a single-purpose token proving email ownership.
func (i *Issuer) VerificationToken(userID int64) (string, error) {
	return i.sign(userID, ScopeVerifyEmail, i.verifyTTL, "")
}

// Parse validates a token string and checks it was minted for the given
// scope. Any failure (signature, expiry, issuer, audience, scope) is
// reported as ErrInvalidToken.
func (i *Issuer) Parse(tokenString string, scope Scope) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return i.secret, nil
	}, jwt.WithIssuer("contactbook"), jwt.WithAudience("contactbook-api"))
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	if claims.Scope != scope {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

func (i *Issuer) sign(userID int64, scope Scope, ttl time.Duration, fingerprint string) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "contactbook",
			Audience:  jwt.ClaimStrings{"contactbook-api"},
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		UserID:      userID,
		Scope:       scope,
		Fingerprint: fingerprint,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.secret)
}

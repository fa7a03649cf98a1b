package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/campusforum/internal/domain/models"
	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// MinSecretLen is the shortest accepted HMAC secret.
const MinSecretLen = 32

// DefaultTTL is the token lifetime when none is configured.
const DefaultTTL = 24 * time.Hour

// ResetTTL is the lifetime of password reset tokens.
const ResetTTL = time.Hour

const (
	issuer        = "campusforum"
	resetAudience = "password-reset"
)

// Claims is the JWT payload. Subject carries the user ID (hex).
type Claims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// TokenManager signs and verifies HS256 access tokens.
type TokenManager struct {
	secret  []byte
	ttl     time.Duration
	now     func() time.Time
	fetcher UserFetcher
}

// NewTokenManager validates the secret and builds a manager. ttl <= 0
// means DefaultTTL.
func NewTokenManager(secret string, ttl time.Duration, logger *zap.Logger) (*TokenManager, error) {
	if secret == "" {
		return nil, fmt.Errorf("jwt secret is empty; provide ≥%d random chars", MinSecretLen)
	}
	if len(secret) < MinSecretLen {
		return nil, fmt.Errorf("jwt secret is too short: %d chars, need ≥%d", len(secret), MinSecretLen)
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger != nil {
		logger.Info("token manager initialized", zap.Duration("ttl", ttl))
	}
	return &TokenManager{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// TTL is the lifetime of issued tokens.
func (tm *TokenManager) TTL() time.Duration { return tm.ttl }

// Issue signs a token for u and returns it with its expiry.
func (tm *TokenManager) Issue(u models.User) (string, time.Time, error) {
	now := tm.now().UTC()
	exp := now.Add(tm.ttl)
	claims := Claims{
		Username: u.Username,
		Role:     u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID.Hex(),
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(tm.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Parse verifies raw and returns the user it names. Expired tokens yield
// ErrExpiredToken; every other failure is ErrInvalidToken.
func (tm *TokenManager) Parse(raw string) (*TokenUser, error) {
	if raw == "" {
		return nil, ErrInvalidToken
	}
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return tm.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(tm.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken.Wrap(err)
	}
	if !tok.Valid || len(claims.Audience) > 0 {
		return nil, ErrInvalidToken
	}
	id, err := primitive.ObjectIDFromHex(claims.Subject)
	if err != nil {
		return nil, ErrInvalidToken.Wrap(err)
	}
	return &TokenUser{ID: id, Username: claims.Username, Role: claims.Role}, nil
}

type resetClaims struct {
	PasswordFP string `json:"pwf"`
	jwt.RegisteredClaims
}

// ResetToken is a verified password reset request.
type ResetToken struct {
	UserID      primitive.ObjectID
	fingerprint string
}

// Matches reports whether the token was issued against passwordHash. A
// reset token stops matching once the password changes, so it works once.
func (rt *ResetToken) Matches(passwordHash string) bool {
	return rt.fingerprint != "" && rt.fingerprint == passwordFingerprint(passwordHash)
}

func passwordFingerprint(hash string) string {
	sum := sha256.Sum256([]byte(hash))
	return hex.EncodeToString(sum[:12])
}

// IssueReset signs a password reset token for u, valid for ResetTTL. It is
// rejected by Parse, so it cannot be used as an access token.
func (tm *TokenManager) IssueReset(u models.User) (string, time.Time, error) {
	now := tm.now().UTC()
	exp := now.Add(ResetTTL)
	claims := resetClaims{
		PasswordFP: passwordFingerprint(u.PasswordHash),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID.Hex(),
			Issuer:    issuer,
			Audience:  jwt.ClaimStrings{resetAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(tm.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// ParseReset verifies a token from IssueReset. Every failure, including
// expiry, is ErrInvalidResetToken.
func (tm *TokenManager) ParseReset(raw string) (*ResetToken, error) {
	if raw == "" {
		return nil, ErrInvalidResetToken
	}
	claims := &resetClaims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return tm.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithAudience(resetAudience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(tm.now),
	)
	if err != nil {
		return nil, ErrInvalidResetToken.Wrap(err)
	}
	if !tok.Valid || claims.PasswordFP == "" {
		return nil, ErrInvalidResetToken
	}
	id, err := primitive.ObjectIDFromHex(claims.Subject)
	if err != nil {
		return nil, ErrInvalidResetToken.Wrap(err)
	}
	return &ResetToken{UserID: id, fingerprint: claims.PasswordFP}, nil
}

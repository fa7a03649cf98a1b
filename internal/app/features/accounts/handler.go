// internal/app/features/accounts/handler.go
package accounts

import (
	"time"

	"github.com/dalemusser/campusforum/internal/app/system/auditlog"
	"github.com/dalemusser/campusforum/internal/app/system/auth"
	"github.com/dalemusser/campusforum/internal/app/system/ratelimit"
	"github.com/dalemusser/campusforum/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves registration, login, token refresh, password change and
// password reset.
type Handler struct {
	DB      *mongo.Database
	Log     *zap.Logger
	Tokens  *auth.TokenManager
	Limiter *ratelimit.LoginLimiter
	Audit   *auditlog.Logger

	// ExposeResetToken returns reset tokens in the forgot-password
	// response. Development only; there is no mail delivery.
	ExposeResetToken bool
}

// NewHandler wires the accounts feature. limiter may be nil to disable
// login throttling; audit may be nil.
func NewHandler(db *mongo.Database, tokens *auth.TokenManager, limiter *ratelimit.LoginLimiter, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:      db,
		Log:     logger,
		Tokens:  tokens,
		Limiter: limiter,
		Audit:   audit,
	}
}

// tokenResponse is the data payload of register, login and refresh.
type tokenResponse struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      models.User `json:"user"`
}

func (h *Handler) issue(u models.User) (tokenResponse, error) {
	tok, exp, err := h.Tokens.Issue(u)
	if err != nil {
		return tokenResponse{}, err
	}
	return tokenResponse{Token: tok, ExpiresAt: exp, User: u}, nil
}

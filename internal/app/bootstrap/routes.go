// internal/app/bootstrap/routes.go
package bootstrap

import (
	"errors"
	"net/http"

	accountsfeature "github.com/dalemusser/campusforum/internal/app/features/accounts"
	auditfeature "github.com/dalemusser/campusforum/internal/app/features/auditlog"
	commentsfeature "github.com/dalemusser/campusforum/internal/app/features/comments"
	errorsfeature "github.com/dalemusser/campusforum/internal/app/features/errors"
	forumsfeature "github.com/dalemusser/campusforum/internal/app/features/forums"
	groupsfeature "github.com/dalemusser/campusforum/internal/app/features/groups"
	healthfeature "github.com/dalemusser/campusforum/internal/app/features/health"
	mediafeature "github.com/dalemusser/campusforum/internal/app/features/media"
	pollsfeature "github.com/dalemusser/campusforum/internal/app/features/polls"
	reactionsfeature "github.com/dalemusser/campusforum/internal/app/features/reactions"
	usersfeature "github.com/dalemusser/campusforum/internal/app/features/users"
	"github.com/dalemusser/campusforum/internal/app/store/audit"
	userstore "github.com/dalemusser/campusforum/internal/app/store/users"
	"github.com/dalemusser/campusforum/internal/app/system/auditlog"
	"github.com/dalemusser/campusforum/internal/app/system/auth"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// the Startup hook have completed. Every feature handler is built once
// here and shares the same database handle, audit logger and token
// manager.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	db := deps.MongoDatabase
	if deps.LoginLimiter == nil {
		return nil, errors.New("bootstrap: login limiter not initialized")
	}

	tokens, err := auth.NewTokenManager(appCfg.JWTSecret, appCfg.JWTTTL, logger)
	if err != nil {
		logger.Error("token manager init failed", zap.Error(err))
		return nil, err
	}
	// Reload the caller on each request so deletions and role changes
	// apply before the token expires.
	tokens.SetFetcher(userstore.NewFetcher(db))

	auditLog := auditlog.New(audit.New(db), logger, auditlog.Config{
		Auth:       appCfg.AuditLogAuth,
		Membership: appCfg.AuditLogMembership,
	})

	errorsHandler := errorsfeature.NewHandler()

	r := chi.NewRouter()
	r.NotFound(errorsHandler.NotFound)
	r.MethodNotAllowed(errorsHandler.MethodNotAllowed)

	// Global auth middleware: a valid bearer token puts the user in the
	// request context. Anonymous requests pass through.
	r.Use(tokens.LoadTokenUser)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, deps.Blobs, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Authentication
	accountsHandler := accountsfeature.NewHandler(db, tokens, deps.LoginLimiter, auditLog, logger)
	accountsHandler.ExposeResetToken = appCfg.ExposeResetToken
	r.Mount("/auth", accountsfeature.Routes(accountsHandler))

	usersHandler := usersfeature.NewHandler(db, auditLog, logger)
	r.Mount("/users", usersfeature.Routes(usersHandler))

	// Groups and the membership engine
	groupsHandler := groupsfeature.NewHandler(db, auditLog, logger)
	r.Mount("/groups", groupsfeature.Routes(groupsHandler))

	// Content; reactions hang off forums and comments
	reactionsHandler := reactionsfeature.NewHandler(db, logger)

	forumsHandler := forumsfeature.NewHandler(db, logger)
	r.Mount("/forums", forumsfeature.Routes(forumsHandler, reactionsHandler))

	commentsHandler := commentsfeature.NewHandler(db, logger)
	r.Mount("/comments", commentsfeature.Routes(commentsHandler, reactionsHandler))

	pollsHandler := pollsfeature.NewHandler(db, logger)
	r.Mount("/polls", pollsfeature.Routes(pollsHandler))

	mediaHandler := mediafeature.NewHandler(db, deps.Blobs, appCfg.MediaMaxBytes, logger)
	r.Mount("/media", mediafeature.Routes(mediaHandler))

	// Site admin audit trail
	auditHandler := auditfeature.NewHandler(db, logger)
	r.Mount("/audit", auditfeature.Routes(auditHandler))

	return r, nil
}

// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	userstore "github.com/dalemusser/campusforum/internal/app/store/users"
	"github.com/dalemusser/campusforum/internal/app/system/timeouts"
	"github.com/dalemusser/campusforum/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup runs one-time initialization after DB connections and schema
// setup, before the HTTP handler is built.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	timeouts.Configure(timeouts.Config{
		Short:  appCfg.TimeoutShort,
		Medium: appCfg.TimeoutMedium,
		Long:   appCfg.TimeoutLong,
	})

	return ensureSiteAdmin(ctx, deps, appCfg.AdminEmail, logger)
}

// ensureSiteAdmin promotes the user with email to site admin. A blank
// email is a no-op and an unknown one only logs, since accounts are
// created through registration.
func ensureSiteAdmin(ctx context.Context, deps DBDeps, email string, logger *zap.Logger) error {
	if email == "" {
		return nil
	}
	users := userstore.New(deps.MongoDatabase)
	u, err := users.GetByEmail(ctx, email)
	if userstore.IsNotFound(err) {
		logger.Warn("admin_email has no account yet; register it and restart", zap.String("email", email))
		return nil
	}
	if err != nil {
		return err
	}
	if !u.IsActive {
		logger.Warn("admin_email belongs to a disabled account", zap.String("email", email))
		return nil
	}
	if u.Role == models.RoleAdmin {
		return nil
	}
	if err := users.SetRole(ctx, u.ID, models.RoleAdmin); err != nil {
		return err
	}
	logger.Info("promoted user to site admin", zap.String("email", email), zap.String("user_id", u.ID.Hex()))
	return nil
}

package migrate

import (
	"context"
	"fmt"

	"github.com/hopefultail/hopeful-tail-backend/pkg/config"
	"github.com/hopefultail/hopeful-tail-backend/pkg/db"
	"github.com/hopefultail/hopeful-tail-backend/pkg/logger"
)

// MaybeRunDev migrates the embedded schema up at boot, but only for dev with
// the auto-migrate flag on. Other environments run cmd/migrate explicitly.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !autoMigrate(cfg) {
		return nil
	}
	sqlDB, err := client.SQLDB()
	if err != nil {
		return fmt.Errorf("sql handle: %w", err)
	}

	src := EmbeddedSource()
	if err := ValidateFS(src.FS, src.Dir); err != nil {
		return fmt.Errorf("embedded migrations: %w", err)
	}
	ctx = logg.WithField(ctx, "migrations", "embedded")
	logg.Info(ctx, "migrate.autorun")
	if err := Run(ctx, sqlDB, src, "up"); err != nil {
		return err
	}
	logg.Info(ctx, "migrate.autorun_done")
	return nil
}

func autoMigrate(cfg *config.Config) bool {
	return cfg != nil && cfg.App.IsDev() && cfg.FeatureFlags.AutoMigrate
}

package migrate

import (
	"context"
	"fmt"

	"github.com/smartpos/smartpos-backend/pkg/config"
	"github.com/smartpos/smartpos-backend/pkg/db"
	"github.com/smartpos/smartpos-backend/pkg/logger"
)

// MaybeRunDev brings the schema up to date on boot, but only in the dev
// environment with SMARTPOS_AUTO_MIGRATE set.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}
	ctx = logg.WithField(ctx, "driver", cfg.DB.Driver)

	if cfg.DB.IsSQLite() {
		logg.Info(ctx, "auto-migrating sqlite schema")
		return AutoMigrate(ctx, client.DB())
	}

	pool, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("sql handle: %w", err)
	}
	runner, err := NewRunner(pool, nil, logg)
	if err != nil {
		return err
	}
	logg.Info(ctx, "applying embedded migrations")
	return runner.Up(ctx)
}

package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dukerupert/eventory/internal/auth"
	"github.com/dukerupert/eventory/internal/config"
	"github.com/dukerupert/eventory/internal/model"
)

type adminSeeder interface {
	Count(ctx context.Context) (int, error)
	Create(ctx context.Context, a *model.Admin) (*model.Admin, error)
}

// bootstrapSuperAdmin creates the first superadmin when no admin exists and
// bootstrap credentials are configured.
func bootstrapSuperAdmin(ctx context.Context, admins adminSeeder, cfg config.BootstrapConfig, logger *slog.Logger) error {
	if !cfg.Enabled() {
		return nil
	}
	n, err := admins.Count(ctx)
	if err != nil {
		return fmt.Errorf("count admins: %w", err)
	}
	if n > 0 {
		return nil
	}
	if len(cfg.Password) < auth.MinPasswordLength {
		return fmt.Errorf("bootstrap password must be at least %d characters", auth.MinPasswordLength)
	}

	hash, err := auth.HashPassword(cfg.Password)
	if err != nil {
		return err
	}
	a, err := admins.Create(ctx, &model.Admin{
		Name:     cfg.Name,
		Email:    strings.ToLower(strings.TrimSpace(cfg.Email)),
		Password: hash,
		Role:     model.RoleSuperAdmin,
	})
	if err != nil {
		return fmt.Errorf("create superadmin: %w", err)
	}
	logger.Info("created bootstrap superadmin", "admin", a.ID, "email", a.Email)
	return nil
}

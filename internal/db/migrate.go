package db

import (
	"errors"

	"github.com/storeup/storeup-backend/config"
	"github.com/storeup/storeup-backend/internal/app/model"
	"github.com/storeup/storeup-backend/pkg/logger"
	"github.com/storeup/storeup-backend/pkg/util"
	"gorm.io/gorm"
)

// Models lists every persisted entity in dependency order.
func Models() []interface{} {
	return []interface{}{
		&model.User{},
		&model.Store{},
		&model.Category{},
		&model.Product{},
		&model.ProductImage{},
		&model.ProductSpecification{},
		&model.ShippingAgent{},
	}
}

// Migrate runs database migrations against the global connection.
func Migrate() error {
	logger.Info("Running database migrations...")

	models := Models()
	if err := DB.AutoMigrate(models...); err != nil {
		logger.Error("Failed to run migrations", err)
		return err
	}

	logger.Info("Database migrations completed successfully", map[string]interface{}{
		"models_count": len(models),
	})
	return nil
}

// SeedAdmin creates the bootstrap staff account when credentials are
// configured and no user with that username exists yet.
func SeedAdmin(conn *gorm.DB, cfg config.AdminConfig) error {
	if cfg.Username == "" || cfg.Password == "" {
		logger.Debug("Admin bootstrap not configured, skipping")
		return nil
	}

	var existing model.User
	err := conn.Where("username = ?", cfg.Username).First(&existing).Error
	if err == nil {
		logger.Info("Admin user already exists, skipping", map[string]interface{}{
			"user_id": existing.ID,
		})
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hash, err := util.HashPassword(cfg.Password)
	if err != nil {
		return err
	}

	email := cfg.Email
	if email == "" {
		email = cfg.Username + "@localhost"
	}

	admin := &model.User{
		Username:     cfg.Username,
		Email:        email,
		PasswordHash: hash,
		Role:         model.RoleAdmin,
	}
	if err := conn.Create(admin).Error; err != nil {
		logger.Error("Failed to create admin user", err, map[string]interface{}{
			"username": cfg.Username,
		})
		return err
	}

	logger.Info("Admin user created", map[string]interface{}{
		"user_id":  admin.ID,
		"username": admin.Username,
	})
	return nil
}

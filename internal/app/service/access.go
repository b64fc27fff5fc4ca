package service

import (
	"context"
	"errors"

	"github.com/storeup/storeup-backend/internal/app/repository"
	"github.com/storeup/storeup-backend/internal/authz"
	apperrors "github.com/storeup/storeup-backend/internal/errors"
	"github.com/storeup/storeup-backend/internal/storage"
	"github.com/storeup/storeup-backend/pkg/logger"
	"gorm.io/gorm"
)

// PrincipalLoader turns an authenticated user id into the ownership
// facts the guard needs. The role is read from the database, not the
// token, so demotions apply immediately.
type PrincipalLoader interface {
	Load(ctx context.Context, userID uint) (*authz.Principal, error)
}

type principalLoader struct {
	userRepo  repository.UserRepository
	storeRepo repository.StoreRepository
}

func NewPrincipalLoader(userRepo repository.UserRepository, storeRepo repository.StoreRepository) PrincipalLoader {
	return &principalLoader{userRepo: userRepo, storeRepo: storeRepo}
}

func (l *principalLoader) Load(ctx context.Context, userID uint) (*authz.Principal, error) {
	user, err := l.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Unauthenticated(apperrors.AuthTokenInvalid, "user no longer exists")
		}
		return nil, apperrors.FromDB(err, nil)
	}

	owned, err := l.storeRepo.ListOwnedIDs(ctx, userID)
	if err != nil {
		return nil, apperrors.FromDB(err, nil)
	}

	return &authz.Principal{
		UserID:        user.ID,
		Admin:         user.IsAdmin(),
		OwnedStoreIDs: owned,
	}, nil
}

// decide converts a guard decision into the error a controller renders.
func decide(d authz.Decision) error {
	switch d.Outcome {
	case authz.Allow:
		return nil
	case authz.DenyUnauthenticated:
		return apperrors.Unauthenticated(apperrors.AuthUnauthorized, d.Reason)
	default:
		return apperrors.Forbidden(apperrors.AuthzForbidden, d.Reason)
	}
}

// discardImages removes stored files after the rows referencing them are
// gone. Failures are logged and otherwise ignored.
func discardImages(ctx context.Context, images storage.ImageStorage, paths []string) {
	if images == nil {
		return
	}
	for _, path := range paths {
		if path == "" {
			continue
		}
		if err := images.Delete(ctx, path); err != nil {
			logger.Warn("Failed to delete stored image", map[string]interface{}{
				"path":  path,
				"error": err.Error(),
			})
		}
	}
}

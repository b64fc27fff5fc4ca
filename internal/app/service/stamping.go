package service

import (
	"context"
	"errors"

	"github.com/storeup/storeup-backend/internal/app/model"
	"github.com/storeup/storeup-backend/internal/app/repository"
	"github.com/storeup/storeup-backend/internal/authz"
	apperrors "github.com/storeup/storeup-backend/internal/errors"
	"gorm.io/gorm"
)

// stamper picks the store a new catalog row belongs to.
type stamper struct {
	storeRepo repository.StoreRepository
	guard     *authz.Guard
}

// scopeFor resolves, in order: the explicit store, the tenant the request
// arrived on, the principal's only owned store, and finally Global. An
// explicit or tenant store must be one the principal may write into.
func (s stamper) scopeFor(ctx context.Context, p *authz.Principal, explicit *uint, tenant *model.Store) (model.Scope, error) {
	if !p.Authenticated() {
		return model.Global(), apperrors.Unauthenticated(apperrors.AuthUnauthorized, "authentication required to modify the catalog")
	}

	if explicit != nil {
		if _, err := s.storeRepo.FindByID(ctx, *explicit); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return model.Global(), apperrors.Field("store", "store does not exist")
			}
			return model.Global(), apperrors.FromDB(err, nil)
		}
		if err := s.crossTenant(p, *explicit); err != nil {
			return model.Global(), err
		}
		return model.ScopedTo(*explicit), nil
	}

	if tenant != nil {
		if err := s.crossTenant(p, tenant.ID); err != nil {
			return model.Global(), err
		}
		return model.ScopedTo(tenant.ID), nil
	}

	if storeID, ok := p.StoreContext(); ok {
		return model.ScopedTo(storeID), nil
	}
	return model.Global(), nil
}

func (s stamper) crossTenant(p *authz.Principal, storeID uint) error {
	d := s.guard.CanStampInto(p, storeID)
	if d.Outcome == authz.DenyForbidden {
		return apperrors.Forbidden(apperrors.AuthzCrossTenantWrite, d.Reason)
	}
	return decide(d)
}

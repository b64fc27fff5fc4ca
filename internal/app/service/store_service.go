package service

import (
	"context"
	"errors"
	"strings"

	"github.com/storeup/storeup-backend/internal/app/model"
	"github.com/storeup/storeup-backend/internal/app/repository"
	"github.com/storeup/storeup-backend/internal/authz"
	apperrors "github.com/storeup/storeup-backend/internal/errors"
	"github.com/storeup/storeup-backend/internal/storage"
	"github.com/storeup/storeup-backend/pkg/logger"
	"gorm.io/datatypes"
)

var (
	ErrStoreNotFound = apperrors.NotFound(apperrors.StoreNotFound, "store not found")
	ErrDomainLocked  = apperrors.Validation(apperrors.ValidationDomainLocked,
		"domain can no longer be changed once the store has served traffic",
		map[string]string{"domain": "domain is locked"})
)

type CreateStoreInput struct {
	Name        string
	Domain      string
	Description string
	Logo        string
	Theme       datatypes.JSONMap
	ContactInfo datatypes.JSONMap
	SocialMedia datatypes.JSONMap
}

type StoreService interface {
	ListStores(ctx context.Context, p *authz.Principal) ([]model.Store, error)
	GetStoreByID(ctx context.Context, id uint) (*model.Store, error)
	CreateStore(ctx context.Context, p *authz.Principal, input CreateStoreInput) (*model.Store, error)
	UpdateStore(ctx context.Context, p *authz.Principal, id uint, patch model.StorePatch) (*model.Store, error)
	DeleteStore(ctx context.Context, p *authz.Principal, id uint) error
}

type storeService struct {
	storeRepo repository.StoreRepository
	directory TenantDirectory
	guard     *authz.Guard
	images    storage.ImageStorage
	mediaBase string
}

func NewStoreService(
	storeRepo repository.StoreRepository,
	directory TenantDirectory,
	guard *authz.Guard,
	images storage.ImageStorage,
	mediaBase string,
) StoreService {
	return &storeService{
		storeRepo: storeRepo,
		directory: directory,
		guard:     guard,
		images:    images,
		mediaBase: mediaBase,
	}
}

func (s *storeService) ListStores(ctx context.Context, p *authz.Principal) ([]model.Store, error) {
	scope := s.guard.StoreListScope(p)

	filter := repository.StoreFilter{}
	if !scope.All {
		ownerID := scope.OwnerID
		filter.OwnerID = &ownerID
	}

	stores, err := s.storeRepo.List(ctx, filter)
	if err != nil {
		return nil, apperrors.FromDB(err, nil)
	}
	for i := range stores {
		stores[i].ApplyMediaBase(s.mediaBase)
	}
	return stores, nil
}

func (s *storeService) GetStoreByID(ctx context.Context, id uint) (*model.Store, error) {
	store, err := s.storeRepo.FindByID(ctx, id)
	if err != nil {
		return nil, apperrors.FromDB(err, ErrStoreNotFound)
	}
	store.ApplyMediaBase(s.mediaBase)
	return store, nil
}

func validateStoreFields(name, domain string) error {
	fields := map[string]string{}
	if strings.TrimSpace(name) == "" {
		fields["name"] = "this field is required"
	} else if len(name) > 100 {
		fields["name"] = "ensure this field has no more than 100 characters"
	}
	if domain == "" {
		fields["domain"] = "this field is required"
	} else if !model.ValidDomainKey(domain) {
		fields["domain"] = "must be a lowercase subdomain label and not www"
	}
	if len(fields) > 0 {
		return apperrors.Validation(apperrors.ValidationInvalidInput, "invalid store", fields)
	}
	return nil
}

func (s *storeService) CreateStore(ctx context.Context, p *authz.Principal, input CreateStoreInput) (*model.Store, error) {
	if err := decide(s.guard.Authorize(p, authz.ActionCreate, authz.StoreResource(nil))); err != nil {
		return nil, err
	}

	domain := model.NormalizeDomainKey(input.Domain)
	if err := validateStoreFields(input.Name, domain); err != nil {
		return nil, err
	}

	ownerID := p.UserID
	store := &model.Store{
		OwnerID:     &ownerID,
		Name:        strings.TrimSpace(input.Name),
		Domain:      domain,
		Description: input.Description,
		Logo:        input.Logo,
		Theme:       input.Theme,
		ContactInfo: input.ContactInfo,
		SocialMedia: input.SocialMedia,
	}
	if err := s.storeRepo.Create(ctx, store); err != nil {
		return nil, apperrors.FromDB(err, nil)
	}

	// a miss is never cached, but a stale entry from a deleted store may be
	s.directory.Invalidate(ctx, store.Domain)

	logger.Info("Store created", map[string]interface{}{
		"store_id": store.ID,
		"domain":   store.Domain,
		"owner_id": ownerID,
	})
	store.ApplyMediaBase(s.mediaBase)
	return store, nil
}

func (s *storeService) UpdateStore(ctx context.Context, p *authz.Principal, id uint, patch model.StorePatch) (*model.Store, error) {
	current, err := s.storeRepo.FindByID(ctx, id)
	if err != nil {
		return nil, apperrors.FromDB(err, ErrStoreNotFound)
	}
	if err := decide(s.guard.Authorize(p, authz.ActionUpdate, authz.StoreResource(current))); err != nil {
		return nil, err
	}

	if patch.Domain != nil {
		normalized := model.NormalizeDomainKey(*patch.Domain)
		patch.Domain = &normalized
	}
	changesDomain := patch.ChangesDomain(*current)
	if changesDomain && current.DomainLocked() {
		return nil, ErrDomainLocked
	}

	updated := patch.Apply(*current)
	if err := validateStoreFields(updated.Name, updated.Domain); err != nil {
		return nil, err
	}
	updated.Name = strings.TrimSpace(updated.Name)

	if err := s.storeRepo.Update(ctx, &updated, changesDomain); err != nil {
		if errors.Is(err, repository.ErrStaleWrite) {
			if changesDomain {
				return nil, ErrDomainLocked
			}
			return nil, ErrStoreNotFound
		}
		return nil, apperrors.FromDB(err, ErrStoreNotFound)
	}

	s.directory.Invalidate(ctx, current.Domain, updated.Domain)
	if current.Logo != "" && current.Logo != updated.Logo {
		discardImages(ctx, s.images, []string{current.Logo})
	}

	logger.Info("Store updated", map[string]interface{}{
		"store_id": updated.ID,
		"domain":   updated.Domain,
	})
	updated.ApplyMediaBase(s.mediaBase)
	return &updated, nil
}

func (s *storeService) DeleteStore(ctx context.Context, p *authz.Principal, id uint) error {
	current, err := s.storeRepo.FindByID(ctx, id)
	if err != nil {
		return apperrors.FromDB(err, ErrStoreNotFound)
	}
	if err := decide(s.guard.Authorize(p, authz.ActionDelete, authz.StoreResource(current))); err != nil {
		return err
	}

	paths, err := s.storeRepo.DeleteCascade(ctx, id)
	if err != nil {
		return apperrors.FromDB(err, ErrStoreNotFound)
	}

	s.directory.Invalidate(ctx, current.Domain)
	discardImages(ctx, s.images, paths)

	logger.Info("Store deleted", map[string]interface{}{
		"store_id":        id,
		"domain":          current.Domain,
		"discarded_files": len(paths),
	})
	return nil
}

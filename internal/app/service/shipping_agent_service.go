package service

import (
	"context"
	"strings"

	"github.com/storeup/storeup-backend/internal/app/model"
	"github.com/storeup/storeup-backend/internal/app/repository"
	"github.com/storeup/storeup-backend/internal/authz"
	apperrors "github.com/storeup/storeup-backend/internal/errors"
	"github.com/storeup/storeup-backend/pkg/logger"
	"gorm.io/datatypes"
)

var ErrShippingAgentNotFound = apperrors.NotFound(apperrors.ShippingAgentNotFound, "shipping agent not found")

type CreateShippingAgentInput struct {
	StoreID      *uint
	Name         string
	ContactInfo  datatypes.JSONMap
	ServiceAreas datatypes.JSON
	Rates        datatypes.JSON
	IsActive     *bool
}

type ShippingAgentService interface {
	ListShippingAgents(ctx context.Context, p *authz.Principal) ([]model.ShippingAgent, error)
	GetShippingAgent(ctx context.Context, p *authz.Principal, id uint) (*model.ShippingAgent, error)
	CreateShippingAgent(ctx context.Context, p *authz.Principal, input CreateShippingAgentInput) (*model.ShippingAgent, error)
	UpdateShippingAgent(ctx context.Context, p *authz.Principal, id uint, patch model.ShippingAgentPatch) (*model.ShippingAgent, error)
	DeleteShippingAgent(ctx context.Context, p *authz.Principal, id uint) error
}

type shippingAgentService struct {
	agentRepo repository.ShippingAgentRepository
	storeRepo repository.StoreRepository
	guard     *authz.Guard
}

func NewShippingAgentService(
	agentRepo repository.ShippingAgentRepository,
	storeRepo repository.StoreRepository,
	guard *authz.Guard,
) ShippingAgentService {
	return &shippingAgentService{
		agentRepo: agentRepo,
		storeRepo: storeRepo,
		guard:     guard,
	}
}

func (s *shippingAgentService) ListShippingAgents(ctx context.Context, p *authz.Principal) ([]model.ShippingAgent, error) {
	if err := decide(s.guard.Authorize(p, authz.ActionList, authz.Resource{Kind: authz.KindShippingAgent})); err != nil {
		return nil, err
	}

	scope := s.guard.ShippingAgentListScope(p)
	agents, err := s.agentRepo.List(ctx, repository.ShippingAgentFilter{All: scope.All, StoreIDs: scope.StoreIDs})
	if err != nil {
		return nil, apperrors.FromDB(err, nil)
	}
	return agents, nil
}

// visible loads an agent the principal can see. Agents outside the
// principal's list scope are reported as missing.
func (s *shippingAgentService) visible(ctx context.Context, p *authz.Principal, id uint) (*model.ShippingAgent, error) {
	if err := decide(s.guard.Authorize(p, authz.ActionRead, authz.Resource{Kind: authz.KindShippingAgent})); err != nil {
		return nil, err
	}

	agent, err := s.agentRepo.FindByID(ctx, id)
	if err != nil {
		return nil, apperrors.FromDB(err, ErrShippingAgentNotFound)
	}
	if scope := s.guard.ShippingAgentListScope(p); !scope.All && !containsID(scope.StoreIDs, agent.StoreID) {
		return nil, ErrShippingAgentNotFound
	}
	return agent, nil
}

func containsID(ids []uint, id uint) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func (s *shippingAgentService) GetShippingAgent(ctx context.Context, p *authz.Principal, id uint) (*model.ShippingAgent, error) {
	return s.visible(ctx, p, id)
}

func validateAgentName(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return apperrors.Field("name", "this field is required")
	case len(name) > 100:
		return apperrors.Field("name", "ensure this field has no more than 100 characters")
	}
	return nil
}

// targetStore picks the store a new agent belongs to: the requested one
// for staff, the principal's single store for owners.
func (s *shippingAgentService) targetStore(ctx context.Context, p *authz.Principal, requested *uint) (*model.Store, error) {
	if !p.Authenticated() {
		return nil, apperrors.Unauthenticated(apperrors.AuthUnauthorized, "authentication required for shipping agents")
	}

	var storeID uint
	switch {
	case requested != nil:
		storeID = *requested
	case p.Admin:
		return nil, apperrors.Field("store", "this field is required")
	default:
		id, ok := p.StoreContext()
		if !ok {
			return nil, apperrors.Forbidden(apperrors.AuthzStoreContext, "a single store context is required to manage shipping agents")
		}
		storeID = id
	}

	store, err := s.storeRepo.FindByID(ctx, storeID)
	if err != nil {
		if apperrors.KindOf(apperrors.FromDB(err, nil)) == apperrors.KindNotFound {
			return nil, apperrors.Field("store", "store does not exist")
		}
		return nil, apperrors.FromDB(err, nil)
	}
	return store, nil
}

func (s *shippingAgentService) CreateShippingAgent(ctx context.Context, p *authz.Principal, input CreateShippingAgentInput) (*model.ShippingAgent, error) {
	if err := validateAgentName(input.Name); err != nil {
		return nil, err
	}

	store, err := s.targetStore(ctx, p, input.StoreID)
	if err != nil {
		return nil, err
	}
	res := authz.ScopedResource(authz.KindShippingAgent, model.ScopedTo(store.ID))
	if err := decide(s.guard.Authorize(p, authz.ActionCreate, res)); err != nil {
		return nil, err
	}

	agent := &model.ShippingAgent{
		StoreID:      store.ID,
		Name:         strings.TrimSpace(input.Name),
		ContactInfo:  input.ContactInfo,
		ServiceAreas: input.ServiceAreas,
		Rates:        input.Rates,
		IsActive:     true,
	}
	if input.IsActive != nil {
		agent.IsActive = *input.IsActive
	}
	if err := s.agentRepo.Create(ctx, agent); err != nil {
		return nil, apperrors.FromDB(err, nil)
	}
	agent.Store = store
	agent.FillStoreName()

	logger.Info("Shipping agent created", map[string]interface{}{
		"shipping_agent_id": agent.ID,
		"store_id":          store.ID,
	})
	return agent, nil
}

func (s *shippingAgentService) UpdateShippingAgent(ctx context.Context, p *authz.Principal, id uint, patch model.ShippingAgentPatch) (*model.ShippingAgent, error) {
	current, err := s.visible(ctx, p, id)
	if err != nil {
		return nil, err
	}
	res := authz.ScopedResource(authz.KindShippingAgent, model.ScopedTo(current.StoreID))
	if err := decide(s.guard.Authorize(p, authz.ActionUpdate, res)); err != nil {
		return nil, err
	}

	updated := patch.Apply(*current)
	if err := validateAgentName(updated.Name); err != nil {
		return nil, err
	}
	updated.Name = strings.TrimSpace(updated.Name)

	if err := s.agentRepo.Update(ctx, &updated); err != nil {
		return nil, apperrors.FromDB(err, ErrShippingAgentNotFound)
	}
	return &updated, nil
}

func (s *shippingAgentService) DeleteShippingAgent(ctx context.Context, p *authz.Principal, id uint) error {
	current, err := s.visible(ctx, p, id)
	if err != nil {
		return err
	}
	res := authz.ScopedResource(authz.KindShippingAgent, model.ScopedTo(current.StoreID))
	if err := decide(s.guard.Authorize(p, authz.ActionDelete, res)); err != nil {
		return err
	}

	if err := s.agentRepo.Delete(ctx, id); err != nil {
		return apperrors.FromDB(err, ErrShippingAgentNotFound)
	}

	logger.Info("Shipping agent deleted", map[string]interface{}{
		"shipping_agent_id": id,
		"store_id":          current.StoreID,
	})
	return nil
}

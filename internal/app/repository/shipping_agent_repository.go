package repository

import (
	"context"

	"github.com/storeup/storeup-backend/internal/app/model"
	"github.com/storeup/storeup-backend/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ShippingAgentFilter struct {
	All      bool
	StoreIDs []uint
}

type ShippingAgentRepository interface {
	Create(ctx context.Context, agent *model.ShippingAgent) error
	Update(ctx context.Context, agent *model.ShippingAgent) error
	FindByID(ctx context.Context, id uint) (*model.ShippingAgent, error)
	List(ctx context.Context, filter ShippingAgentFilter) ([]model.ShippingAgent, error)
	Delete(ctx context.Context, id uint) error
}

type shippingAgentRepository struct {
	db *gorm.DB
}

func NewShippingAgentRepository(db *gorm.DB) ShippingAgentRepository {
	return &shippingAgentRepository{db: db}
}

func (r *shippingAgentRepository) Create(ctx context.Context, agent *model.ShippingAgent) error {
	logger.Debug("Creating shipping agent in database", map[string]interface{}{
		"name":     agent.Name,
		"store_id": agent.StoreID,
	})

	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(agent).Error; err != nil {
		logger.Error("Failed to create shipping agent in database", err, map[string]interface{}{
			"store_id": agent.StoreID,
		})
		return err
	}
	return nil
}

func (r *shippingAgentRepository) Update(ctx context.Context, agent *model.ShippingAgent) error {
	result := r.db.WithContext(ctx).Model(agent).
		Select("*").
		Omit("id", "created_at", clause.Associations).
		Updates(agent)
	if result.Error != nil {
		logger.Error("Failed to update shipping agent in database", result.Error, map[string]interface{}{
			"shipping_agent_id": agent.ID,
		})
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *shippingAgentRepository) FindByID(ctx context.Context, id uint) (*model.ShippingAgent, error) {
	var agent model.ShippingAgent
	if err := r.db.WithContext(ctx).Preload("Store").First(&agent, id).Error; err != nil {
		return nil, err
	}
	agent.FillStoreName()
	return &agent, nil
}

func (r *shippingAgentRepository) List(ctx context.Context, filter ShippingAgentFilter) ([]model.ShippingAgent, error) {
	agents := []model.ShippingAgent{}
	if !filter.All && len(filter.StoreIDs) == 0 {
		return agents, nil
	}

	query := r.db.WithContext(ctx).Preload("Store")
	if !filter.All {
		query = query.Where("store_id IN ?", filter.StoreIDs)
	}
	if err := query.Order("id ASC").Find(&agents).Error; err != nil {
		logger.Error("Failed to list shipping agents", err)
		return nil, err
	}
	for i := range agents {
		agents[i].FillStoreName()
	}
	return agents, nil
}

func (r *shippingAgentRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&model.ShippingAgent{}, id)
	if result.Error != nil {
		logger.Error("Failed to delete shipping agent", result.Error, map[string]interface{}{
			"shipping_agent_id": id,
		})
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

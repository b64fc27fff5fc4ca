package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/storeup/storeup-backend/internal/app/model"
	"github.com/storeup/storeup-backend/internal/app/service"
	apperrors "github.com/storeup/storeup-backend/internal/errors"
	"github.com/storeup/storeup-backend/internal/middleware"
	"gorm.io/datatypes"
)

type ShippingAgentController struct {
	agentService service.ShippingAgentService
}

func NewShippingAgentController(agentService service.ShippingAgentService) *ShippingAgentController {
	return &ShippingAgentController{agentService: agentService}
}

// ShippingAgentRequest: Store is only honoured on create; owners default
// to their own store.
type ShippingAgentRequest struct {
	Store        *uint              `json:"store"`
	Name         *string            `json:"name" binding:"omitempty,max=100"`
	ContactInfo  *datatypes.JSONMap `json:"contact_info"`
	ServiceAreas *datatypes.JSON    `json:"service_areas"`
	Rates        *datatypes.JSON    `json:"rates"`
	IsActive     *bool              `json:"is_active"`
}

func (ctrl *ShippingAgentController) ListShippingAgents(c *gin.Context) {
	agents, err := ctrl.agentService.ListShippingAgents(c.Request.Context(), middleware.GetPrincipal(c))
	if err != nil {
		respondError(c, "Failed to list shipping agents", err, nil)
		return
	}
	if agents == nil {
		agents = []model.ShippingAgent{}
	}

	c.JSON(http.StatusOK, gin.H{
		"shipping_agents": agents,
		"count":           len(agents),
	})
}

func (ctrl *ShippingAgentController) GetShippingAgent(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	agent, err := ctrl.agentService.GetShippingAgent(c.Request.Context(), middleware.GetPrincipal(c), id)
	if err != nil {
		respondError(c, "Failed to fetch shipping agent", err, map[string]interface{}{"agent_id": id})
		return
	}

	c.JSON(http.StatusOK, gin.H{"shipping_agent": agent})
}

func (ctrl *ShippingAgentController) CreateShippingAgent(c *gin.Context) {
	var req ShippingAgentRequest
	if !bindJSON(c, &req) {
		return
	}

	input := service.CreateShippingAgentInput{
		StoreID:  req.Store,
		IsActive: req.IsActive,
	}
	if req.Name != nil {
		input.Name = *req.Name
	}
	if req.ContactInfo != nil {
		input.ContactInfo = *req.ContactInfo
	}
	if req.ServiceAreas != nil {
		input.ServiceAreas = *req.ServiceAreas
	}
	if req.Rates != nil {
		input.Rates = *req.Rates
	}

	agent, err := ctrl.agentService.CreateShippingAgent(c.Request.Context(), middleware.GetPrincipal(c), input)
	if err != nil {
		respondError(c, "Failed to create shipping agent", err, nil)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"shipping_agent": agent})
}

func (ctrl *ShippingAgentController) UpdateShippingAgent(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req ShippingAgentRequest
	if !bindJSON(c, &req) {
		return
	}
	if c.Request.Method == http.MethodPut && req.Name == nil {
		apperrors.RespondWithValidationError(c, "invalid input", map[string]string{"name": "this field is required"})
		return
	}

	agent, err := ctrl.agentService.UpdateShippingAgent(c.Request.Context(), middleware.GetPrincipal(c), id, model.ShippingAgentPatch{
		Name:         req.Name,
		ContactInfo:  req.ContactInfo,
		ServiceAreas: req.ServiceAreas,
		Rates:        req.Rates,
		IsActive:     req.IsActive,
	})
	if err != nil {
		respondError(c, "Failed to update shipping agent", err, map[string]interface{}{"agent_id": id})
		return
	}

	c.JSON(http.StatusOK, gin.H{"shipping_agent": agent})
}

func (ctrl *ShippingAgentController) DeleteShippingAgent(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := ctrl.agentService.DeleteShippingAgent(c.Request.Context(), middleware.GetPrincipal(c), id); err != nil {
		respondError(c, "Failed to delete shipping agent", err, map[string]interface{}{"agent_id": id})
		return
	}

	c.Status(http.StatusNoContent)
}

package model

import (
	"time"

	"gorm.io/datatypes"
)

// ShippingAgent is a carrier a store ships with. ServiceAreas and Rates
// are opaque JSON the storefront interprets.
type ShippingAgent struct {
	ID           uint              `gorm:"primarykey" json:"id"`
	StoreID      uint              `gorm:"index;not null" json:"store"`
	Store        *Store            `gorm:"foreignKey:StoreID;constraint:OnDelete:CASCADE" json:"-"`
	StoreName    string            `gorm:"-" json:"store_name"`
	Name         string            `gorm:"type:varchar(100);not null" json:"name"`
	ContactInfo  datatypes.JSONMap `json:"contact_info"`
	ServiceAreas datatypes.JSON    `json:"service_areas"`
	Rates        datatypes.JSON    `json:"rates"`
	IsActive     bool              `gorm:"not null" json:"is_active"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

func (ShippingAgent) TableName() string {
	return "shipping_agents"
}

func (a *ShippingAgent) FillStoreName() {
	if a.Store != nil {
		a.StoreName = a.Store.Name
	}
}

type ShippingAgentPatch struct {
	Name         *string
	ContactInfo  *datatypes.JSONMap
	ServiceAreas *datatypes.JSON
	Rates        *datatypes.JSON
	IsActive     *bool
}

func (p ShippingAgentPatch) Apply(a ShippingAgent) ShippingAgent {
	if p.Name != nil {
		a.Name = *p.Name
	}
	if p.ContactInfo != nil {
		a.ContactInfo = *p.ContactInfo
	}
	if p.ServiceAreas != nil {
		a.ServiceAreas = *p.ServiceAreas
	}
	if p.Rates != nil {
		a.Rates = *p.Rates
	}
	if p.IsActive != nil {
		a.IsActive = *p.IsActive
	}
	return a
}

package model

import "time"

type Category struct {
	ID            uint      `gorm:"primarykey" json:"id"`
	Name          string    `gorm:"type:varchar(100);not null" json:"name"` // not unique, even within a store
	Description   string    `gorm:"type:text" json:"description"`
	StoreID       *uint     `gorm:"index" json:"store"`
	Store         *Store    `gorm:"foreignKey:StoreID;constraint:OnDelete:CASCADE" json:"-"`
	ProductsCount int64     `gorm:"-" json:"products_count"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (Category) TableName() string {
	return "categories"
}

func (c *Category) Scope() Scope {
	return ScopeOf(c.StoreID)
}

type CategoryPatch struct {
	Name        *string
	Description *string
}

func (p CategoryPatch) Apply(c Category) Category {
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Description != nil {
		c.Description = *p.Description
	}
	return c
}

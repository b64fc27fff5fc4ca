package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID           uint                `gorm:"primarykey" json:"id"`
	Name         string              `gorm:"type:varchar(200);not null" json:"name"`
	Description  string              `gorm:"type:text" json:"description"`
	Price        decimal.Decimal     `gorm:"type:decimal(10,2);not null" json:"price"`
	SalePrice    decimal.NullDecimal `gorm:"type:decimal(10,2)" json:"sale_price"`
	Image        string              `gorm:"type:varchar(255)" json:"image"`
	ImageURL     string              `gorm:"-" json:"image_url"`
	CategoryID   uint                `gorm:"index;not null" json:"category"`
	Category     *Category           `gorm:"foreignKey:CategoryID;constraint:OnDelete:CASCADE" json:"-"`
	CategoryName string              `gorm:"-" json:"category_name"`
	StoreID      *uint               `gorm:"index" json:"store"`
	Store        *Store              `gorm:"foreignKey:StoreID;constraint:OnDelete:CASCADE" json:"-"`
	Stock        int                 `gorm:"not null" json:"stock"`
	Featured     bool                `gorm:"index" json:"featured"`
	NewArrival   bool                `gorm:"index" json:"new_arrival"`
	Sale         bool                `gorm:"index" json:"sale"`
	Rating       decimal.Decimal     `gorm:"type:decimal(3,2);not null" json:"rating"`
	ReviewCount  int                 `gorm:"not null" json:"review_count"`
	SKU          string              `gorm:"column:sku;type:varchar(50)" json:"sku"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`

	Images         []ProductImage         `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"images"`
	Specifications []ProductSpecification `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"specifications"`
}

func (Product) TableName() string {
	return "products"
}

func (p *Product) Scope() Scope {
	return ScopeOf(p.StoreID)
}

// ApplyMediaBase fills image_url on the product and its images, and
// category_name when the category was preloaded.
func (p *Product) ApplyMediaBase(base string) {
	p.ImageURL = MediaURL(base, p.Image)
	for i := range p.Images {
		p.Images[i].ImageURL = MediaURL(base, p.Images[i].Image)
	}
	if p.Category != nil {
		p.CategoryName = p.Category.Name
	}
	if p.Images == nil {
		p.Images = []ProductImage{}
	}
	if p.Specifications == nil {
		p.Specifications = []ProductSpecification{}
	}
}

// ImagePaths lists every stored image reference owned by the product.
func (p *Product) ImagePaths() []string {
	var paths []string
	if p.Image != "" {
		paths = append(paths, p.Image)
	}
	for _, img := range p.Images {
		if img.Image != "" {
			paths = append(paths, img.Image)
		}
	}
	return paths
}

type ProductImage struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	ProductID uint      `gorm:"index;not null" json:"-"`
	Image     string    `gorm:"type:varchar(255);not null" json:"image"`
	ImageURL  string    `gorm:"-" json:"image_url"`
	CreatedAt time.Time `json:"created_at"`
}

func (ProductImage) TableName() string {
	return "product_images"
}

type ProductSpecification struct {
	ID        uint   `gorm:"primarykey" json:"id"`
	ProductID uint   `gorm:"index;not null" json:"-"`
	Name      string `gorm:"type:varchar(100);not null" json:"name"`
	Value     string `gorm:"type:varchar(255);not null" json:"value"`
}

func (ProductSpecification) TableName() string {
	return "product_specifications"
}

// ProductPatch is a partial product update. Scalar fields apply when
// non-nil. Specifications and Images replace the current children only
// when non-empty; an empty or nil list keeps them.
type ProductPatch struct {
	Name        *string
	Description *string
	Price       *decimal.Decimal
	SalePrice   *decimal.NullDecimal
	Image       *string
	CategoryID  *uint
	Stock       *int
	Featured    *bool
	NewArrival  *bool
	Sale        *bool
	Rating      *decimal.Decimal
	ReviewCount *int
	SKU         *string

	Specifications []ProductSpecification
	Images         []ProductImage
}

// Apply returns a copy of p with the scalar fields of the patch applied.
// Children are not touched; see ReplacesSpecifications and ReplacesImages.
func (pp ProductPatch) Apply(p Product) Product {
	if pp.Name != nil {
		p.Name = *pp.Name
	}
	if pp.Description != nil {
		p.Description = *pp.Description
	}
	if pp.Price != nil {
		p.Price = *pp.Price
	}
	if pp.SalePrice != nil {
		p.SalePrice = *pp.SalePrice
	}
	if pp.Image != nil {
		p.Image = *pp.Image
	}
	if pp.CategoryID != nil && *pp.CategoryID != p.CategoryID {
		p.CategoryID = *pp.CategoryID
		p.Category = nil
	}
	if pp.Stock != nil {
		p.Stock = *pp.Stock
	}
	if pp.Featured != nil {
		p.Featured = *pp.Featured
	}
	if pp.NewArrival != nil {
		p.NewArrival = *pp.NewArrival
	}
	if pp.Sale != nil {
		p.Sale = *pp.Sale
	}
	if pp.Rating != nil {
		p.Rating = *pp.Rating
	}
	if pp.ReviewCount != nil {
		p.ReviewCount = *pp.ReviewCount
	}
	if pp.SKU != nil {
		p.SKU = *pp.SKU
	}
	return p
}

func (pp ProductPatch) ReplacesSpecifications() bool {
	return len(pp.Specifications) > 0
}

func (pp ProductPatch) ReplacesImages() bool {
	return len(pp.Images) > 0
}

package main

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/storeup/storeup-backend/internal/app/model"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type demoStore struct {
	domain      string
	name        string
	description string
	primary     string
	secondary   string
	categories  []string
}

type demoProduct struct {
	domain    string
	category  string
	name      string
	desc      string
	price     int64
	salePrice int64
}

var demoStores = []demoStore{
	{"store1", "Electronics Store", "Smart devices and electronics", "#3B82F6", "#1E40AF", []string{"Smartphones", "Laptops"}},
	{"store2", "Fashion Store", "Modern fashion and clothing", "#EC4899", "#BE185D", []string{"Menswear", "Womenswear"}},
	{"test", "Book Store", "Books and stationery", "#10B981", "#047857", []string{"Textbooks", "Novels"}},
}

var demoProducts = []demoProduct{
	{"store1", "Smartphones", "iPhone 15 Pro", "Apple smartphone", 4500, 4200},
	{"store1", "Laptops", "MacBook Air M2", "Apple laptop", 8500, 8000},
	{"store2", "Menswear", "Classic Shirt", "Elegant men's shirt", 150, 120},
	{"store2", "Womenswear", "Evening Dress", "Elegant women's dress", 300, 250},
	{"test", "Textbooks", "Programming Book", "A programming textbook", 80, 70},
}

type demoResult struct {
	Stores, Categories, Products int
}

// seedDemo creates the demo stores, their categories and a few featured
// products. Rows that already exist are left as they are, so it can run
// repeatedly.
func seedDemo(conn *gorm.DB) (demoResult, error) {
	var result demoResult
	err := conn.Transaction(func(tx *gorm.DB) error {
		stores := make(map[string]*model.Store, len(demoStores))
		categories := make(map[string]uint)

		for _, d := range demoStores {
			store := model.Store{
				Name:        d.name,
				Domain:      d.domain,
				Description: d.description,
				Theme: datatypes.JSONMap{
					"primaryColor":   d.primary,
					"secondaryColor": d.secondary,
					"fontFamily":     "Arial",
				},
			}
			res := tx.Where(model.Store{Domain: d.domain}).Attrs(store).FirstOrCreate(&store)
			if res.Error != nil {
				return fmt.Errorf("store %s: %w", d.domain, res.Error)
			}
			result.Stores += int(res.RowsAffected)
			stores[d.domain] = &store

			for _, name := range d.categories {
				storeID := store.ID
				category := model.Category{
					Name:        name,
					Description: fmt.Sprintf("%s at %s", name, store.Name),
					StoreID:     &storeID,
				}
				res := tx.Where("name = ? AND store_id = ?", name, storeID).Attrs(category).FirstOrCreate(&category)
				if res.Error != nil {
					return fmt.Errorf("category %s/%s: %w", d.domain, name, res.Error)
				}
				result.Categories += int(res.RowsAffected)
				categories[d.domain+"/"+name] = category.ID
			}
		}

		for _, d := range demoProducts {
			storeID := stores[d.domain].ID
			product := model.Product{
				Name:        d.name,
				Description: d.desc,
				Price:       decimal.NewFromInt(d.price),
				SalePrice:   decimal.NewNullDecimal(decimal.NewFromInt(d.salePrice)),
				CategoryID:  categories[d.domain+"/"+d.category],
				StoreID:     &storeID,
				Featured:    true,
				NewArrival:  true,
				Sale:        true,
				Rating:      decimal.Zero,
			}
			res := tx.Where("name = ? AND store_id = ?", d.name, storeID).Attrs(product).FirstOrCreate(&product)
			if res.Error != nil {
				return fmt.Errorf("product %s: %w", d.name, res.Error)
			}
			result.Products += int(res.RowsAffected)
		}
		return nil
	})
	return result, err
}

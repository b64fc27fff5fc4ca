package service

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/storeup/storeup-backend/internal/app/model"
	"github.com/storeup/storeup-backend/internal/app/repository"
)

// ProductQuery is the parsed form of a product listing's query string.
type ProductQuery struct {
	CategoryID *uint
	StoreID    *uint
	Featured   bool
	NewArrival bool
	OnSale     bool
}

// ParseProductQuery reads category, store, featured, new_arrival and sale.
// Flags only apply when equal to "true" in any case; malformed ids are
// ignored rather than rejected.
func ParseProductQuery(values url.Values) ProductQuery {
	return ProductQuery{
		CategoryID: parseID(values.Get("category")),
		StoreID:    parseID(values.Get("store")),
		Featured:   isTrue(values.Get("featured")),
		NewArrival: isTrue(values.Get("new_arrival")),
		OnSale:     isTrue(values.Get("sale")),
	}
}

func FeaturedQuery() ProductQuery {
	return ProductQuery{Featured: true}
}

func NewArrivalsQuery() ProductQuery {
	return ProductQuery{NewArrival: true}
}

func SaleQuery() ProductQuery {
	return ProductQuery{OnSale: true}
}

// InStore pins the query to one store, overriding any store parameter.
func (q ProductQuery) InStore(storeID uint) ProductQuery {
	q.StoreID = &storeID
	return q
}

// Filter builds the repository predicate set.
func (q ProductQuery) Filter() repository.ProductFilter {
	filter := repository.ProductFilter{
		CategoryID: q.CategoryID,
		Featured:   q.Featured,
		NewArrival: q.NewArrival,
		OnSale:     q.OnSale,
	}
	if q.StoreID != nil {
		scope := model.ScopedTo(*q.StoreID)
		filter.Scope = &scope
	}
	return filter
}

func isTrue(v string) bool {
	return strings.EqualFold(v, "true")
}

func parseID(v string) *uint {
	if v == "" {
		return nil
	}
	id, err := strconv.ParseUint(v, 10, 32)
	if err != nil {
		return nil
	}
	out := uint(id)
	return &out
}

package catalog

import (
	"encoding/json"

	"storefront-core/internal/models"
)

// The two backends describe the same conceptual entity with different field
// names. Each source owns one mapping function; normalized Products are the
// only shape that leaves this package.

// firstPartyItem is the raw first-party catalog payload item.
type firstPartyItem struct {
	ID           string `json:"_id"`
	Name         string `json:"name"`
	Category     string `json:"category"`
	Price        int64  `json:"price"`
	SalePrice    int64  `json:"salePrice"`
	Image        string `json:"image"`
	PlanFile     string `json:"planFile"`
	PlotSize     string `json:"plotSize"`
	PlotArea     string `json:"plotArea"`
	Direction    string `json:"direction"`
	Floors       int    `json:"floors"`
	PropertyType string `json:"propertyType"`
}

// marketplaceItem is the raw professional-marketplace payload item.
type marketplaceItem struct {
	ID           string `json:"_id"`
	PlanName     string `json:"planName"`
	Category     string `json:"category"`
	RegularPrice int64  `json:"regularPrice"`
	OfferPrice   int64  `json:"offerPrice"`
	Thumbnail    string `json:"thumbnail"`
	File         string `json:"file"`
	PlotSize     string `json:"plotSize"`
	PlotArea     string `json:"plotArea"`
	Direction    string `json:"facingDirection"`
	Floors       int    `json:"numberOfFloors"`
	PropertyType string `json:"propertyType"`
}

// listPayload is the common pagination envelope both backends return.
type listPayload struct {
	Items json.RawMessage `json:"items"`
	Page  int             `json:"page"`
	Pages int             `json:"pages"`
	Count int             `json:"count"`
}

// mapFunc decodes one source's raw item array into normalized Products.
type mapFunc func(raw json.RawMessage) ([]models.Product, error)

func mapFirstParty(raw json.RawMessage) ([]models.Product, error) {
	var items []firstPartyItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, err
	}

	products := make([]models.Product, 0, len(items))
	for _, it := range items {
		products = append(products, models.Product{
			ID:           it.ID,
			Source:       models.SourceCatalog,
			Name:         it.Name,
			Category:     it.Category,
			Price:        it.Price,
			SalePrice:    it.SalePrice,
			Image:        it.Image,
			PlanFile:     it.PlanFile,
			PlotSize:     it.PlotSize,
			PlotArea:     it.PlotArea,
			Direction:    it.Direction,
			Floors:       it.Floors,
			PropertyType: it.PropertyType,
		})
	}
	return products, nil
}

func mapMarketplace(raw json.RawMessage) ([]models.Product, error) {
	var items []marketplaceItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, err
	}

	products := make([]models.Product, 0, len(items))
	for _, it := range items {
		products = append(products, models.Product{
			ID:           it.ID,
			Source:       models.SourceMarketplace,
			Name:         it.PlanName,
			Category:     it.Category,
			Price:        it.RegularPrice,
			SalePrice:    it.OfferPrice,
			Image:        it.Thumbnail,
			PlanFile:     it.File,
			PlotSize:     it.PlotSize,
			PlotArea:     it.PlotArea,
			Direction:    it.Direction,
			Floors:       it.Floors,
			PropertyType: it.PropertyType,
		})
	}
	return products, nil
}

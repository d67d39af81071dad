package domain

import (
	"fmt"
	"time"
)

// ItemKind names one of the catalog collections.
type ItemKind string

const (
	KindCoffee           ItemKind = "coffee"
	KindTea              ItemKind = "tea"
	KindBlendedBeverages ItemKind = "blended_beverages"
	KindMilkJuiceMore    ItemKind = "milk_juice_more"
)

// Kinds lists every catalog collection in display order.
var Kinds = []ItemKind{KindCoffee, KindTea, KindBlendedBeverages, KindMilkJuiceMore}

// Valid reports whether k is a known catalog collection.
func (k ItemKind) Valid() bool {
	switch k {
	case KindCoffee, KindTea, KindBlendedBeverages, KindMilkJuiceMore:
		return true
	}
	return false
}

// ParseItemKind validates a kind taken from a URL or a stored document.
func ParseItemKind(s string) (ItemKind, error) {
	k := ItemKind(s)
	if !k.Valid() {
		return "", fmt.Errorf("unknown item kind %q", s)
	}
	return k, nil
}

// ItemRef addresses one catalog item.
type ItemRef struct {
	Kind ItemKind `json:"kind"`
	ID   string   `json:"id"`
}

func (r ItemRef) String() string {
	return string(r.Kind) + "/" + r.ID
}

// PriceVariant is one purchasable size of an item.
type PriceVariant struct {
	Size     string  `json:"size"`
	Price    float64 `json:"price"`
	Currency string  `json:"currency"`
}

// Item is a catalog entry. AverageRating and RatingsCount are maintained
// by rating submissions and deletions only.
type Item struct {
	ID                string         `json:"id"`
	Kind              ItemKind       `json:"kind"`
	Name              string         `json:"name"`
	Description       string         `json:"description"`
	Roasted           string         `json:"roasted"`
	Ingredients       string         `json:"ingredients"`
	SpecialIngredient string         `json:"special_ingredient"`
	ImageURL          string         `json:"image_url"`
	Prices            []PriceVariant `json:"prices"`
	AverageRating     float64        `json:"average_rating"`
	RatingsCount      int            `json:"ratings_count"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

// Ref returns the item's address.
func (i *Item) Ref() ItemRef {
	return ItemRef{Kind: i.Kind, ID: i.ID}
}

// Variant returns the price variant for size. An empty size selects the
// first variant.
func (i *Item) Variant(size string) (PriceVariant, bool) {
	if len(i.Prices) == 0 {
		return PriceVariant{}, false
	}
	if size == "" {
		return i.Prices[0], true
	}
	for _, p := range i.Prices {
		if p.Size == size {
			return p, true
		}
	}
	return PriceVariant{}, false
}

// ItemFilter narrows a catalog listing. Name matches items whose name
// contains it, case-insensitively.
type ItemFilter struct {
	Kind   ItemKind
	Name   string
	Limit  int
	Offset int
}

package domain

import (
	"time"

	"github.com/google/uuid"
)

type Product struct {
	ID           int64
	RestaurantID uuid.UUID
	CategoryID   int64
	Name         string
	Description  string
	Price        float64
	ImageURL     string
	Ingredients  []string
	CreatedAt    time.Time
}

type Restaurant struct {
	ID             uuid.UUID
	Name           string
	Slug           string
	Description    string
	AvatarImageURL string
	CoverImageURL  string
	CreatedAt      time.Time
}

type MenuCategory struct {
	ID       int64
	Name     string
	Products []Product
}

// Menu is the storefront view of a restaurant: the restaurant itself plus
// its categories with their products.
type Menu struct {
	Restaurant Restaurant
	Categories []MenuCategory
}

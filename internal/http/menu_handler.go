package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/renardbergson/self-checkout-donalds/internal/domain"
	"github.com/renardbergson/self-checkout-donalds/internal/repository"
)

type MenuSource interface {
	GetRestaurantBySlug(ctx context.Context, slug string) (*domain.Restaurant, error)
	GetRestaurantMenu(ctx context.Context, slug string) (*domain.Menu, error)
}

type MenuHandler struct {
	source  MenuSource
	timeout time.Duration
}

func NewMenuHandler(source MenuSource, timeout time.Duration) *MenuHandler {
	return &MenuHandler{source: source, timeout: timeout}
}

type RestaurantDTO struct {
	Name           string `json:"name"`
	Slug           string `json:"slug"`
	Description    string `json:"description"`
	AvatarImageURL string `json:"avatar_image_url"`
	CoverImageURL  string `json:"cover_image_url"`
}

type ProductDTO struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       float64  `json:"price"`
	ImageURL    string   `json:"image_url"`
	Ingredients []string `json:"ingredients"`
}

type MenuCategoryDTO struct {
	ID       int64        `json:"id"`
	Name     string       `json:"name"`
	Products []ProductDTO `json:"products"`
}

type MenuResponseDTO struct {
	Restaurant RestaurantDTO     `json:"restaurant"`
	Categories []MenuCategoryDTO `json:"categories"`
}

// GET /api/v1/restaurants/{slug}
func (h *MenuHandler) GetRestaurant(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	rest, err := h.source.GetRestaurantBySlug(ctx, chi.URLParam(r, "slug"))
	if err != nil {
		if errors.Is(err, repository.ErrRestaurantNotFound) {
			respondError(w, http.StatusNotFound, "restaurant_not_found", "restaurant does not exist")
			return
		}
		respondError(w, http.StatusInternalServerError, "internal_error", "unexpected error")
		return
	}

	respondJSON(w, http.StatusOK, convertRestaurant(rest))
}

// GET /api/v1/restaurants/{slug}/menu?consumptionMethod=...
func (h *MenuHandler) GetMenu(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if _, err := domain.ParseConsumptionMethod(r.URL.Query().Get("consumptionMethod")); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_consumption_method", "consumptionMethod must be DINE_IN or TAKEAWAY")
		return
	}

	menu, err := h.source.GetRestaurantMenu(ctx, chi.URLParam(r, "slug"))
	if err != nil {
		if errors.Is(err, repository.ErrRestaurantNotFound) {
			respondError(w, http.StatusNotFound, "restaurant_not_found", "restaurant does not exist")
			return
		}
		respondError(w, http.StatusInternalServerError, "internal_error", "unexpected error")
		return
	}

	dto := MenuResponseDTO{
		Restaurant: convertRestaurant(&menu.Restaurant),
		Categories: make([]MenuCategoryDTO, 0, len(menu.Categories)),
	}
	for _, cat := range menu.Categories {
		catDTO := MenuCategoryDTO{
			ID:       cat.ID,
			Name:     cat.Name,
			Products: make([]ProductDTO, 0, len(cat.Products)),
		}
		for _, p := range cat.Products {
			ingredients := p.Ingredients
			if ingredients == nil {
				ingredients = []string{}
			}
			catDTO.Products = append(catDTO.Products, ProductDTO{
				ID:          p.ID,
				Name:        p.Name,
				Description: p.Description,
				Price:       p.Price,
				ImageURL:    p.ImageURL,
				Ingredients: ingredients,
			})
		}
		dto.Categories = append(dto.Categories, catDTO)
	}

	respondJSON(w, http.StatusOK, dto)
}

func convertRestaurant(rest *domain.Restaurant) RestaurantDTO {
	return RestaurantDTO{
		Name:           rest.Name,
		Slug:           rest.Slug,
		Description:    rest.Description,
		AvatarImageURL: rest.AvatarImageURL,
		CoverImageURL:  rest.CoverImageURL,
	}
}

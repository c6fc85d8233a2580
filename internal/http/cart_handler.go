package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/renardbergson/self-checkout-donalds/internal/cart"
	"github.com/renardbergson/self-checkout-donalds/internal/domain"
)

// CartProducts resolves catalog products when a line is added, so the cart
// snapshot (name, display price, image) comes from the catalog rather than
// from whatever the client claims.
type CartProducts interface {
	GetProductsByIDs(ctx context.Context, ids []int64) ([]*domain.Product, error)
}

type CartHandler struct {
	store    *cart.Store
	products CartProducts
}

func NewCartHandler(store *cart.Store, products CartProducts) *CartHandler {
	return &CartHandler{store: store, products: products}
}

type AddCartItemRequestDTO struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

type CartResponseDTO struct {
	IsOpen        bool        `json:"is_open"`
	Items         []cart.Item `json:"items"`
	TotalPrice    float64     `json:"total_price"`
	TotalQuantity int         `json:"total_quantity"`
}

func cartDTO(c *cart.Cart) CartResponseDTO {
	items := c.Items
	if items == nil {
		items = []cart.Item{} // JSON array, not null
	}
	return CartResponseDTO{
		IsOpen:        c.IsOpen,
		Items:         items,
		TotalPrice:    c.TotalPrice(),
		TotalQuantity: c.TotalQuantity(),
	}
}

// GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	sessionID := getSessionIDFromContext(r.Context())
	if sessionID == "" {
		respondError(w, http.StatusBadRequest, "missing_session", "no cart session")
		return
	}

	var dto CartResponseDTO
	h.store.With(sessionID, func(c *cart.Cart) {
		dto = cartDTO(c)
	})
	respondJSON(w, http.StatusOK, dto)
}

// POST /api/v1/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	sessionID := getSessionIDFromContext(r.Context())
	if sessionID == "" {
		respondError(w, http.StatusBadRequest, "missing_session", "no cart session")
		return
	}

	var req AddCartItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.ProductID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must be positive")
		return
	}
	if req.Quantity <= 0 || req.Quantity > 99 {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be between 1 and 99")
		return
	}

	products, err := h.products.GetProductsByIDs(r.Context(), []int64{req.ProductID})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "storage_error", "failed to load product")
		return
	}
	if len(products) == 0 {
		respondError(w, http.StatusNotFound, "product_not_found", "product does not exist")
		return
	}
	product := products[0]

	var dto CartResponseDTO
	h.store.With(sessionID, func(c *cart.Cart) {
		c.AddItem(cart.Item{
			ProductID: product.ID,
			Name:      product.Name,
			UnitPrice: product.Price,
			ImageURL:  product.ImageURL,
			Quantity:  req.Quantity,
		})
		dto = cartDTO(c)
	})
	respondJSON(w, http.StatusCreated, dto)
}

// POST /api/v1/cart/items/{product_id}/increase
func (h *CartHandler) IncreaseQuantity(w http.ResponseWriter, r *http.Request) {
	h.adjustQuantity(w, r, func(c *cart.Cart, id int64) bool { return c.IncreaseQuantity(id) })
}

// POST /api/v1/cart/items/{product_id}/decrease
func (h *CartHandler) DecreaseQuantity(w http.ResponseWriter, r *http.Request) {
	h.adjustQuantity(w, r, func(c *cart.Cart, id int64) bool { return c.DecreaseQuantity(id) })
}

// DELETE /api/v1/cart/items/{product_id}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	h.adjustQuantity(w, r, func(c *cart.Cart, id int64) bool { return c.RemoveItem(id) })
}

func (h *CartHandler) adjustQuantity(w http.ResponseWriter, r *http.Request, op func(*cart.Cart, int64) bool) {
	sessionID := getSessionIDFromContext(r.Context())
	if sessionID == "" {
		respondError(w, http.StatusBadRequest, "missing_session", "no cart session")
		return
	}

	productID, err := strconv.ParseInt(chi.URLParam(r, "product_id"), 10, 64)
	if err != nil || productID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must be a positive integer")
		return
	}

	var (
		found bool
		dto   CartResponseDTO
	)
	h.store.With(sessionID, func(c *cart.Cart) {
		found = op(c, productID)
		dto = cartDTO(c)
	})
	if !found {
		respondError(w, http.StatusNotFound, "item_not_found", "product is not in the cart")
		return
	}
	respondJSON(w, http.StatusOK, dto)
}

// DELETE /api/v1/cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	sessionID := getSessionIDFromContext(r.Context())
	if sessionID == "" {
		respondError(w, http.StatusBadRequest, "missing_session", "no cart session")
		return
	}

	var dto CartResponseDTO
	h.store.With(sessionID, func(c *cart.Cart) {
		c.Clear()
		dto = cartDTO(c)
	})
	respondJSON(w, http.StatusOK, dto)
}

// POST /api/v1/cart/toggle
func (h *CartHandler) ToggleCart(w http.ResponseWriter, r *http.Request) {
	sessionID := getSessionIDFromContext(r.Context())
	if sessionID == "" {
		respondError(w, http.StatusBadRequest, "missing_session", "no cart session")
		return
	}

	var dto CartResponseDTO
	h.store.With(sessionID, func(c *cart.Cart) {
		c.ToggleOpen()
		dto = cartDTO(c)
	})
	respondJSON(w, http.StatusOK, dto)
}

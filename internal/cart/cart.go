package cart

// Item is a single cart line. UnitPrice and the other product fields are a
// display snapshot taken when the item was added; the order total is always
// recomputed from the catalog server-side, never from these values.
type Item struct {
	ProductID int64   `json:"product_id"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unit_price"`
	ImageURL  string  `json:"image_url"`
	Quantity  int     `json:"quantity"`
}

// Cart holds the active cart for one browser session: the ordered line items
// plus the open/closed display flag. All mutation goes through the methods
// below; totals are derived on every read so they can never desync from the
// items. A Cart is confined to a single session and is not safe for
// concurrent use on its own (the session Store serializes access).
type Cart struct {
	IsOpen bool   `json:"is_open"`
	Items  []Item `json:"items"`
}

// AddItem appends a new line for an unseen product, or increments the
// existing line's quantity by item.Quantity. Quantities below 1 are clamped.
func (c *Cart) AddItem(item Item) {
	if item.Quantity < 1 {
		item.Quantity = 1
	}
	for i := range c.Items {
		if c.Items[i].ProductID == item.ProductID {
			c.Items[i].Quantity += item.Quantity
			return
		}
	}
	c.Items = append(c.Items, item)
}

// IncreaseQuantity adds 1 to the matching line. Returns false when the
// product is not in the cart.
func (c *Cart) IncreaseQuantity(productID int64) bool {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items[i].Quantity++
			return true
		}
	}
	return false
}

// DecreaseQuantity subtracts 1 from the matching line, flooring at 1.
// A line never reaches quantity 0 through decrement; dropping a line
// requires an explicit RemoveItem.
func (c *Cart) DecreaseQuantity(productID int64) bool {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			if c.Items[i].Quantity > 1 {
				c.Items[i].Quantity--
			}
			return true
		}
	}
	return false
}

// RemoveItem drops the line entirely regardless of its quantity.
func (c *Cart) RemoveItem(productID int64) bool {
	for i, item := range c.Items {
		if item.ProductID == productID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return true
		}
	}
	return false
}

// Clear empties the cart and closes the cart view.
func (c *Cart) Clear() {
	c.Items = nil
	c.IsOpen = false
}

// ToggleOpen flips the display flag only; items are untouched.
func (c *Cart) ToggleOpen() {
	c.IsOpen = !c.IsOpen
}

func (c *Cart) TotalPrice() float64 {
	var sum float64
	for _, item := range c.Items {
		sum += item.UnitPrice * float64(item.Quantity)
	}
	return sum
}

func (c *Cart) TotalQuantity() int {
	var sum int
	for _, item := range c.Items {
		sum += item.Quantity
	}
	return sum
}

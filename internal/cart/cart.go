package cart

import "github.com/jfcardenas/storefront-core/pkg/api"

// Item is one cart line: a product snapshot plus the quantity held locally.
// ItemID is assigned by the backend summary endpoint and is zero before the
// first successful synchronization.
type Item struct {
	ItemID   int64       `json:"cartItemId,omitempty"`
	Product  api.Product `json:"product"`
	Quantity int         `json:"quantity"`
}

// totalItems sums quantities across lines.
func totalItems(items []Item) int {
	sum := 0
	for _, item := range items {
		sum += item.Quantity
	}
	return sum
}

// totalPrice sums quantity times the per-unit total (tax included) per line.
func totalPrice(items []Item) int64 {
	var sum int64
	for _, item := range items {
		sum += int64(item.Quantity) * item.Product.TotalPrice
	}
	return sum
}

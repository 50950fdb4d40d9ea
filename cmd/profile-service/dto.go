package main

import "github.com/MikeMC777/perfil-ecom/internal/cart"

// HTTPError represents a standard error in JSON.
// swagger:model
type HTTPError struct {
	// Error message
	// example: not found
	Error string `json:"error"`
}

// ProfileResponse is the profile page payload.
// swagger:model ProfileResponse
type ProfileResponse struct {
	User          any `json:"user"`
	OrderCount    int `json:"order_count"`
	WishlistCount int `json:"wishlist_count"`
}

// ChangePasswordRequest payload for password change.
// swagger:model ChangePasswordRequest
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=6"`
	ConfirmPassword string `json:"confirm_password" binding:"required"`
}

// AddCartItemRequest payload for adding a line item.
// swagger:model AddCartItemRequest
type AddCartItemRequest struct {
	SKU        string `json:"sku" binding:"required"`
	Qty        int    `json:"qty" binding:"required,gt=0"`
	PriceCents int64  `json:"price_cents" binding:"gte=0"`
}

// CartResponse is the cart payload plus the formatted total.
// swagger:model CartResponse
type CartResponse struct {
	Cart       *cart.Cart `json:"cart"`
	TotalPrice string     `json:"total_price" example:"10.50"`
}

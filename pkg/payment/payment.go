// Package payment creates hosted checkout sessions with external gateways.
package payment

import (
	"context"
	"errors"
)

// ErrInvalidItem is returned when a checkout item cannot be sent to a gateway.
var ErrInvalidItem = errors.New("invalid checkout item")

// Item is the single course being purchased.
type Item struct {
	CourseID   string
	Title      string
	PriceCents int64
	BuyerEmail string
	BuyerName  string
	Reference  string
}

func (i Item) validate() error {
	if i.CourseID == "" || i.Title == "" || i.PriceCents <= 0 {
		return ErrInvalidItem
	}
	return nil
}

// Checkout is the gateway response the browser is redirected with.
type Checkout struct {
	ID        string `json:"id"`
	InitPoint string `json:"init_point"`
	Provider  string `json:"provider"`
}

// Gateway creates a hosted checkout for one item.
type Gateway interface {
	CreateCheckout(ctx context.Context, item Item) (*Checkout, error)
}

// BackURLs are where the gateway sends the buyer after paying.
type BackURLs struct {
	Success string `json:"success"`
	Failure string `json:"failure"`
	Pending string `json:"pending"`
}

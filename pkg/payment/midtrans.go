package payment

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	midtrans "github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/snap"
)

// ProviderMidtrans identifies the Midtrans Snap gateway.
const ProviderMidtrans = "midtrans"

// Midtrans creates Snap transactions. Amounts are sent in whole currency
// units, rounded up.
type Midtrans struct {
	client snap.Client
}

// NewMidtrans initialises a Snap client against sandbox or production.
func NewMidtrans(serverKey string, production bool) *Midtrans {
	m := &Midtrans{}
	if production {
		m.client.New(serverKey, midtrans.Production)
	} else {
		m.client.New(serverKey, midtrans.Sandbox)
	}
	return m
}

// CreateCheckout creates a Snap transaction and returns its redirect URL.
func (m *Midtrans) CreateCheckout(ctx context.Context, item Item) (*Checkout, error) {
	if err := item.validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	req := buildSnapRequest(item)
	resp, mErr := m.client.CreateTransaction(req)
	if mErr != nil {
		return nil, fmt.Errorf("create snap transaction: %w", mErr)
	}
	return &Checkout{ID: req.TransactionDetails.OrderID, InitPoint: resp.RedirectURL, Provider: ProviderMidtrans}, nil
}

func buildSnapRequest(item Item) *snap.Request {
	orderID := item.Reference
	if orderID == "" {
		orderID = uuid.NewString()
	}
	gross := (item.PriceCents + 99) / 100

	req := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  orderID,
			GrossAmt: gross,
		},
		Items: &[]midtrans.ItemDetails{{
			ID:    item.CourseID,
			Name:  truncateName(item.Title, 50),
			Price: gross,
			Qty:   1,
		}},
	}
	if item.BuyerEmail != "" {
		req.CustomerDetail = &midtrans.CustomerDetails{FName: item.BuyerName, Email: item.BuyerEmail}
	}
	return req
}

func truncateName(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ProviderMercadoPago identifies the Mercado Pago gateway.
const ProviderMercadoPago = "mercadopago"

// MercadoPago creates checkout preferences through the Mercado Pago REST API.
type MercadoPago struct {
	baseURL     string
	accessToken string
	backURLs    BackURLs
	client      *http.Client
}

// NewMercadoPago constructs the gateway. A nil client gets one with timeout.
func NewMercadoPago(baseURL, accessToken string, backURLs BackURLs, timeout time.Duration, client *http.Client) *MercadoPago {
	if client == nil {
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &MercadoPago{
		baseURL:     strings.TrimRight(baseURL, "/"),
		accessToken: accessToken,
		backURLs:    backURLs,
		client:      client,
	}
}

type mpItem struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	Quantity   int     `json:"quantity"`
	UnitPrice  float64 `json:"unit_price"`
	CurrencyID string  `json:"currency_id"`
}

type mpPayer struct {
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
}

type mpPreferenceRequest struct {
	Items             []mpItem `json:"items"`
	Payer             *mpPayer `json:"payer,omitempty"`
	BackURLs          BackURLs `json:"back_urls"`
	AutoReturn        string   `json:"auto_return"`
	ExternalReference string   `json:"external_reference,omitempty"`
}

type mpPreferenceResponse struct {
	ID        string `json:"id"`
	InitPoint string `json:"init_point"`
}

type mpErrorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// CreateCheckout posts a preference and returns its init point.
func (m *MercadoPago) CreateCheckout(ctx context.Context, item Item) (*Checkout, error) {
	if err := item.validate(); err != nil {
		return nil, err
	}
	if m.accessToken == "" {
		return nil, fmt.Errorf("mercado pago access token is not configured")
	}

	body := mpPreferenceRequest{
		Items: []mpItem{{
			ID:         item.CourseID,
			Title:      item.Title,
			Quantity:   1,
			UnitPrice:  float64(item.PriceCents) / 100,
			CurrencyID: "BRL",
		}},
		BackURLs:          m.backURLs,
		AutoReturn:        "approved",
		ExternalReference: item.Reference,
	}
	if item.BuyerEmail != "" {
		body.Payer = &mpPayer{Email: item.BuyerEmail, Name: item.BuyerName}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal preference: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/checkout/preferences", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build preference request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+m.accessToken)
	req.Header.Set("Content-Type", "application/json")
	if item.Reference != "" {
		req.Header.Set("X-Idempotency-Key", item.Reference)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("create preference: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read preference response: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		var apiErr mpErrorResponse
		_ = json.Unmarshal(raw, &apiErr)
		msg := apiErr.Message
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, fmt.Errorf("mercado pago returned %d: %s", resp.StatusCode, msg)
	}

	var pref mpPreferenceResponse
	if err := json.Unmarshal(raw, &pref); err != nil {
		return nil, fmt.Errorf("decode preference: %w", err)
	}
	if pref.InitPoint == "" {
		return nil, fmt.Errorf("mercado pago preference %q has no init_point", pref.ID)
	}
	return &Checkout{ID: pref.ID, InitPoint: pref.InitPoint, Provider: ProviderMercadoPago}, nil
}

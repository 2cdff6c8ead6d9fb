// Package cep looks up Brazilian postal codes through the ViaCEP API.
package cep

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

var (
	// ErrInvalidCEP is returned when the code does not have 8 digits.
	ErrInvalidCEP = errors.New("cep must have 8 digits")
	// ErrNotFound is returned when ViaCEP knows no address for the code.
	ErrNotFound = errors.New("cep not found")
)

// Address is the subset of the ViaCEP payload the profile form uses.
type Address struct {
	CEP          string `json:"cep"`
	Street       string `json:"address"`
	Neighborhood string `json:"neighborhood,omitempty"`
	City         string `json:"city"`
	State        string `json:"state"`
}

type viaCEPResponse struct {
	CEP        string `json:"cep"`
	Logradouro string `json:"logradouro"`
	Bairro     string `json:"bairro"`
	Localidade string `json:"localidade"`
	UF         string `json:"uf"`
	Erro       any    `json:"erro"`
}

// Client queries ViaCEP.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient builds a client for baseURL (e.g. https://viacep.com.br/ws).
func NewClient(baseURL string, timeout time.Duration, httpClient *http.Client) *Client {
	if httpClient == nil {
		if timeout <= 0 {
			timeout = 3 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

// Normalize strips everything but digits and checks the length.
func Normalize(raw string) (string, error) {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) != 8 {
		return "", ErrInvalidCEP
	}
	return digits, nil
}

// Format renders 8 digits as 00000-000; other input is returned unchanged.
func Format(raw string) string {
	digits, err := Normalize(raw)
	if err != nil {
		return raw
	}
	return digits[:5] + "-" + digits[5:]
}

// Lookup resolves a CEP into an address.
func (c *Client) Lookup(ctx context.Context, raw string) (*Address, error) {
	digits, err := Normalize(raw)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/%s/json/", c.baseURL, digits), nil)
	if err != nil {
		return nil, fmt.Errorf("build cep request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("lookup cep %s: %w", digits, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusBadRequest {
		return nil, ErrInvalidCEP
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("lookup cep %s: unexpected status %d", digits, resp.StatusCode)
	}

	var body viaCEPResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode cep %s: %w", digits, err)
	}
	if flagged(body.Erro) {
		return nil, ErrNotFound
	}

	return &Address{
		CEP:          Format(digits),
		Street:       body.Logradouro,
		Neighborhood: body.Bairro,
		City:         body.Localidade,
		State:        body.UF,
	}, nil
}

// ViaCEP has answered both {"erro": true} and {"erro": "true"}.
func flagged(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return strings.EqualFold(t, "true")
	default:
		return false
	}
}

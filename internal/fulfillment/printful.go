package fulfillment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"storefront/internal/config"
	"storefront/internal/logger"
	"storefront/internal/models"
)

// Client talks to the Printful order API. A disabled client (no API key)
// mocks the call and returns no vendor id, so checkouts keep working in
// development.
type Client struct {
	cfg    config.PrintfulConfig
	client *http.Client
	log    *logger.Logger
}

func NewClient(cfg config.PrintfulConfig, httpClient *http.Client, log *logger.Logger) *Client {
	return &Client{cfg: cfg, client: httpClient, log: log}
}

type recipient struct {
	Name        string `json:"name"`
	Address1    string `json:"address1"`
	Address2    string `json:"address2,omitempty"`
	City        string `json:"city"`
	StateCode   string `json:"state_code,omitempty"`
	CountryCode string `json:"country_code"`
	Zip         string `json:"zip"`
	Email       string `json:"email"`
}

type orderItem struct {
	Quantity int        `json:"quantity"`
	Name     string     `json:"name,omitempty"`
	Files    []itemFile `json:"files,omitempty"`
}

type itemFile struct {
	URL string `json:"url"`
}

type createOrderRequest struct {
	Recipient recipient   `json:"recipient"`
	Items     []orderItem `json:"items"`
}

type createOrderResponse struct {
	Code   int `json:"code"`
	Result struct {
		ID int64 `json:"id"`
	} `json:"result"`
}

// CreateOrder forwards a committed order to Printful and returns the
// vendor order id. Runs outside the checkout transaction; failures here
// never unwind the order.
func (c *Client) CreateOrder(ctx context.Context, address *models.ShippingAddress, items []models.OrderItem) (string, error) {
	if !c.cfg.Enabled || c.cfg.APIKey == "" {
		c.log.Info("FULFILLMENT", "Printful disabled, skipping vendor order creation")
		return "", nil
	}
	if address == nil {
		return "", fmt.Errorf("printful order requires a shipping address")
	}

	reqBody := createOrderRequest{
		Recipient: recipient{
			Name:        address.Name,
			Address1:    address.Line1,
			Address2:    address.Line2,
			City:        address.City,
			StateCode:   address.State,
			CountryCode: address.Country,
			Zip:         address.PostalCode,
			Email:       address.Email,
		},
	}

	for _, item := range items {
		pfItem := orderItem{Quantity: item.Quantity}
		if item.CustomDesignURL != "" {
			pfItem.Files = append(pfItem.Files, itemFile{URL: item.CustomDesignURL})
		}
		reqBody.Items = append(reqBody.Items, pfItem)
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to encode printful order: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/orders", bytes.NewBuffer(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create printful request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("printful request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read printful response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("printful returned status %d: %s", resp.StatusCode, string(body))
	}

	var parsed createOrderResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("failed to decode printful response: %w", err)
	}
	if parsed.Result.ID == 0 {
		return "", fmt.Errorf("printful response carried no order id")
	}

	return strconv.FormatInt(parsed.Result.ID, 10), nil
}

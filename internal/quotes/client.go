package quotes

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/avelora/farewatch/internal/domain"
)

// Client samples one price quote per alert from the external quote
// feed. A failed fetch is the caller's concern: the sweep skips the
// alert and retries next cycle.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type quoteResponse struct {
	Price    float64 `json:"price"`
	Currency string  `json:"currency"`
}

// SampleCurrentPrice fetches the current quote for the alert's route
// and departure date.
func (c *Client) SampleCurrentPrice(ctx context.Context, alert domain.PriceAlert) (float64, error) {
	q := url.Values{}
	q.Set("origin", alert.Origin)
	q.Set("destination", alert.Destination)
	q.Set("departure_date", alert.DepartureDate.Format("2006-01-02"))
	if alert.ReturnDate != nil {
		q.Set("return_date", alert.ReturnDate.Format("2006-01-02"))
	}
	q.Set("adults", fmt.Sprintf("%d", alert.Adults))
	q.Set("currency", alert.Currency)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/quotes?"+q.Encode(), nil)
	if err != nil {
		return 0, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("fetch quote: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("quote feed returned status %d", resp.StatusCode)
	}

	var quote quoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&quote); err != nil {
		return 0, fmt.Errorf("decode quote: %w", err)
	}
	if quote.Price <= 0 {
		return 0, fmt.Errorf("quote feed returned non-positive price %v", quote.Price)
	}
	return quote.Price, nil
}

package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// maxBodyBytes caps the payload read from the upstream.
const maxBodyBytes = 8 << 20

type RESTClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewRESTClient(baseURL string, timeout time.Duration) *RESTClient {
	return &RESTClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// GetMarkets fetches one page of /coins/markets and parses it.
// Transport failures, non-2xx statuses and non-array payloads are errors;
// malformed rows are reported in MarketList.Rejected.
func (c *RESTClient) GetMarkets(ctx context.Context, q MarketsQuery) (MarketList, error) {
	if !q.Order.IsValid() {
		return MarketList{}, fmt.Errorf("invalid order: %q", q.Order)
	}
	if q.PerPage <= 0 || q.PerPage > MaxPerPage {
		return MarketList{}, fmt.Errorf("per_page must be in [1, %d], got %d", MaxPerPage, q.PerPage)
	}
	page := q.Page
	if page <= 0 {
		page = 1
	}

	params := url.Values{}
	params.Set("vs_currency", q.VsCurrency)
	params.Set("order", string(q.Order))
	params.Set("per_page", strconv.Itoa(q.PerPage))
	params.Set("page", strconv.Itoa(page))
	endpoint := c.baseURL + "/coins/markets?" + params.Encode()

	// Construct the GET request with context for timeout/cancel support
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return MarketList{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return MarketList{}, fmt.Errorf("making request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return MarketList{}, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return MarketList{}, fmt.Errorf("API request failed with status code %d: %s", resp.StatusCode, errorMessage(body))
	}

	list, err := ParseMarkets(body)
	if err != nil {
		return MarketList{}, fmt.Errorf("decode response: %w", err)
	}
	return list, nil
}

func errorMessage(body []byte) string {
	var e ErrorResponse
	if err := json.Unmarshal(body, &e); err == nil {
		if e.Status.ErrorMessage != "" {
			return e.Status.ErrorMessage
		}
		if e.Error != "" {
			return e.Error
		}
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return msg
}
